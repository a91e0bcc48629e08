package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/jdwd40/coin-exchange-gateway/internal/auth"
	"github.com/jdwd40/coin-exchange-gateway/internal/models"
)

// Flow rejections, each one of the original user-facing reasons. All are
// raised before any write reaches the account store.
var (
	ErrNotAuthenticated  = errors.New("user not authenticated")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInsufficientCoins = errors.New("insufficient coins")
)

// AccountStore is the slice of the store client the flows write through.
type AccountStore interface {
	GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	UpdateBalance(ctx context.Context, userID uuid.UUID, funds decimal.Decimal) error
	GetPosition(ctx context.Context, userID uuid.UUID, coinID int) (*models.Position, error)
	InsertPosition(ctx context.Context, p models.Position) error
	UpdatePosition(ctx context.Context, userID uuid.UUID, coinID int,
		amount, currentPrice, totalValue decimal.Decimal, updatedAt time.Time) error
	DeletePosition(ctx context.Context, userID uuid.UUID, coinID int) error
}

// PriceSource supplies the single price a whole flow runs at. The price is
// whatever the source last saw; there is no re-check at commit time.
type PriceSource interface {
	CurrentPrice(ctx context.Context, coinID int) (models.Coin, error)
}

// Result is what a committed flow hands back for immediate view reflection.
// No authoritative re-read happens after the final write.
type Result struct {
	Coin       models.Coin     `json:"coin"`
	Amount     decimal.Decimal `json:"amount"`
	Total      decimal.Decimal `json:"total"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// Trader runs the purchase and liquidation flows against the external
// account store. The store offers no transactions, so each flow is a strict
// sequence of discrete writes with a best-effort compensating write when a
// later step fails.
type Trader struct {
	store  AccountStore
	prices PriceSource
	locks  *userLocks
	logger *logrus.Logger
}

func NewTrader(store AccountStore, prices PriceSource, logger *logrus.Logger) *Trader {
	return &Trader{
		store:  store,
		prices: prices,
		locks:  newUserLocks(),
		logger: logger,
	}
}

// Buy purchases amountText of a coin for the session's user: debit the
// balance, then create or grow the position. If the position write fails the
// debit is compensated, so the flow either commits fully or leaves no
// observable change (barring a failed compensation, which is logged).
func (t *Trader) Buy(ctx context.Context, session *auth.Session, coinID int, amountText string) (*Result, error) {
	amount, err := t.validate(session, coinID, amountText)
	if err != nil {
		return nil, err
	}

	t.locks.Lock(session.UserID)
	defer t.locks.Unlock(session.UserID)

	coin, err := t.prices.CurrentPrice(ctx, coinID)
	if err != nil {
		return nil, fmt.Errorf("purchase failed: %w", err)
	}

	account, err := t.store.GetAccount(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("purchase failed: %w", err)
	}

	cost := coin.CurrentPrice.Mul(amount)
	if cost.GreaterThan(account.Funds) {
		return nil, ErrInsufficientFunds
	}

	// 1. Debit. If this fails nothing has changed.
	newBalance := account.Funds.Sub(cost)
	if err := t.store.UpdateBalance(ctx, session.UserID, newBalance); err != nil {
		return nil, fmt.Errorf("purchase failed: %w", err)
	}

	// 2. Create or grow the position. Any failure past the debit rolls the
	// balance back to its pre-debit value.
	if err := t.upsertPosition(ctx, session.UserID, coin, amount); err != nil {
		t.compensateBalance(ctx, session.UserID, account.Funds)
		return nil, fmt.Errorf("purchase failed: %w", err)
	}

	t.logger.WithFields(logrus.Fields{
		"user_id": session.UserID,
		"coin":    coin.Symbol,
		"amount":  amount,
		"cost":    cost,
	}).Info("Purchase committed")

	return &Result{
		Coin:       coin,
		Amount:     amount,
		Total:      cost,
		NewBalance: newBalance,
	}, nil
}

// Sell liquidates amountText of a held coin: shrink or delete the position,
// then credit the proceeds. If the credit fails after the position write, the
// position is restored to its pre-sale state, mirroring the buy path.
func (t *Trader) Sell(ctx context.Context, session *auth.Session, coinID int, amountText string) (*Result, error) {
	amount, err := t.validate(session, coinID, amountText)
	if err != nil {
		return nil, err
	}

	t.locks.Lock(session.UserID)
	defer t.locks.Unlock(session.UserID)

	coin, err := t.prices.CurrentPrice(ctx, coinID)
	if err != nil {
		return nil, fmt.Errorf("sale failed: %w", err)
	}

	position, err := t.store.GetPosition(ctx, session.UserID, coinID)
	if err != nil {
		return nil, fmt.Errorf("sale failed: %w", err)
	}
	if position == nil || amount.GreaterThan(position.AmountHeld) {
		return nil, ErrInsufficientCoins
	}

	account, err := t.store.GetAccount(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("sale failed: %w", err)
	}

	proceeds := coin.CurrentPrice.Mul(amount)
	remaining := position.AmountHeld.Sub(amount)

	// 1. Shrink or delete the position. Exactly zero removes the row.
	if remaining.IsZero() {
		err = t.store.DeletePosition(ctx, session.UserID, coinID)
	} else {
		err = t.store.UpdatePosition(ctx, session.UserID, coinID,
			remaining, coin.CurrentPrice, remaining.Mul(coin.CurrentPrice), time.Now())
	}
	if err != nil {
		return nil, fmt.Errorf("sale failed: %w", err)
	}

	// 2. Credit the proceeds. A failed credit after the position write would
	// strand sold coins, so the position is put back, best-effort.
	newBalance := account.Funds.Add(proceeds)
	if err := t.store.UpdateBalance(ctx, session.UserID, newBalance); err != nil {
		t.compensatePosition(ctx, *position)
		return nil, fmt.Errorf("sale failed: %w", err)
	}

	t.logger.WithFields(logrus.Fields{
		"user_id":  session.UserID,
		"coin":     coin.Symbol,
		"amount":   amount,
		"proceeds": proceeds,
	}).Info("Sale committed")

	return &Result{
		Coin:       coin,
		Amount:     amount,
		Total:      proceeds,
		NewBalance: newBalance,
	}, nil
}

// validate is the shared rejection ladder. Nothing here touches the network,
// so a rejected request has no side effect at all.
func (t *Trader) validate(session *auth.Session, coinID int, amountText string) (decimal.Decimal, error) {
	if session == nil {
		return decimal.Zero, ErrNotAuthenticated
	}
	if coinID <= 0 || amountText == "" {
		return decimal.Zero, ErrInvalidInput
	}

	amount, err := decimal.NewFromString(amountText)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

func (t *Trader) upsertPosition(ctx context.Context, userID uuid.UUID, coin models.Coin, amount decimal.Decimal) error {
	existing, err := t.store.GetPosition(ctx, userID, coin.CoinID)
	if err != nil {
		return err
	}

	now := time.Now()
	if existing != nil {
		newAmount := existing.AmountHeld.Add(amount)
		return t.store.UpdatePosition(ctx, userID, coin.CoinID,
			newAmount, coin.CurrentPrice, newAmount.Mul(coin.CurrentPrice), now)
	}

	return t.store.InsertPosition(ctx, models.Position{
		UserID:       userID,
		CoinID:       coin.CoinID,
		CoinName:     coin.Name,
		AmountHeld:   amount,
		PriceBought:  coin.CurrentPrice,
		CurrentPrice: coin.CurrentPrice,
		TotalValue:   amount.Mul(coin.CurrentPrice),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// compensateBalance writes the pre-debit balance back. The compensation is
// itself unverified; if it fails the account is left debited with no matching
// position, and the inconsistency is logged.
func (t *Trader) compensateBalance(ctx context.Context, userID uuid.UUID, funds decimal.Decimal) {
	if err := t.store.UpdateBalance(ctx, userID, funds); err != nil {
		t.logger.WithError(err).WithField("user_id", userID).
			Error("Compensating balance write failed; account left debited without position")
	}
}

// compensatePosition restores a position after a failed credit: re-insert if
// the sale deleted it, otherwise write the pre-sale amounts back.
func (t *Trader) compensatePosition(ctx context.Context, p models.Position) {
	ctxErr := func(err error) {
		t.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": p.UserID,
			"coin_id": p.CoinID,
		}).Error("Compensating position write failed; coins sold without credit")
	}

	existing, err := t.store.GetPosition(ctx, p.UserID, p.CoinID)
	if err != nil {
		ctxErr(err)
		return
	}

	if existing == nil {
		if err := t.store.InsertPosition(ctx, p); err != nil {
			ctxErr(err)
		}
		return
	}

	if err := t.store.UpdatePosition(ctx, p.UserID, p.CoinID,
		p.AmountHeld, p.CurrentPrice, p.TotalValue, time.Now()); err != nil {
		ctxErr(err)
	}
}
