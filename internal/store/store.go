package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/jdwd40/coin-exchange-gateway/internal/models"
)

// ErrAccountNotFound is returned when a user has no account row.
var ErrAccountNotFound = errors.New("account not found")

// Store is the client for the external relational store holding accounts and
// positions. Every method is one discrete round trip; the store exposes no
// multi-row transaction, so callers that need multi-step consistency get it
// from the flow layer's compensating writes instead.
type Store struct {
	db     *sql.DB
	logger *logrus.Logger
}

func New(db *sql.DB, logger *logrus.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// CreateAccount provisions a fresh account with the starting balance.
func (s *Store) CreateAccount(ctx context.Context, userID uuid.UUID, funds decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO accounts (user_id, funds, created_at, updated_at)
        VALUES ($1, $2, NOW(), NOW())
    `, userID, funds)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"funds":   funds,
	}).Info("Account created")
	return nil
}

// GetAccount reads a user's account row.
func (s *Store) GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := s.db.QueryRowContext(ctx, `
        SELECT user_id, funds, created_at, updated_at
        FROM accounts
        WHERE user_id = $1
    `, userID).Scan(&account.UserID, &account.Funds, &account.CreatedAt, &account.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// UpdateBalance writes an absolute new balance, matching the original
// read-then-overwrite semantics of the flows.
func (s *Store) UpdateBalance(ctx context.Context, userID uuid.UUID, funds decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx, `
        UPDATE accounts SET funds = $1, updated_at = NOW() WHERE user_id = $2
    `, funds, userID)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// GetPosition reads a user's holding of one coin. A missing row is returned
// as (nil, nil) so the flows can choose insert vs. update.
func (s *Store) GetPosition(ctx context.Context, userID uuid.UUID, coinID int) (*models.Position, error) {
	var p models.Position
	err := s.db.QueryRowContext(ctx, `
        SELECT user_id, coin_id, coin_name, amount_held, price_bought,
               current_price, total_value, created_at, updated_at
        FROM positions
        WHERE user_id = $1 AND coin_id = $2
    `, userID, coinID).Scan(
		&p.UserID, &p.CoinID, &p.CoinName, &p.AmountHeld, &p.PriceBought,
		&p.CurrentPrice, &p.TotalValue, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return &p, nil
}

// ListPositions reads all of a user's holdings.
func (s *Store) ListPositions(ctx context.Context, userID uuid.UUID) ([]models.Position, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT user_id, coin_id, coin_name, amount_held, price_bought,
               current_price, total_value, created_at, updated_at
        FROM positions
        WHERE user_id = $1
        ORDER BY coin_name
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	positions := make([]models.Position, 0)
	for rows.Next() {
		var p models.Position
		err := rows.Scan(
			&p.UserID, &p.CoinID, &p.CoinName, &p.AmountHeld, &p.PriceBought,
			&p.CurrentPrice, &p.TotalValue, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			s.logger.WithError(err).Error("Failed to scan position")
			continue
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// InsertPosition creates the (user, coin) row. The unique constraint backstops
// the flows' read-before-write uniqueness check.
func (s *Store) InsertPosition(ctx context.Context, p models.Position) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO positions (user_id, coin_id, coin_name, amount_held, price_bought,
                               current_price, total_value, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, p.UserID, p.CoinID, p.CoinName, p.AmountHeld, p.PriceBought,
		p.CurrentPrice, p.TotalValue, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert position: %w", err)
	}
	return nil
}

// UpdatePosition overwrites the held amount, current price and derived total.
func (s *Store) UpdatePosition(ctx context.Context, userID uuid.UUID, coinID int,
	amount, currentPrice, totalValue decimal.Decimal, updatedAt time.Time) error {

	_, err := s.db.ExecContext(ctx, `
        UPDATE positions
        SET amount_held = $1, current_price = $2, total_value = $3, updated_at = $4
        WHERE user_id = $5 AND coin_id = $6
    `, amount, currentPrice, totalValue, updatedAt, userID, coinID)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	return nil
}

// UpdatePositionPrice writes back a refreshed current price and total value,
// as the portfolio view does after re-pricing holdings.
func (s *Store) UpdatePositionPrice(ctx context.Context, userID uuid.UUID, coinID int,
	currentPrice, totalValue decimal.Decimal) error {

	_, err := s.db.ExecContext(ctx, `
        UPDATE positions
        SET current_price = $1, total_value = $2, updated_at = NOW()
        WHERE user_id = $3 AND coin_id = $4
    `, currentPrice, totalValue, userID, coinID)
	if err != nil {
		return fmt.Errorf("failed to refresh position price: %w", err)
	}
	return nil
}

// DeletePosition removes the row once the held amount reaches exactly zero.
func (s *Store) DeletePosition(ctx context.Context, userID uuid.UUID, coinID int) error {
	_, err := s.db.ExecContext(ctx, `
        DELETE FROM positions WHERE user_id = $1 AND coin_id = $2
    `, userID, coinID)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	return nil
}
