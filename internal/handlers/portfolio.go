package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/jdwd40/coin-exchange-gateway/internal/models"
)

// GetPortfolio handles GET /api/portfolio. Positions and funds are fetched as
// a joined pair; either failure aborts both. Each position's current price is
// then refreshed from the market snapshot and written back to the store, the
// way the portfolio view re-priced holdings on open.
func (h *Handler) GetPortfolio(c *gin.Context) {
	session := sessionFrom(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	positionsCh := make(chan []models.Position, 1)
	accountCh := make(chan *models.Account, 1)
	errCh := make(chan error, 2)

	go func() {
		positions, err := h.store.ListPositions(ctx, session.UserID)
		if err != nil {
			errCh <- err
			return
		}
		positionsCh <- positions
	}()

	go func() {
		account, err := h.store.GetAccount(ctx, session.UserID)
		if err != nil {
			errCh <- err
			return
		}
		accountCh <- account
	}()

	var positions []models.Position
	var account *models.Account
	for i := 0; i < 2; i++ {
		select {
		case positions = <-positionsCh:
		case account = <-accountCh:
		case err := <-errCh:
			cancel()
			h.logger.WithError(err).WithField("user_id", session.UserID).Error("Portfolio fetch failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Unable to load portfolio"})
			return
		}
	}

	positions = h.refreshPositionPrices(ctx, positions)

	items := make([]positionView, 0, len(positions))
	totalValue := account.Funds
	for _, p := range positions {
		totalValue = totalValue.Add(p.TotalValue)
		items = append(items, positionView{
			Position:   p,
			ProfitLoss: profitLoss(p),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"positions":   items,
		"funds":       account.Funds,
		"total_value": totalValue,
	})
}

// positionView decorates a stored position with its derived profit/loss.
type positionView struct {
	models.Position
	ProfitLoss decimal.Decimal `json:"profit_loss"`
}

// refreshPositionPrices overwrites each position's last-seen price with the
// snapshot price and persists the write-back. A coin missing from the
// snapshot keeps its stored price; a failed write-back only logs - the view
// still shows the fresh numbers.
func (h *Handler) refreshPositionPrices(ctx context.Context, positions []models.Position) []models.Position {
	refreshed := make([]models.Position, 0, len(positions))
	for _, p := range positions {
		coin, ok := h.snapshots.CoinByID(p.CoinID)
		if ok && !coin.CurrentPrice.Equal(p.CurrentPrice) {
			p.CurrentPrice = coin.CurrentPrice
			p.TotalValue = p.AmountHeld.Mul(coin.CurrentPrice)

			if err := h.store.UpdatePositionPrice(ctx, p.UserID, p.CoinID,
				p.CurrentPrice, p.TotalValue); err != nil {
				h.logger.WithError(err).WithFields(logrus.Fields{
					"user_id": p.UserID,
					"coin_id": p.CoinID,
				}).Warn("Position price write-back failed")
			}
		}
		refreshed = append(refreshed, p)
	}
	return refreshed
}

// profitLoss is exported through the portfolio response when the acquisition
// price is known.
func profitLoss(p models.Position) decimal.Decimal {
	return p.CurrentPrice.Sub(p.PriceBought).Mul(p.AmountHeld)
}
