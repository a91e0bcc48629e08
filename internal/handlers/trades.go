package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jdwd40/coin-exchange-gateway/internal/models"
	"github.com/jdwd40/coin-exchange-gateway/internal/trade"
)

// Buy handles POST /api/trades/buy.
func (h *Handler) Buy(c *gin.Context) {
	var req models.BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	result, err := h.trader.Buy(ctx, sessionFrom(c), req.CoinID, req.Amount)
	if err != nil {
		h.rejectTrade(c, err, "Purchase failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Purchase successful",
		"coin":        result.Coin.Symbol,
		"amount":      result.Amount,
		"total_cost":  result.Total,
		"new_balance": result.NewBalance,
	})
}

// Sell handles POST /api/trades/sell.
func (h *Handler) Sell(c *gin.Context) {
	var req models.SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	result, err := h.trader.Sell(ctx, sessionFrom(c), req.CoinID, req.Amount)
	if err != nil {
		h.rejectTrade(c, err, "Sale failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Sale successful",
		"coin":           result.Coin.Symbol,
		"amount":         result.Amount,
		"total_proceeds": result.Total,
		"new_balance":    result.NewBalance,
	})
}

// rejectTrade maps flow errors to status codes: validation rejections are the
// caller's fault, everything else is a failed remote flow.
func (h *Handler) rejectTrade(c *gin.Context, err error, failureMessage string) {
	switch {
	case errors.Is(err, trade.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	case errors.Is(err, trade.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please select a coin and enter an amount"})
	case errors.Is(err, trade.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid positive number"})
	case errors.Is(err, trade.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You do not have enough funds for this purchase"})
	case errors.Is(err, trade.ErrInsufficientCoins):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot sell more coins than you own"})
	default:
		h.logger.WithError(err).Error("Trade flow failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": failureMessage, "detail": err.Error()})
	}
}
