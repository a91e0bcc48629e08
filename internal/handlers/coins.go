package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jdwd40/coin-exchange-gateway/internal/view"
)

// ListCoins handles GET /api/coins?sort=&dir=. Served from the shared
// snapshot; a stale snapshot still serves its last good data with a flag.
func (h *Handler) ListCoins(c *gin.Context) {
	snapshot := h.snapshots.Coins()
	if snapshot.Data == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Market data unavailable"})
		return
	}

	field := view.ParseSortField(c.DefaultQuery("sort", "market_cap"))
	descending := c.DefaultQuery("dir", "desc") != "asc"

	c.JSON(http.StatusOK, gin.H{
		"coins":      view.SortCoins(snapshot.Data, field, descending),
		"fetched_at": snapshot.FetchedAt,
		"stale":      snapshot.Stale(),
	})
}

// GetCoin handles GET /api/coins/:id - the detail view's parallel pair of
// coin detail and price history, joined before responding.
func (h *Handler) GetCoin(c *gin.Context) {
	coinID, err := strconv.Atoi(c.Param("id"))
	if err != nil || coinID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coin id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), DefaultTimeout)
	defer cancel()

	pair, err := h.detail.GetCoinWithHistory(ctx, coinID)
	if err != nil {
		h.logger.WithError(err).WithField("coin_id", coinID).Error("Coin detail fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Unable to load coin data"})
		return
	}

	c.JSON(http.StatusOK, pair)
}

// GetStats handles GET /api/stats. The banner carries the pre-formatted
// figures and trend directions the stats view rendered.
func (h *Handler) GetStats(c *gin.Context) {
	snapshot := h.snapshots.Stats()
	if snapshot.Data == nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Market stats unavailable"})
		return
	}

	stats := snapshot.Data
	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
		"banner": gin.H{
			"market_value": view.FormatGBP(stats.MarketValue),
			"change_5m":    view.FormatPercentage(stats.Percentage5Mins),
			"trend_5m":     view.TrendOf(stats.Percentage5Mins),
			"change_30m":   view.FormatPercentage(stats.Percentage30Mins),
			"trend_30m":    view.TrendOf(stats.Percentage30Mins),
		},
		"fetched_at": snapshot.FetchedAt,
		"stale":      snapshot.Stale(),
	})
}
