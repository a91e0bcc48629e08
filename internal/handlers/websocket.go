package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// PriceUpdate is one pushed coin price change.
type PriceUpdate struct {
	CoinID    int             `json:"coin_id"`
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins (browser front end runs elsewhere)
	},
}

// HandleWebSocket streams price changes from the market snapshot to the
// client, replacing the original per-component polling. Only coins whose
// price actually moved since the last push are sent, so an unchanged
// snapshot produces no traffic.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Error("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	h.logger.Info("Client connected to price stream")

	lastSent := make(map[int]decimal.Decimal)

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()

	// The stream never expects client frames; the read pump exists so a
	// disconnect is noticed even when no price has moved.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-clientGone:
			h.logger.Debug("Price stream client disconnected")
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			snapshot := h.snapshots.Coins()
			if snapshot.Data == nil {
				continue
			}

			now := time.Now()
			for _, coin := range snapshot.Data {
				prev, seen := lastSent[coin.CoinID]
				if seen && prev.Equal(coin.CurrentPrice) {
					continue
				}
				lastSent[coin.CoinID] = coin.CurrentPrice

				update := PriceUpdate{
					CoinID:    coin.CoinID,
					Symbol:    coin.Symbol,
					Price:     coin.CurrentPrice,
					Timestamp: now,
				}
				if err := conn.WriteJSON(update); err != nil {
					h.logger.WithError(err).Debug("Price stream client gone")
					return
				}
			}
		}
	}
}
