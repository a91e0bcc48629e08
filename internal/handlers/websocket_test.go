package handlers

import (
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdwd40/coin-exchange-gateway/internal/models"
)

func dialPriceStream(t *testing.T, router *gin.Engine) (*websocket.Conn, *httptest.Server) {
	server := httptest.NewServer(router)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/prices"

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, server
}

func readUpdate(t *testing.T, conn *websocket.Conn) PriceUpdate {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var update PriceUpdate
	require.NoError(t, conn.ReadJSON(&update))
	return update
}

func TestPriceStream_UnchangedSnapshotSendsNoFrames(t *testing.T) {
	f := setup(t)
	f.handler.streamInterval = 20 * time.Millisecond

	conn, server := dialPriceStream(t, f.router)
	defer server.Close()
	defer conn.Close()

	// First tick pushes every coin once
	seen := map[int]decimal.Decimal{}
	for i := 0; i < 2; i++ {
		update := readUpdate(t, conn)
		seen[update.CoinID] = update.Price
	}
	assert.True(t, seen[1].Equal(decimal.RequireFromString("50000")))
	assert.True(t, seen[2].Equal(decimal.RequireFromString("3000")))

	// Several more ticks over the same prices push nothing
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	var update PriceUpdate
	err := conn.ReadJSON(&update)
	require.Error(t, err)
	netErr, ok := err.(net.Error)
	require.True(t, ok)
	assert.True(t, netErr.Timeout())
}

func TestPriceStream_PushesMovedPrice(t *testing.T) {
	f := setup(t)
	f.handler.streamInterval = 20 * time.Millisecond

	conn, server := dialPriceStream(t, f.router)
	defer server.Close()
	defer conn.Close()

	for i := 0; i < 2; i++ {
		readUpdate(t, conn)
	}

	f.market.setPrice(1, decimal.RequireFromString("51000"))

	update := readUpdate(t, conn)
	assert.Equal(t, 1, update.CoinID)
	assert.Equal(t, "BTC", update.Symbol)
	assert.True(t, update.Price.Equal(decimal.RequireFromString("51000")))
}

func TestPriceStream_ClientDisconnectStopsStream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	snapshots := &fakeMarket{coins: []models.Coin{
		{CoinID: 1, Name: "Bitcoin", Symbol: "BTC",
			CurrentPrice: decimal.RequireFromString("50000"),
			MarketCap:    decimal.RequireFromString("900"),
			Supply:       decimal.RequireFromString("21")},
	}}
	handler := New(&fakeAuth{}, snapshots, &fakeDetail{}, &fakeStore{}, &fakeTrader{},
		decimal.Zero, logger)
	handler.streamInterval = 20 * time.Millisecond

	router := gin.New()
	handler.Register(router)

	conn, server := dialPriceStream(t, router)
	defer server.Close()

	readUpdate(t, conn)
	conn.Close()

	// The price never moves again, so only the read pump can notice the
	// disconnect and end the handler.
	require.Eventually(t, func() bool {
		for _, entry := range hook.AllEntries() {
			if entry.Message == "Price stream client disconnected" {
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
}
