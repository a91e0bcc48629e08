package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coin is the list-view shape returned by GET /api/coins on the market API.
// Decimal fields travel as JSON text; shopspring's default marshalling keeps it that way.
type Coin struct {
	CoinID       int             `json:"coin_id"`
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	MarketCap    decimal.Decimal `json:"market_cap"`
	Supply       decimal.Decimal `json:"supply"`
}

// CoinDetail is the single-coin shape from GET /api/coins/:id, including the
// transient market-event fields the exchange attaches while an event is running.
type CoinDetail struct {
	CoinID       int             `json:"coin_id"`
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	MarketCap    decimal.Decimal `json:"market_cap"`
	Supply       decimal.Decimal `json:"supply"`
	DateAdded    string          `json:"date_added"`
	Description  string          `json:"description"`
	AllTimeHigh  decimal.Decimal `json:"allTimeHigh"`

	Last5MinsValue   decimal.Decimal `json:"last5minsValue"`
	Percentage5Mins  string          `json:"percentage5mins"`
	Last10MinsValue  decimal.Decimal `json:"last10minsValue"`
	Percentage10Mins string          `json:"percentage10mins"`
	Last30MinsValue  decimal.Decimal `json:"last30minsValue"`
	Percentage30Mins string          `json:"percentage30mins"`

	EventType         string `json:"eventType"`
	CoinEventPositive bool   `json:"coinEventPositive"`
	EventDuration     string `json:"eventDuration"`
	EventImpact       string `json:"eventImpact"`
}

// PriceHistoryPoint is one chart point from GET /api/history/:coin_id.
// Append-only upstream; read-only here.
type PriceHistoryPoint struct {
	HistoryID int             `json:"history_id"`
	CoinID    int             `json:"coin_id"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// MarketEvent is the market-wide event banner, nil when nothing is running.
type MarketEvent struct {
	Type      string  `json:"type"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	TimeLeft  float64 `json:"time_left"`
}

// MarketStats is the aggregate snapshot from GET /api/stats.
type MarketStats struct {
	Event                *MarketEvent    `json:"event"`
	MarketValue          decimal.Decimal `json:"marketValue"`
	Last5MinsMarketValue decimal.Decimal `json:"last5minsMarketValue"`
	Percentage5Mins      string          `json:"percentage5mins"`
	Last10MinsValue      decimal.Decimal `json:"last10minsMarketValue"`
	Percentage10Mins     string          `json:"percentage10mins"`
	Last30MinsValue      decimal.Decimal `json:"last30minsMarketValue"`
	Percentage30Mins     string          `json:"percentage30mins"`
	Top3Coins            []TopCoin       `json:"top3Coins"`
	AllTimeHigh          decimal.Decimal `json:"allTimeHigh"`
	MarketTotal          decimal.Decimal `json:"marketTotal"`
}

// TopCoin is one entry of the stats top-performers list.
type TopCoin struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Account is a user's row in the external account store. Funds are mutated
// only by the buy/sell flows.
type Account struct {
	UserID    uuid.UUID       `json:"user_id"`
	Funds     decimal.Decimal `json:"funds"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Position is a user's holding of one coin. One row per (user, coin);
// deleted when the held amount reaches exactly zero.
type Position struct {
	UserID       uuid.UUID       `json:"user_id"`
	CoinID       int             `json:"coin_id"`
	CoinName     string          `json:"coin_name"`
	AmountHeld   decimal.Decimal `json:"amount_held"`
	PriceBought  decimal.Decimal `json:"price_bought"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	TotalValue   decimal.Decimal `json:"total_value"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// BuyRequest - what the client sends to buy coins. Amount stays a string so
// the flow owns parsing and rejection, same as the original form input.
type BuyRequest struct {
	CoinID int    `json:"coin_id" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// SellRequest - what the client sends to sell coins.
type SellRequest struct {
	CoinID int    `json:"coin_id" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}
