// Package view holds the pure view-state transforms behind the coin table
// and stats banner: sorting, currency and percentage formatting, and the
// trend direction derived from a percentage's sign.
package view

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jdwd40/coin-exchange-gateway/internal/models"
)

// SortField names a sortable coin-table column.
type SortField string

const (
	SortByName      SortField = "name"
	SortBySymbol    SortField = "symbol"
	SortByPrice     SortField = "price"
	SortByMarketCap SortField = "market_cap"
	SortBySupply    SortField = "supply"
)

// Trend is the visual direction indicator for a percentage change.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// SortCoins orders a copy of coins by the selected field. The order is total
// over the field; ties keep the incoming array order.
func SortCoins(coins []models.Coin, field SortField, descending bool) []models.Coin {
	sorted := make([]models.Coin, len(coins))
	copy(sorted, coins)

	sort.SliceStable(sorted, func(i, j int) bool {
		var less bool
		switch field {
		case SortByName:
			less = strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
		case SortBySymbol:
			less = strings.ToLower(sorted[i].Symbol) < strings.ToLower(sorted[j].Symbol)
		case SortByPrice:
			less = sorted[i].CurrentPrice.LessThan(sorted[j].CurrentPrice)
		case SortBySupply:
			less = sorted[i].Supply.LessThan(sorted[j].Supply)
		default: // market_cap
			less = sorted[i].MarketCap.LessThan(sorted[j].MarketCap)
		}
		if descending {
			return !less && !fieldEqual(sorted[i], sorted[j], field)
		}
		return less
	})
	return sorted
}

func fieldEqual(a, b models.Coin, field SortField) bool {
	switch field {
	case SortByName:
		return strings.EqualFold(a.Name, b.Name)
	case SortBySymbol:
		return strings.EqualFold(a.Symbol, b.Symbol)
	case SortByPrice:
		return a.CurrentPrice.Equal(b.CurrentPrice)
	case SortBySupply:
		return a.Supply.Equal(b.Supply)
	default:
		return a.MarketCap.Equal(b.MarketCap)
	}
}

// ParseSortField maps a query value to a sort field, defaulting to market cap
// as the original table did.
func ParseSortField(s string) SortField {
	switch SortField(s) {
	case SortByName, SortBySymbol, SortByPrice, SortBySupply, SortByMarketCap:
		return SortField(s)
	default:
		return SortByMarketCap
	}
}

// FormatGBP renders a money value the way the UI showed it: pound sign, two
// decimal places.
func FormatGBP(d decimal.Decimal) string {
	return "£" + d.StringFixed(2)
}

// TrendOf maps a percentage string's sign to a direction indicator.
// Unparseable input counts as flat.
func TrendOf(percentage string) Trend {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(percentage), "%"), 64)
	if err != nil || v == 0 {
		return TrendFlat
	}
	if v > 0 {
		return TrendUp
	}
	return TrendDown
}

// FormatPercentage normalizes a raw percentage string to a signed two-decimal
// figure with a trailing percent sign.
func FormatPercentage(percentage string) string {
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(percentage), "%"), 64)
	if err != nil || v == 0 {
		// v == 0 also swallows negative zero, which would render "-0.00%"
		return "0.00%"
	}
	if v > 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}
