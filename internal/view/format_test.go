package view

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jdwd40/coin-exchange-gateway/internal/models"
)

func coin(id int, name, symbol, price, marketCap string) models.Coin {
	return models.Coin{
		CoinID:       id,
		Name:         name,
		Symbol:       symbol,
		CurrentPrice: decimal.RequireFromString(price),
		MarketCap:    decimal.RequireFromString(marketCap),
		Supply:       decimal.NewFromInt(1000),
	}
}

func TestSortCoins_ByPrice(t *testing.T) {
	coins := []models.Coin{
		coin(1, "Bitcoin", "BTC", "50000", "300"),
		coin(2, "Cardano", "ADA", "1.50", "100"),
		coin(3, "Ethereum", "ETH", "3000", "200"),
	}

	asc := SortCoins(coins, SortByPrice, false)
	assert.Equal(t, []int{2, 3, 1}, ids(asc))

	desc := SortCoins(coins, SortByPrice, true)
	assert.Equal(t, []int{1, 3, 2}, ids(desc))

	// Input order untouched
	assert.Equal(t, []int{1, 2, 3}, ids(coins))
}

func TestSortCoins_ByName(t *testing.T) {
	coins := []models.Coin{
		coin(1, "ethereum", "ETH", "1", "1"),
		coin(2, "Bitcoin", "BTC", "1", "1"),
		coin(3, "Cardano", "ADA", "1", "1"),
	}

	sorted := SortCoins(coins, SortByName, false)
	assert.Equal(t, []int{2, 3, 1}, ids(sorted))
}

func TestSortCoins_TiesKeepArrayOrder(t *testing.T) {
	coins := []models.Coin{
		coin(1, "Alpha", "AAA", "10", "500"),
		coin(2, "Beta", "BBB", "10", "500"),
		coin(3, "Gamma", "CCC", "10", "500"),
		coin(4, "Delta", "DDD", "5", "500"),
	}

	asc := SortCoins(coins, SortByPrice, false)
	assert.Equal(t, []int{4, 1, 2, 3}, ids(asc))

	// Descending must not reverse equal elements either
	desc := SortCoins(coins, SortByPrice, true)
	assert.Equal(t, []int{1, 2, 3, 4}, ids(desc))

	// A fully tied field degenerates to the original order both ways
	tied := SortCoins(coins, SortByMarketCap, true)
	assert.Equal(t, []int{1, 2, 3, 4}, ids(tied))
}

func TestParseSortField(t *testing.T) {
	assert.Equal(t, SortByPrice, ParseSortField("price"))
	assert.Equal(t, SortByName, ParseSortField("name"))
	assert.Equal(t, SortByMarketCap, ParseSortField(""))
	assert.Equal(t, SortByMarketCap, ParseSortField("nonsense"))
}

func TestFormatGBP(t *testing.T) {
	assert.Equal(t, "£1000.00", FormatGBP(decimal.RequireFromString("1000")))
	assert.Equal(t, "£0.50", FormatGBP(decimal.RequireFromString("0.5")))
	assert.Equal(t, "£-12.35", FormatGBP(decimal.RequireFromString("-12.345")))
}

func TestTrendOf(t *testing.T) {
	assert.Equal(t, TrendUp, TrendOf("2.50"))
	assert.Equal(t, TrendUp, TrendOf("+0.01%"))
	assert.Equal(t, TrendDown, TrendOf("-1.2"))
	assert.Equal(t, TrendFlat, TrendOf("0"))
	assert.Equal(t, TrendFlat, TrendOf("n/a"))
	assert.Equal(t, TrendFlat, TrendOf(""))
}

func TestFormatPercentage(t *testing.T) {
	assert.Equal(t, "+2.50%", FormatPercentage("2.5"))
	assert.Equal(t, "-1.20%", FormatPercentage("-1.2%"))
	assert.Equal(t, "0.00%", FormatPercentage("garbage"))
	assert.Equal(t, "0.00%", FormatPercentage("0"))
	assert.Equal(t, "0.00%", FormatPercentage("-0"))
	assert.Equal(t, "0.00%", FormatPercentage("-0.00%"))
}

func ids(coins []models.Coin) []int {
	out := make([]int, len(coins))
	for i, c := range coins {
		out[i] = c.CoinID
	}
	return out
}
