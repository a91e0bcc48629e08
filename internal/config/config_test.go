package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "MARKET_API_URL", "COIN_LIST_INTERVAL_SECONDS",
		"STATS_INTERVAL_SECONDS", "STARTING_FUNDS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://jdwd40.com", cfg.MarketAPIURL)
	assert.Equal(t, 60*time.Second, cfg.CoinListInterval)
	assert.Equal(t, 30*time.Second, cfg.StatsInterval)
	assert.Equal(t, "1000.00", cfg.StartingFunds)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STATS_INTERVAL_SECONDS", "10")
	t.Setenv("STARTING_FUNDS", "500.00")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.StatsInterval)
	assert.Equal(t, "500.00", cfg.StartingFunds)
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("STATS_INTERVAL_SECONDS", "soon")

	cfg := Load()
	assert.Equal(t, 30*time.Second, cfg.StatsInterval)
}

func TestConnString(t *testing.T) {
	cfg := &Config{
		DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "coins",
	}
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=coins sslmode=disable",
		cfg.ConnString())
}
