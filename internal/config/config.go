package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the gateway reads from the environment.
type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	MarketAPIURL string
	AuthAPIURL   string

	// Poll cadence for the shared market snapshot. The stats view refreshed
	// every 30s and the coin list every 60s in the original client.
	CoinListInterval time.Duration
	StatsInterval    time.Duration

	// Funds a freshly registered account starts with.
	StartingFunds string

	LogLevel string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "coinuser"),
		DBPassword: getEnv("DB_PASSWORD", "coinpass"),
		DBName:     getEnv("DB_NAME", "coin_exchange"),

		MarketAPIURL: getEnv("MARKET_API_URL", "https://jdwd40.com"),
		AuthAPIURL:   getEnv("AUTH_API_URL", "http://localhost:9999"),

		CoinListInterval: time.Duration(getEnvInt("COIN_LIST_INTERVAL_SECONDS", 60)) * time.Second,
		StatsInterval:    time.Duration(getEnvInt("STATS_INTERVAL_SECONDS", 30)) * time.Second,

		StartingFunds: getEnv("STARTING_FUNDS", "1000.00"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// ConnString builds the lib/pq connection string.
func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
