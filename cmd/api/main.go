package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/jdwd40/coin-exchange-gateway/internal/auth"
	"github.com/jdwd40/coin-exchange-gateway/internal/config"
	"github.com/jdwd40/coin-exchange-gateway/internal/handlers"
	"github.com/jdwd40/coin-exchange-gateway/internal/logging"
	"github.com/jdwd40/coin-exchange-gateway/internal/market"
	"github.com/jdwd40/coin-exchange-gateway/internal/store"
	"github.com/jdwd40/coin-exchange-gateway/internal/trade"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults or environment variables")
	}

	cfg := config.Load()
	logger := logging.NewLogger(cfg.LogLevel)

	startingFunds, err := decimal.NewFromString(cfg.StartingFunds)
	if err != nil {
		logger.WithError(err).Fatal("Invalid STARTING_FUNDS")
	}

	// Connect to the external account store
	db, err := store.Connect(cfg.ConnString(), logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to account store")
	}
	defer db.Close()

	accountStore := store.New(db, logger)

	// Market data: one shared poller per data source instead of per-view timers
	marketClient := market.NewClient(cfg.MarketAPIURL, logger)
	poller := market.NewPoller(marketClient, cfg.CoinListInterval, cfg.StatsInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := poller.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start market poller")
	}

	authClient := auth.NewClient(cfg.AuthAPIURL, logger)
	trader := trade.NewTrader(accountStore, poller, logger)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := handlers.New(authClient, poller, marketClient, accountStore, trader, startingFunds, logger)
	handler.Register(router)

	logger.WithField("port", cfg.Port).Info("Server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Failed to start server")
	}
}
