package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/jdwd40/coin-exchange-gateway/internal/auth"
	"github.com/jdwd40/coin-exchange-gateway/internal/market"
	"github.com/jdwd40/coin-exchange-gateway/internal/models"
	"github.com/jdwd40/coin-exchange-gateway/internal/trade"
)

// DefaultTimeout bounds each request's downstream calls.
const DefaultTimeout = 10 * time.Second

// AuthService is the slice of the auth-provider client the handlers use.
type AuthService interface {
	SignUp(ctx context.Context, email, password string) (*auth.Session, error)
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context, token string) error
	Lookup(ctx context.Context, token string) (*auth.Session, error)
}

// MarketSource serves the shared snapshots the list and stats views render.
type MarketSource interface {
	Coins() market.Snapshot[[]models.Coin]
	Stats() market.Snapshot[*models.MarketStats]
	CoinByID(coinID int) (models.Coin, bool)
}

// DetailFetcher serves the coin modal's parallel detail+history pair.
type DetailFetcher interface {
	GetCoinWithHistory(ctx context.Context, coinID int) (*market.CoinWithHistory, error)
}

// PortfolioStore is the slice of the account store the read views use.
type PortfolioStore interface {
	CreateAccount(ctx context.Context, userID uuid.UUID, funds decimal.Decimal) error
	GetAccount(ctx context.Context, userID uuid.UUID) (*models.Account, error)
	ListPositions(ctx context.Context, userID uuid.UUID) ([]models.Position, error)
	UpdatePositionPrice(ctx context.Context, userID uuid.UUID, coinID int,
		currentPrice, totalValue decimal.Decimal) error
}

// TradeRunner drives the purchase and liquidation flows.
type TradeRunner interface {
	Buy(ctx context.Context, session *auth.Session, coinID int, amountText string) (*trade.Result, error)
	Sell(ctx context.Context, session *auth.Session, coinID int, amountText string) (*trade.Result, error)
}

// Handler wires the gateway's HTTP surface.
type Handler struct {
	auth          AuthService
	snapshots     MarketSource
	detail        DetailFetcher
	store         PortfolioStore
	trader        TradeRunner
	startingFunds decimal.Decimal
	logger        *logrus.Logger

	// Interval between price-stream pushes. Tests shorten it.
	streamInterval time.Duration
}

func New(authSvc AuthService, snapshots MarketSource, detail DetailFetcher,
	store PortfolioStore, trader TradeRunner, startingFunds decimal.Decimal,
	logger *logrus.Logger) *Handler {

	return &Handler{
		auth:           authSvc,
		snapshots:      snapshots,
		detail:         detail,
		store:          store,
		trader:         trader,
		startingFunds:  startingFunds,
		logger:         logger,
		streamInterval: 2 * time.Second,
	}
}

// Register mounts all routes on the router.
func (h *Handler) Register(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/auth/register", h.RegisterUser)
		api.POST("/auth/login", h.Login)

		api.GET("/coins", h.ListCoins)
		api.GET("/coins/:id", h.GetCoin)
		api.GET("/stats", h.GetStats)

		authed := api.Group("", h.AuthRequired())
		{
			authed.POST("/auth/logout", h.Logout)
			authed.GET("/auth/me", h.Me)
			authed.GET("/portfolio", h.GetPortfolio)
			authed.POST("/trades/buy", h.Buy)
			authed.POST("/trades/sell", h.Sell)
		}
	}

	router.GET("/ws/prices", h.HandleWebSocket)
	router.GET("/health", h.Health)
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
