package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/jdwd40/coin-exchange-gateway/internal/models"
)

// Client is the read-only client for the remote market API. The exchange owns
// coins, price history and market stats; this side never writes any of it.
type Client struct {
	client *resty.Client
	logger *logrus.Logger
}

func NewClient(baseURL string, logger *logrus.Logger) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(15 * time.Second)
	client.SetHeader("Content-Type", "application/json")

	return &Client{
		client: client,
		logger: logger,
	}
}

// ListCoins fetches the full coin list.
func (c *Client) ListCoins(ctx context.Context) ([]models.Coin, error) {
	resp, err := c.client.R().SetContext(ctx).Get("/api/coins")
	if err != nil {
		c.logger.WithError(err).Error("Failed to fetch coin list")
		return nil, fmt.Errorf("failed to fetch coins: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("market API returned %s for coin list", resp.Status())
	}

	var coins []models.Coin
	if err := json.Unmarshal(resp.Body(), &coins); err != nil {
		return nil, fmt.Errorf("failed to unmarshal coin list: %w", err)
	}
	return coins, nil
}

// GetCoin fetches a single coin's detail by id.
func (c *Client) GetCoin(ctx context.Context, coinID int) (*models.CoinDetail, error) {
	resp, err := c.client.R().SetContext(ctx).Get(fmt.Sprintf("/api/coins/%d", coinID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch coin %d: %w", coinID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("market API returned %s for coin %d", resp.Status(), coinID)
	}

	var detail models.CoinDetail
	if err := json.Unmarshal(resp.Body(), &detail); err != nil {
		return nil, fmt.Errorf("failed to unmarshal coin %d: %w", coinID, err)
	}
	return &detail, nil
}

// GetPriceHistory fetches the chart points for a coin.
func (c *Client) GetPriceHistory(ctx context.Context, coinID int) ([]models.PriceHistoryPoint, error) {
	resp, err := c.client.R().SetContext(ctx).Get(fmt.Sprintf("/api/history/%d", coinID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history for coin %d: %w", coinID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("market API returned %s for coin %d history", resp.Status(), coinID)
	}

	var history []models.PriceHistoryPoint
	if err := json.Unmarshal(resp.Body(), &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal price history: %w", err)
	}
	return history, nil
}

// GetMarketStats fetches the aggregate market snapshot.
func (c *Client) GetMarketStats(ctx context.Context) (*models.MarketStats, error) {
	resp, err := c.client.R().SetContext(ctx).Get("/api/stats")
	if err != nil {
		c.logger.WithError(err).Error("Failed to fetch market stats")
		return nil, fmt.Errorf("failed to fetch market stats: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("market API returned %s for stats", resp.Status())
	}

	var stats models.MarketStats
	if err := json.Unmarshal(resp.Body(), &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal market stats: %w", err)
	}
	return &stats, nil
}

// CoinWithHistory bundles the detail-view pair.
type CoinWithHistory struct {
	Detail  *models.CoinDetail         `json:"coin"`
	History []models.PriceHistoryPoint `json:"history"`
}

// GetCoinWithHistory fetches detail and history in parallel and joins them.
// Either failure cancels the other fetch and fails the pair.
func (c *Client) GetCoinWithHistory(ctx context.Context, coinID int) (*CoinWithHistory, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	detailCh := make(chan *models.CoinDetail, 1)
	historyCh := make(chan []models.PriceHistoryPoint, 1)
	errCh := make(chan error, 2)

	go func() {
		detail, err := c.GetCoin(ctx, coinID)
		if err != nil {
			errCh <- err
			return
		}
		detailCh <- detail
	}()

	go func() {
		history, err := c.GetPriceHistory(ctx, coinID)
		if err != nil {
			errCh <- err
			return
		}
		historyCh <- history
	}()

	result := &CoinWithHistory{}
	for i := 0; i < 2; i++ {
		select {
		case detail := <-detailCh:
			result.Detail = detail
		case history := <-historyCh:
			result.History = history
		case err := <-errCh:
			cancel()
			return nil, err
		}
	}
	return result, nil
}
