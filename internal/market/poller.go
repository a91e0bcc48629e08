package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/jdwd40/coin-exchange-gateway/internal/models"
)

// Snapshot is the last successfully fetched view of one data source, plus
// the error of the most recent attempt. A failed poll keeps the old data and
// marks the snapshot stale; the next tick is the only retry.
type Snapshot[T any] struct {
	Data      T
	FetchedAt time.Time
	Err       error
}

// Stale reports whether the latest poll attempt failed.
func (s Snapshot[T]) Stale() bool {
	return s.Err != nil
}

// Poller keeps shared snapshots of the coin list and market stats fresh on
// fixed schedules, replacing the original per-view interval timers. Its
// lifetime is tied to the context passed to Start.
type Poller struct {
	client *Client
	cron   *cron.Cron
	logger *logrus.Logger

	coinInterval  time.Duration
	statsInterval time.Duration

	mu    sync.RWMutex
	coins Snapshot[[]models.Coin]
	stats Snapshot[*models.MarketStats]
}

func NewPoller(client *Client, coinInterval, statsInterval time.Duration, logger *logrus.Logger) *Poller {
	return &Poller{
		client:        client,
		cron:          cron.New(cron.WithSeconds()),
		logger:        logger,
		coinInterval:  coinInterval,
		statsInterval: statsInterval,
	}
}

// Start schedules the refresh jobs and runs an initial fetch of each so the
// first request never sees an empty snapshot.
func (p *Poller) Start(ctx context.Context) error {
	p.logger.WithFields(logrus.Fields{
		"coin_interval":  p.coinInterval,
		"stats_interval": p.statsInterval,
	}).Info("Starting market poller")

	if _, err := p.cron.AddFunc(everySpec(p.coinInterval), func() { p.refreshCoins(ctx) }); err != nil {
		return err
	}
	if _, err := p.cron.AddFunc(everySpec(p.statsInterval), func() { p.refreshStats(ctx) }); err != nil {
		return err
	}

	p.cron.Start()

	go func() {
		p.refreshCoins(ctx)
		p.refreshStats(ctx)
	}()

	go func() {
		<-ctx.Done()
		p.Stop()
	}()

	return nil
}

func (p *Poller) Stop() {
	p.logger.Info("Stopping market poller")
	p.cron.Stop()
}

// Coins returns the latest coin-list snapshot.
func (p *Poller) Coins() Snapshot[[]models.Coin] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.coins
}

// Stats returns the latest market-stats snapshot.
func (p *Poller) Stats() Snapshot[*models.MarketStats] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// CoinByID looks a coin up in the current snapshot.
func (p *Poller) CoinByID(coinID int) (models.Coin, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, coin := range p.coins.Data {
		if coin.CoinID == coinID {
			return coin, true
		}
	}
	return models.Coin{}, false
}

// CurrentPrice serves the flows: the snapshot price if the coin is known,
// otherwise one direct fetch. Whatever price comes back is the price for the
// caller's whole flow.
func (p *Poller) CurrentPrice(ctx context.Context, coinID int) (models.Coin, error) {
	if coin, ok := p.CoinByID(coinID); ok {
		return coin, nil
	}

	detail, err := p.client.GetCoin(ctx, coinID)
	if err != nil {
		return models.Coin{}, err
	}
	return models.Coin{
		CoinID:       detail.CoinID,
		Name:         detail.Name,
		Symbol:       detail.Symbol,
		CurrentPrice: detail.CurrentPrice,
		MarketCap:    detail.MarketCap,
		Supply:       detail.Supply,
	}, nil
}

func (p *Poller) refreshCoins(ctx context.Context) {
	coins, err := p.client.ListCoins(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.logger.WithError(err).Error("Coin list refresh failed")
		p.coins.Err = err
		return
	}
	p.coins = Snapshot[[]models.Coin]{Data: coins, FetchedAt: time.Now()}
	p.logger.WithField("coins", len(coins)).Debug("Coin list refreshed")
}

func (p *Poller) refreshStats(ctx context.Context) {
	stats, err := p.client.GetMarketStats(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.logger.WithError(err).Error("Market stats refresh failed")
		p.stats.Err = err
		return
	}
	p.stats = Snapshot[*models.MarketStats]{Data: stats, FetchedAt: time.Now()}
	p.logger.Debug("Market stats refreshed")
}

func everySpec(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}
