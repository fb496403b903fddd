// Package app builds the dependencies shared by the API server and the terminal register.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/drinkpos/internal/config"
	"github.com/noah-isme/drinkpos/internal/health"
	"github.com/noah-isme/drinkpos/internal/menu"
	"github.com/noah-isme/drinkpos/internal/obs"
	"github.com/noah-isme/drinkpos/internal/receipt"
	"github.com/noah-isme/drinkpos/internal/resilience"
)

// LoadMenu reads the menu file and logs what was kept and skipped. A missing or unreadable
// file yields an empty catalog so the register can still start.
func LoadMenu(path string, logger zerolog.Logger) *menu.Catalog {
	catalog, report, err := menu.LoadFile(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("load menu")
		return menu.New()
	}
	for _, rowErr := range report.Rejected {
		logger.Warn().Int("line", rowErr.Line).Str("reason", rowErr.Reason).Msg("menu row skipped")
	}
	for _, key := range report.Duplicates {
		logger.Warn().Str("drink", key.String()).Msg("duplicate menu row discarded")
	}
	if obs.MenuRowsTotal != nil {
		obs.MenuRowsTotal.WithLabelValues("loaded").Add(float64(report.Loaded))
		obs.MenuRowsTotal.WithLabelValues("duplicate").Add(float64(len(report.Duplicates)))
		obs.MenuRowsTotal.WithLabelValues("rejected").Add(float64(len(report.Rejected)))
	}
	logger.Info().
		Str("path", path).
		Int("loaded", report.Loaded).
		Int("duplicates", len(report.Duplicates)).
		Int("rejected", len(report.Rejected)).
		Msg("menu loaded")
	return catalog
}

// NewRedis connects to url with tracing and, optionally, metrics instrumentation. An empty
// url returns a nil client.
func NewRedis(ctx context.Context, url string, metrics bool, logger zerolog.Logger) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// ReceiptStore picks the configured receipt sink. It returns the store, its metric label and
// a human readable destination. The redis sink sits behind a breaker with retries.
func ReceiptStore(cfg *config.Config, rdb *redis.Client, logger zerolog.Logger) (receipt.Store, string, string) {
	switch cfg.ReceiptStore {
	case config.ReceiptStoreRedis:
		if rdb != nil {
			breaker := resilience.New(resilience.Options{
				Sink:     config.ReceiptStoreRedis,
				MinCalls: 3,
				OpenFor:  cfg.ReceiptBreakerOpen,
				Attempts: cfg.ReceiptRetries + 1,
				Backoff:  50 * time.Millisecond,
				Jitter:   0.2,
				Logger:   &logger,
			})
			store := &receipt.RedisStore{Client: rdb, Key: cfg.ReceiptRedisKey, MaxEntries: cfg.ReceiptRedisMax}
			return receipt.GuardedStore{Store: store, Breaker: breaker}, config.ReceiptStoreRedis, "redis list " + cfg.ReceiptRedisKey
		}
		logger.Warn().Msg("RECEIPT_STORE=redis without REDIS_URL: falling back to file")
	case config.ReceiptStoreNone:
		return receipt.NopStore{}, config.ReceiptStoreNone, "nowhere (receipts disabled)"
	}
	store := &receipt.FileStore{Path: cfg.ReceiptPath}
	return store, config.ReceiptStoreFile, store.String()
}

// RecentReceipts unwraps the redis list behind store, if any.
func RecentReceipts(store receipt.Store) *receipt.RedisStore {
	switch s := store.(type) {
	case *receipt.RedisStore:
		return s
	case receipt.GuardedStore:
		return RecentReceipts(s.Store)
	}
	return nil
}

// Readiness probes the loaded menu and the optional redis client.
type Readiness struct {
	Catalog func() *menu.Catalog
	Redis   *redis.Client
}

var _ health.Checker = Readiness{}

// PingRedis reports health.ErrDisabled when no client is configured.
func (r Readiness) PingRedis(ctx context.Context, timeout time.Duration) error {
	if r.Redis == nil {
		return health.ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.Redis.Ping(ctx).Err()
}

// MenuLoaded fails while the catalog is empty.
func (r Readiness) MenuLoaded(context.Context) error {
	if r.Catalog == nil || r.Catalog().Len() == 0 {
		return errors.New("menu is empty")
	}
	return nil
}
