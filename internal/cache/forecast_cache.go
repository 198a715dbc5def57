package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dealerops/parts-forecast/internal/config"
	"github.com/dealerops/parts-forecast/internal/domain"
)

const (
	forecastKeyPrefix     = "forecast:dealer"
	forecastScanBatchSize = 100
)

// ForecastCache fronts the forecast store for read-heavy dashboard
// queries. Writes invalidate the dealer's entries.
type ForecastCache interface {
	Get(ctx context.Context, filter domain.ForecastFilter) ([]domain.ForecastRecord, bool, error)
	Set(ctx context.Context, filter domain.ForecastFilter, records []domain.ForecastRecord) error
	InvalidateDealer(ctx context.Context, dealer string) error
	InvalidateAll(ctx context.Context) error
}

type redisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopForecastCache struct{}

func NewForecastCache(cfg config.CacheConfig) (ForecastCache, error) {
	if !cfg.Enabled {
		return &noopForecastCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisForecastCache{client: client, ttl: ttl}, nil
}

func NewNoopForecastCache() ForecastCache {
	return &noopForecastCache{}
}

func (c *redisForecastCache) Get(ctx context.Context, filter domain.ForecastFilter) ([]domain.ForecastRecord, bool, error) {
	payload, err := c.client.Get(ctx, buildForecastKey(filter)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var records []domain.ForecastRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, false, fmt.Errorf("decode forecast cache: %w", err)
	}
	return records, true, nil
}

func (c *redisForecastCache) Set(ctx context.Context, filter domain.ForecastFilter, records []domain.ForecastRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode forecast cache: %w", err)
	}

	if err := c.client.Set(ctx, buildForecastKey(filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisForecastCache) InvalidateDealer(ctx context.Context, dealer string) error {
	prefix := fmt.Sprintf("%s:%s", forecastKeyPrefix, strings.TrimSpace(dealer))
	return deleteKeysWithPrefix(ctx, c.client, prefix, forecastScanBatchSize)
}

func (c *redisForecastCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, forecastKeyPrefix, forecastScanBatchSize)
}

func (n *noopForecastCache) Get(ctx context.Context, filter domain.ForecastFilter) ([]domain.ForecastRecord, bool, error) {
	return nil, false, nil
}

func (n *noopForecastCache) Set(ctx context.Context, filter domain.ForecastFilter, records []domain.ForecastRecord) error {
	return nil
}

func (n *noopForecastCache) InvalidateDealer(ctx context.Context, dealer string) error {
	return nil
}

func (n *noopForecastCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildForecastKey(filter domain.ForecastFilter) string {
	date := "latest"
	if !filter.Date.IsZero() {
		date = filter.Date.Format("2006-01-02")
	}
	return fmt.Sprintf("%s:%s:%s", forecastKeyPrefix, strings.TrimSpace(filter.Dealer), date)
}
