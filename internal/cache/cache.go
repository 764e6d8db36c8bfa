// Package cache is a Redis-backed, content-addressed store for
// AggregatedForecast values with TTL and single-flight-per-key
// computation: JSON-marshal-then-Set/Get, with a singleflight.Group
// guaranteeing exactly one concurrent compute per key.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/weather-oracle/oracle/internal/domain"
)

// DefaultTTL matches the pipeline's default cache-key hour bucket: an
// entry is no longer useful once the bucket it was computed for rolls
// over.
const DefaultTTL = time.Hour

// entry wraps the cached value with its own expiry so a stale Redis TTL
// clock (or a test double) can never resurrect data past its horizon.
type entry struct {
	Value     domain.AggregatedForecast `json:"value"`
	ExpiresAt time.Time                 `json:"expiresAt"`
}

// Manager wraps an optional Redis client. A nil Client puts it into
// disabled mode: every Get misses and every Set is a no-op.
type Manager struct {
	Client *redis.Client
	Logger *slog.Logger

	group singleflight.Group
}

func New(client *redis.Client, logger *slog.Logger) *Manager {
	return &Manager{Client: client, Logger: logger}
}

// Get returns the cached value for key, or ok=false on miss, expiry, or
// disabled mode.
func (m *Manager) Get(ctx context.Context, key string) (domain.AggregatedForecast, bool) {
	if m.Client == nil {
		missesTotal.Inc()
		return domain.AggregatedForecast{}, false
	}

	raw, err := m.Client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			m.Logger.Warn("cache get failed", "key", key, "error", err)
		}
		missesTotal.Inc()
		return domain.AggregatedForecast{}, false
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		m.Logger.Warn("cache entry unmarshal failed", "key", key, "error", err)
		missesTotal.Inc()
		return domain.AggregatedForecast{}, false
	}
	if time.Now().UTC().After(e.ExpiresAt) {
		evictionsTotal.Inc()
		missesTotal.Inc()
		return domain.AggregatedForecast{}, false
	}

	hitsTotal.Inc()
	return e.Value, true
}

// Set stores value under key with the given TTL; a no-op in disabled mode.
func (m *Manager) Set(ctx context.Context, key string, value domain.AggregatedForecast, ttl time.Duration) error {
	if m.Client == nil {
		return nil
	}
	e := entry{Value: value, ExpiresAt: time.Now().UTC().Add(ttl)}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return m.Client.Set(ctx, key, raw, ttl).Err()
}

// Clear removes key so a subsequent Set cannot be shadowed by a stale
// Redis-side copy.
func (m *Manager) Clear(ctx context.Context, key string) error {
	if m.Client == nil {
		return nil
	}
	return m.Client.Del(ctx, key).Err()
}

// ComputeFunc produces a fresh value on a cache miss.
type ComputeFunc func(ctx context.Context) (domain.AggregatedForecast, error)

// GetOrCompute returns the cached value for key, or runs compute exactly
// once per key even under concurrent callers (singleflight.Group), caches
// the result, and returns it.
func (m *Manager) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) (domain.AggregatedForecast, error) {
	if value, ok := m.Get(ctx, key); ok {
		return value, nil
	}

	result, err, _ := m.group.Do(key, func() (interface{}, error) {
		if value, ok := m.Get(ctx, key); ok {
			return value, nil
		}
		value, err := compute(ctx)
		if err != nil {
			return domain.AggregatedForecast{}, err
		}
		if setErr := m.Set(ctx, key, value, ttl); setErr != nil {
			m.Logger.Warn("cache set failed after compute", "key", key, "error", setErr)
		}
		return value, nil
	})
	if err != nil {
		return domain.AggregatedForecast{}, err
	}
	return result.(domain.AggregatedForecast), nil
}
