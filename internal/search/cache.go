package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fathomlabs/fathom/internal/metrics"
)

// CachedProvider decorates a Provider with a Redis response cache. Repeated
// strategy queries across sessions then skip the metasearch instance. Cache
// failures are soft: any Redis error falls through to the inner provider.
type CachedProvider struct {
	inner Provider
	rdb   *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

// NewCachedProvider wraps inner with a response cache. A zero ttl defaults to
// 15 minutes, short enough that "recent" strategy queries stay fresh.
func NewCachedProvider(inner Provider, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &CachedProvider{inner: inner, rdb: rdb, ttl: ttl, log: logger}
}

func cacheKey(query string, opts Options) string {
	payload, _ := json.Marshal(struct {
		Query string  `json:"q"`
		Opts  Options `json:"o"`
	}{query, opts})
	sum := sha256.Sum256(payload)
	return "fathom:search:" + hex.EncodeToString(sum[:16])
}

// Search serves from cache when possible. Only successful provider responses
// are cached; timeouts and unavailability always reach the caller.
func (c *CachedProvider) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	key := cacheKey(query, opts)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cached []Result
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			metrics.SearchCacheHits.Inc()
			return cached, nil
		}
		// Corrupt entry: drop it and fall through.
		c.rdb.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("search cache read failed", zap.Error(err))
	}
	metrics.SearchCacheMisses.Inc()

	results, err := c.inner.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(results); jsonErr == nil {
		if setErr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.log.Warn("search cache write failed", zap.Error(setErr))
		}
	}
	return results, nil
}
