// Package cache stores resolution results keyed by listing fingerprint.
// Cache failures are logged and treated as misses; they never fail a resolution.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/fingerprint"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Store is the key-value surface the cache needs. *redis.Client satisfies it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Config struct {
	TTL    time.Duration
	Prefix string
	// CacheEmpty also caches results with no candidates
	CacheEmpty bool
}

type ResultCache struct {
	store  Store
	logger ectologger.Logger
	config Config
}

func New(store Store, logger ectologger.Logger, config Config) *ResultCache {
	if config.Prefix == "" {
		config.Prefix = "fern:result:"
	}
	return &ResultCache{store: store, logger: logger, config: config}
}

// Key returns the cache key for a listing
func (c *ResultCache) Key(listing models.ScrapedListing) string {
	return c.config.Prefix + fingerprint.Listing(listing)
}

// Get returns the cached result for a listing
func (c *ResultCache) Get(ctx context.Context, listing models.ScrapedListing) (models.MatchResult, bool) {
	ctx, span := tracing.StartSpan(ctx, "cache.ResultCache.Get")
	defer span.End()

	key := c.Key(listing)
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.ErrNotFound) {
			c.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("result cache read failed")
		}
		return models.MatchResult{}, false
	}

	var result models.MatchResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("dropping unreadable cached result")
		_ = c.store.Del(ctx, key)
		return models.MatchResult{}, false
	}
	return result, true
}

// Put stores a result unless it is empty and empty results are not cached
func (c *ResultCache) Put(ctx context.Context, listing models.ScrapedListing, result models.MatchResult) {
	ctx, span := tracing.StartSpan(ctx, "cache.ResultCache.Put")
	defer span.End()

	if len(result.Candidates) == 0 && !c.config.CacheEmpty {
		return
	}
	body, err := json.Marshal(result)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("failed to encode result for cache")
		return
	}
	key := c.Key(listing)
	if err := c.store.Set(ctx, key, body, c.config.TTL); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("result cache write failed")
	}
}

// Purge drops every cached result, e.g. after the record tables were reloaded.
// Stores that cannot scan by pattern are left alone.
func (c *ResultCache) Purge(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.ResultCache.Purge")
	defer span.End()

	scanner, ok := c.store.(interface {
		DelPattern(ctx context.Context, pattern string) (int, error)
	})
	if !ok {
		return 0, nil
	}
	n, err := scanner.DelPattern(ctx, c.config.Prefix+"*")
	if err != nil {
		return n, fmt.Errorf("purge result cache: %w", err)
	}
	c.logger.WithContext(ctx).WithField("removed", n).Info("purged result cache")
	return n, nil
}
