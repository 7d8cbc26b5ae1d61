package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/redis"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.ErrNotFound
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = string(value.([]byte))
	m.ttls[key] = ttl
	return nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestResultCache(t *testing.T) {
	ctx := context.Background()
	var warnings int
	logger := ectologger.NewEctoLogger(func(m ectologger.EctoLogMessage) {
		if m.Level == "warn" {
			warnings++
		}
	})
	listing := models.ScrapedListing{LocationDetails: models.LocationDetails{Project: "Marina Gate"}, Size: "1,200 sqft"}
	hit := models.MatchResult{Strategy: models.StrategyMapper, Candidates: []models.MatchCandidate{{Unit: "101"}}, Reason: models.ReasonMapperProjectOnly}

	t.Run("should round trip results under the configured ttl", func(t *testing.T) {
		store := newMemoryStore()
		c := New(store, logger, Config{TTL: time.Hour})

		_, ok := c.Get(ctx, listing)
		assert.False(t, ok)

		c.Put(ctx, listing, hit)
		got, ok := c.Get(ctx, listing)
		require.True(t, ok)
		assert.Equal(t, hit, got)
		assert.Equal(t, time.Hour, store.ttls[c.Key(listing)])
		assert.Contains(t, c.Key(listing), "fern:result:")
	})

	t.Run("should skip empty results unless configured", func(t *testing.T) {
		miss := models.MatchResult{Strategy: models.StrategyNone, Candidates: []models.MatchCandidate{}, Reason: models.ReasonNoMapperMatches}

		c := New(newMemoryStore(), logger, Config{TTL: time.Minute})
		c.Put(ctx, listing, miss)
		_, ok := c.Get(ctx, listing)
		assert.False(t, ok)

		c = New(newMemoryStore(), logger, Config{TTL: time.Minute, CacheEmpty: true})
		c.Put(ctx, listing, miss)
		_, ok = c.Get(ctx, listing)
		assert.True(t, ok)
	})

	t.Run("should treat store failures as misses", func(t *testing.T) {
		store := newMemoryStore()
		store.err = errors.New("connection refused")
		c := New(store, logger, Config{})
		before := warnings

		c.Put(ctx, listing, hit)
		_, ok := c.Get(ctx, listing)
		assert.False(t, ok)
		assert.Equal(t, before+2, warnings)
	})

	t.Run("should drop unreadable entries", func(t *testing.T) {
		store := newMemoryStore()
		c := New(store, logger, Config{})
		store.data[c.Key(listing)] = "{not json"

		_, ok := c.Get(ctx, listing)
		assert.False(t, ok)
		assert.Empty(t, store.data)
	})
}

type scanningStore struct {
	*memoryStore
}

func (s scanningStore) DelPattern(_ context.Context, pattern string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	n := 0
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}

func TestResultCache_Purge(t *testing.T) {
	ctx := context.Background()
	logger := ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
	result := models.MatchResult{Strategy: models.StrategyPermit, Candidates: []models.MatchCandidate{{Unit: "1203"}}}

	t.Run("should drop only cached results", func(t *testing.T) {
		store := scanningStore{newMemoryStore()}
		store.data["fern:other"] = "keep"
		c := New(store, logger, Config{TTL: time.Minute})
		c.Put(ctx, models.ScrapedListing{PermitNumber: "7123456"}, result)
		c.Put(ctx, models.ScrapedListing{PermitNumber: "7654321"}, result)

		n, err := c.Purge(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, map[string]string{"fern:other": "keep"}, store.data)
	})

	t.Run("should skip stores that cannot scan", func(t *testing.T) {
		c := New(newMemoryStore(), logger, Config{TTL: time.Minute})
		n, err := c.Purge(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
