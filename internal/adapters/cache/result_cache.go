package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jpo-explorer/backend/internal/domain/entities"
	"github.com/jpo-explorer/backend/internal/domain/providers"
	"github.com/jpo-explorer/backend/internal/infrastructure/observability"
)

const (
	layerMemory = "memory"
	layerRedis  = "redis"
)

// ResultCache is a two-level search result cache. The first level is a
// bounded in-process LRU; the optional second level is a shared
// CacheProvider (Redis) so replicas can reuse each other's results.
type ResultCache struct {
	local   *lru.Cache[string, entities.CacheEntry]
	remote  providers.CacheProvider
	ttl     time.Duration
	now     func() time.Time
	metrics *observability.Metrics
}

// Option configures a ResultCache.
type Option func(*ResultCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *ResultCache) { c.now = now }
}

// WithRemote adds a shared second-level cache.
func WithRemote(remote providers.CacheProvider) Option {
	return func(c *ResultCache) { c.remote = remote }
}

// WithMetrics records hits and misses.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *ResultCache) { c.metrics = metrics }
}

// NewResultCache creates a cache holding at most capacity entries, each
// served for at most ttl.
func NewResultCache(capacity int, ttl time.Duration, opts ...Option) (*ResultCache, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	local, err := lru.New[string, entities.CacheEntry](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	c := &ResultCache{
		local: local,
		ttl:   ttl,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the entry stored under key if it is younger than the TTL.
func (c *ResultCache) Get(ctx context.Context, key string) (*entities.CacheEntry, bool) {
	now := c.now()

	if entry, ok := c.local.Get(key); ok {
		if entry.Fresh(now, c.ttl) {
			observability.RecordCacheHit(ctx, c.metrics, layerMemory)
			return &entry, true
		}
		c.local.Remove(key)
	}

	if entry, ok := c.getRemote(ctx, key, now); ok {
		c.local.Add(key, *entry)
		observability.RecordCacheHit(ctx, c.metrics, layerRedis)
		return entry, true
	}

	observability.RecordCacheMiss(ctx, c.metrics)
	return nil, false
}

func (c *ResultCache) getRemote(ctx context.Context, key string, now time.Time) (*entities.CacheEntry, bool) {
	if c.remote == nil {
		return nil, false
	}

	data, err := c.remote.Get(ctx, remoteKey(key))
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("remote result cache read failed")
		}
		return nil, false
	}

	var entry entities.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("discarding undecodable remote cache entry")
		return nil, false
	}
	if entry.Bundle == nil || !entry.Fresh(now, c.ttl) {
		return nil, false
	}
	return &entry, true
}

// Put stores bundle under key stamped with the current time. Remote write
// failures are logged and otherwise ignored.
func (c *ResultCache) Put(ctx context.Context, key string, bundle *entities.ResultBundle) {
	entry := entities.CacheEntry{CreatedAt: c.now(), Bundle: bundle}
	c.local.Add(key, entry)

	if c.remote == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to encode result cache entry")
		return
	}
	if err := c.remote.Set(ctx, remoteKey(key), data, int(c.ttl.Seconds())); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("remote result cache write failed")
	}
}

// Len reports the number of entries held in memory.
func (c *ResultCache) Len() int {
	return c.local.Len()
}

// remoteKey hashes the fingerprint so arbitrary query text never reaches the
// key space verbatim.
func remoteKey(fingerprint string) string {
	sum := sha256.Sum256([]byte(fingerprint))
	return "search:" + hex.EncodeToString(sum[:])
}

var _ providers.ResultCache = (*ResultCache)(nil)
