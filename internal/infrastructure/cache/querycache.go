package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/carrydesk/carrydesk/internal/infrastructure/metrics"
	"github.com/carrydesk/carrydesk/internal/shared/biztime"
	"github.com/carrydesk/carrydesk/internal/shared/config"
	"github.com/carrydesk/carrydesk/internal/shared/logger"
)

const defaultTTL = 60 * time.Second

// QueryCache memoizes read results for a bounded time.
//
// Values are JSON encoded, so every hit decodes into a fresh value and
// callers never share mutable state. Concurrent misses on one key share a
// single producer call. Every invalidation bumps a generation counter; a
// fill that started before the bump is discarded instead of stored, so a
// read racing a write cannot repopulate the cache with pre-write data.
type QueryCache struct {
	backend    Backend
	defaultTTL time.Duration
	now        func() time.Time
	logger     logger.Interface

	group      singleflight.Group
	generation atomic.Uint64
	// fillMu orders the generation check of a fill against invalidation.
	fillMu sync.RWMutex
}

type Option func(*QueryCache)

// WithClock replaces the time source used to stamp and age entries.
func WithClock(now func() time.Time) Option {
	return func(c *QueryCache) {
		c.now = now
	}
}

// WithDefaultTTL sets the TTL used when a read passes a non-positive TTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *QueryCache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

func New(backend Backend, log logger.Interface, opts ...Option) *QueryCache {
	c := &QueryCache{
		backend:    backend,
		defaultTTL: defaultTTL,
		now:        biztime.Now,
		logger:     log.With("component", "cache", "backend", backend.Name()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds the backend selected by cfg.
func NewFromConfig(ctx context.Context, cfg config.CacheConfig, redisCfg config.RedisConfig, log logger.Interface) (*QueryCache, error) {
	var backend Backend
	switch cfg.Backend {
	case config.CacheBackendRedis:
		b, err := DialRedisBackend(ctx, redisCfg, cfg.KeyPrefix)
		if err != nil {
			return nil, err
		}
		backend = b
	case config.CacheBackendMemory, "":
		b, err := NewLRUBackend(cfg.MaxEntries)
		if err != nil {
			return nil, err
		}
		backend = b
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
	}

	return New(backend, log, WithDefaultTTL(cfg.DefaultTTL())), nil
}

func (c *QueryCache) DefaultTTL() time.Duration {
	return c.defaultTTL
}

// Invalidate removes every entry whose key contains substr.
func (c *QueryCache) Invalidate(ctx context.Context, substr string) error {
	c.fillMu.Lock()
	c.generation.Add(1)
	c.fillMu.Unlock()

	n, err := c.backend.DeleteMatching(ctx, substr)
	metrics.RecordCacheInvalidation(c.backend.Name(), n)
	if err != nil {
		return err
	}
	if n > 0 {
		c.logger.Debugw("cache entries invalidated", "pattern", substr, "count", n)
	}
	return nil
}

// InvalidateAll empties the cache.
func (c *QueryCache) InvalidateAll(ctx context.Context) error {
	c.fillMu.Lock()
	c.generation.Add(1)
	c.fillMu.Unlock()

	n, err := c.backend.Clear(ctx)
	metrics.RecordCacheInvalidation(c.backend.Name(), n)
	if err != nil {
		return err
	}
	c.logger.Debugw("cache cleared", "count", n)
	return nil
}

func (c *QueryCache) Close() error {
	return c.backend.Close()
}

// lookup returns the encoded value for key if it is younger than ttl.
// Backend failures degrade to a miss.
func (c *QueryCache) lookup(ctx context.Context, key string, ttl time.Duration) ([]byte, bool) {
	e, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warnw("cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok || c.now().Sub(e.StoredAt) >= ttl {
		return nil, false
	}
	return e.Value, true
}

// store writes data unless an invalidation happened since gen was read.
func (c *QueryCache) store(ctx context.Context, key string, gen uint64, data []byte, ttl time.Duration) {
	c.fillMu.RLock()
	defer c.fillMu.RUnlock()

	if c.generation.Load() != gen {
		return
	}
	if err := c.backend.Set(ctx, key, Entry{Value: data, StoredAt: c.now()}, ttl); err != nil {
		c.logger.Warnw("cache write failed", "key", key, "error", err)
	}
}

// Cached returns the value stored under key if it is younger than ttl and
// otherwise calls producer and stores its result. Producer errors are
// returned as is and never cached. A non-positive ttl selects the cache
// default.
func Cached[T any](ctx context.Context, c *QueryCache, key string, ttl time.Duration, producer func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if data, ok := c.lookup(ctx, key, ttl); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			metrics.RecordCacheHit(c.backend.Name())
			return v, nil
		}
		c.logger.Warnw("discarding undecodable cache entry", "key", key)
	}
	metrics.RecordCacheMiss(c.backend.Name())

	// Callers joining an in-flight fill share its generation, so nobody
	// picks up a result produced before a write they already observed.
	gen := c.generation.Load()
	flight := strconv.FormatUint(gen, 10) + "|" + key

	res, err, _ := c.group.Do(flight, func() (any, error) {
		v, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode cache value for %s: %w", key, err)
		}
		c.store(ctx, key, gen, data, ttl)
		return data, nil
	})
	if err != nil {
		return zero, err
	}

	var v T
	if err := json.Unmarshal(res.([]byte), &v); err != nil {
		return zero, fmt.Errorf("failed to decode cache value for %s: %w", key, err)
	}
	return v, nil
}
