// Package cache keeps recent similarity responses in Redis for a short TTL.
// Every intake write flushes the whole keyspace and bumps a generation
// counter; a ranking computed across a write is returned but never stored,
// so a cached ranking is never older than the last change to the corpus.
// Redis trouble degrades to a miss.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/resilience"
)

const keyPrefix = "similar:"

// opTimeout bounds each Redis round trip made on the request path.
const opTimeout = 250 * time.Millisecond

// Backend is the subset of the Redis client the cache needs.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type Cache struct {
	backend Backend
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
	gen     atomic.Uint64
}

// New wraps backend. m may be nil.
func New(backend Backend, ttl time.Duration, m *metrics.Metrics) *Cache {
	c := &Cache{
		backend: backend,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "similarity-cache"),
	}
	c.breaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     15 * time.Second,
		OnStateChange: func(name string, _, to resilience.State) {
			if m != nil {
				m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			}
		},
	})
	return c
}

func IdeaKey(id string) string    { return keyPrefix + "idea:" + id }
func ProblemKey(id string) string { return keyPrefix + "problem:" + id }

// TextKey hashes the trimmed query so arbitrary input makes a bounded key.
func TextKey(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return fmt.Sprintf("%stext:%x", keyPrefix, sum[:16])
}

// Fetch returns the cached value for key or computes, stores and returns it.
// Concurrent misses on one key share a single compute. The bool reports a
// cache hit. A nil cache always computes.
func Fetch[T any](ctx context.Context, c *Cache, key string, compute func(context.Context) (T, error)) (T, bool, error) {
	if c == nil {
		v, err := compute(ctx)
		return v, false, err
	}
	if v, ok := get[T](ctx, c, key); ok {
		return v, true, nil
	}
	gen := c.gen.Load()
	val, err, _ := c.group.Do(fmt.Sprintf("%s@%d", key, gen), func() (any, error) {
		if v, ok := get[T](ctx, c, key); ok {
			return v, nil
		}
		v, err := compute(ctx)
		if err != nil {
			return v, err
		}
		if c.gen.Load() != gen {
			c.logger.Debug("corpus changed during compute, not caching", "key", key)
			return v, nil
		}
		c.set(ctx, key, v)
		if c.gen.Load() != gen {
			// A write flushed between the check and the set.
			c.del(ctx, key)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return val.(T), false, nil
}

func get[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var out T
	var data string
	err := c.guard(ctx, "cache get", func(ctx context.Context) error {
		var err error
		data, err = c.backend.Get(ctx, key)
		if errors.Is(err, pkgredis.ErrMiss) {
			data = ""
			return nil
		}
		return err
	})
	if err == nil && data != "" {
		if err = json.Unmarshal([]byte(data), &out); err == nil {
			c.hits.Add(1)
			if c.metrics != nil {
				c.metrics.CacheHitsTotal.Inc()
			}
			return out, true
		}
	}
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Warn("cache get failed", "key", key, "error", err)
	}
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
	var zero T
	return zero, false
}

func (c *Cache) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.guard(ctx, "cache set", func(ctx context.Context) error {
		return c.backend.Set(ctx, key, string(data), c.ttl)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

func (c *Cache) del(ctx context.Context, key string) {
	err := c.guard(ctx, "cache del", func(ctx context.Context) error {
		return c.backend.Del(ctx, key)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Warn("cache del failed", "key", key, "error", err)
	}
}

func (c *Cache) guard(ctx context.Context, name string, fn func(context.Context) error) error {
	return c.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, opTimeout, name, fn)
	})
}

// Invalidate drops every cached similarity response.
func (c *Cache) Invalidate(ctx context.Context) (int64, error) {
	if c == nil {
		return 0, nil
	}
	c.gen.Add(1)
	var deleted int64
	err := resilience.WithTimeout(ctx, 5*time.Second, "cache invalidate", func(ctx context.Context) error {
		var err error
		deleted, err = c.backend.FlushByPattern(ctx, keyPrefix+"*")
		return err
	})
	if err != nil {
		return deleted, fmt.Errorf("invalidating similarity cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

// Stats is the cache's view of its own traffic since start.
type Stats struct {
	Enabled bool    `json:"enabled"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
	Circuit string  `json:"circuit"`
}

func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{Circuit: resilience.StateClosed.String()}
	}
	s := Stats{
		Enabled: true,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Circuit: c.breaker.GetState().String(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
