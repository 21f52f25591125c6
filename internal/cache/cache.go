// Package cache provides a read-through cache for per-user resource
// collections. Entries are keyed by (resource kind, user ID) and
// invalidated whenever a mutation touches that user's data.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"
)

// Resource kinds cached per user.
const (
	KindNotes     = "notes"
	KindTags      = "tags"
	KindDashboard = "dashboard"
)

// allKinds is used by InvalidateUser to drop every cached collection.
var allKinds = []string{KindNotes, KindTags, KindDashboard}

// Config holds cache tuning parameters.
type Config struct {
	// MaxEntries bounds the number of cached collections.
	MaxEntries int64
	// TTL bounds staleness even without explicit invalidation.
	TTL time.Duration
	// Logger is optional.
	Logger *slog.Logger
}

// Cache is a read-through cache over per-user collections.
// Concurrent loads for the same key are collapsed to a single fetch.
type Cache struct {
	store  *ristretto.Cache[string, any]
	group  singleflight.Group
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a cache with the given configuration.
func New(cfg Config) (*Cache, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10_000
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}

	store, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: cfg.MaxEntries * 10,
		MaxCost:     cfg.MaxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}

	return &Cache{
		store:  store,
		ttl:    cfg.TTL,
		logger: cfg.Logger,
	}, nil
}

// Close releases the cache's resources.
func (c *Cache) Close() {
	c.store.Close()
}

// key builds the cache key for a (kind, user) pair.
func key(kind, userID string) string {
	return kind + ":" + userID
}

// GetOrLoad returns the cached value for (kind, userID), loading and
// caching it on a miss. Concurrent misses for the same key share one load.
func (c *Cache) GetOrLoad(ctx context.Context, kind, userID string, load func(context.Context) (any, error)) (any, error) {
	k := key(kind, userID)

	if v, ok := c.store.Get(k); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(k, func() (any, error) {
		// Re-check inside the flight; another caller may have just filled it.
		if v, ok := c.store.Get(k); ok {
			return v, nil
		}

		v, err := load(ctx)
		if err != nil {
			return nil, err
		}

		c.store.SetWithTTL(k, v, 1, c.ttl)
		// Flush the write buffer so a later Invalidate cannot lose to
		// a still-buffered set.
		c.store.Wait()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Invalidate drops the cached collection for (kind, userID).
func (c *Cache) Invalidate(kind, userID string) {
	c.store.Del(key(kind, userID))
	c.store.Wait()
	if c.logger != nil {
		c.logger.Debug("cache invalidated", "kind", kind, "user_id", userID)
	}
}

// InvalidateUser drops every cached collection belonging to a user.
func (c *Cache) InvalidateUser(userID string) {
	for _, kind := range allKinds {
		c.store.Del(key(kind, userID))
	}
	c.store.Wait()
}

// GetOrLoad is the typed wrapper around Cache.GetOrLoad.
func GetOrLoad[T any](ctx context.Context, c *Cache, kind, userID string, load func(context.Context) (T, error)) (T, error) {
	v, err := c.GetOrLoad(ctx, kind, userID, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		// A kind collision stored a different type; fall back to a direct load.
		return load(ctx)
	}
	return typed, nil
}
