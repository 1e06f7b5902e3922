package cache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"docassist-web/internal/shared/metrics"
	"docassist-web/internal/shared/telemetry"
)

// Typed stores JSON-encoded values of T and collapses concurrent loads of the
// same key into one call.
type Typed[T any] struct {
	store Store
	ttl   time.Duration
	group singleflight.Group
}

// NewTyped wraps store; ttl applies to every value written by GetOrLoad.
func NewTyped[T any](store Store, ttl time.Duration) *Typed[T] {
	return &Typed[T]{store: store, ttl: ttl}
}

// GetOrLoad returns the cached value for key or calls load and caches its result.
// Cache failures degrade to calling load; load errors are never cached.
func (c *Typed[T]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	if raw, ok, err := c.store.Get(ctx, key); err == nil && ok {
		var out T
		if err := json.Unmarshal(raw, &out); err == nil {
			metrics.IncCacheHit()
			return out, nil
		}
	} else if err != nil {
		telemetry.Warn("cache.get_failed", map[string]any{"key": key, "error": err.Error()})
	}
	metrics.IncCacheMiss()

	v, err, _ := c.group.Do(key, func() (any, error) {
		val, err := load(ctx)
		if err != nil {
			return val, err
		}
		if raw, err := json.Marshal(val); err == nil {
			if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
				telemetry.Warn("cache.set_failed", map[string]any{"key": key, "error": err.Error()})
			}
		}
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Forget drops key from the cache.
func (c *Typed[T]) Forget(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}
