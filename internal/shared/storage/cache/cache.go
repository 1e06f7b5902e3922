package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Layered reads through L1 then L2 and writes L2 first. L1 entries live for a
// fraction of the L2 expiry so a shared L2 invalidation propagates quickly.
type Layered struct {
	L1 Store
	L2 Store
	// L1Ratio scales ttl for L1 writes; zero means 0.3.
	L1Ratio float64
}

func (l *Layered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if val, ok, err := l.L1.Get(ctx, key); err == nil && ok {
		return val, true, nil
	}
	val, ok, err := l.L2.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = l.L1.Set(ctx, key, val, l.l1TTL(time.Minute))
	return val, true, nil
}

func (l *Layered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := l.L2.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return l.L1.Set(ctx, key, value, l.l1TTL(ttl))
}

func (l *Layered) Delete(ctx context.Context, key string) error {
	_ = l.L1.Delete(ctx, key)
	return l.L2.Delete(ctx, key)
}

func (l *Layered) l1TTL(ttl time.Duration) time.Duration {
	ratio := l.L1Ratio
	if ratio <= 0 {
		ratio = 0.3
	}
	out := time.Duration(float64(ttl) * ratio)
	if out < time.Second {
		out = time.Second
	}
	return out
}
