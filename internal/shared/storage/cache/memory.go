package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process Store backed by go-cache.
type Memory struct {
	client *gocache.Cache
}

// NewMemory creates a Memory store; expired entries are swept every cleanup.
func NewMemory(defaultTTL, cleanup time.Duration) *Memory {
	return &Memory{client: gocache.New(defaultTTL, cleanup)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.client.Set(key, value, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.client.Delete(key)
	return nil
}
