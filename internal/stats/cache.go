package stats

import (
	"context"
	"sync"
)

// Cache holds the latest snapshot. Implementations replace the value
// atomically; there is never a partially written snapshot to read.
type Cache interface {
	Put(ctx context.Context, snapshot Snapshot) error
	// Get returns the latest snapshot and whether one exists.
	Get(ctx context.Context) (Snapshot, bool, error)
}

// InMemoryCache is the default single-node cache.
type InMemoryCache struct {
	mu       sync.RWMutex
	snapshot Snapshot
	set      bool
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{}
}

func (c *InMemoryCache) Put(_ context.Context, snapshot Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = snapshot
	c.set = true
	return nil
}

func (c *InMemoryCache) Get(_ context.Context) (Snapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot, c.set, nil
}
