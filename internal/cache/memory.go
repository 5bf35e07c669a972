package cache

import (
	"context"
	"sync"
	"time"
)

type memoryDedup struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryDedup builds an in-process Dedup with lazy expiry. Used when
// redis is not configured, and in tests.
func NewMemoryDedup() Dedup {
	return NewMemoryDedupWithClock(time.Now)
}

// NewMemoryDedupWithClock injects the clock.
func NewMemoryDedupWithClock(now func() time.Time) Dedup {
	return &memoryDedup{
		entries: make(map[string]time.Time),
		now:     now,
	}
}

func (d *memoryDedup) Contains(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	expiry, ok := d.entries[key]
	if !ok {
		return false, nil
	}
	if !expiry.After(d.now()) {
		delete(d.entries, key)
		return false, nil
	}
	return true, nil
}

func (d *memoryDedup) Put(_ context.Context, key string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[key] = d.now().Add(ttl)
	return nil
}
