package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

// cacheEntry is a cached garment list with its expiration time
type cacheEntry struct {
	garments  []types.Garment
	expiresAt time.Time
}

// MemoryCache is an in-process LRU cache with per-entry expiry.
// Expired entries are dropped lazily on Get or explicitly by Sweep.
type MemoryCache struct {
	mu    sync.RWMutex
	cache *lru.Cache[string, *cacheEntry]
	now   func() time.Time
}

// NewMemoryCache creates a cache holding at most size entries
func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, *cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &MemoryCache{cache: c, now: time.Now}, nil
}

// WithClock replaces the time source, for tests
func (m *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	m.now = now
	return m
}

// Get returns a copy of the cached list if present and not expired
func (m *MemoryCache) Get(ctx context.Context, key string) ([]types.Garment, bool) {
	now := m.now()

	m.mu.RLock()
	entry, found := m.cache.Get(key)
	if !found {
		m.mu.RUnlock()
		return nil, false
	}

	if !now.Before(entry.expiresAt) {
		m.mu.RUnlock()

		m.mu.Lock()
		// Another writer may have replaced the entry meanwhile
		if current, ok := m.cache.Peek(key); ok && current == entry {
			m.cache.Remove(key)
		}
		m.mu.Unlock()
		return nil, false
	}

	garments := copyGarments(entry.garments)
	m.mu.RUnlock()
	return garments, true
}

// Set stores a copy of value. A non-positive ttl uses DefaultTTL.
func (m *MemoryCache) Set(ctx context.Context, key string, value []types.Garment, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	entry := &cacheEntry{
		garments:  copyGarments(value),
		expiresAt: m.now().Add(ttl),
	}

	m.mu.Lock()
	m.cache.Add(key, entry)
	m.mu.Unlock()
}

// Sweep removes every entry expired at now and returns how many were removed
func (m *MemoryCache) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, key := range m.cache.Keys() {
		entry, ok := m.cache.Peek(key)
		if ok && !now.Before(entry.expiresAt) {
			m.cache.Remove(key)
			removed++
		}
	}
	return removed
}

// Purge drops every entry
func (m *MemoryCache) Purge(ctx context.Context) error {
	m.mu.Lock()
	m.cache.Purge()
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache.Len()
}
