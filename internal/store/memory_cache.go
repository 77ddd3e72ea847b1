package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/url-shortener/internal/shortener"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is an in-process shortener.Cache. Expired entries are dropped on read.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, shortener.ErrCacheMiss
	}

	if !entry.expiresAt.IsZero() && !time.Now().Before(entry.expiresAt) {
		delete(c.entries, key)

		return nil, shortener.ErrCacheMiss
	}

	return entry.value, nil
}

// Set stores value under key. A non-positive ttl keeps the entry until overwritten.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	c.entries[key] = entry

	return nil
}

// Compile-time check.
var _ shortener.Cache = (*MemoryCache)(nil)
