package store

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/serroba/url-shortener/internal/metrics"
	"github.com/serroba/url-shortener/internal/shortener"
)

// DefaultLocalTTL caps how long an entry lives in the process-local cache.
const DefaultLocalTTL = 5 * time.Minute

// LocalCache is a process-local shortener.Cache backed by ristretto.
// Entries are admitted asynchronously, so a Set may not be visible immediately.
type LocalCache struct {
	cache  *ristretto.Cache
	maxTTL time.Duration
}

// NewLocalCache creates a local cache bounded to roughly maxItems entries.
func NewLocalCache(maxItems int64, maxTTL time.Duration) (*LocalCache, error) {
	if maxItems <= 0 {
		maxItems = 10_000
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &LocalCache{cache: cache, maxTTL: maxTTL}, nil
}

func (l *LocalCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := l.cache.Get(key)
	if !ok {
		metrics.CacheLookups.WithLabelValues("l1", "miss").Inc()

		return nil, shortener.ErrCacheMiss
	}

	metrics.CacheLookups.WithLabelValues("l1", "hit").Inc()

	return v.([]byte), nil
}

// Set stores value with the smaller of ttl and the local maximum TTL.
func (l *LocalCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if l.maxTTL > 0 && (ttl <= 0 || ttl > l.maxTTL) {
		ttl = l.maxTTL
	}

	l.cache.SetWithTTL(key, value, 1, ttl)

	return nil
}

// Wait blocks until buffered writes have been applied.
func (l *LocalCache) Wait() {
	l.cache.Wait()
}

// Shutdown stops the ristretto goroutines.
func (l *LocalCache) Shutdown() error {
	l.cache.Close()

	return nil
}

// Compile-time check.
var _ shortener.Cache = (*LocalCache)(nil)
