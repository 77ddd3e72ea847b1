package store

import (
	"context"
	"time"

	"github.com/serroba/url-shortener/internal/shortener"
)

// TieredCache checks a fast local layer before a shared remote layer.
// Remote hits are copied into the local layer.
type TieredCache struct {
	local  shortener.Cache
	remote shortener.Cache
}

// NewTieredCache composes two caches.
func NewTieredCache(local, remote shortener.Cache) *TieredCache {
	return &TieredCache{local: local, remote: remote}
}

func (t *TieredCache) Get(ctx context.Context, key string) ([]byte, error) {
	if value, err := t.local.Get(ctx, key); err == nil {
		return value, nil
	}

	value, err := t.remote.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	_ = t.local.Set(ctx, key, value, 0)

	return value, nil
}

// Set writes both layers. The remote error, if any, is returned.
func (t *TieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_ = t.local.Set(ctx, key, value, ttl)

	return t.remote.Set(ctx, key, value, ttl)
}

// Compile-time check.
var _ shortener.Cache = (*TieredCache)(nil)
