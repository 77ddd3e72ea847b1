package shortener

import (
	"context"
	"time"
)

// Repository is the durable source of truth for URL records.
// Implementations enforce uniqueness on both LongURL and Code.
type Repository interface {
	// FindByLongURL returns ErrNotFound when no record holds longURL.
	FindByLongURL(ctx context.Context, longURL string) (*URLRecord, error)
	// FindByCode returns ErrNotFound when no record holds code.
	FindByCode(ctx context.Context, code Code) (*URLRecord, error)
	// Insert returns ErrUniqueConflict if either unique key already exists.
	Insert(ctx context.Context, record *URLRecord) error
}

// Cache is a disposable key/value layer with per-entry expiry.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites key unconditionally.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
