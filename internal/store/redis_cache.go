package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/url-shortener/internal/metrics"
	"github.com/serroba/url-shortener/internal/shortener"
)

// RedisCache is a Redis implementation of shortener.Cache.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache creates a cache on top of an existing client. The client is managed externally.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheLookups.WithLabelValues("l2", "miss").Inc()

			return nil, shortener.ErrCacheMiss
		}

		metrics.CacheLookups.WithLabelValues("l2", "error").Inc()

		return nil, err
	}

	metrics.CacheLookups.WithLabelValues("l2", "hit").Inc()

	return value, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// Compile-time check.
var _ shortener.Cache = (*RedisCache)(nil)
