package ratelimit

import (
	"context"
	"time"
)

// Store counts hits per key over a sliding window.
type Store interface {
	// Record adds a hit for key and returns the number of hits inside window,
	// this one included.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}
