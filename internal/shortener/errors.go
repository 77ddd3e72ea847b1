package shortener

import "errors"

var (
	// ErrInvalidInput reports a missing or empty request field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound reports that no record exists for the given key.
	ErrNotFound = errors.New("url not found")
	// ErrStoreUnavailable wraps any durable store failure, timeouts included.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrUniqueConflict is returned by Repository.Insert when the long URL or the code is taken.
	ErrUniqueConflict = errors.New("unique conflict")
	// ErrCacheMiss is returned by Cache.Get when the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
	// ErrCodeCollision is returned when every generated code was already taken.
	ErrCodeCollision = errors.New("short code collision")
)
