package shortener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/url-shortener/internal/metrics"
	"go.uber.org/zap"
)

const (
	// DefaultCacheTTL is how long a cached record stays valid.
	DefaultCacheTTL = 24 * time.Hour
	// DefaultStoreTimeout bounds a single durable store call.
	DefaultStoreTimeout = 3 * time.Second
	// DefaultCacheTimeout bounds a single cache call.
	DefaultCacheTimeout = 100 * time.Millisecond
	// DefaultMaxAttempts is how many fresh codes Shorten tries before giving up.
	DefaultMaxAttempts = 3
)

const (
	sourceCache   = "cache"
	sourceStore   = "store"
	sourceCreated = "created"
)

// LongURLKey is the cache key under which Shorten keeps a record.
func LongURLKey(longURL string) string {
	return "url:long:" + longURL
}

// CodeKey is the cache key under which Redirect keeps a record.
func CodeKey(code Code) string {
	return "url:code:" + string(code)
}

// Resolver serves shorten and redirect requests from the cache first,
// then the durable store, minting new codes only for unseen long URLs.
// It keeps no mutable state and is safe for concurrent use.
type Resolver struct {
	store        Repository
	cache        Cache
	generateCode CodeGenerator
	baseURL      string
	cacheTTL     time.Duration
	storeTimeout time.Duration
	cacheTimeout time.Duration
	maxAttempts  int
	logger       *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCacheTTL sets the expiry of cache entries written by the resolver.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Resolver) { r.cacheTTL = ttl }
}

// WithStoreTimeout bounds every durable store call. Zero disables the bound.
func WithStoreTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.storeTimeout = d }
}

// WithCacheTimeout bounds every cache call. Zero disables the bound.
func WithCacheTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.cacheTimeout = d }
}

// WithMaxAttempts sets how many codes Shorten generates before failing with ErrCodeCollision.
func WithMaxAttempts(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver creates a resolver. cache may be nil, in which case every lookup goes to store.
func NewResolver(store Repository, cache Cache, generator CodeGenerator, baseURL string, opts ...Option) *Resolver {
	r := &Resolver{
		store:        store,
		cache:        cache,
		generateCode: generator,
		baseURL:      baseURL,
		cacheTTL:     DefaultCacheTTL,
		storeTimeout: DefaultStoreTimeout,
		cacheTimeout: DefaultCacheTimeout,
		maxAttempts:  DefaultMaxAttempts,
		logger:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Shorten returns the record for longURL, creating it on first sight.
// The boolean result reports whether this call created the record.
func (r *Resolver) Shorten(ctx context.Context, longURL string) (*URLRecord, bool, error) {
	if longURL == "" {
		return nil, false, fmt.Errorf("%w: long url is required", ErrInvalidInput)
	}

	key := LongURLKey(longURL)

	if record, ok := r.fromCache(ctx, key); ok {
		metrics.Resolutions.WithLabelValues("shorten", sourceCache).Inc()

		return record, false, nil
	}

	record, err := r.findByLongURL(ctx, longURL)
	if err == nil {
		r.toCache(ctx, key, record)
		metrics.Resolutions.WithLabelValues("shorten", sourceStore).Inc()

		return record, false, nil
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	return r.create(ctx, longURL)
}

// create inserts a new record. A unique conflict means either another caller
// inserted longURL first, in which case its record is returned, or the code was
// taken, in which case a new code is tried.
func (r *Resolver) create(ctx context.Context, longURL string) (*URLRecord, bool, error) {
	key := LongURLKey(longURL)

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		code := Code(r.generateCode())
		record := &URLRecord{
			Code:      code,
			LongURL:   longURL,
			ShortURL:  ComposeShortURL(r.baseURL, code),
			CreatedAt: time.Now().UTC(),
		}

		err := r.insert(ctx, record)
		if err == nil {
			r.toCache(ctx, key, record)
			metrics.Resolutions.WithLabelValues("shorten", sourceCreated).Inc()

			return record, true, nil
		}

		if !errors.Is(err, ErrUniqueConflict) {
			return nil, false, err
		}

		metrics.InsertConflicts.Inc()

		winner, err := r.findByLongURL(ctx, longURL)
		if err == nil {
			r.logger.Debug("lost insert race, returning existing record",
				zap.String("code", string(winner.Code)),
			)
			r.toCache(ctx, key, winner)
			metrics.Resolutions.WithLabelValues("shorten", sourceStore).Inc()

			return winner, false, nil
		}

		if !errors.Is(err, ErrNotFound) {
			return nil, false, err
		}

		r.logger.Debug("short code already taken",
			zap.String("code", string(code)),
			zap.Int("attempt", attempt),
		)
	}

	return nil, false, fmt.Errorf("%w: gave up after %d attempts", ErrCodeCollision, r.maxAttempts)
}

// Redirect returns the long URL behind code. It never writes to the durable store.
func (r *Resolver) Redirect(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: url code is required", ErrInvalidInput)
	}

	key := CodeKey(Code(code))

	if record, ok := r.fromCache(ctx, key); ok {
		metrics.Resolutions.WithLabelValues("redirect", sourceCache).Inc()

		return record.LongURL, nil
	}

	record, err := r.findByCode(ctx, Code(code))
	if err != nil {
		return "", err
	}

	r.toCache(ctx, key, record)
	metrics.Resolutions.WithLabelValues("redirect", sourceStore).Inc()

	return record.LongURL, nil
}

func (r *Resolver) fromCache(ctx context.Context, key string) (*URLRecord, bool) {
	if r.cache == nil {
		return nil, false
	}

	ctx, cancel := withTimeout(ctx, r.cacheTimeout)
	defer cancel()

	payload, err := r.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			metrics.CacheLookups.WithLabelValues("resolver", "miss").Inc()
		} else {
			metrics.CacheLookups.WithLabelValues("resolver", "error").Inc()
			r.logger.Warn("cache get failed, treating as miss", zap.String("key", key), zap.Error(err))
		}

		return nil, false
	}

	var record URLRecord
	if err := json.Unmarshal(payload, &record); err != nil || record.LongURL == "" || record.Code == "" {
		metrics.CacheLookups.WithLabelValues("resolver", "error").Inc()
		r.logger.Debug("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))

		return nil, false
	}

	metrics.CacheLookups.WithLabelValues("resolver", "hit").Inc()

	return &record, true
}

// toCache writes record under key. Failures are logged and otherwise ignored.
func (r *Resolver) toCache(ctx context.Context, key string, record *URLRecord) {
	if r.cache == nil {
		return
	}

	payload, err := json.Marshal(record)
	if err != nil {
		r.logger.Error("failed to encode record for cache", zap.String("key", key), zap.Error(err))

		return
	}

	ctx, cancel := withTimeout(ctx, r.cacheTimeout)
	defer cancel()

	if err := r.cache.Set(ctx, key, payload, r.cacheTTL); err != nil {
		r.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *Resolver) findByLongURL(ctx context.Context, longURL string) (*URLRecord, error) {
	ctx, cancel := withTimeout(ctx, r.storeTimeout)
	defer cancel()

	record, err := r.store.FindByLongURL(ctx, longURL)

	return record, storeError(err)
}

func (r *Resolver) findByCode(ctx context.Context, code Code) (*URLRecord, error) {
	ctx, cancel := withTimeout(ctx, r.storeTimeout)
	defer cancel()

	record, err := r.store.FindByCode(ctx, code)

	return record, storeError(err)
}

func (r *Resolver) insert(ctx context.Context, record *URLRecord) error {
	ctx, cancel := withTimeout(ctx, r.storeTimeout)
	defer cancel()

	return storeError(r.store.Insert(ctx, record))
}

// storeError maps anything outside the store taxonomy onto ErrStoreUnavailable.
func storeError(err error) error {
	switch {
	case err == nil,
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUniqueConflict),
		errors.Is(err, ErrStoreUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, d)
}
