package shortener_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/serroba/url-shortener/internal/shortener"
)

var errMock = errors.New("mock error")

const (
	testBaseURL = "http://localhost:8888"
	testURL     = "https://example.com/a"
)

// spyRepository wraps a Repository and counts calls. Its error fields override the wrapped store.
type spyRepository struct {
	shortener.Repository

	findByLongCalls atomic.Int32
	findByCodeCalls atomic.Int32
	insertCalls     atomic.Int32

	findErr   error
	insertErr error
}

func (s *spyRepository) FindByLongURL(ctx context.Context, longURL string) (*shortener.URLRecord, error) {
	s.findByLongCalls.Add(1)

	if s.findErr != nil {
		return nil, s.findErr
	}

	return s.Repository.FindByLongURL(ctx, longURL)
}

func (s *spyRepository) FindByCode(ctx context.Context, code shortener.Code) (*shortener.URLRecord, error) {
	s.findByCodeCalls.Add(1)

	if s.findErr != nil {
		return nil, s.findErr
	}

	return s.Repository.FindByCode(ctx, code)
}

func (s *spyRepository) Insert(ctx context.Context, record *shortener.URLRecord) error {
	s.insertCalls.Add(1)

	if s.insertErr != nil {
		return s.insertErr
	}

	return s.Repository.Insert(ctx, record)
}

// racingRepository simulates losing an insert race: the first lookup by long URL
// misses, then the winner's record appears and Insert reports a conflict.
type racingRepository struct {
	mu      sync.Mutex
	winner  *shortener.URLRecord
	lookups int
}

func (r *racingRepository) FindByLongURL(_ context.Context, _ string) (*shortener.URLRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lookups++
	if r.lookups == 1 {
		return nil, shortener.ErrNotFound
	}

	return r.winner, nil
}

func (r *racingRepository) FindByCode(_ context.Context, _ shortener.Code) (*shortener.URLRecord, error) {
	return nil, shortener.ErrNotFound
}

func (r *racingRepository) Insert(_ context.Context, _ *shortener.URLRecord) error {
	return shortener.ErrUniqueConflict
}

// blockingRepository waits for the context to end on every call.
type blockingRepository struct{}

func (blockingRepository) FindByLongURL(ctx context.Context, _ string) (*shortener.URLRecord, error) {
	<-ctx.Done()

	return nil, ctx.Err()
}

func (blockingRepository) FindByCode(ctx context.Context, _ shortener.Code) (*shortener.URLRecord, error) {
	<-ctx.Done()

	return nil, ctx.Err()
}

func (blockingRepository) Insert(ctx context.Context, _ *shortener.URLRecord) error {
	<-ctx.Done()

	return ctx.Err()
}

// brokenCache fails every call, as an unreachable cache server would.
type brokenCache struct {
	gets atomic.Int32
	sets atomic.Int32
}

func (c *brokenCache) Get(_ context.Context, _ string) ([]byte, error) {
	c.gets.Add(1)

	return nil, errMock
}

func (c *brokenCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	c.sets.Add(1)

	return errMock
}

// recordingCache remembers keys and ttls written to it.
type recordingCache struct {
	shortener.Cache

	mu   sync.Mutex
	ttls map[string]time.Duration
}

func newRecordingCache(inner shortener.Cache) *recordingCache {
	return &recordingCache{Cache: inner, ttls: make(map[string]time.Duration)}
}

func (c *recordingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.ttls[key] = ttl
	c.mu.Unlock()

	return c.Cache.Set(ctx, key, value, ttl)
}

func (c *recordingCache) written() map[string]time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]time.Duration, len(c.ttls))
	for k, v := range c.ttls {
		out[k] = v
	}

	return out
}

// sequenceGenerator returns the given codes in order, repeating the last one.
func sequenceGenerator(codes ...string) shortener.CodeGenerator {
	var mu sync.Mutex

	i := 0

	return func() string {
		mu.Lock()
		defer mu.Unlock()

		code := codes[min(i, len(codes)-1)]
		i++

		return code
	}
}
