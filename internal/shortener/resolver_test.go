package shortener_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/serroba/url-shortener/internal/shortener"
	"github.com/serroba/url-shortener/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestResolver(t *testing.T, repo shortener.Repository, cache shortener.Cache, opts ...shortener.Option) *shortener.Resolver {
	t.Helper()

	gen, err := shortener.NewCodeGenerator(shortener.DefaultCodeLength)
	require.NoError(t, err)

	return shortener.NewResolver(repo, cache, gen, testBaseURL, opts...)
}

func TestResolver_Shorten(t *testing.T) {
	t.Run("creates a record on first sight", func(t *testing.T) {
		resolver := shortener.NewResolver(store.NewMemoryStore(), store.NewMemoryCache(),
			sequenceGenerator("abc123"), testBaseURL)

		record, created, err := resolver.Shorten(context.Background(), testURL)

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, shortener.Code("abc123"), record.Code)
		assert.Equal(t, testURL, record.LongURL)
		assert.Equal(t, testBaseURL+"/abc123", record.ShortURL)
	})

	t.Run("is idempotent for the same long url", func(t *testing.T) {
		resolver := newTestResolver(t, store.NewMemoryStore(), store.NewMemoryCache())

		first, created1, err1 := resolver.Shorten(context.Background(), testURL)
		second, created2, err2 := resolver.Shorten(context.Background(), testURL)

		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.True(t, created1)
		assert.False(t, created2)
		assert.Equal(t, first.Code, second.Code)
	})

	t.Run("returns different codes for different urls", func(t *testing.T) {
		resolver := newTestResolver(t, store.NewMemoryStore(), store.NewMemoryCache())
		seen := make(map[shortener.Code]string)

		for i := range 50 {
			longURL := fmt.Sprintf("https://example.com/%d", i)
			record, _, err := resolver.Shorten(context.Background(), longURL)

			require.NoError(t, err)
			assert.NotContains(t, seen, record.Code)
			seen[record.Code] = longURL
		}
	})

	t.Run("rejects empty input without touching store or cache", func(t *testing.T) {
		repo := &spyRepository{Repository: store.NewMemoryStore()}
		cache := &brokenCache{}
		resolver := newTestResolver(t, repo, cache)

		record, _, err := resolver.Shorten(context.Background(), "")

		assert.Nil(t, record)
		assert.ErrorIs(t, err, shortener.ErrInvalidInput)
		assert.Zero(t, repo.findByLongCalls.Load())
		assert.Zero(t, repo.insertCalls.Load())
		assert.Zero(t, cache.gets.Load())
		assert.Zero(t, cache.sets.Load())
	})

	t.Run("cache hit short-circuits the store", func(t *testing.T) {
		repo := &spyRepository{Repository: store.NewMemoryStore()}
		cache := store.NewMemoryCache()
		resolver := newTestResolver(t, repo, cache)

		first, _, err := resolver.Shorten(context.Background(), testURL)
		require.NoError(t, err)

		calls := repo.findByLongCalls.Load()

		second, _, err := resolver.Shorten(context.Background(), testURL)

		require.NoError(t, err)
		assert.Equal(t, first.Code, second.Code)
		assert.Equal(t, calls, repo.findByLongCalls.Load(), "store must not be queried on a cache hit")
	})

	t.Run("refreshes cache from the store with a 24h ttl", func(t *testing.T) {
		repo := store.NewMemoryStore()
		require.NoError(t, repo.Insert(context.Background(), &shortener.URLRecord{
			Code: "abc123", LongURL: testURL, ShortURL: testBaseURL + "/abc123",
		}))

		cache := newRecordingCache(store.NewMemoryCache())
		resolver := newTestResolver(t, repo, cache)

		record, created, err := resolver.Shorten(context.Background(), testURL)

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, shortener.Code("abc123"), record.Code)
		assert.Equal(t, 24*time.Hour, cache.written()[shortener.LongURLKey(testURL)])
	})

	t.Run("behaves the same when the cache is unavailable", func(t *testing.T) {
		resolver := newTestResolver(t, store.NewMemoryStore(), &brokenCache{})

		first, _, err1 := resolver.Shorten(context.Background(), testURL)
		second, _, err2 := resolver.Shorten(context.Background(), testURL)

		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, first.Code, second.Code)
	})

	t.Run("works without a cache", func(t *testing.T) {
		resolver := newTestResolver(t, store.NewMemoryStore(), nil)

		record, _, err := resolver.Shorten(context.Background(), testURL)
		require.NoError(t, err)

		longURL, err := resolver.Redirect(context.Background(), string(record.Code))
		require.NoError(t, err)
		assert.Equal(t, testURL, longURL)
	})

	t.Run("ignores undecodable cache entries", func(t *testing.T) {
		cache := store.NewMemoryCache()
		_ = cache.Set(context.Background(), shortener.LongURLKey(testURL), []byte("not json"), time.Minute)
		resolver := newTestResolver(t, store.NewMemoryStore(), cache)

		record, created, err := resolver.Shorten(context.Background(), testURL)

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, testURL, record.LongURL)
	})

	t.Run("fails with store unavailable and leaves cache empty", func(t *testing.T) {
		repo := &spyRepository{Repository: store.NewMemoryStore(), findErr: errMock}
		cache := newRecordingCache(store.NewMemoryCache())
		resolver := newTestResolver(t, repo, cache)

		record, _, err := resolver.Shorten(context.Background(), testURL)

		assert.Nil(t, record)
		assert.ErrorIs(t, err, shortener.ErrStoreUnavailable)
		assert.Empty(t, cache.written())
	})

	t.Run("failed insert leaves no cache entry", func(t *testing.T) {
		repo := &spyRepository{Repository: store.NewMemoryStore(), insertErr: errMock}
		cache := newRecordingCache(store.NewMemoryCache())
		resolver := newTestResolver(t, repo, cache)

		_, _, err := resolver.Shorten(context.Background(), testURL)

		assert.ErrorIs(t, err, shortener.ErrStoreUnavailable)
		assert.Empty(t, cache.written())
	})

	t.Run("store timeout surfaces as store unavailable", func(t *testing.T) {
		resolver := newTestResolver(t, blockingRepository{}, store.NewMemoryCache(),
			shortener.WithStoreTimeout(20*time.Millisecond))

		_, _, err := resolver.Shorten(context.Background(), testURL)

		assert.ErrorIs(t, err, shortener.ErrStoreUnavailable)
	})
}

func TestResolver_ShortenRace(t *testing.T) {
	t.Run("returns the winner's record after losing an insert race", func(t *testing.T) {
		winner := &shortener.URLRecord{Code: "win123", LongURL: testURL, ShortURL: testBaseURL + "/win123"}
		cache := store.NewMemoryCache()
		resolver := newTestResolver(t, &racingRepository{winner: winner}, cache)

		record, created, err := resolver.Shorten(context.Background(), testURL)

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, winner.Code, record.Code)

		cached, err := cache.Get(context.Background(), shortener.LongURLKey(testURL))
		require.NoError(t, err)
		assert.Contains(t, string(cached), "win123")
	})

	t.Run("concurrent callers share one record", func(t *testing.T) {
		repo := store.NewMemoryStore()
		resolver := newTestResolver(t, repo, store.NewMemoryCache())

		const callers = 32

		codes := make([]shortener.Code, callers)

		var g errgroup.Group

		for i := range callers {
			g.Go(func() error {
				record, _, err := resolver.Shorten(context.Background(), testURL)
				if err != nil {
					return err
				}

				codes[i] = record.Code

				return nil
			})
		}

		require.NoError(t, g.Wait())
		assert.Equal(t, 1, repo.Len())

		for _, code := range codes {
			assert.Equal(t, codes[0], code)
		}
	})

	t.Run("regenerates the code when it is already taken", func(t *testing.T) {
		repo := store.NewMemoryStore()
		require.NoError(t, repo.Insert(context.Background(), &shortener.URLRecord{
			Code: "taken1", LongURL: "https://example.com/other",
		}))

		resolver := shortener.NewResolver(repo, store.NewMemoryCache(),
			sequenceGenerator("taken1", "fresh1"), testBaseURL)

		record, created, err := resolver.Shorten(context.Background(), testURL)

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, shortener.Code("fresh1"), record.Code)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		repo := store.NewMemoryStore()
		require.NoError(t, repo.Insert(context.Background(), &shortener.URLRecord{
			Code: "taken1", LongURL: "https://example.com/other",
		}))

		resolver := shortener.NewResolver(repo, store.NewMemoryCache(),
			sequenceGenerator("taken1"), testBaseURL, shortener.WithMaxAttempts(2))

		record, _, err := resolver.Shorten(context.Background(), testURL)

		assert.Nil(t, record)
		assert.ErrorIs(t, err, shortener.ErrCodeCollision)
	})
}

func TestResolver_Redirect(t *testing.T) {
	t.Run("round-trips a shortened url", func(t *testing.T) {
		resolver := newTestResolver(t, store.NewMemoryStore(), store.NewMemoryCache())

		record, _, err := resolver.Shorten(context.Background(), testURL)
		require.NoError(t, err)

		longURL, err := resolver.Redirect(context.Background(), string(record.Code))

		require.NoError(t, err)
		assert.Equal(t, testURL, longURL)
	})

	t.Run("returns ErrNotFound for unknown code", func(t *testing.T) {
		resolver := newTestResolver(t, store.NewMemoryStore(), store.NewMemoryCache())

		longURL, err := resolver.Redirect(context.Background(), "nonexistent-code")

		assert.Empty(t, longURL)
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("rejects empty code", func(t *testing.T) {
		resolver := newTestResolver(t, store.NewMemoryStore(), store.NewMemoryCache())

		_, err := resolver.Redirect(context.Background(), "")

		assert.ErrorIs(t, err, shortener.ErrInvalidInput)
	})

	t.Run("serves from cache without touching the store", func(t *testing.T) {
		repo := &spyRepository{Repository: store.NewMemoryStore()}
		cache := store.NewMemoryCache()
		payload, _ := json.Marshal(&shortener.URLRecord{Code: "abc123", LongURL: testURL})
		_ = cache.Set(context.Background(), shortener.CodeKey("abc123"), payload, time.Minute)
		resolver := newTestResolver(t, repo, cache)

		longURL, err := resolver.Redirect(context.Background(), "abc123")

		require.NoError(t, err)
		assert.Equal(t, testURL, longURL)
		assert.Zero(t, repo.findByCodeCalls.Load())
	})

	t.Run("populates the code key on a store hit", func(t *testing.T) {
		repo := store.NewMemoryStore()
		require.NoError(t, repo.Insert(context.Background(), &shortener.URLRecord{Code: "abc123", LongURL: testURL}))
		cache := newRecordingCache(store.NewMemoryCache())
		resolver := newTestResolver(t, repo, cache)

		_, err := resolver.Redirect(context.Background(), "abc123")

		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, cache.written()[shortener.CodeKey("abc123")])
		assert.NotContains(t, cache.written(), shortener.LongURLKey(testURL))
	})

	t.Run("never writes to the store", func(t *testing.T) {
		repo := &spyRepository{Repository: store.NewMemoryStore()}
		resolver := newTestResolver(t, repo, store.NewMemoryCache())

		_, _ = resolver.Redirect(context.Background(), "abc123")

		assert.Zero(t, repo.insertCalls.Load())
	})

	t.Run("behaves the same when the cache is unavailable", func(t *testing.T) {
		repo := store.NewMemoryStore()
		require.NoError(t, repo.Insert(context.Background(), &shortener.URLRecord{Code: "abc123", LongURL: testURL}))
		resolver := newTestResolver(t, repo, &brokenCache{})

		longURL, err := resolver.Redirect(context.Background(), "abc123")

		require.NoError(t, err)
		assert.Equal(t, testURL, longURL)
	})

	t.Run("store failure surfaces as store unavailable", func(t *testing.T) {
		repo := &spyRepository{Repository: store.NewMemoryStore(), findErr: errMock}
		resolver := newTestResolver(t, repo, store.NewMemoryCache())

		_, err := resolver.Redirect(context.Background(), "abc123")

		assert.ErrorIs(t, err, shortener.ErrStoreUnavailable)
		assert.ErrorIs(t, err, errMock)
	})

	t.Run("store timeout surfaces as store unavailable", func(t *testing.T) {
		resolver := newTestResolver(t, blockingRepository{}, nil, shortener.WithStoreTimeout(20*time.Millisecond))

		_, err := resolver.Redirect(context.Background(), "abc123")

		assert.ErrorIs(t, err, shortener.ErrStoreUnavailable)
	})
}
