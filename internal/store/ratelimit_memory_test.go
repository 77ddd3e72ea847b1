package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/url-shortener/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestRateLimitMemoryStore_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("counts hits inside the window", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		for want := int64(1); want <= 3; want++ {
			got, err := s.Record(ctx, "client:write:60000", time.Minute)

			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("keeps keys apart", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()
		_, _ = s.Record(ctx, "a", time.Minute)
		_, _ = s.Record(ctx, "a", time.Minute)

		got, err := s.Record(ctx, "b", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})

	t.Run("forgets hits older than the window", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()
		_, _ = s.Record(ctx, "a", 30*time.Millisecond)
		_, _ = s.Record(ctx, "a", 30*time.Millisecond)

		time.Sleep(40 * time.Millisecond)

		got, err := s.Record(ctx, "a", 30*time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})

	t.Run("counts concurrent hits exactly", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		var g errgroup.Group
		for range 50 {
			g.Go(func() error {
				_, err := s.Record(ctx, "a", time.Minute)

				return err
			})
		}
		require.NoError(t, g.Wait())

		got, err := s.Record(ctx, "a", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(51), got)
	})
}
