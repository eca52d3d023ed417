package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsfeed/pkg/domain"
)

// failingCache is a Cache whose every call fails
type failingCache struct{ err error }

func (f failingCache) Save(context.Context, domain.Batch) error { return f.err }

func (f failingCache) List(context.Context, int) (domain.Batch, error) { return nil, f.err }

func TestCached_GetNews(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	errSource := errors.New("source down")

	t.Run("saves fresh batch", func(t *testing.T) {
		store := setupTestStore(t)
		batch := testBatch(2, base)
		repo := NewCached(CachedParams{
			Source: SourceFunc(func(context.Context) (domain.Batch, error) { return batch, nil }),
			Cache:  store,
		})

		res, err := repo.GetNews(ctx)
		require.NoError(t, err)
		assert.Equal(t, batch, res, "source order returned as is")

		cached, err := store.List(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, cached, 2)
	})

	t.Run("source error returned unchanged", func(t *testing.T) {
		store := setupTestStore(t)
		require.NoError(t, store.Save(ctx, testBatch(2, base)))
		repo := NewCached(CachedParams{
			Source: SourceFunc(func(context.Context) (domain.Batch, error) { return nil, errSource }),
			Cache:  store,
		})

		res, err := repo.GetNews(ctx)
		assert.Same(t, errSource, err)
		assert.Nil(t, res)
	})

	t.Run("fallback to cache", func(t *testing.T) {
		store := setupTestStore(t)
		require.NoError(t, store.Save(ctx, testBatch(3, base)))
		repo := NewCached(CachedParams{
			Source:          SourceFunc(func(context.Context) (domain.Batch, error) { return nil, errSource }),
			Cache:           store,
			FallbackToCache: true,
			FallbackLimit:   2,
		})

		res, err := repo.GetNews(ctx)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, int64(3), res[0].ID)
	})

	t.Run("fallback with empty cache", func(t *testing.T) {
		repo := NewCached(CachedParams{
			Source:          SourceFunc(func(context.Context) (domain.Batch, error) { return nil, errSource }),
			Cache:           setupTestStore(t),
			FallbackToCache: true,
		})

		_, err := repo.GetNews(ctx)
		assert.Same(t, errSource, err)
	})

	t.Run("fallback with broken cache", func(t *testing.T) {
		repo := NewCached(CachedParams{
			Source:          SourceFunc(func(context.Context) (domain.Batch, error) { return nil, errSource }),
			Cache:           failingCache{err: errors.New("disk full")},
			FallbackToCache: true,
		})

		_, err := repo.GetNews(ctx)
		assert.Same(t, errSource, err)
	})

	t.Run("cache save failure ignored", func(t *testing.T) {
		batch := testBatch(1, base)
		repo := NewCached(CachedParams{
			Source: SourceFunc(func(context.Context) (domain.Batch, error) { return batch, nil }),
			Cache:  failingCache{err: errors.New("disk full")},
		})

		res, err := repo.GetNews(ctx)
		require.NoError(t, err)
		assert.Equal(t, batch, res)
	})
}
