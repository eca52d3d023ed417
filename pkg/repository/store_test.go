package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsfeed/pkg/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?mode=rwc&_txlock=immediate"
	store, err := NewStore(context.Background(), StoreConfig{DSN: dsn, MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testBatch(n int, base time.Time) domain.Batch {
	res := make(domain.Batch, n)
	for i := 0; i < n; i++ {
		res[i] = domain.News{
			ID:          int64(i + 1),
			Title:       fmt.Sprintf("Title %d", i+1),
			Description: fmt.Sprintf("Description %d", i+1),
			ImageURL:    fmt.Sprintf("https://example.com/img%d.png", i+1),
			URL:         fmt.Sprintf("https://example.com/news%d", i+1),
			Published:   base.Add(time.Duration(i) * time.Hour),
		}
	}
	return res
}

func TestStore_SaveAndList(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, testBatch(3, base)))

	res, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, res, 3)

	// newest first
	assert.Equal(t, int64(3), res[0].ID)
	assert.Equal(t, int64(2), res[1].ID)
	assert.Equal(t, int64(1), res[2].ID)

	assert.Equal(t, "Title 3", res[0].Title)
	assert.Equal(t, "Description 3", res[0].Description)
	assert.Equal(t, "https://example.com/img3.png", res[0].ImageURL)
	assert.Equal(t, "https://example.com/news3", res[0].URL)
	assert.True(t, base.Add(2*time.Hour).Equal(res[0].Published))

	t.Run("limit", func(t *testing.T) {
		res, err := store.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, int64(3), res[0].ID)
	})
}

func TestStore_SaveUpserts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	batch := testBatch(2, base)
	require.NoError(t, store.Save(ctx, batch))

	batch[0].Title = "Updated"
	require.NoError(t, store.Save(ctx, batch[:1]))

	res, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "Updated", res[1].Title)
}

func TestStore_SaveSameGUIDFromTwoFeeds(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	src := NewRSS(RSSParams{})
	pub := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	batch := domain.Batch{
		src.toNews("https://alpha.example.com/rss", &gofeed.Item{GUID: "1", Title: "alpha", PublishedParsed: &pub}),
		src.toNews("https://beta.example.com/rss", &gofeed.Item{GUID: "1", Title: "beta", PublishedParsed: &pub}),
	}
	require.NoError(t, store.Save(ctx, batch))

	res, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, []string{res[0].Title, res[1].Title})
}

func TestStore_SaveEmpty(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Save(context.Background(), nil))

	res, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestStore_SaveNonUTC(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	zone := time.FixedZone("EST", -5*3600)
	batch := domain.Batch{
		{ID: 1, Title: "early", Published: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{ID: 2, Title: "late", Published: time.Date(2024, 1, 1, 8, 0, 0, 0, zone)}, // 13:00 UTC
	}
	require.NoError(t, store.Save(ctx, batch))

	res, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "late", res[0].Title)
	assert.Equal(t, time.UTC, res[0].Published.Location())
}

func TestStore_Prune(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testBatch(5, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))))

	deleted, err := store.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	res, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, int64(5), res[0].ID)
	assert.Equal(t, int64(4), res[1].ID)

	deleted, err = store.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestStore_SaveCancelledContext(t *testing.T) {
	store := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := store.Save(ctx, testBatch(1, time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save news")
}

func TestIsLockError(t *testing.T) {
	tbl := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{fmt.Errorf("SQLITE_BUSY: busy"), true},
		{fmt.Errorf("database is locked"), true},
		{fmt.Errorf("database table is locked"), true},
		{fmt.Errorf("no such table"), false},
	}
	for i, tt := range tbl {
		t.Run(fmt.Sprintf("case %d", i), func(t *testing.T) {
			assert.Equal(t, tt.want, isLockError(tt.err))
		})
	}
}

func TestRetryable(t *testing.T) {
	assert.NoError(t, retryable(nil))

	lockErr := fmt.Errorf("database is locked")
	assert.Same(t, lockErr, retryable(lockErr))

	other := fmt.Errorf("constraint failed")
	wrapped := retryable(other)
	assert.ErrorIs(t, wrapped, errCritical)
	assert.ErrorIs(t, wrapped, other)
	assert.Equal(t, "constraint failed", wrapped.Error())
}
