package server

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsfeed/pkg/domain"
)

func TestFeedView_Flags(t *testing.T) {
	view := NewFeedView()
	snap := view.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.Refreshing)
	assert.Nil(t, snap.Items)
	assert.NotNil(t, snap.Errors)
	assert.Empty(t, snap.Errors)

	view.SetLoading(true)
	view.SetRefreshing(true)
	snap = view.Snapshot()
	assert.True(t, snap.Loading)
	assert.True(t, snap.Refreshing)

	view.SetLoading(false)
	snap = view.Snapshot()
	assert.False(t, snap.Loading)
	assert.True(t, snap.Refreshing)
}

func TestFeedView_ShowList(t *testing.T) {
	ts := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	view := NewFeedView()
	view.now = func() time.Time { return ts }

	view.ShowList([]domain.News{{ID: 1, Title: "one"}, {ID: 2, Title: "two"}})
	snap := view.Snapshot()
	require.Len(t, snap.Items, 2)
	assert.Equal(t, "one", snap.Items[0].Title)
	assert.Equal(t, ts, snap.UpdatedAt)

	// replaced, not appended
	view.ShowList([]domain.News{{ID: 3, Title: "three"}})
	snap = view.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, int64(3), snap.Items[0].ID)

	// empty list is a loaded state
	view.ShowList([]domain.News{})
	snap = view.Snapshot()
	assert.NotNil(t, snap.Items)
	assert.Empty(t, snap.Items)
}

func TestFeedView_ShowError(t *testing.T) {
	view := NewFeedView()
	view.ShowList([]domain.News{{ID: 1}})

	view.ShowError(errors.New("boom"))
	snap := view.Snapshot()
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, "boom", snap.Errors[0].Message)
	assert.False(t, snap.Errors[0].Time.IsZero())
	assert.Len(t, snap.Items, 1, "error keeps the list")

	for i := range 15 {
		view.ShowError(fmt.Errorf("err %d", i))
	}
	snap = view.Snapshot()
	require.Len(t, snap.Errors, maxErrors)
	assert.Equal(t, "err 5", snap.Errors[0].Message)
	assert.Equal(t, "err 14", snap.Errors[maxErrors-1].Message)
}

func TestFeedView_LogError(t *testing.T) {
	view := NewFeedView()
	view.LogError(errors.New("quiet"))
	assert.Empty(t, view.Snapshot().Errors)
}

func TestFeedView_SnapshotIsCopy(t *testing.T) {
	view := NewFeedView()
	view.ShowList([]domain.News{{ID: 1, Title: "orig"}})
	view.ShowError(errors.New("e1"))

	snap := view.Snapshot()
	snap.Items[0].Title = "changed"
	snap.Errors[0].Message = "changed"

	again := view.Snapshot()
	assert.Equal(t, "orig", again.Items[0].Title)
	assert.Equal(t, "e1", again.Errors[0].Message)
}

func TestFeedView_Concurrent(t *testing.T) {
	view := NewFeedView()
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			view.SetRefreshing(i%2 == 0)
			view.ShowList([]domain.News{{ID: int64(i)}})
			view.ShowError(fmt.Errorf("err %d", i))
		}()
		go func() {
			defer wg.Done()
			_ = view.Snapshot()
		}()
	}
	wg.Wait()

	snap := view.Snapshot()
	assert.Len(t, snap.Items, 1)
	assert.Len(t, snap.Errors, 10)
}
