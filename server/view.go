package server

import (
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newsfeed/pkg/domain"
)

const maxErrors = 10

// ErrorRecord is a failure shown to the user
type ErrorRecord struct {
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Snapshot is the display state of the feed
type Snapshot struct {
	Loading    bool          `json:"loading"`
	Refreshing bool          `json:"refreshing"`
	Items      []domain.News `json:"items"`
	Errors     []ErrorRecord `json:"errors"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// FeedView keeps the feed display state written by the presenter and read by handlers
type FeedView struct {
	mu    sync.RWMutex
	state Snapshot
	now   func() time.Time
}

// NewFeedView makes an empty view, nothing loaded and no errors
func NewFeedView() *FeedView {
	return &FeedView{now: time.Now, state: Snapshot{Errors: []ErrorRecord{}}}
}

// SetLoading sets the initial load flag
func (v *FeedView) SetLoading(loading bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Loading = loading
}

// SetRefreshing sets the refresh flag
func (v *FeedView) SetRefreshing(refreshing bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Refreshing = refreshing
}

// ShowList replaces displayed news
func (v *FeedView) ShowList(news []domain.News) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Items = news
	v.state.UpdatedAt = v.now()
}

// ShowError records a failure for the user, only the last few are kept
func (v *FeedView) ShowError(err error) {
	lgr.Printf("[WARN] news feed error: %v", err)
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Errors = append(v.state.Errors, ErrorRecord{Message: err.Error(), Time: v.now()})
	if len(v.state.Errors) > maxErrors {
		v.state.Errors = v.state.Errors[len(v.state.Errors)-maxErrors:]
	}
}

// LogError reports a failure not meant for the user
func (v *FeedView) LogError(err error) {
	lgr.Printf("[DEBUG] news feed error, not shown: %v", err)
}

// Snapshot returns a copy of the current state
func (v *FeedView) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	res := v.state
	if v.state.Items != nil {
		res.Items = make([]domain.News, len(v.state.Items))
		copy(res.Items, v.state.Items)
	}
	res.Errors = make([]ErrorRecord, len(v.state.Errors))
	copy(res.Errors, v.state.Errors)
	return res
}
