// Package presenter implements the news feed presentation logic. News decides when to
// fetch, maps fetch outcomes onto the view flags, list and errors, and keeps a periodic
// refresh running for its lifetime.
//
// All view writes and presenter state changes happen on the ui executor; blocking
// repository calls run on the background executor and their results are submitted back.
package presenter

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newsfeed/pkg/domain"
	"github.com/umputun/newsfeed/pkg/periodic"
	"github.com/umputun/newsfeed/pkg/ui"
)

//go:generate moq -out mocks/repository.go -pkg mocks -skip-ensure -fmt goimports . Repository

// AutoRefreshInterval is the period of the background refresh
const AutoRefreshInterval = time.Minute

// DefaultFetchTimeout limits a single repository call
const DefaultFetchTimeout = 30 * time.Second

var (
	// ErrAlreadyStarted returned by Start called more than once
	ErrAlreadyStarted = errors.New("presenter already started")
	// ErrClosed returned by Start on a closed presenter
	ErrClosed = errors.New("presenter closed")
)

// View is the passive surface the presenter writes to
type View interface {
	SetLoading(loading bool)
	SetRefreshing(refreshing bool)
	ShowList(news []domain.News)
	ShowError(err error)
	LogError(err error)
}

// Repository provides the current batch of news
type Repository interface {
	GetNews(ctx context.Context) (domain.Batch, error)
}

// PanicError is reported to the view when the repository panics
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("news repository panic: %v", e.Value) }

type fetchKind int

const (
	fetchLoad fetchKind = iota
	fetchRefresh
)

func (k fetchKind) String() string {
	if k == fetchLoad {
		return "load"
	}
	return "refresh"
}

// News is the news feed presenter. It is bound to one view for its whole life.
type News struct {
	view         View
	repo         Repository
	caller       periodic.Caller
	ui           ui.Executor
	bg           ui.Executor
	ctx          context.Context
	fetchTimeout time.Duration

	started   atomic.Bool
	closeOnce sync.Once

	mu     sync.Mutex
	closed bool
	handle periodic.Cancellable

	// accessed only from the ui executor
	active   bool
	inFlight bool
}

// Option customizes News
type Option func(n *News)

// WithFetchTimeout sets the per-fetch timeout
func WithFetchTimeout(d time.Duration) Option {
	return func(n *News) {
		if d > 0 {
			n.fetchTimeout = d
		}
	}
}

// WithContext sets the parent context of every fetch. Fetches aborted by its
// cancellation are logged rather than shown.
func WithContext(ctx context.Context) Option {
	return func(n *News) {
		if ctx != nil {
			n.ctx = ctx
		}
	}
}

// NewNews makes a presenter for the view. Nothing is fetched and the view is not
// touched until Start.
func NewNews(view View, repo Repository, caller periodic.Caller, uiExec, bgExec ui.Executor, opts ...Option) *News {
	res := &News{
		view:         view,
		repo:         repo,
		caller:       caller,
		ui:           uiExec,
		bg:           bgExec,
		ctx:          context.Background(),
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Start runs the initial load and schedules the periodic refresh. It must be called once.
func (n *News) Start() error {
	if n.isClosed() {
		return ErrClosed
	}
	if !n.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	n.ui.Submit(func() {
		if n.isClosed() {
			return
		}
		n.active = true
		n.fetch(fetchLoad)
	})

	// registered once per presenter, regardless of the load outcome
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.handle = n.caller.Start(AutoRefreshInterval, n.Refresh)
	return nil
}

// Refresh fetches news again. Ignored while another fetch is in flight.
func (n *News) Refresh() {
	n.ui.Submit(func() {
		if !n.active || n.isClosed() {
			lgr.Printf("[DEBUG] refresh ignored, presenter not active")
			return
		}
		if n.inFlight {
			lgr.Printf("[DEBUG] refresh ignored, fetch in flight")
			return
		}
		n.fetch(fetchRefresh)
	})
}

// Close cancels the periodic refresh and detaches the view. Fetches still running are
// left to finish, their results are discarded. Safe to call more than once.
func (n *News) Close() {
	n.closeOnce.Do(func() {
		n.mu.Lock()
		n.closed = true
		handle := n.handle
		n.mu.Unlock()

		if handle != nil {
			handle.Cancel()
		}
		lgr.Printf("[DEBUG] news presenter closed")
	})
}

func (n *News) isClosed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

// fetch sets the in-flight flag and runs the repository call on the background executor.
// Called on the ui executor.
func (n *News) fetch(kind fetchKind) {
	n.inFlight = true
	n.setFlag(kind, true)
	lgr.Printf("[DEBUG] news %s started", kind)

	n.bg.Submit(func() {
		batch, err := n.getNews()
		n.ui.Submit(func() { n.complete(kind, batch, err) })
	})
}

// getNews calls the repository, converting a panic into an error
func (n *News) getNews() (batch domain.Batch, err error) {
	defer func() {
		if r := recover(); r != nil {
			batch, err = nil, &PanicError{Value: r}
		}
	}()
	ctx, cancel := context.WithTimeout(n.ctx, n.fetchTimeout)
	defer cancel()
	return n.repo.GetNews(ctx)
}

// complete applies a fetch outcome to the view. Called on the ui executor.
func (n *News) complete(kind fetchKind, batch domain.Batch, err error) {
	n.inFlight = false
	if n.isClosed() {
		lgr.Printf("[DEBUG] news %s result discarded, presenter closed", kind)
		return
	}
	n.setFlag(kind, false)

	if err != nil {
		if errors.Is(err, context.Canceled) {
			n.view.LogError(err)
			return
		}
		lgr.Printf("[WARN] news %s failed: %v", kind, err)
		n.view.ShowError(err)
		return
	}

	sorted := sortNewest(batch)
	lgr.Printf("[DEBUG] news %s completed, %d items", kind, len(sorted))
	n.view.ShowList(sorted)
}

func (n *News) setFlag(kind fetchKind, v bool) {
	if kind == fetchLoad {
		n.view.SetLoading(v)
		return
	}
	n.view.SetRefreshing(v)
}

// sortNewest returns a copy of the batch ordered from newest to oldest, equal timestamps
// keep the repository order
func sortNewest(batch domain.Batch) []domain.News {
	res := make([]domain.News, len(batch))
	copy(res, batch)
	slices.SortStableFunc(res, func(a, b domain.News) int {
		return b.Published.Compare(a.Published)
	})
	return res
}
