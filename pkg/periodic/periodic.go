// Package periodic runs callbacks at a fixed interval until cancelled.
package periodic

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/lgr"
)

//go:generate moq -out mocks/caller.go -pkg mocks -skip-ensure -fmt goimports . Caller

// Cancellable stops a scheduled periodic call
type Cancellable interface {
	Cancel()
}

// Caller schedules a callback to be invoked every interval
type Caller interface {
	Start(interval time.Duration, callback func()) Cancellable
}

// CancelFunc adapts a plain function to Cancellable
type CancelFunc func()

// Cancel calls f
func (f CancelFunc) Cancel() { f() }

// Ticker is a Caller backed by time.Ticker, one goroutine per scheduled callback
type Ticker struct{}

// Start invokes callback every interval, the first call happens after one interval
func (Ticker) Start(interval time.Duration, callback func()) Cancellable {
	h := &handle{}
	if interval <= 0 {
		lgr.Printf("[WARN] periodic call rejected, invalid interval %v", interval)
		h.stopped.Store(true)
		h.cancel = func() {}
		return h
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// a tick may race with Cancel, recheck before the call
				if h.stopped.Load() {
					return
				}
				callback()
			}
		}
	}()
	return h
}

type handle struct {
	stopped atomic.Bool
	cancel  context.CancelFunc
	once    sync.Once
	wg      sync.WaitGroup
}

// Cancel stops future invocations, safe to call more than once
func (h *handle) Cancel() {
	h.once.Do(func() {
		h.stopped.Store(true)
		h.cancel()
	})
}

// wait blocks until the ticker goroutine exits
func (h *handle) wait() { h.wg.Wait() }
