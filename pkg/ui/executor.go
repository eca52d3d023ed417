// Package ui provides execution contexts used to marshal presenter work.
// Loop is the single goroutine "UI thread", Background runs blocking work off it
// and Immediate runs everything inline for deterministic tests.
package ui

import (
	"context"
	"sync"

	"github.com/go-pkgz/lgr"
)

// Executor accepts tasks for execution
type Executor interface {
	Submit(task func())
}

// Immediate runs submitted tasks synchronously on the caller's goroutine
type Immediate struct{}

// Submit runs the task right away
func (Immediate) Submit(task func()) { task() }

// Background runs every submitted task on its own goroutine
type Background struct{}

// Submit starts the task in a new goroutine
func (Background) Submit(task func()) { go task() }

// Loop is a serial executor, all tasks run one by one on the goroutine calling Run
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once

	mu      sync.Mutex // orders enqueue against the drain on stop
	stopped bool
}

// NewLoop makes a loop with a queue of the given size
func NewLoop(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = 100
	}
	return &Loop{tasks: make(chan func(), queueSize), done: make(chan struct{})}
}

// Submit enqueues the task. Tasks submitted after the loop stopped are dropped.
func (l *Loop) Submit(task func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		lgr.Printf("[WARN] ui loop stopped, task dropped")
		return
	}
	select {
	case <-l.done:
		lgr.Printf("[WARN] ui loop stopped, task dropped")
	case l.tasks <- task:
	}
}

// Run executes queued tasks until ctx is done
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop()
	lgr.Printf("[DEBUG] ui loop started")
	for {
		select {
		case <-ctx.Done():
			lgr.Printf("[DEBUG] ui loop stopped")
			return ctx.Err()
		case task := <-l.tasks:
			l.exec(task)
		}
	}
}

// stop unblocks pending submitters and drops whatever is still queued
func (l *Loop) stop() {
	l.once.Do(func() { close(l.done) })
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	dropped := 0
	for {
		select {
		case <-l.tasks:
			dropped++
		default:
			if dropped > 0 {
				lgr.Printf("[WARN] ui loop stopped, %d queued tasks dropped", dropped)
			}
			return
		}
	}
}

func (l *Loop) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			lgr.Printf("[ERROR] ui task panic: %v", r)
		}
	}()
	task()
}
