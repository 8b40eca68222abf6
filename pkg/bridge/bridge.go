// Package bridge lets synchronous turn-processing code invoke operations
// against asynchronous remote clients and block for the result.
//
// A Bridge runs one long-lived worker goroutine that owns the only handle to
// the remote client; synchronous callers submit closures and wait. This is a
// deliberate concurrency-model seam between the turn lifecycle (one logical
// flow of control) and remote services with their own session state, not an
// artifact to hide.
package bridge

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrUnavailable is returned when work is submitted to a bridge whose worker
// is not running (never started or already closed).
var ErrUnavailable = errors.New("bridge worker not running")

// Bridge executes submitted closures sequentially on a dedicated worker
// goroutine. Safe for concurrent submission from multiple callers.
type Bridge struct {
	jobs   chan job
	done   chan struct{}
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

type job struct {
	ctx    context.Context
	fn     func(context.Context) error
	result chan error
}

var defaultQueueSize = 16

// New creates a bridge and starts its worker goroutine.
func New(logger *zap.Logger) *Bridge {
	b := &Bridge{
		jobs:   make(chan job, defaultQueueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
	go b.worker()
	return b
}

// worker runs submitted closures to completion, one at a time.
func (b *Bridge) worker() {
	b.logger.Debug("bridge worker started")
	for j := range b.jobs {
		j.result <- b.run(j)
	}
	close(b.done)
	b.logger.Debug("bridge worker stopped")
}

func (b *Bridge) run(j job) error {
	if err := j.ctx.Err(); err != nil {
		return err
	}
	return j.fn(j.ctx)
}

// Do submits fn to the worker and blocks until it completes, returning the
// closure's error unchanged. Returns ErrUnavailable when the bridge has been
// closed, or the context error when ctx expires before completion.
func (b *Bridge) Do(ctx context.Context, fn func(context.Context) error) error {
	j := job{ctx: ctx, fn: fn, result: make(chan error, 1)}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrUnavailable
	}

	select {
	case b.jobs <- j:
		b.mu.RUnlock()
	case <-ctx.Done():
		b.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker after in-flight jobs drain. Subsequent Do calls
// return ErrUnavailable.
func (b *Bridge) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.jobs)
	}
	b.mu.Unlock()
	<-b.done
}
