// Package runloop provides the single logical thread that drives the
// client: inbound frames, timers and user commands are queued as callbacks
// and executed one at a time, each to completion.
//
// Code running on the loop may touch the registry, cache facade and view
// tree without locking. Other goroutines hand work to the loop with
// Dispatch or Do.
package runloop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Errors returned by the loop.
var (
	ErrClosed    = errors.New("runloop: closed")
	ErrQueueFull = errors.New("runloop: queue full")
	ErrPanicked  = errors.New("runloop: callback panicked")
)

// DefaultQueueSize is the default dispatch queue capacity.
const DefaultQueueSize = 256

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithQueueSize sets the dispatch queue capacity.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.size = n
		}
	}
}

// Loop executes dispatched callbacks sequentially.
type Loop struct {
	queue     chan func()
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
	size      int

	executed atomic.Uint64
	panics   atomic.Uint64

	logger *slog.Logger
}

// New creates a loop. Call Run to start executing callbacks.
func New(opts ...Option) *Loop {
	l := &Loop{
		done:   make(chan struct{}),
		size:   DefaultQueueSize,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.queue = make(chan func(), l.size)
	l.logger = l.logger.With("component", "runloop")
	return l
}

// Dispatch queues fn for execution on the loop. It never blocks.
func (l *Loop) Dispatch(fn func()) error {
	if l.closed.Load() {
		return ErrClosed
	}
	select {
	case l.queue <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	default:
		l.logger.Warn("dispatch queue full, discarding callback", "capacity", l.size)
		return ErrQueueFull
	}
}

// Do runs fn on the loop and waits for its result. A panic in fn is
// returned as an error wrapping ErrPanicked. Do must not be called from
// the loop itself.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	err := l.Dispatch(func() {
		defer func() {
			if r := recover(); r != nil {
				l.panics.Add(1)
				l.logger.Error("dispatch panic", "panic", r, "stack", string(debug.Stack()))
				result <- fmt.Errorf("%w: %v", ErrPanicked, r)
			}
		}()
		result <- fn()
	})
	if err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	}
}

// Run executes queued callbacks until ctx is cancelled or the loop is
// closed. It returns ctx.Err() on cancellation and nil on Close.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("run loop started")
	defer l.logger.Debug("run loop stopped")

	for {
		select {
		case fn := <-l.queue:
			l.execute(fn)
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		}
	}
}

// execute runs fn with panic recovery.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(1)
			l.logger.Error("dispatch panic", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	l.executed.Add(1)
	fn()
}

// Close stops the loop. Queued callbacks that have not started are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Done is closed when the loop is closed.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Stats returns the number of executed callbacks and recovered panics.
func (l *Loop) Stats() (executed, panics uint64) {
	return l.executed.Load(), l.panics.Load()
}
