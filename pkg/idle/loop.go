package idle

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// ErrLoopClosed is returned by Call once the loop has stopped.
var ErrLoopClosed = errors.New("idle: loop closed")

// DefaultSlice is the slice length used when none is configured.
const DefaultSlice = 8 * time.Millisecond

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithSlice sets the length of each granted slice.
func WithSlice(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.slice = d
		}
	}
}

// WithLogger sets the logger used for dispatch panics and queue overflow.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithQueueSize sets the capacity of the Do queue.
func WithQueueSize(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.queueSize = n
		}
	}
}

// WithClock replaces time.Now for deadline computation.
func WithClock(now func() time.Time) LoopOption {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

// Loop is a Slicer backed by a single goroutine. Slice callbacks and
// functions passed to Do all run on that goroutine, one at a time, so
// the scheduler it drives never sees concurrent calls.
//
// Between slices the loop drains queued Do functions, which lets events
// from other goroutines interleave with long render cycles.
type Loop struct {
	slice     time.Duration
	queueSize int
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.Mutex
	pending []func(Deadline)
	wake    chan struct{}

	dispatchCh chan func()
	done       chan struct{}
	closeOnce  sync.Once
	closed     atomic.Bool
	running    atomic.Bool
}

// NewLoop creates a loop. Call Run to start it.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		slice:     DefaultSlice,
		queueSize: 256,
		now:       time.Now,
		logger:    slog.Default().With("component", "idle"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.wake = make(chan struct{}, 1)
	l.dispatchCh = make(chan func(), l.queueSize)
	l.done = make(chan struct{})
	return l
}

// Slice returns the configured slice length.
func (l *Loop) Slice() time.Duration {
	return l.slice
}

// RequestSlice implements Slicer. It is safe to call from any goroutine,
// including from inside a slice callback.
func (l *Loop) RequestSlice(fn func(Deadline)) {
	if l.closed.Load() {
		return
	}
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
		// Already signalled
	}
}

// Do queues fn to run on the loop goroutine. It never blocks; when the
// queue is full fn is dropped and a warning logged.
func (l *Loop) Do(fn func()) {
	if l.closed.Load() {
		return
	}
	select {
	case l.dispatchCh <- fn:
	case <-l.done:
	default:
		l.logger.Warn("dispatch queue full, discarding callback")
	}
}

// Call runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	if l.closed.Load() {
		return ErrLoopClosed
	}
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}
	select {
	case l.dispatchCh <- wrapped:
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes slices and dispatched functions until ctx is cancelled or
// Close is called. It returns nil after Close and ctx.Err() on
// cancellation.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("idle: loop already running")
	}
	defer l.running.Store(false)

	for {
		select {
		case fn := <-l.dispatchCh:
			l.execute(fn)

		case <-l.wake:
			l.runSlices()

		case <-ctx.Done():
			l.Close()
			return ctx.Err()

		case <-l.done:
			return nil
		}
	}
}

// Close stops the loop. Queued work is discarded.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// runSlices grants one slice to each callback queued so far.
func (l *Loop) runSlices() {
	l.mu.Lock()
	fns := l.pending
	l.pending = nil
	l.mu.Unlock()

	for _, fn := range fns {
		d := Until(l.now().Add(l.slice), l.now)
		l.execute(func() { fn(d) })
	}
}

// execute runs fn with panic recovery so one bad callback cannot stop the loop.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop callback panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
