package fiber

import (
	"log/slog"
	"time"
)

// DefaultMinRemaining is the slice time below which the scheduler yields.
const DefaultMinRemaining = time.Millisecond

type options struct {
	logger       *slog.Logger
	observers    []Observer
	minRemaining time.Duration
	onError      func(error)
	now          func() time.Time
}

func defaultOptions() options {
	return options{
		logger:       slog.Default().With("component", "fiber"),
		minRemaining: DefaultMinRemaining,
		now:          time.Now,
	}
}

// Option configures a Scheduler or an Engine.
type Option func(*options)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver adds an observer notified of cycle progress.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithMinRemaining sets the slice time below which the scheduler stops
// performing units and waits for the next slice.
func WithMinRemaining(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.minRemaining = d
		}
	}
}

// WithOnError sets a callback for failed cycles. It receives errors from
// every cycle, including ones started by hook setters that have no caller
// holding their Cycle.
func WithOnError(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithClock replaces time.Now for cycle durations.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
