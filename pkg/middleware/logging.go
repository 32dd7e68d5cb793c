package middleware

import (
	"log/slog"
	"time"

	"github.com/vango-dev/fibertree/internal/errors"
	"github.com/vango-dev/fibertree/pkg/fiber"
)

// LoggingObserver logs every completed cycle.
type LoggingObserver struct {
	fiber.BaseObserver
	logger *slog.Logger
	slow   time.Duration
}

// LoggingOption configures the logging observer.
type LoggingOption func(*LoggingObserver)

// WithSlowThreshold logs committed cycles slower than d at warn level.
func WithSlowThreshold(d time.Duration) LoggingOption {
	return func(o *LoggingObserver) {
		o.slow = d
	}
}

// Logging creates an observer that logs cycle outcomes. A nil logger uses
// slog.Default().
func Logging(logger *slog.Logger, opts ...LoggingOption) *LoggingObserver {
	if logger == nil {
		logger = slog.Default()
	}
	o := &LoggingObserver{logger: logger.With("component", "cycles")}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CycleFinished implements fiber.Observer.
func (o *LoggingObserver) CycleFinished(c *fiber.Cycle) {
	st := c.Stats()
	attrs := []any{
		"cycle", c.ID(),
		"trigger", c.Trigger(),
		"duration", st.Duration,
		"units", st.Units,
		"slices", st.Slices,
	}

	err := c.Err()
	switch {
	case err == nil:
		attrs = append(attrs, "placed", st.Placed, "updated", st.Updated, "deleted", st.Deleted)
		if o.slow > 0 && st.Duration > o.slow {
			o.logger.Warn("slow render cycle", attrs...)
			return
		}
		o.logger.Info("render cycle committed", attrs...)
	case errors.HasCode(err, "E110"):
		o.logger.Debug("render cycle abandoned", attrs...)
	default:
		attrs = append(attrs, "code", errors.CodeOf(err), "error", err)
		o.logger.Error("render cycle failed", attrs...)
	}
}
