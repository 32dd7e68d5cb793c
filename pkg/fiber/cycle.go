package fiber

import (
	"context"
	"time"
)

// Trigger says what started a cycle.
type Trigger string

const (
	TriggerRender   Trigger = "render"
	TriggerSetState Trigger = "setState"
)

// Stats summarises one cycle.
type Stats struct {
	Units    int           // Work units performed
	Slices   int           // Slices the render phase spanned
	Placed   int           // Units committed with EffectPlace
	Updated  int           // Units committed with EffectUpdate
	Deleted  int           // Subtrees removed
	Duration time.Duration // From start to completion
}

// Cycle tracks one render cycle from request to commit. Err and Stats are
// final once Done is closed.
type Cycle struct {
	id      uint64
	trigger Trigger
	started time.Time
	done    chan struct{}
	err     error
	stats   Stats
}

func newCycle(id uint64, trigger Trigger, started time.Time) *Cycle {
	return &Cycle{
		id:      id,
		trigger: trigger,
		started: started,
		done:    make(chan struct{}),
	}
}

// ID returns the cycle's sequence number within its scheduler.
func (c *Cycle) ID() uint64 { return c.id }

// Trigger returns what started the cycle.
func (c *Cycle) Trigger() Trigger { return c.trigger }

// Started returns when the cycle was requested.
func (c *Cycle) Started() time.Time { return c.started }

// Done is closed when the cycle commits, fails or is abandoned.
func (c *Cycle) Done() <-chan struct{} { return c.done }

// Err returns why the cycle did not commit, or nil.
func (c *Cycle) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Stats returns the cycle's counters.
func (c *Cycle) Stats() Stats { return c.stats }

// Wait blocks until the cycle completes or ctx is done.
func (c *Cycle) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Completed reports whether Done is closed.
func (c *Cycle) Completed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Cycle) complete(err error, now time.Time) {
	c.err = err
	c.stats.Duration = now.Sub(c.started)
	close(c.done)
}

// failedCycle returns a cycle that is already complete with err.
func failedCycle(id uint64, trigger Trigger, now time.Time, err error) *Cycle {
	c := newCycle(id, trigger, now)
	c.complete(err, now)
	return c
}
