package idle

import (
	"math"
	"time"
)

// Deadline reports how much of the current slice remains.
type Deadline interface {
	TimeRemaining() time.Duration
}

// Slicer grants slices of work time. RequestSlice must not call fn
// synchronously.
type Slicer interface {
	RequestSlice(fn func(Deadline))
}

// Unbounded is a Deadline that never runs out.
var Unbounded Deadline = unbounded{}

type unbounded struct{}

func (unbounded) TimeRemaining() time.Duration { return math.MaxInt64 }

// Until returns a Deadline that expires at t according to now.
func Until(t time.Time, now func() time.Time) Deadline {
	if now == nil {
		now = time.Now
	}
	return timeDeadline{until: t, now: now}
}

type timeDeadline struct {
	until time.Time
	now   func() time.Time
}

func (d timeDeadline) TimeRemaining() time.Duration {
	remaining := d.until.Sub(d.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Countdown is a Deadline that reports plenty of time for exactly n
// queries and none afterwards. With a scheduler that checks the deadline
// once per work unit it allows n units.
type Countdown struct {
	n int
}

// NewCountdown returns a Countdown allowing n queries.
func NewCountdown(n int) *Countdown {
	return &Countdown{n: n}
}

// TimeRemaining implements Deadline.
func (c *Countdown) TimeRemaining() time.Duration {
	if c.n <= 0 {
		return 0
	}
	c.n--
	return time.Hour
}

// Left returns how many queries remain.
func (c *Countdown) Left() int {
	return c.n
}
