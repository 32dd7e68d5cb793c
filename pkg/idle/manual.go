package idle

import "sync"

// Manual is a Slicer driven by hand. Requested callbacks wait in a queue
// until Step, Grant or Drain runs them.
type Manual struct {
	mu      sync.Mutex
	pending []func(Deadline)
	granted int
}

// NewManual returns an empty Manual slicer.
func NewManual() *Manual {
	return &Manual{}
}

// RequestSlice implements Slicer.
func (m *Manual) RequestSlice(fn func(Deadline)) {
	m.mu.Lock()
	m.pending = append(m.pending, fn)
	m.mu.Unlock()
}

// Pending returns the number of queued callbacks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Granted returns how many slices have been granted so far.
func (m *Manual) Granted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.granted
}

// take removes the callbacks queued so far. Callbacks requested while they
// run wait for the next grant.
func (m *Manual) take() []func(Deadline) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fns := m.pending
	m.pending = nil
	m.granted += len(fns)
	return fns
}

// Grant runs every queued callback with deadline d and returns how many ran.
func (m *Manual) Grant(d Deadline) int {
	fns := m.take()
	for _, fn := range fns {
		fn(d)
	}
	return len(fns)
}

// Step runs every queued callback with a Countdown allowing units queries.
func (m *Manual) Step(units int) int {
	fns := m.take()
	for _, fn := range fns {
		fn(NewCountdown(units))
	}
	return len(fns)
}

// Drain grants unbounded slices until no callback is queued and returns
// the number of slices granted.
func (m *Manual) Drain() int {
	total := 0
	for {
		n := m.Grant(Unbounded)
		if n == 0 {
			return total
		}
		total += n
	}
}
