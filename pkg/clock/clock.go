// Package clock provides the host clocks used for sampling: a monotonic
// timer, the wall clock and an optional process CPU-time clock.
package clock

import (
	"sync"
	"time"
)

// Clock is the timer source for a profiling run.
type Clock interface {
	// Now returns a reading suitable for measuring elapsed time.
	Now() time.Time
	// Wall returns the current wall-clock time.
	Wall() time.Time
}

// System reads the host clocks.
type System struct{}

// Now returns time.Now, which carries a monotonic reading.
func (System) Now() time.Time { return time.Now() }

// Wall returns the wall-clock time with the monotonic reading stripped.
func (System) Wall() time.Time { return time.Now().Round(0) }

// Manual is a clock that only moves when told to. It is safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a manual clock reading start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the current reading.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Wall returns the current reading.
func (m *Manual) Wall() time.Time {
	return m.Now()
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
