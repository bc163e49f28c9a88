// Package clock supplies "now" to the simulation. The same strategy code path
// runs unmodified against live wall time or replayed simulation time.
package clock

import "time"

// Clock exposes the current time as a unix millisecond timestamp.
type Clock interface {
	// Now returns the current timestamp in unix milliseconds.
	Now() int64
	// AsTime returns the current timestamp as calendar time.
	AsTime() time.Time
}

// RealClock delegates to the host clock. It is not independently settable.
type RealClock struct{}

// NewRealClock creates a clock backed by the host's wall clock.
func NewRealClock() *RealClock {
	return &RealClock{}
}

// Now implements Clock.
func (c *RealClock) Now() int64 {
	return time.Now().UnixMilli()
}

// AsTime implements Clock.
func (c *RealClock) AsTime() time.Time {
	return time.Now()
}

// SimClock is the controllable variant used by the race controller. Within one
// run its timestamp is monotonically non-decreasing: Set calls that would move
// time backwards are ignored.
type SimClock struct {
	now int64
}

// NewSimClock creates a controllable clock starting at the given timestamp.
func NewSimClock(startMs int64) *SimClock {
	return &SimClock{now: startMs}
}

// Now implements Clock.
func (c *SimClock) Now() int64 {
	return c.now
}

// AsTime implements Clock.
func (c *SimClock) AsTime() time.Time {
	return time.UnixMilli(c.now).UTC()
}

// Set moves the clock to the given timestamp. Timestamps earlier than the
// current one are ignored, preserving monotonicity within a run.
func (c *SimClock) Set(ms int64) {
	if ms < c.now {
		return
	}

	c.now = ms
}

// Advance moves the clock forward by deltaMs. Negative deltas are ignored.
func (c *SimClock) Advance(deltaMs int64) {
	if deltaMs < 0 {
		return
	}

	c.now += deltaMs
}
