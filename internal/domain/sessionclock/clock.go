// Package sessionclock derives the active duration of a session and provides
// the time source used by the engine.
package sessionclock

import (
	"sync"
	"time"
)

// ActiveDuration returns the time a session has been active as of now.
// While paused (pausedSince set) the clock is frozen at pausedSince.
// The result is truncated to whole seconds and never negative.
func ActiveDuration(start time.Time, pausedDuration time.Duration, pausedSince *time.Time, now time.Time) time.Duration {
	ref := now
	if pausedSince != nil {
		ref = *pausedSince
	}
	d := ref.Sub(start) - pausedDuration
	if d < 0 {
		return 0
	}
	return d.Truncate(time.Second)
}

// Seconds returns d as whole seconds.
func Seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// RealClock uses the system clock.
type RealClock struct{}

// Now returns the wall time without the monotonic reading, so values
// survive serialization unchanged.
func (RealClock) Now() time.Time {
	return time.Now().Round(0)
}

// TestClock is a manually driven clock for tests.
type TestClock struct {
	mu      sync.Mutex
	current time.Time
}

// NewTestClock returns a TestClock set to t.
func NewTestClock(t time.Time) *TestClock {
	return &TestClock{current: t}
}

// Now returns the clock's current time.
func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Set moves the clock to t.
func (c *TestClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// Advance moves the clock forward by d.
func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}
