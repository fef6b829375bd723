// Package testutil provides deterministic test doubles for time-dependent
// engine behavior.
package testutil

import (
	"sync"
	"time"
)

// Epoch is the base timestamp manual clocks start from. The concrete value
// is arbitrary; tests reason in offsets from it.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// ManualClock is a thread-safe clock that only moves when told to.
//
// It implements engine.Clock, letting tests exercise retention expiry
// without wall-clock sleeps. Time must only move forward: the engine
// requires non-decreasing now values, and ManualClock enforces that by
// ignoring attempts to set an earlier time.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock frozen at Epoch.
func NewManualClock() *ManualClock {
	return &ManualClock{now: Epoch}
}

// Now returns the clock's current reading.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new reading.
// Negative d is ignored.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.now = c.now.Add(d)
	}
	return c.now
}

// At returns Epoch plus the given offset. Convenience for expectations.
func At(offset time.Duration) time.Time {
	return Epoch.Add(offset)
}
