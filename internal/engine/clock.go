package engine

import "time"

// Clock supplies observation timestamps for ingested frames.
//
// Production code uses SystemClock; tests inject testutil.ManualClock so
// expiry behavior can be exercised without wall-clock sleeps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
//
// time.Now carries a monotonic reading on all supported platforms, so
// ages and expiry computed from successive Now() calls are immune to
// wall-clock steps.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
