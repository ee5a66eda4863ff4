package cacheinfra

import "time"

// Clock supplies the timestamps used for entry freshness checks.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock. time.Now carries a monotonic reading,
// so TTL arithmetic is unaffected by wall clock adjustments.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now()
}
