package service

import "time"

// Clock is the injectable time source for the timer engine.
// Production code uses RealClock; tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock in UTC
type RealClock struct{}

// Now returns the current time in UTC
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}
