package util

import "time"

// Clock abstracts wall time so order-deadline checks and fill-log
// timestamps can run against a controlled clock in tests.
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}

// RealClock is the production Clock, backed by the system time.
type RealClock struct{}

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (RealClock) Now() time.Time                         { return time.Now() }
