// Package clock abstracts wall time so services can be pinned to an instant
// in tests. Every timestamp the engine produces is UTC.
package clock

import "time"

// Clock is the time source injected into every service.
type Clock interface {
	Now() time.Time
}

// NewSystem returns the wall clock.
func NewSystem() Clock {
	return sysClock{}
}

type sysClock struct{}

func (sysClock) Now() time.Time {
	return time.Now().UTC()
}

// NewFixed pins the clock to t for deterministic tests.
func NewFixed(t time.Time) Clock {
	return frozenClock{at: t.UTC()}
}

type frozenClock struct {
	at time.Time
}

func (c frozenClock) Now() time.Time {
	return c.at
}
