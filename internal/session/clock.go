package session

import "time"

// Clock abstracts the timers the controller depends on (settle delays,
// readiness fallback, UI timeout, assume-success window, backoff). Tests
// inject a manual clock so every fallback is independently verifiable.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable pending callback. Stop reports whether the timer
// was still pending.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// NewClock returns the wall clock.
func NewClock() Clock {
	return realClock{}
}
