package session

import "time"

// Timer is a handle to a scheduled one-shot callback.
type Timer interface {
	// Stop cancels the callback. It reports false if the callback already
	// ran or was already stopped.
	Stop() bool
}

// Clock supplies the current time and one-shot timers.
//
// AfterFunc must never invoke f synchronously; f runs on another goroutine
// or from a later call into the clock. A non-positive d fires as soon as
// possible.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
