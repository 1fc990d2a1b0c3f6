// Package clock abstracts the timers used by study sessions so tests can
// drive them deterministically. Production code uses Real(); tests use
// Fake() and move time forward with Advance.
package clock

import "time"

// Clock is the subset of the time package the application depends on.
type Clock interface {
	Now() time.Time

	// After returns a channel that receives the current time once d has
	// elapsed.
	After(d time.Duration) <-chan time.Time

	// AfterFunc calls f in its own goroutine (real) or synchronously
	// during Advance (fake) once d has elapsed.
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a cancellable pending call created by AfterFunc.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the timer from firing. It returns false if the timer had
// already fired or been stopped.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}
	return t.stopFunc()
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	timer := time.AfterFunc(d, f)
	return &Timer{stopFunc: timer.Stop}
}
