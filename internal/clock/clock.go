package clock

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the
	// call stopped the timer.
	Stop() bool
}

// Scheduler runs callbacks after a delay. AfterFunc never runs f on the
// calling goroutine.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

// New returns a Scheduler backed by the runtime timers.
func New() Scheduler {
	return realScheduler{}
}

func (realScheduler) Now() time.Time { return time.Now() }

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
