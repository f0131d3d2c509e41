// Package clock provides the scheduling capability used by the quiz timer and
// the feedback auto-advance.
package clock

import "time"

// Handle cancels a scheduled callback. Stop reports whether the call
// prevented the callback from running.
type Handle interface {
	Stop() bool
}

// Scheduler runs callbacks once after a delay and exposes the current time.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Handle
}

// System is the wall-clock scheduler backed by time.AfterFunc.
type System struct{}

func (System) Now() time.Time { return time.Now() }

func (System) AfterFunc(d time.Duration, f func()) Handle {
	return time.AfterFunc(d, f)
}
