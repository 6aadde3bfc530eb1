// Package clock abstracts time so that timing driven logic can run
// against a simulated clock.
package clock

import "time"

type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// System is the wall clock.
type System struct{}

func (System) Now() time.Time        { return time.Now() }
func (System) Sleep(d time.Duration) { time.Sleep(d) }

// ensure interface conformation
var _ Clock = System{}

// WaitUntil polls cond every poll interval until it returns true or the
// timeout elapses. It reports whether cond was met.
func WaitUntil(c Clock, timeout, poll time.Duration, cond func() bool) bool {
	deadline := c.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if !c.Now().Before(deadline) {
			return false
		}
		c.Sleep(poll)
	}
}
