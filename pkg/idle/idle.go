// Package idle provides the idle-time scheduling primitive that drives the
// reconciler's work loop.
//
// A Scheduler invokes registered callbacks when the host has spare time and
// hands each callback a Deadline describing how much of the current slice is
// left. Callbacks are one-shot: a callback that wants to run again must
// register itself again, which is what the reconciler does after every slice.
//
// Two implementations are provided. Loop runs frames in real time on the
// goroutine that calls Run. Manual runs slices only when a test or tool calls
// Step, with a caller-chosen Deadline.
package idle

import (
	"math"
	"time"
)

// Deadline reports the time remaining in the current idle slice.
type Deadline interface {
	TimeRemaining() time.Duration
}

// Callback is invoked once per idle slice it was registered for.
type Callback func(Deadline)

// Scheduler runs callbacks during otherwise-idle execution time.
type Scheduler interface {
	RequestIdleCallback(cb Callback)
}

// Clock provides the current time. The default implementation uses system
// time; tests inject a fake clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

type unlimited struct{}

func (unlimited) TimeRemaining() time.Duration { return math.MaxInt64 }

// Unlimited is a Deadline that never runs out.
var Unlimited Deadline = unlimited{}

// Fixed is a Deadline that always reports the same remaining time.
type Fixed time.Duration

// TimeRemaining returns the fixed duration.
func (f Fixed) TimeRemaining() time.Duration { return time.Duration(f) }

// PollBudget is a Deadline that reports Remaining for the first Polls
// queries and zero afterwards. It simulates a slice that expires after a
// known number of units of work.
type PollBudget struct {
	Polls     int
	Remaining time.Duration
	used      int
}

// AfterPolls returns a deadline that expires after n TimeRemaining calls.
func AfterPolls(n int) *PollBudget {
	return &PollBudget{Polls: n, Remaining: time.Second}
}

// TimeRemaining counts the query and reports the remaining budget.
func (p *PollBudget) TimeRemaining() time.Duration {
	p.used++
	if p.used > p.Polls {
		return 0
	}
	return p.Remaining
}

// Used returns how many times TimeRemaining was called.
func (p *PollBudget) Used() int {
	return p.used
}

// clockDeadline ends at a fixed instant measured by a clock.
type clockDeadline struct {
	clock Clock
	end   time.Time
}

// Until returns a deadline that expires at end according to clock.
func Until(clock Clock, end time.Time) Deadline {
	if clock == nil {
		clock = SystemClock
	}
	return clockDeadline{clock: clock, end: end}
}

func (d clockDeadline) TimeRemaining() time.Duration {
	remaining := d.end.Sub(d.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
