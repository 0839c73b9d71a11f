package scheduler

import "time"

// TimerSource is the shared timer collaborator: it runs fn once after d on a
// goroutine of its choosing. The returned stop function disarms the timer and
// reports whether it was still armed.
//
// Timer callbacks must never block; the Scheduler only uses them to hand a
// command to the owning fiber's queue.
type TimerSource interface {
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

type runtimeTimers struct{}

func (runtimeTimers) AfterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// RuntimeTimers is the TimerSource backed by the Go runtime's timer heap.
var RuntimeTimers TimerSource = runtimeTimers{}

// Kind distinguishes scheduled work for metrics and introspection.
type Kind string

const (
	// KindOnce fires a single time.
	KindOnce Kind = "once"

	// KindInterval fires after a first delay and then on a fixed period.
	KindInterval Kind = "interval"

	// KindCron fires whenever its cron expression next matches.
	KindCron Kind = "cron"
)
