/*
Package scheduler arms timers on behalf of a fiber.

A Scheduler never runs user work on a timer goroutine. When a timer fires, the
scheduled command is handed to the owning core.Queue (normally a fiber) through
its Execute method, so it runs serialized with everything else that fiber does.
One TimerSource can therefore be shared by any number of schedulers without a
slow command delaying another fiber's timers.

Basic Usage:

	s := scheduler.New(f, scheduler.Config{})
	defer s.Dispose()

	// Once, after 100ms
	handle := s.Schedule(func() { fmt.Println("fired") }, 100*time.Millisecond)

	// Every second, starting after 10ms
	ticker := s.ScheduleOnInterval(refresh, 10*time.Millisecond, time.Second)

	// Cron expressions with a seconds field, or descriptors
	nightly, err := s.ScheduleCron(backup, "0 30 2 * * *")

Cancellation:

Every schedule call returns a core.Disposable. Disposing it is idempotent and safe
from any goroutine. A one-shot handle disposed after it fired has no effect; a
recurring handle stops re-arming, and a firing that has already been handed to the
queue still runs. Dispose on the Scheduler cancels everything still armed, and
later schedule calls return no-op handles.

Timer Sources:

Config.Timers defaults to RuntimeTimers, which wraps time.AfterFunc. Tests supply
a manually advanced clock to fire timers deterministically; Config.Now should then
come from the same clock so cron evaluation agrees with it.

Recurring Semantics:

Interval schedules re-arm from the moment each firing is handed off, so the period
is measured between hand-offs rather than between completions. If the queue falls
behind, firings accumulate on it in order.
*/
package scheduler
