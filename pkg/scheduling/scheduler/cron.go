package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	gferrors "github.com/vnykmshr/fiberflow/pkg/common/errors"
	"github.com/vnykmshr/fiberflow/pkg/common/validation"
	"github.com/vnykmshr/fiberflow/pkg/core"
)

// ScheduleCron hands cmd to the target queue every time the cron expression
// matches, until the returned handle is disposed. Expressions use six fields
// (seconds first) or a descriptor such as "@hourly" or "@every 5m":
//
//	"*/10 * * * * *"   - every 10 seconds
//	"0 30 2 * * *"     - 2:30 AM every day
//	"0 0 9 * * MON-FRI" - 9:00 AM on weekdays
//
// An expression that never matches, such as "0 0 0 30 2 *", is rejected.
func (s *Scheduler) ScheduleCron(cmd core.Command, expr string) (core.Disposable, error) {
	schedule, err := s.ParseCron(expr)
	if err != nil {
		return nil, err
	}
	return s.scheduleRecurring(cmd, expr, schedule)
}

// scheduleRecurring arms cmd on schedule. The timer completes on its own once
// the schedule has no further activation.
func (s *Scheduler) scheduleRecurring(cmd core.Command, expr string, schedule cron.Schedule) (core.Disposable, error) {
	next := func() (time.Duration, bool) {
		now := s.now().In(s.location)
		at := schedule.Next(now)
		if at.IsZero() {
			return 0, false
		}
		return at.Sub(now), true
	}

	first, ok := next()
	if !ok {
		return nil, gferrors.NewValidationError("scheduler", "cron", expr, "never matches").
			WithHint("check day-of-month against month, e.g. February has no 30th")
	}

	t := s.register(KindCron, cmd)
	if t == nil {
		return core.Nop, nil
	}
	t.next = next
	t.arm(first, t.fireRecurring)
	return t, nil
}

// ParseCron validates a cron expression without scheduling it.
func (s *Scheduler) ParseCron(expr string) (cron.Schedule, error) {
	if err := validation.ValidateNotEmpty("scheduler", "cron", expr); err != nil {
		return nil, err
	}
	schedule, err := s.parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return schedule, nil
}

// NextRuns returns the next n times expr matches after from. Fewer are
// returned when the schedule runs out of activations.
func (s *Scheduler) NextRuns(expr string, from time.Time, n int) ([]time.Time, error) {
	schedule, err := s.ParseCron(expr)
	if err != nil {
		return nil, err
	}

	runs := make([]time.Time, 0, n)
	current := from.In(s.location)
	for i := 0; i < n; i++ {
		current = schedule.Next(current)
		if current.IsZero() {
			break
		}
		runs = append(runs, current)
	}
	return runs, nil
}
