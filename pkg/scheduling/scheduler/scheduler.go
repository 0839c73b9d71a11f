package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/vnykmshr/fiberflow/pkg/common/validation"
	"github.com/vnykmshr/fiberflow/pkg/core"
	"github.com/vnykmshr/fiberflow/pkg/metrics"
)

// Config holds scheduler configuration.
type Config struct {
	Timers   TimerSource      // Defaults to RuntimeTimers
	Now      func() time.Time // Clock used for cron evaluation, defaults to time.Now
	Location *time.Location   // For cron scheduling, defaults to time.Local
	Name     string           // Label used for metrics
	Metrics  *metrics.Registry
}

// Scheduler arms timers on behalf of one queue, usually a fiber.
//
// When a timer fires, its command is handed to the queue's Execute instead of
// running on the timer goroutine, so scheduled work is serialized with all
// other work on that queue and a shared TimerSource never blocks on it.
// Every armed timer is tracked until it completes or is canceled.
type Scheduler struct {
	target   core.Queue
	timers   TimerSource
	now      func() time.Time
	location *time.Location
	parser   cron.Parser
	name     string
	metrics  *metrics.Registry

	mu       sync.Mutex
	nextID   uint64
	pending  map[uint64]*timer
	disposed bool
}

// New creates a scheduler that delivers to target.
func New(target core.Queue, cfg Config) *Scheduler {
	if cfg.Timers == nil {
		cfg.Timers = RuntimeTimers
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	return &Scheduler{
		target:   target,
		timers:   cfg.Timers,
		now:      cfg.Now,
		location: cfg.Location,
		parser:   cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		name:     cfg.Name,
		metrics:  cfg.Metrics,
		pending:  make(map[uint64]*timer),
	}
}

// Schedule hands cmd to the target queue once, after delay. A negative delay
// is treated as zero. Disposing the returned handle before the timer fires
// prevents the hand-off; disposing it afterwards has no effect.
func (s *Scheduler) Schedule(cmd core.Command, delay time.Duration) core.Disposable {
	if delay < 0 {
		delay = 0
	}

	t := s.register(KindOnce, cmd)
	if t == nil {
		return core.Nop
	}
	t.arm(delay, t.fireOnce)
	return t
}

// ScheduleOnInterval hands cmd to the target queue after firstDelay and then
// every interval until the returned handle is disposed. Each firing is a
// separate hand-off, so a slow queue accumulates executions rather than
// skipping them. It panics if interval is not positive.
func (s *Scheduler) ScheduleOnInterval(cmd core.Command, firstDelay, interval time.Duration) core.Disposable {
	if err := validation.ValidatePositiveDuration("scheduler", "interval", interval); err != nil {
		panic(err)
	}
	if firstDelay < 0 {
		firstDelay = 0
	}

	t := s.register(KindInterval, cmd)
	if t == nil {
		return core.Nop
	}
	t.interval = interval
	t.arm(firstDelay, t.fireInterval)
	return t
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Dispose cancels every armed timer. Later Schedule calls return no-op handles.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	timers := make([]*timer, 0, len(s.pending))
	for _, t := range s.pending {
		timers = append(timers, t)
	}
	s.mu.Unlock()

	for _, t := range timers {
		t.Dispose()
	}
}

func (s *Scheduler) register(kind Kind, cmd core.Command) *timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return nil
	}

	s.nextID++
	t := &timer{id: s.nextID, kind: kind, cmd: cmd, owner: s}
	s.pending[t.id] = t

	if s.metrics != nil {
		s.metrics.TimersScheduled.WithLabelValues(s.name, string(kind)).Inc()
		s.metrics.TimersPending.WithLabelValues(s.name).Set(float64(len(s.pending)))
	}
	return t
}

func (s *Scheduler) unregister(t *timer, canceled bool) {
	s.mu.Lock()
	delete(s.pending, t.id)
	n := len(s.pending)
	s.mu.Unlock()

	if s.metrics != nil {
		if canceled {
			s.metrics.TimersCanceled.WithLabelValues(s.name, string(t.kind)).Inc()
		}
		s.metrics.TimersPending.WithLabelValues(s.name).Set(float64(n))
	}
}

func (s *Scheduler) handOff(t *timer) {
	if s.metrics != nil {
		s.metrics.TimersFired.WithLabelValues(s.name, string(t.kind)).Inc()
	}
	s.target.Execute(t.cmd)
}

// timer is the cancellation state of one scheduled item.
type timer struct {
	id       uint64
	kind     Kind
	cmd      core.Command
	owner    *Scheduler
	interval time.Duration
	next     func() (time.Duration, bool)

	mu   sync.Mutex
	stop func() bool
	done bool
}

// arm starts the first timer. Holding mu while arming makes a callback that
// fires immediately wait until stop is recorded.
func (t *timer) arm(d time.Duration, fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.stop = t.owner.timers.AfterFunc(d, fire)
}

// Dispose cancels the timer. It is safe to call any number of times and from
// any goroutine, including after the timer has fired.
func (t *timer) Dispose() {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	stop := t.stop
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
	t.owner.unregister(t, true)
}

func (t *timer) fireOnce() {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	t.mu.Unlock()

	t.owner.unregister(t, false)
	t.owner.handOff(t)
}

func (t *timer) fireInterval() {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.stop = t.owner.timers.AfterFunc(t.interval, t.fireInterval)
	t.mu.Unlock()

	t.owner.handOff(t)
}

// fireRecurring hands off the current activation and arms the next one. A
// schedule with no further activation completes the timer.
func (t *timer) fireRecurring() {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	d, ok := t.next()
	if ok {
		t.stop = t.owner.timers.AfterFunc(d, t.fireRecurring)
	} else {
		t.done = true
	}
	t.mu.Unlock()

	if !ok {
		t.owner.unregister(t, false)
	}
	t.owner.handOff(t)
}
