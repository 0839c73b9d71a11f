package fiber

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vnykmshr/fiberflow/pkg/core"
	"github.com/vnykmshr/fiberflow/pkg/metrics"
	"github.com/vnykmshr/fiberflow/pkg/scheduling/scheduler"
)

// Fiber is a logical single-threaded execution context. Commands passed to
// Execute run one at a time, in the order Execute accepted them, on whatever
// goroutine backs the fiber.
type Fiber interface {
	core.Queue

	// Start begins draining. Commands executed before Start are kept and run
	// once the fiber starts. A second call returns errors.ErrAlreadyStarted,
	// and a call after Dispose returns errors.ErrClosed.
	Start() error

	// Dispose stops the fiber and runs its disposal hooks. Later Execute and
	// schedule calls are no-ops. Commands already handed to a goroutine still
	// run to completion.
	Dispose()

	// Schedule runs cmd on this fiber once, after delay.
	Schedule(cmd core.Command, delay time.Duration) core.Disposable

	// ScheduleOnInterval runs cmd on this fiber after firstDelay and then
	// every interval. Disposing the handle also deregisters it from the
	// fiber's disposal hooks. It panics if interval is not positive.
	ScheduleOnInterval(cmd core.Command, firstDelay, interval time.Duration) core.Disposable

	// ScheduleCron runs cmd on this fiber whenever expr matches.
	ScheduleCron(cmd core.Command, expr string) (core.Disposable, error)

	// AddOnStop registers d to be disposed exactly once when the fiber is
	// disposed. On an already disposed fiber d is disposed immediately.
	AddOnStop(d core.Disposable) core.HookKey

	// RemoveOnStop deregisters a disposal hook and reports whether it was
	// still registered.
	RemoveOnStop(key core.HookKey) bool

	// RegisteredHooks returns the number of registered disposal hooks.
	RegisteredHooks() int

	// Name identifies the fiber in logs and metrics.
	Name() string
}

// State is the lifecycle state of a fiber.
type State int32

const (
	// Created is a fiber that buffers commands until Start.
	Created State = iota
	// Running is a started fiber draining its commands.
	Running
	// Disposed is a stopped fiber. It drops every later command.
	Disposed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Config holds fiber configuration.
type Config struct {
	// Name identifies the fiber in logs and metrics. Defaults to a random UUID.
	Name string

	// Executor runs each drained batch. Defaults to core.SynchronousExecutor.
	Executor core.Executor

	// Timers is the timer source used by the fiber's scheduler.
	// Defaults to scheduler.RuntimeTimers.
	Timers scheduler.TimerSource

	// Now is the clock used for cron evaluation. Defaults to time.Now.
	Now func() time.Time

	// Location is the time zone for cron schedules. Defaults to time.Local.
	Location *time.Location

	// Logger receives lifecycle and failure records. Nil discards.
	Logger *slog.Logger

	// Metrics enables instrumentation when set.
	Metrics *metrics.Registry

	// Context bounds the lifetime of a ThreadFiber's drain goroutine. It is
	// held for that lifetime rather than passed per call. Cancellation is
	// fatal: the goroutine exits, the fiber disposes itself and Err reports
	// the cause. Ignored by PoolFiber. Defaults to context.Background().
	Context context.Context
}

// DefaultConfig returns a configuration with every default applied except
// the name, which is generated per fiber.
func DefaultConfig() Config {
	return Config{
		Executor: core.SynchronousExecutor{},
		Timers:   scheduler.RuntimeTimers,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Context:  context.Background(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Name == "" {
		c.Name = uuid.NewString()
	}
	if c.Executor == nil {
		c.Executor = d.Executor
	}
	if c.Timers == nil {
		c.Timers = d.Timers
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	if c.Context == nil {
		c.Context = d.Context
	}
	c.Logger = c.Logger.With(slog.String("fiber", c.Name))
	if c.Metrics != nil {
		c.Executor = instrumentedExecutor{next: c.Executor, name: c.Name, metrics: c.Metrics}
	}
	return c
}

func (c Config) scheduler(target core.Queue) *scheduler.Scheduler {
	return scheduler.New(target, scheduler.Config{
		Timers:   c.Timers,
		Now:      c.Now,
		Location: c.Location,
		Name:     c.Name,
		Metrics:  c.Metrics,
	})
}

type hookSet interface {
	AddOnStop(d core.Disposable) core.HookKey
	RemoveOnStop(key core.HookKey) bool
}

// trackRecurring registers a recurring handle as a disposal hook and returns
// a handle whose Dispose also deregisters it, so canceled timers do not
// accumulate hook registrations on long-lived fibers.
func trackRecurring(hooks hookSet, d core.Disposable) core.Disposable {
	key := hooks.AddOnStop(d)
	return core.Once(core.DisposableFunc(func() {
		hooks.RemoveOnStop(key)
		d.Dispose()
	}))
}
