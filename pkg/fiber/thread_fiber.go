package fiber

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	gfcontext "github.com/vnykmshr/fiberflow/pkg/common/context"
	gferrors "github.com/vnykmshr/fiberflow/pkg/common/errors"
	"github.com/vnykmshr/fiberflow/pkg/core"
	"github.com/vnykmshr/fiberflow/pkg/metrics"
	"github.com/vnykmshr/fiberflow/pkg/scheduling/scheduler"
)

// ThreadFiber is a fiber backed by one dedicated goroutine running a
// core.Loop. Commands executed before Start are queued and drained once the
// goroutine starts.
type ThreadFiber struct {
	name    string
	loop    *core.Loop
	sched   *scheduler.Scheduler
	logger  *slog.Logger
	metrics *metrics.Registry
	ctx     context.Context

	started atomic.Bool
	done    chan struct{}
	err     error
}

// NewThreadFiber creates an unstarted fiber.
func NewThreadFiber(cfg Config) *ThreadFiber {
	cfg = cfg.withDefaults()

	f := &ThreadFiber{
		name:    cfg.Name,
		loop:    core.NewLoop(core.LoopConfig{Executor: cfg.Executor, Logger: cfg.Logger}),
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		ctx:     cfg.Context,
		done:    make(chan struct{}),
	}
	f.sched = cfg.scheduler(f)
	return f
}

// Name implements Fiber.
func (f *ThreadFiber) Name() string { return f.name }

// Execute implements Fiber.
func (f *ThreadFiber) Execute(cmd core.Command) { f.loop.Execute(cmd) }

// Start launches the drain goroutine.
func (f *ThreadFiber) Start() error {
	if !f.started.CompareAndSwap(false, true) {
		if !f.loop.Running() {
			return gferrors.ErrClosed
		}
		return gferrors.ErrAlreadyStarted
	}
	if !f.loop.Running() {
		close(f.done)
		return gferrors.ErrClosed
	}

	go f.run()
	return nil
}

func (f *ThreadFiber) run() {
	defer func() {
		f.metrics.ForgetFiber(f.name)
		close(f.done)
	}()

	if err := f.loop.Run(f.ctx); err != nil {
		f.err = err
		if gfcontext.IsCanceled(f.ctx) {
			f.logger.Info("fiber stopped by context", slog.String("error", err.Error()))
		} else {
			f.logger.Error("fiber stopped", slog.String("error", err.Error()))
		}
		f.sched.Dispose()
		f.loop.Dispose()
	}
}

// Dispose stops the drain goroutine after its current batch and runs the
// disposal hooks. It does not wait for the goroutine; use Done for that.
func (f *ThreadFiber) Dispose() {
	f.sched.Dispose()
	f.loop.Dispose()
	if f.started.CompareAndSwap(false, true) {
		f.metrics.ForgetFiber(f.name)
		close(f.done)
	}
}

// Done returns a channel closed once the drain goroutine has exited, or once
// an unstarted fiber is disposed.
func (f *ThreadFiber) Done() <-chan struct{} { return f.done }

// Err returns the error that stopped the drain goroutine, such as cancellation
// of Config.Context. It is nil while running and after a normal Dispose.
func (f *ThreadFiber) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// Schedule implements Fiber.
func (f *ThreadFiber) Schedule(cmd core.Command, delay time.Duration) core.Disposable {
	return f.sched.Schedule(cmd, delay)
}

// ScheduleOnInterval implements Fiber.
func (f *ThreadFiber) ScheduleOnInterval(cmd core.Command, firstDelay, interval time.Duration) core.Disposable {
	return trackRecurring(f, f.sched.ScheduleOnInterval(cmd, firstDelay, interval))
}

// ScheduleCron implements Fiber.
func (f *ThreadFiber) ScheduleCron(cmd core.Command, expr string) (core.Disposable, error) {
	d, err := f.sched.ScheduleCron(cmd, expr)
	if err != nil {
		return nil, err
	}
	return trackRecurring(f, d), nil
}

// AddOnStop implements Fiber.
func (f *ThreadFiber) AddOnStop(d core.Disposable) core.HookKey { return f.loop.AddOnStop(d) }

// RemoveOnStop implements Fiber.
func (f *ThreadFiber) RemoveOnStop(key core.HookKey) bool { return f.loop.RemoveOnStop(key) }

// RegisteredHooks implements Fiber.
func (f *ThreadFiber) RegisteredHooks() int { return f.loop.RegisteredHooks() }

// PendingTimers returns the number of armed timers owned by this fiber.
func (f *ThreadFiber) PendingTimers() int { return f.sched.Pending() }
