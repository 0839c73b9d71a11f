package fiber

import (
	"log/slog"
	"sync"
	"time"

	gferrors "github.com/vnykmshr/fiberflow/pkg/common/errors"
	"github.com/vnykmshr/fiberflow/pkg/core"
	"github.com/vnykmshr/fiberflow/pkg/metrics"
	"github.com/vnykmshr/fiberflow/pkg/scheduling/scheduler"
)

// flushState tracks whether a flush of this fiber is outstanding on the pool.
type flushState uint8

const (
	flushIdle flushState = iota
	flushScheduled
)

// PoolFiber is a fiber multiplexed onto a shared pool. It owns no goroutine:
// whenever commands are pending it submits a single flush task to the pool,
// and that task drains batches until the buffer is empty.
//
// At most one flush per fiber is outstanding on the pool at any time. The
// flush state and the buffer are guarded by the same mutex, so a command
// appended while a flush is finishing is either taken by that flush's
// re-check or triggers a new submission; it is never stranded.
//
// Consecutive batches may run on different pool goroutines. The pool does not
// balance fibers against each other, so a fiber that never runs dry keeps
// resubmitting its flush.
type PoolFiber struct {
	name     string
	pool     core.Submitter
	executor core.Executor
	logger   *slog.Logger
	sched    *scheduler.Scheduler
	hooks    *core.Registry
	metrics  *metrics.Registry

	mu     sync.Mutex
	state  State
	flush  flushState
	buffer []core.Command
}

// NewPoolFiber creates a fiber in the Created state that borrows goroutines
// from pool. The pool's Go must not run fn on the calling goroutine.
func NewPoolFiber(pool core.Submitter, cfg Config) *PoolFiber {
	cfg = cfg.withDefaults()

	f := &PoolFiber{
		name:     cfg.Name,
		pool:     pool,
		executor: cfg.Executor,
		logger:   cfg.Logger,
		hooks:    core.NewRegistry(cfg.Logger),
		metrics:  cfg.Metrics,
	}
	f.sched = cfg.scheduler(f)
	return f
}

// Name implements Fiber.
func (f *PoolFiber) Name() string { return f.name }

// State returns the current lifecycle state.
func (f *PoolFiber) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Execute appends cmd to the buffer. Before Start the command waits; after
// Dispose it is dropped.
func (f *PoolFiber) Execute(cmd core.Command) {
	f.mu.Lock()
	if f.state == Disposed {
		f.mu.Unlock()
		return
	}
	f.buffer = append(f.buffer, cmd)
	if f.state == Created || f.flush == flushScheduled {
		f.mu.Unlock()
		return
	}
	f.flush = flushScheduled
	f.mu.Unlock()

	f.submit()
}

// Start implements Fiber.
func (f *PoolFiber) Start() error {
	f.mu.Lock()
	switch f.state {
	case Running:
		f.mu.Unlock()
		return gferrors.ErrAlreadyStarted
	case Disposed:
		f.mu.Unlock()
		return gferrors.ErrClosed
	}
	f.state = Running
	f.mu.Unlock()

	// kick a drain of anything queued before start
	f.Execute(func() {})
	return nil
}

// Dispose implements Fiber. Buffered commands that have not been taken by a
// flush are discarded. The fiber's metric series are deleted once no flush
// is outstanding.
func (f *PoolFiber) Dispose() {
	f.mu.Lock()
	if f.state == Disposed {
		f.mu.Unlock()
		return
	}
	f.state = Disposed
	f.buffer = nil
	idle := f.flush == flushIdle
	f.mu.Unlock()

	f.sched.Dispose()
	f.hooks.DisposeAll()
	if idle {
		f.metrics.ForgetFiber(f.name)
	}
}

// Schedule implements Fiber.
func (f *PoolFiber) Schedule(cmd core.Command, delay time.Duration) core.Disposable {
	return f.sched.Schedule(cmd, delay)
}

// ScheduleOnInterval implements Fiber.
func (f *PoolFiber) ScheduleOnInterval(cmd core.Command, firstDelay, interval time.Duration) core.Disposable {
	return trackRecurring(f, f.sched.ScheduleOnInterval(cmd, firstDelay, interval))
}

// ScheduleCron implements Fiber.
func (f *PoolFiber) ScheduleCron(cmd core.Command, expr string) (core.Disposable, error) {
	d, err := f.sched.ScheduleCron(cmd, expr)
	if err != nil {
		return nil, err
	}
	return trackRecurring(f, d), nil
}

// AddOnStop implements Fiber.
func (f *PoolFiber) AddOnStop(d core.Disposable) core.HookKey { return f.hooks.Add(d) }

// RemoveOnStop implements Fiber.
func (f *PoolFiber) RemoveOnStop(key core.HookKey) bool { return f.hooks.Remove(key) }

// RegisteredHooks implements Fiber.
func (f *PoolFiber) RegisteredHooks() int { return f.hooks.Len() }

// PendingTimers returns the number of armed timers owned by this fiber.
func (f *PoolFiber) PendingTimers() int { return f.sched.Pending() }

func (f *PoolFiber) submit() {
	if err := f.pool.Go(f.drain); err != nil {
		f.mu.Lock()
		f.flush = flushIdle
		disposed := f.state == Disposed
		f.mu.Unlock()
		if disposed {
			f.metrics.ForgetFiber(f.name)
			return
		}
		if gferrors.IsClosed(err) {
			f.logger.Warn("pool closed, fiber stalled", slog.String("error", err.Error()))
			return
		}
		f.logger.Error("flush submission failed", slog.String("error", err.Error()))
	}
}

// drain runs on a pool goroutine. It takes the whole buffer as one batch,
// runs it outside the lock, then re-checks for commands that arrived meanwhile.
func (f *PoolFiber) drain() {
	f.mu.Lock()
	if f.state == Disposed {
		f.flush = flushIdle
		f.mu.Unlock()
		f.metrics.ForgetFiber(f.name)
		return
	}
	batch := f.buffer
	f.buffer = nil
	f.mu.Unlock()

	defer f.recheck()
	f.executor.ExecuteAll(batch)
}

// recheck keeps the flush scheduled and resubmits if more commands are
// waiting. It runs even when the batch panicked.
func (f *PoolFiber) recheck() {
	f.mu.Lock()
	if f.state != Running || len(f.buffer) == 0 {
		f.flush = flushIdle
		disposed := f.state == Disposed
		f.mu.Unlock()
		if disposed {
			f.metrics.ForgetFiber(f.name)
		}
		return
	}
	f.mu.Unlock()

	f.submit()
}
