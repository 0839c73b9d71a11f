package core

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/vnykmshr/fiberflow/internal/queue"
	gfcontext "github.com/vnykmshr/fiberflow/pkg/common/context"
	gferrors "github.com/vnykmshr/fiberflow/pkg/common/errors"
)

// LoopConfig configures a Loop.
type LoopConfig struct {
	// Executor runs each drained batch. Defaults to SynchronousExecutor.
	Executor Executor

	// Logger is used for loop lifecycle and hook failures. Nil discards.
	Logger *slog.Logger
}

// Loop is a blocking executor loop: Execute enqueues, Run drains.
//
// Run blocks until at least one command is queued, takes every queued command
// at once and hands the batch to the Executor, repeating until the loop is
// disposed. Dispose also runs the registered disposal hooks.
type Loop struct {
	running  atomic.Bool
	commands *queue.Queue[Command]
	executor Executor
	hooks    *Registry
	logger   *slog.Logger
}

// NewLoop creates a running, not yet draining, loop.
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Executor == nil {
		cfg.Executor = SynchronousExecutor{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	l := &Loop{
		commands: queue.New[Command](),
		executor: cfg.Executor,
		hooks:    NewRegistry(cfg.Logger),
		logger:   cfg.Logger,
	}
	l.running.Store(true)
	return l
}

// Execute enqueues cmd. Commands submitted after Dispose are dropped.
func (l *Loop) Execute(cmd Command) {
	if !l.running.Load() {
		return
	}
	_ = l.commands.Put(cmd)
}

// Run drains the queue on the calling goroutine until the loop is disposed.
//
// Cancellation of ctx while Run is waiting is fatal: Run returns the wrapped
// context error and the loop must not be restarted.
func (l *Loop) Run(ctx context.Context) error {
	for l.running.Load() {
		batch, err := l.commands.TakeAll(ctx)
		if err != nil {
			if gfcontext.IsInterruption(err) {
				l.logger.Warn("executor loop interrupted", slog.String("error", err.Error()))
			}
			return gferrors.NewOperationError("core", "Loop.Run", err).WithContext("executor loop interrupted")
		}
		l.executor.ExecuteAll(batch)
	}
	return nil
}

// Running reports whether the loop has not been disposed.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// Dispose stops the loop after its current batch and runs the disposal hooks.
func (l *Loop) Dispose() {
	if !l.running.CompareAndSwap(true, false) {
		return
	}
	// wake a Run blocked on an empty queue so it observes running == false
	_ = l.commands.Put(noop)
	l.hooks.DisposeAll()
}

// AddOnStop registers a hook run once when the loop is disposed.
func (l *Loop) AddOnStop(d Disposable) HookKey {
	return l.hooks.Add(d)
}

// RemoveOnStop deregisters a hook.
func (l *Loop) RemoveOnStop(key HookKey) bool {
	return l.hooks.Remove(key)
}

// RegisteredHooks returns the number of registered disposal hooks.
func (l *Loop) RegisteredHooks() int {
	return l.hooks.Len()
}
