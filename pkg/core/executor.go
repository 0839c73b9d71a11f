package core

import (
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
)

// Executor is the invocation strategy for a drained batch of commands.
type Executor interface {
	ExecuteAll(cmds []Command)
}

// SynchronousExecutor runs every command inline, in order. A panicking command
// aborts the rest of the batch and propagates to the caller.
type SynchronousExecutor struct{}

// ExecuteAll implements Executor.
func (SynchronousExecutor) ExecuteAll(cmds []Command) {
	for _, cmd := range cmds {
		cmd()
	}
}

// RecoveringExecutor runs every command inline, in order, recovering a panic
// from any single command so the rest of the batch still runs.
type RecoveringExecutor struct {
	// Logger receives one error record per recovered panic. Nil discards.
	Logger *slog.Logger

	// OnPanic is called with the recovered value after logging, if set.
	OnPanic func(recovered interface{})
}

// ExecuteAll implements Executor.
func (e RecoveringExecutor) ExecuteAll(cmds []Command) {
	for _, cmd := range cmds {
		e.run(cmd)
	}
}

func (e RecoveringExecutor) run(cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			logger := e.Logger
			if logger == nil {
				logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			}
			logger.Error("command panicked",
				slog.String("panic", fmt.Sprint(r)),
				slog.String("stack", string(debug.Stack())))
			if e.OnPanic != nil {
				e.OnPanic(r)
			}
		}
	}()
	cmd()
}

// Submitter is the shared pool collaborator: it runs fn asynchronously on some
// pool goroutine. Implementations must not block waiting for fn to run.
type Submitter interface {
	Go(fn func()) error
}

// PoolExecutor hands every command of a batch to a pool, in batch order.
// The pool decides whether submitted commands may overlap, so serialization is
// only preserved when the pool runs one task at a time.
type PoolExecutor struct {
	Pool   Submitter
	Logger *slog.Logger
}

// ExecuteAll implements Executor.
func (e PoolExecutor) ExecuteAll(cmds []Command) {
	for _, cmd := range cmds {
		if err := e.Pool.Go(cmd); err != nil {
			if e.Logger != nil {
				e.Logger.Warn("pool rejected command", slog.String("error", err.Error()))
			}
		}
	}
}
