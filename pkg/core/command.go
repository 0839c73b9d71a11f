package core

import "sync"

// Command is a unit of deferred work.
type Command func()

// Disposable is a cancellation or cleanup handle.
// Dispose must be safe to call more than once.
type Disposable interface {
	Dispose()
}

// DisposableFunc adapts a function to Disposable.
type DisposableFunc func()

// Dispose calls f.
func (f DisposableFunc) Dispose() { f() }

// Queue accepts commands for serialized, asynchronous execution.
// Execute never blocks waiting for the command to run.
type Queue interface {
	Execute(cmd Command)
}

// Once wraps d so that only the first Dispose call reaches it.
func Once(d Disposable) Disposable {
	var once sync.Once
	return DisposableFunc(func() {
		once.Do(d.Dispose)
	})
}

// Nop is a Disposable that does nothing. It is returned for work that was never armed.
var Nop Disposable = DisposableFunc(func() {})

func noop() {}
