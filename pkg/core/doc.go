/*
Package core holds the building blocks shared by every fiber: the Command type,
disposal handles, the disposal-hook Registry, the pluggable Executor strategies
that run a drained batch, and the dedicated-goroutine executor Loop.

A Command is a zero-argument function. Queues accept commands without blocking
and run each accepted command at most once, in the order accepted:

	loop := core.NewLoop(core.LoopConfig{})
	go func() { _ = loop.Run(ctx) }()

	loop.Execute(func() { fmt.Println("runs on the loop goroutine") })
	loop.Dispose()

Executors decide how a drained batch is invoked. SynchronousExecutor runs the
batch inline and lets panics propagate; RecoveringExecutor logs and isolates
panics per command; PoolExecutor forwards each command, in order, to a shared
pool.
*/
package core
