/*
Package fiber provides logical single-threaded execution contexts.

A fiber serializes the commands handed to it: they run one at a time, in the
order Execute accepted them, regardless of how many goroutines call Execute.
Execute never waits for the command to run.

Two implementations share the Fiber interface:

  - ThreadFiber owns one goroutine running a core.Loop for its whole life.
  - PoolFiber owns no goroutine. It borrows one from a shared pool whenever it
    has work, with at most one flush per fiber outstanding on the pool.

Basic Usage:

	pool := workerpool.New(4)
	defer func() { <-pool.Shutdown() }()

	f := fiber.NewPoolFiber(pool, fiber.Config{Name: "orders"})
	defer f.Dispose()
	if err := f.Start(); err != nil {
		return err
	}

	f.Execute(func() { fmt.Println("runs on the fiber") })
	f.Schedule(flush, 50*time.Millisecond)

Lifecycle:

Commands executed before Start are kept and drained once the fiber starts.
Start may be called once; a second call returns errors.ErrAlreadyStarted.
Dispose is irreversible: it cancels the fiber's timers, runs its disposal hooks
in registration order, and turns later Execute and schedule calls into no-ops.
Commands already handed to a goroutine run to completion.

Failures:

A panicking command is not recovered by the default core.SynchronousExecutor.
On a PoolFiber the pool recovers and logs it and the fiber keeps draining; the
rest of that batch is lost. Use core.RecoveringExecutor to isolate commands.
Cancelling Config.Context stops a ThreadFiber for good; Err reports why.

Factories:

PoolFiberFactory shares one pool and one timer source across many fibers and
can be configured from the environment:

	cfg, err := fiber.LoadFactoryConfig() // FIBERFLOW_POOL_WORKERS, ...
	factory, err := fiber.NewPoolFiberFactory(cfg, fiber.Config{Logger: logger})
	defer factory.Dispose()
*/
package fiber
