/*
Package workerpool provides the shared goroutine pool that pooled fibers run on.

A worker pool manages a fixed number of worker goroutines that execute tasks
from one unbounded FIFO queue. Submission never blocks: a pooled fiber submits
its flush task while holding its own lock, so a bounded queue could deadlock a
worker that is itself publishing into that fiber.

Basic usage:

	pool := workerpool.New(4) // 4 workers
	defer func() { <-pool.Shutdown() }()

	task := workerpool.TaskFunc(func(ctx context.Context) error {
		// Do work
		return nil
	})

	if err := pool.Submit(task); err != nil {
		log.Printf("Failed to submit: %v", err)
	}

	// Plain functions, as used by fibers
	_ = pool.Go(func() { fmt.Println("on a pool goroutine") })

Key Features:

The worker pool provides:
  - Fixed number of worker goroutines for predictable resource usage
  - Unbounded task queue, so producers are never blocked
  - Context-aware task execution with optional per-task timeout
  - Panic recovery per task, logged through slog, so one failing command never
    kills a worker
  - Graceful shutdown: queued tasks finish before workers exit
  - Lifecycle callbacks for workers and tasks

Results:

There is no results channel. Observe outcomes through OnTaskComplete:

	pool := workerpool.NewWithConfig(workerpool.Config{
		WorkerCount: 8,
		Logger:      logger,
		OnTaskComplete: func(workerID int, r workerpool.Result) {
			if r.Error != nil {
				logger.Warn("task failed", "worker", workerID, "error", r.Error)
			}
		},
	})

Metrics:

NewWithConfigAndMetrics wraps the pool with Prometheus instrumentation
(queue depth, queue wait, executed/completed/failed counters).
*/
package workerpool
