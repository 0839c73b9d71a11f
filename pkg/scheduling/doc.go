/*
Package scheduling groups the execution collaborators that fibers run on:

  - workerpool: the shared, unbounded goroutine pool pooled fibers borrow from
  - scheduler: per-fiber timers that hand firings back to the fiber's queue

Worker Pool:

	pool := workerpool.New(4)
	defer func() { <-pool.Shutdown() }()

	pool.Go(func() { fmt.Println("on a pool goroutine") })

Submission never blocks; tasks queue until a worker is free.

Scheduler:

	s := scheduler.New(f, scheduler.Config{})
	defer s.Dispose()

	s.Schedule(cmd, time.Minute)
	s.ScheduleOnInterval(cmd, 0, time.Hour)
	s.ScheduleCron(cmd, "0 0 9 * * MON-FRI") // Weekdays at 9 AM

Fibers create and dispose their own scheduler, so most code reaches it through
fiber.Fiber's Schedule methods.
*/
package scheduling
