/*
Package fiberflow provides fibers, timers and typed publish/subscribe for
in-process concurrent applications.

A fiber is a logical single-threaded execution context: commands handed to it
run one at a time, in submission order, without the caller waiting. Channels
deliver messages to subscribers on their fibers, so subscriber state needs no
locks.

Core (pkg/core):
  - Command, Disposable and the disposal-hook Registry
  - Loop: the blocking drain loop behind dedicated fibers
  - Executor strategies: synchronous, recovering, pool-backed

Fibers (pkg/fiber):
  - ThreadFiber: one dedicated goroutine
  - PoolFiber: multiplexed onto a shared pool, one flush at a time
  - PoolFiberFactory: shares a pool and timers across many fibers

Scheduling (pkg/scheduling):
  - scheduler: delayed, interval and cron timers handed off to a fiber
  - workerpool: the unbounded shared pool

Channels (pkg/channels):
  - MemoryChannel: copy-on-write subscriber set, lock-free publish
  - BatchSubscriber and KeyedBatchSubscriber: windowed batching and coalescing

Example usage:

	import (
		"github.com/vnykmshr/fiberflow/pkg/channels"
		"github.com/vnykmshr/fiberflow/pkg/fiber"
	)

	f := fiber.NewThreadFiber(fiber.Config{Name: "worker"})
	if err := f.Start(); err != nil {
		log.Fatal(err)
	}
	defer f.Dispose()

	events := channels.NewMemoryChannel[string]()
	events.Subscribe(f, func(e string) { fmt.Println("got", e) })
	events.Publish("hello")
*/
package fiberflow
