// Package metrics provides Prometheus instrumentation for fiberflow components.
//
// # Overview
//
// The metrics package provides opt-in instrumentation for:
//   - Fibers (drained batches, executed commands, batch size and duration)
//   - Schedulers (timers armed, fired, canceled, pending)
//   - Channels (messages published, current subscribers)
//   - Batch subscribers (flushes and flush size)
//   - The shared worker pool (size, queue depth, task outcomes, queue wait)
//
// # Quick Start
//
// Components take a *Registry through their Config. Resolve one from a Config:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.Config{Enabled: true, Registry: reg}.Resolve()
//
//	f := fiber.NewPoolFiber(pool, fiber.Config{Name: "quotes", Metrics: m})
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Registries are cached per Registerer, so any number of components may resolve
// the same Config without duplicate registration.
//
// # Available Metrics
//
//   - fiberflow_fiber_batches_total
//   - fiberflow_fiber_commands_executed_total
//   - fiberflow_fiber_batch_size
//   - fiberflow_fiber_batch_duration_seconds
//   - fiberflow_scheduler_timers_scheduled_total
//   - fiberflow_scheduler_timers_fired_total
//   - fiberflow_scheduler_timers_canceled_total
//   - fiberflow_scheduler_timers_pending
//   - fiberflow_channel_messages_published_total
//   - fiberflow_channel_subscribers
//   - fiberflow_batch_flushes_total
//   - fiberflow_batch_flush_size
//   - fiberflow_workerpool_tasks_executed_total
//   - fiberflow_workerpool_tasks_completed_total
//   - fiberflow_workerpool_tasks_failed_total
//   - fiberflow_workerpool_queue_wait_seconds
//   - fiberflow_workerpool_size
//   - fiberflow_workerpool_queued_tasks
//
// # Labels
//
//   - fiber_name: name of the fiber (fiber.Config.Name)
//   - kind: "once", "interval" or "cron"
//   - channel_name, subscriber_name, pool_name: user-provided component names
//
// Use low-cardinality names. Fibers created without a name get a random one,
// which is fine for logs but should not be combined with metrics.
package metrics
