// Package metrics provides Prometheus instrumentation for fiberflow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for fiberflow components.
type Registry struct {
	// Fiber Metrics
	FiberBatches          *prometheus.CounterVec
	FiberCommandsExecuted *prometheus.CounterVec
	FiberBatchSize        *prometheus.HistogramVec
	FiberBatchDuration    *prometheus.HistogramVec

	// Scheduler Metrics
	TimersScheduled *prometheus.CounterVec
	TimersFired     *prometheus.CounterVec
	TimersCanceled  *prometheus.CounterVec
	TimersPending   *prometheus.GaugeVec

	// Channel Metrics
	MessagesPublished  *prometheus.CounterVec
	ChannelSubscribers *prometheus.GaugeVec
	BatchFlushes       *prometheus.CounterVec
	BatchFlushSize     *prometheus.HistogramVec

	// Worker Pool Metrics
	TasksExecuted   *prometheus.CounterVec
	TasksCompleted  *prometheus.CounterVec
	TasksFailed     *prometheus.CounterVec
	TaskQueueWait   *prometheus.HistogramVec
	WorkerPoolSize  *prometheus.GaugeVec
	WorkerPoolQueue *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by fiberflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// batchBuckets covers drained batch and flush sizes from a single command up to large bursts.
var batchBuckets = prometheus.ExponentialBuckets(1, 2, 12)

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Fiber Metrics
		FiberBatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fiberflow",
				Subsystem: "fiber",
				Name:      "batches_total",
				Help:      "Total number of drained command batches",
			},
			[]string{"fiber_name"},
		),

		FiberCommandsExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fiberflow",
				Subsystem: "fiber",
				Name:      "commands_executed_total",
				Help:      "Total number of commands executed on a fiber",
			},
			[]string{"fiber_name"},
		),

		FiberBatchSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fiberflow",
				Subsystem: "fiber",
				Name:      "batch_size",
				Help:      "Number of commands per drained batch",
				Buckets:   batchBuckets,
			},
			[]string{"fiber_name"},
		),

		FiberBatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fiberflow",
				Subsystem: "fiber",
				Name:      "batch_duration_seconds",
				Help:      "Time spent executing a drained batch",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"fiber_name"},
		),

		// Scheduler Metrics
		TimersScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fiberflow",
				Subsystem: "scheduler",
				Name:      "timers_scheduled_total",
				Help:      "Total number of timers armed",
			},
			[]string{"fiber_name", "kind"},
		),

		TimersFired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fiberflow",
				Subsystem: "scheduler",
				Name:      "timers_fired_total",
				Help:      "Total number of timer firings handed to a fiber",
			},
			[]string{"fiber_name", "kind"},
		),

		TimersCanceled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fiberflow",
				Subsystem: "scheduler",
				Name:      "timers_canceled_total",
				Help:      "Total number of timers canceled before completion",
			},
			[]string{"fiber_name", "kind"},
		),

		TimersPending: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "fiberflow",
				Subsystem: "scheduler",
				Name:      "timers_pending",
				Help:      "Number of armed timers",
			},
			[]string{"fiber_name"},
		),

		// Channel Metrics
		MessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fiberflow",
				Subsystem: "channel",
				Name:      "messages_published_total",
				Help:      "Total number of messages published",
			},
			[]string{"channel_name"},
		),

		ChannelSubscribers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "fiberflow",
				Subsystem: "channel",
				Name:      "subscribers",
				Help:      "Current number of subscriptions",
			},
			[]string{"channel_name"},
		),

		BatchFlushes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fiberflow",
				Subsystem: "batch",
				Name:      "flushes_total",
				Help:      "Total number of batch window flushes delivered",
			},
			[]string{"subscriber_name"},
		),

		BatchFlushSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fiberflow",
				Subsystem: "batch",
				Name:      "flush_size",
				Help:      "Number of entries delivered per flush",
				Buckets:   batchBuckets,
			},
			[]string{"subscriber_name"},
		),

		// Worker Pool Metrics
		TasksExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fiberflow",
				Subsystem: "workerpool",
				Name:      "tasks_executed_total",
				Help:      "Total number of tasks executed",
			},
			[]string{"pool_name"},
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fiberflow",
				Subsystem: "workerpool",
				Name:      "tasks_completed_total",
				Help:      "Total number of tasks completed successfully",
			},
			[]string{"pool_name"},
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fiberflow",
				Subsystem: "workerpool",
				Name:      "tasks_failed_total",
				Help:      "Total number of tasks that returned an error or panicked",
			},
			[]string{"pool_name"},
		),

		TaskQueueWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fiberflow",
				Subsystem: "workerpool",
				Name:      "queue_wait_seconds",
				Help:      "Time tasks spent queued before a worker picked them up",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		WorkerPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "fiberflow",
				Subsystem: "workerpool",
				Name:      "size",
				Help:      "Current worker pool size",
			},
			[]string{"pool_name"},
		),

		WorkerPoolQueue: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "fiberflow",
				Subsystem: "workerpool",
				Name:      "queued_tasks",
				Help:      "Number of queued tasks",
			},
			[]string{"pool_name"},
		),
	}
}

// ForgetFiber deletes every series labeled with the named fiber. Fibers call
// it when they stop so short-lived fibers do not accumulate series.
// It is a no-op on a nil Registry.
func (r *Registry) ForgetFiber(name string) {
	if r == nil {
		return
	}
	labels := prometheus.Labels{"fiber_name": name}
	r.FiberBatches.DeletePartialMatch(labels)
	r.FiberCommandsExecuted.DeletePartialMatch(labels)
	r.FiberBatchSize.DeletePartialMatch(labels)
	r.FiberBatchDuration.DeletePartialMatch(labels)
	r.TimersScheduled.DeletePartialMatch(labels)
	r.TimersFired.DeletePartialMatch(labels)
	r.TimersCanceled.DeletePartialMatch(labels)
	r.TimersPending.DeletePartialMatch(labels)
}
