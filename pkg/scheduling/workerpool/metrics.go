package workerpool

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vnykmshr/fiberflow/pkg/metrics"
)

// MetricsPool wraps a worker Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry *metrics.Registry
}

// NewWithMetrics creates a new worker pool with metrics enabled.
func NewWithMetrics(workerCount int, name string) Pool {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	return NewWithConfigAndMetrics(Config{WorkerCount: workerCount}, name, metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
}

// NewWithConfigAndMetrics creates a new worker pool with custom config and metrics.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) Pool {
	registry := metricsConfig.Resolve()
	if registry == nil {
		return NewWithConfig(config)
	}
	return NewWithRegistry(config, name, registry)
}

// NewWithRegistry creates a worker pool that reports to an existing registry.
func NewWithRegistry(config Config, name string, registry *metrics.Registry) *MetricsPool {
	basePool := NewWithConfig(config)

	mp := &MetricsPool{
		pool:     basePool,
		name:     name,
		registry: registry,
	}
	mp.registry.WorkerPoolSize.WithLabelValues(name).Set(float64(basePool.Size()))
	mp.updateQueue()

	return mp
}

func (mp *MetricsPool) updateQueue() {
	mp.registry.WorkerPoolQueue.WithLabelValues(mp.name).Set(float64(mp.pool.QueueSize()))
}

// Submit adds a task to the pool for execution.
func (mp *MetricsPool) Submit(task Task) error {
	return mp.SubmitWithContext(context.Background(), task)
}

// SubmitWithContext submits a task with a context for cancellation.
func (mp *MetricsPool) SubmitWithContext(ctx context.Context, task Task) error {
	if task == nil {
		return mp.pool.SubmitWithContext(ctx, task)
	}

	// Wrap the task to collect metrics
	wrapped := &metricsTask{
		original:   task,
		pool:       mp,
		submitTime: time.Now(),
	}

	err := mp.pool.SubmitWithContext(ctx, wrapped)
	mp.updateQueue()
	return err
}

// Go submits fn as an instrumented task.
func (mp *MetricsPool) Go(fn func()) error {
	if fn == nil {
		return mp.pool.Go(fn)
	}
	return mp.Submit(TaskFunc(func(context.Context) error {
		fn()
		return nil
	}))
}

// metricsTask wraps a Task to collect execution metrics.
type metricsTask struct {
	original   Task
	pool       *MetricsPool
	submitTime time.Time
}

// Execute runs the original task and records metrics. A panic is counted as a
// failure and re-raised so the worker's recovery still sees it.
func (mt *metricsTask) Execute(ctx context.Context) (err error) {
	reg, name := mt.pool.registry, mt.pool.name
	reg.TaskQueueWait.WithLabelValues(name).Observe(time.Since(mt.submitTime).Seconds())

	panicked := true
	defer func() {
		if panicked || err != nil {
			reg.TasksFailed.WithLabelValues(name).Inc()
		} else {
			reg.TasksCompleted.WithLabelValues(name).Inc()
		}
		reg.TasksExecuted.WithLabelValues(name).Inc()
		mt.pool.updateQueue()
	}()

	err = mt.original.Execute(ctx)
	panicked = false
	return err
}

// Shutdown initiates graceful shutdown of the pool.
func (mp *MetricsPool) Shutdown() <-chan struct{} {
	return mp.pool.Shutdown()
}

// Size returns the current number of workers.
func (mp *MetricsPool) Size() int {
	return mp.pool.Size()
}

// QueueSize returns the current number of queued tasks.
func (mp *MetricsPool) QueueSize() int {
	return mp.pool.QueueSize()
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (mp *MetricsPool) ActiveWorkers() int {
	return mp.pool.ActiveWorkers()
}

// TotalSubmitted returns the total number of tasks submitted.
func (mp *MetricsPool) TotalSubmitted() int64 {
	return mp.pool.TotalSubmitted()
}

// TotalCompleted returns the total number of tasks completed.
func (mp *MetricsPool) TotalCompleted() int64 {
	return mp.pool.TotalCompleted()
}

// Registry returns the metrics registry the pool reports to.
func (mp *MetricsPool) Registry() *metrics.Registry {
	return mp.registry
}
