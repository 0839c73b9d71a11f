package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/vnykmshr/fiberflow/internal/testutil"
	gferrors "github.com/vnykmshr/fiberflow/pkg/common/errors"
	"github.com/vnykmshr/fiberflow/pkg/metrics"
)

// TestTask is a simple task for testing.
type TestTask struct {
	ID          int
	Duration    time.Duration
	ShouldErr   bool
	ShouldPanic bool
	Executed    *int32 // Atomic counter
}

func (t *TestTask) Execute(ctx context.Context) error {
	atomic.AddInt32(t.Executed, 1)

	if t.ShouldPanic {
		panic("test panic")
	}

	if t.Duration > 0 {
		select {
		case <-time.After(t.Duration):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if t.ShouldErr {
		return errors.New("test error")
	}

	return nil
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		workerCount int
		expectPanic bool
	}{
		{"valid params", 2, false},
		{"single worker", 1, false},
		{"zero workers", 0, true},
		{"negative workers", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.expectPanic {
				defer func() {
					r := recover()
					if r == nil {
						t.Error("expected panic")
						return
					}
					if err, ok := r.(error); !ok || !gferrors.IsValidationError(err) {
						t.Errorf("expected ValidationError panic, got %v", r)
					}
				}()
			}

			pool := New(tt.workerCount)
			if !tt.expectPanic {
				testutil.AssertEqual(t, pool.Size(), tt.workerCount)
				<-pool.Shutdown()
			}
		})
	}
}

func TestBasicTaskExecution(t *testing.T) {
	results := make(chan Result, 1)
	pool := NewWithConfig(Config{
		WorkerCount:    2,
		OnTaskComplete: func(_ int, r Result) { results <- r },
	})
	defer func() { <-pool.Shutdown() }()

	var executed int32
	task := &TestTask{
		ID:       1,
		Duration: 10 * time.Millisecond,
		Executed: &executed,
	}

	testutil.AssertNoError(t, pool.Submit(task))

	select {
	case result := <-results:
		testutil.AssertEqual(t, result.Error, nil)
		testutil.AssertEqual(t, result.Task == task, true)
		testutil.AssertEqual(t, result.WorkerID >= 0, true)
		testutil.AssertEqual(t, result.Duration >= 10*time.Millisecond, true)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for result")
	}

	testutil.AssertEqual(t, atomic.LoadInt32(&executed), int32(1))
}

func TestGoRunsFunction(t *testing.T) {
	pool := New(2)
	defer func() { <-pool.Shutdown() }()

	var ran int32
	for i := 0; i < 50; i++ {
		testutil.AssertNoError(t, pool.Go(func() { atomic.AddInt32(&ran, 1) }))
	}

	testutil.WaitForInt32(t, &ran, 50, time.Second)
	testutil.AssertEqual(t, pool.TotalSubmitted(), int64(50))
	testutil.Eventually(t, func() bool { return pool.TotalCompleted() == 50 }, time.Second, 5*time.Millisecond)
}

func TestSubmitNeverBlocks(t *testing.T) {
	pool := New(1)
	defer func() { <-pool.Shutdown() }()

	release := make(chan struct{})
	testutil.AssertNoError(t, pool.Go(func() { <-release }))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			_ = pool.Go(func() {})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("submission blocked behind a busy worker")
	}

	testutil.AssertEqual(t, pool.QueueSize() > 0, true)
	close(release)
}

func TestPanicRecovery(t *testing.T) {
	var handled atomic.Value
	results := make(chan Result, 2)
	pool := NewWithConfig(Config{
		WorkerCount:    1,
		PanicHandler:   func(_ Task, r interface{}) { handled.Store(r) },
		OnTaskComplete: func(_ int, r Result) { results <- r },
	})
	defer func() { <-pool.Shutdown() }()

	var executed int32
	testutil.AssertNoError(t, pool.Submit(&TestTask{ShouldPanic: true, Executed: &executed}))
	testutil.AssertNoError(t, pool.Submit(&TestTask{Executed: &executed}))

	first := <-results
	testutil.AssertError(t, first.Error)
	second := <-results
	testutil.AssertNoError(t, second.Error)

	testutil.AssertEqual(t, handled.Load(), interface{}("test panic"))
	testutil.AssertEqual(t, atomic.LoadInt32(&executed), int32(2))
}

func TestTaskTimeout(t *testing.T) {
	results := make(chan Result, 1)
	pool := NewWithConfig(Config{
		WorkerCount:    1,
		TaskTimeout:    10 * time.Millisecond,
		OnTaskComplete: func(_ int, r Result) { results <- r },
	})
	defer func() { <-pool.Shutdown() }()

	var executed int32
	testutil.AssertNoError(t, pool.Submit(&TestTask{Duration: time.Second, Executed: &executed}))

	result := <-results
	if !errors.Is(result.Error, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", result.Error)
	}
}

func TestSubmitValidation(t *testing.T) {
	pool := New(1)
	defer func() { <-pool.Shutdown() }()

	testutil.AssertError(t, pool.Submit(nil))
	testutil.AssertError(t, pool.Go(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var executed int32
	err := pool.SubmitWithContext(ctx, &TestTask{Executed: &executed})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestShutdownDrainsQueue(t *testing.T) {
	pool := New(2)

	var executed int32
	for i := 0; i < 20; i++ {
		testutil.AssertNoError(t, pool.Submit(&TestTask{ID: i, Duration: time.Millisecond, Executed: &executed}))
	}

	select {
	case <-pool.Shutdown():
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}

	testutil.AssertEqual(t, atomic.LoadInt32(&executed), int32(20))

	err := pool.Go(func() {})
	if !gferrors.IsClosed(err) {
		t.Fatalf("expected ErrClosed after shutdown, got %v", err)
	}

	// Shutdown is idempotent
	<-pool.Shutdown()
}

func TestLifecycleCallbacks(t *testing.T) {
	var mu sync.Mutex
	started := map[int]bool{}
	stopped := map[int]bool{}
	var taskStarts int32

	pool := NewWithConfig(Config{
		WorkerCount: 3,
		OnWorkerStart: func(id int) {
			mu.Lock()
			started[id] = true
			mu.Unlock()
		},
		OnWorkerStop: func(id int) {
			mu.Lock()
			stopped[id] = true
			mu.Unlock()
		},
		OnTaskStart: func(int, Task) { atomic.AddInt32(&taskStarts, 1) },
	})

	for i := 0; i < 5; i++ {
		testutil.AssertNoError(t, pool.Go(func() {}))
	}
	<-pool.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	testutil.AssertEqual(t, len(started), 3)
	testutil.AssertEqual(t, len(stopped), 3)
	testutil.AssertEqual(t, atomic.LoadInt32(&taskStarts), int32(5))
}

func TestMetricsPool(t *testing.T) {
	reg := prometheus.NewRegistry()
	pool := NewWithConfigAndMetrics(Config{WorkerCount: 2}, "fibers", metrics.Config{Enabled: true, Registry: reg})
	defer func() { <-pool.Shutdown() }()

	mp, ok := pool.(*MetricsPool)
	if !ok {
		t.Fatalf("expected *MetricsPool, got %T", pool)
	}

	var executed int32
	testutil.AssertNoError(t, pool.Submit(&TestTask{Executed: &executed}))
	testutil.AssertNoError(t, pool.Submit(&TestTask{ShouldErr: true, Executed: &executed}))
	testutil.AssertNoError(t, pool.Submit(&TestTask{ShouldPanic: true, Executed: &executed}))

	r := mp.Registry()
	testutil.Eventually(t, func() bool {
		return promtest.ToFloat64(r.TasksExecuted.WithLabelValues("fibers")) == 3
	}, time.Second, 5*time.Millisecond)

	testutil.AssertEqual(t, promtest.ToFloat64(r.TasksCompleted.WithLabelValues("fibers")), 1.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.TasksFailed.WithLabelValues("fibers")), 2.0)
	testutil.AssertEqual(t, promtest.ToFloat64(r.WorkerPoolSize.WithLabelValues("fibers")), 2.0)
}

func TestMetricsDisabledReturnsBasePool(t *testing.T) {
	pool := NewWithConfigAndMetrics(Config{WorkerCount: 1}, "plain", metrics.Config{Enabled: false})
	defer func() { <-pool.Shutdown() }()

	if _, ok := pool.(*MetricsPool); ok {
		t.Fatal("disabled metrics should return the base pool")
	}
}
