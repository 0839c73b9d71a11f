package fiber

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vnykmshr/fiberflow/internal/testutil"
	"github.com/vnykmshr/fiberflow/pkg/core"
)

func waitDone(t *testing.T, f *ThreadFiber) {
	t.Helper()
	select {
	case <-f.Done():
	case <-time.After(testutil.TestTimeout):
		t.Fatal("thread fiber did not stop")
	}
}

func TestThreadFiberContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := NewThreadFiber(Config{Context: ctx})
	testutil.AssertNoError(t, f.Start())

	ran := testutil.NewCallbackTracker()
	f.Execute(func() { ran.Mark() })
	testutil.AssertEventually(t, ran.Called)
	testutil.AssertEqual(t, f.Err(), error(nil))

	cancel()
	waitDone(t, f)

	err := f.Err()
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	f.Dispose()
}

func TestThreadFiberDisposeStopsGoroutine(t *testing.T) {
	f := NewThreadFiber(Config{})
	testutil.AssertNoError(t, f.Start())

	f.Dispose()
	waitDone(t, f)
	testutil.AssertEqual(t, f.Err(), error(nil))
}

func TestThreadFiberDisposeUnstarted(t *testing.T) {
	f := NewThreadFiber(Config{})
	f.Dispose()
	waitDone(t, f)
}

func TestThreadFiberDisposeFromCommand(t *testing.T) {
	f := NewThreadFiber(Config{})
	testutil.AssertNoError(t, f.Start())

	after := testutil.NewCallbackTracker()
	f.Execute(func() {
		f.Dispose()
		f.Execute(func() { after.Mark() })
	})

	waitDone(t, f)
	after.AssertNotCalled(t)
}

func TestThreadFiberContextCancellationRunsHooks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := NewThreadFiber(Config{Context: ctx})
	testutil.AssertNoError(t, f.Start())

	stopped := testutil.NewCallbackTracker()
	f.AddOnStop(core.DisposableFunc(func() { stopped.Mark() }))

	cancel()
	waitDone(t, f)

	stopped.AssertCallCount(t, 1)
	testutil.AssertEqual(t, f.RegisteredHooks(), 0)

	f.Dispose()
	stopped.AssertCallCount(t, 1)
}
