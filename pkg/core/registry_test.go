package core

import (
	"sync"
	"testing"

	"github.com/vnykmshr/fiberflow/internal/testutil"
)

func TestRegistry_DisposeAllRunsInRegistrationOrder(t *testing.T) {
	r := NewRegistry(nil)
	var order []int

	for i := 1; i <= 5; i++ {
		i := i
		r.Add(DisposableFunc(func() { order = append(order, i) }))
	}
	testutil.AssertEqual(t, r.Len(), 5)

	r.DisposeAll()

	testutil.AssertEqual(t, len(order), 5)
	for i, v := range order {
		testutil.AssertEqual(t, v, i+1)
	}
	testutil.AssertEqual(t, r.Len(), 0)
	testutil.AssertEqual(t, r.Disposed(), true)
}

func TestRegistry_DisposeAllIsIdempotent(t *testing.T) {
	r := NewRegistry(nil)
	tracker := testutil.NewCallbackTracker()
	r.Add(DisposableFunc(func() { tracker.Mark() }))

	r.DisposeAll()
	r.DisposeAll()

	tracker.AssertCallCount(t, 1)
}

func TestRegistry_RemovedHookDoesNotRun(t *testing.T) {
	r := NewRegistry(nil)
	tracker := testutil.NewCallbackTracker()

	key := r.Add(DisposableFunc(func() { tracker.Mark() }))
	testutil.AssertEqual(t, r.Remove(key), true)
	testutil.AssertEqual(t, r.Remove(key), false)

	r.DisposeAll()
	tracker.AssertNotCalled(t)
}

func TestRegistry_PanickingHookIsIsolated(t *testing.T) {
	r := NewRegistry(nil)
	tracker := testutil.NewCallbackTracker()

	r.Add(DisposableFunc(func() { tracker.Mark("first") }))
	r.Add(DisposableFunc(func() { panic("boom") }))
	r.Add(DisposableFunc(func() { tracker.Mark("third") }))

	r.DisposeAll()

	tracker.AssertCallCount(t, 2)
	testutil.AssertEqual(t, tracker.Value(), interface{}("third"))
}

func TestRegistry_AddAfterDisposeRunsImmediately(t *testing.T) {
	r := NewRegistry(nil)
	r.DisposeAll()

	tracker := testutil.NewCallbackTracker()
	key := r.Add(DisposableFunc(func() { tracker.Mark() }))

	tracker.AssertCallCount(t, 1)
	testutil.AssertEqual(t, r.Remove(key), false)
	testutil.AssertEqual(t, r.Len(), 0)
}

func TestRegistry_ConcurrentRemoveAndDispose(t *testing.T) {
	for round := 0; round < 50; round++ {
		r := NewRegistry(nil)
		var mu sync.Mutex
		runs := make(map[HookKey]int)

		keys := make([]HookKey, 100)
		for i := range keys {
			var key HookKey
			key = r.Add(DisposableFunc(func() {
				mu.Lock()
				runs[key]++
				mu.Unlock()
			}))
			keys[i] = key
		}

		removed := make([]bool, len(keys))
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i, k := range keys {
				removed[i] = r.Remove(k)
			}
		}()
		go func() {
			defer wg.Done()
			r.DisposeAll()
		}()
		wg.Wait()

		for i, k := range keys {
			want := 1
			if removed[i] {
				want = 0
			}
			if runs[k] != want {
				t.Fatalf("round %d: hook %d ran %d times, removed=%v", round, k, runs[k], removed[i])
			}
		}
	}
}

func TestOnce(t *testing.T) {
	tracker := testutil.NewCallbackTracker()
	d := Once(DisposableFunc(func() { tracker.Mark() }))

	d.Dispose()
	d.Dispose()

	tracker.AssertCallCount(t, 1)
}
