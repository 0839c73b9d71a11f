package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func TestConfigResolve(t *testing.T) {
	if r := (Config{Enabled: false}).Resolve(); r != nil {
		t.Fatal("disabled config should resolve to nil")
	}

	if r := (Config{Enabled: true}).Resolve(); r != DefaultRegistry {
		t.Fatal("nil registerer should resolve to DefaultRegistry")
	}

	if r := DefaultConfig().Resolve(); r != DefaultRegistry {
		t.Fatal("default config should resolve to DefaultRegistry")
	}
}

func TestForCachesPerRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := For(reg)
	second := For(reg)
	if first != second {
		t.Fatal("same registerer should yield the same Registry")
	}

	other := For(prometheus.NewRegistry())
	if other == first {
		t.Fatal("different registerers should yield different registries")
	}
}

func TestRegistryCollects(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := For(reg)

	r.MessagesPublished.WithLabelValues("prices").Add(3)
	r.FiberBatchSize.WithLabelValues("worker").Observe(4)

	if got := promtest.ToFloat64(r.MessagesPublished.WithLabelValues("prices")); got != 3 {
		t.Fatalf("messages published = %v, want 3", got)
	}

	count, err := promtest.GatherAndCount(reg, "fiberflow_fiber_batch_size")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("batch size series = %d, want 1", count)
	}
}

func TestForgetFiber(t *testing.T) {
	r := For(prometheus.NewRegistry())

	r.FiberBatches.WithLabelValues("gone").Inc()
	r.FiberBatchDuration.WithLabelValues("gone").Observe(0.1)
	r.TimersScheduled.WithLabelValues("gone", "once").Inc()
	r.TimersScheduled.WithLabelValues("gone", "cron").Inc()
	r.TimersPending.WithLabelValues("gone").Set(2)
	r.FiberBatches.WithLabelValues("kept").Inc()

	r.ForgetFiber("gone")

	if n := promtest.CollectAndCount(r.FiberBatches); n != 1 {
		t.Fatalf("fiber batch series = %d, want 1", n)
	}
	if n := promtest.CollectAndCount(r.TimersScheduled); n != 0 {
		t.Fatalf("timers scheduled series = %d, want 0", n)
	}
	if n := promtest.CollectAndCount(r.FiberBatchDuration) + promtest.CollectAndCount(r.TimersPending); n != 0 {
		t.Fatalf("remaining series = %d, want 0", n)
	}

	var nilRegistry *Registry
	nilRegistry.ForgetFiber("gone")
}
