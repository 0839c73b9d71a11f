package fiber

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vnykmshr/fiberflow/internal/testutil"
	gferrors "github.com/vnykmshr/fiberflow/pkg/common/errors"
	"github.com/vnykmshr/fiberflow/pkg/metrics"
	"github.com/vnykmshr/fiberflow/pkg/scheduling/workerpool"
)

func TestLoadFactoryConfigDefaults(t *testing.T) {
	cfg, err := LoadFactoryConfig()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg, DefaultFactoryConfig())
}

func TestLoadFactoryConfigFromEnv(t *testing.T) {
	t.Setenv("FIBERFLOW_POOL_WORKERS", "12")
	t.Setenv("FIBERFLOW_TASK_TIMEOUT", "2s")
	t.Setenv("FIBERFLOW_BATCH_WINDOW", "250ms")
	t.Setenv("FIBERFLOW_METRICS_ENABLED", "true")

	cfg, err := LoadFactoryConfig()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Workers, 12)
	testutil.AssertEqual(t, cfg.TaskTimeout, 2*time.Second)
	testutil.AssertEqual(t, cfg.BatchWindow, 250*time.Millisecond)
	testutil.AssertEqual(t, cfg.MetricsEnabled, true)
}

func TestLoadFactoryConfigInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
		validation       bool
	}{
		{"unparsable workers", "FIBERFLOW_POOL_WORKERS", "many", false},
		{"zero workers", "FIBERFLOW_POOL_WORKERS", "0", true},
		{"unparsable window", "FIBERFLOW_BATCH_WINDOW", "soon", false},
		{"zero window", "FIBERFLOW_BATCH_WINDOW", "0s", true},
		{"negative timeout", "FIBERFLOW_TASK_TIMEOUT", "-1s", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadFactoryConfig()
			testutil.AssertError(t, err)
			testutil.AssertEqual(t, errors.Is(err, gferrors.ErrInvalidConfiguration), tt.validation)
		})
	}
}

func TestPoolFiberFactory(t *testing.T) {
	cfg := DefaultFactoryConfig()
	cfg.Workers = 2

	factory, err := NewPoolFiberFactory(cfg, Config{})
	testutil.AssertNoError(t, err)

	a := factory.CreateNamed("a")
	b := factory.Create()
	c := factory.Create()
	testutil.AssertEqual(t, a.Name(), "a")
	testutil.AssertNotEqual(t, b.Name(), c.Name())
	testutil.AssertEqual(t, factory.Live(), 3)
	testutil.AssertEqual(t, factory.BatchWindow(), cfg.BatchWindow)

	var ran int32
	for _, f := range []*PoolFiber{a, b, c} {
		testutil.AssertNoError(t, f.Start())
		f.Execute(func() { atomic.AddInt32(&ran, 1) })
	}
	testutil.WaitForInt32(t, &ran, 3, testutil.TestTimeout)

	b.Dispose()
	testutil.AssertEqual(t, factory.Live(), 2)

	factory.Dispose()
	factory.Dispose()

	testutil.AssertEqual(t, factory.Live(), 0)
	testutil.AssertEqual(t, a.State(), Disposed)
	testutil.AssertEqual(t, c.State(), Disposed)

	err = factory.Pool().Go(func() {})
	if !errors.Is(err, gferrors.ErrClosed) {
		t.Fatalf("expected owned pool to be shut down, got %v", err)
	}
}

func TestPoolFiberFactoryInvalidConfig(t *testing.T) {
	_, err := NewPoolFiberFactory(FactoryConfig{Workers: 0, BatchWindow: time.Second}, Config{})
	testutil.AssertError(t, err)
}

func TestPoolFiberFactorySharedPool(t *testing.T) {
	pool := workerpool.New(2)
	defer func() { <-pool.Shutdown() }()

	factory := NewPoolFiberFactoryWithPool(pool, Config{})
	f := factory.Create()
	testutil.AssertNoError(t, f.Start())

	factory.Dispose()
	testutil.AssertEqual(t, f.State(), Disposed)

	// the pool belongs to the caller and stays open
	testutil.AssertNoError(t, pool.Go(func() {}))
}

func TestPoolFiberFactoryMetrics(t *testing.T) {
	m := metrics.For(prometheus.NewRegistry())
	factory, err := NewPoolFiberFactory(DefaultFactoryConfig(), Config{Metrics: m})
	testutil.AssertNoError(t, err)
	defer factory.Dispose()

	_, ok := factory.Pool().(*workerpool.MetricsPool)
	testutil.AssertEqual(t, ok, true)
}
