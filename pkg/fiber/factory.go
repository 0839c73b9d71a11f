package fiber

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/vnykmshr/fiberflow/pkg/common/validation"
	"github.com/vnykmshr/fiberflow/pkg/core"
	"github.com/vnykmshr/fiberflow/pkg/metrics"
	"github.com/vnykmshr/fiberflow/pkg/scheduling/workerpool"
)

// FactoryConfig is the environment-loadable part of a PoolFiberFactory's
// configuration.
type FactoryConfig struct {
	// Workers is the size of the shared pool.
	Workers int `env:"FIBERFLOW_POOL_WORKERS" envDefault:"4"`

	// TaskTimeout bounds the context passed to pool tasks. Zero means none.
	TaskTimeout time.Duration `env:"FIBERFLOW_TASK_TIMEOUT" envDefault:"0s"`

	// BatchWindow is the default window for batch subscribers built on
	// fibers from this factory.
	BatchWindow time.Duration `env:"FIBERFLOW_BATCH_WINDOW" envDefault:"50ms"`

	// MetricsEnabled instruments the pool and every created fiber with the
	// default Prometheus registry unless Config.Metrics is already set.
	MetricsEnabled bool `env:"FIBERFLOW_METRICS_ENABLED" envDefault:"false"`
}

// DefaultFactoryConfig returns the configuration used when no environment
// variables are set.
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		Workers:     4,
		BatchWindow: 50 * time.Millisecond,
	}
}

// LoadFactoryConfig reads FactoryConfig from the environment.
func LoadFactoryConfig() (FactoryConfig, error) {
	var cfg FactoryConfig
	if err := env.Parse(&cfg); err != nil {
		return FactoryConfig{}, fmt.Errorf("load factory config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return FactoryConfig{}, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c FactoryConfig) Validate() error {
	if err := validation.ValidatePositive("fiber", "Workers", c.Workers); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration("fiber", "TaskTimeout", c.TaskTimeout); err != nil {
		return err
	}
	return validation.ValidatePositiveDuration("fiber", "BatchWindow", c.BatchWindow)
}

// PoolFiberFactory creates pooled fibers that share one pool and one timer
// source. Disposing the factory disposes every fiber it created that is still
// alive and, when the factory created the pool, shuts the pool down.
type PoolFiberFactory struct {
	pool        workerpool.Pool
	ownsPool    bool
	base        Config
	batchWindow time.Duration
	fibers      *core.Registry
	disposeOnce sync.Once
}

// NewPoolFiberFactory creates a factory with its own worker pool. base is the
// template for every created fiber; its Name is ignored.
func NewPoolFiberFactory(cfg FactoryConfig, base Config) (*PoolFiberFactory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.MetricsEnabled && base.Metrics == nil {
		base.Metrics = metrics.DefaultRegistry
	}

	poolCfg := workerpool.DefaultConfig()
	poolCfg.WorkerCount = cfg.Workers
	poolCfg.TaskTimeout = cfg.TaskTimeout
	poolCfg.Logger = base.Logger

	var pool workerpool.Pool
	if base.Metrics != nil {
		pool = workerpool.NewWithRegistry(poolCfg, "fiberflow", base.Metrics)
	} else {
		pool = workerpool.NewWithConfig(poolCfg)
	}

	f := NewPoolFiberFactoryWithPool(pool, base)
	f.ownsPool = true
	f.batchWindow = cfg.BatchWindow
	return f, nil
}

// NewPoolFiberFactoryWithPool creates a factory over an existing pool. The
// factory never shuts that pool down.
func NewPoolFiberFactoryWithPool(pool workerpool.Pool, base Config) *PoolFiberFactory {
	base.Name = ""
	return &PoolFiberFactory{
		pool:        pool,
		base:        base,
		batchWindow: DefaultFactoryConfig().BatchWindow,
		fibers:      core.NewRegistry(base.Logger),
	}
}

// Create returns a new, unstarted pooled fiber with a generated name.
func (f *PoolFiberFactory) Create() *PoolFiber {
	return f.CreateNamed("")
}

// CreateNamed returns a new, unstarted pooled fiber. An empty name is replaced
// by a generated one.
func (f *PoolFiberFactory) CreateNamed(name string) *PoolFiber {
	cfg := f.base
	cfg.Name = name
	fb := NewPoolFiber(f.pool, cfg)

	key := f.fibers.Add(fb)
	fb.AddOnStop(core.DisposableFunc(func() { f.fibers.Remove(key) }))
	return fb
}

// Live returns the number of created fibers that have not been disposed.
func (f *PoolFiberFactory) Live() int { return f.fibers.Len() }

// BatchWindow returns the configured default batch window.
func (f *PoolFiberFactory) BatchWindow() time.Duration { return f.batchWindow }

// Pool returns the shared pool.
func (f *PoolFiberFactory) Pool() workerpool.Pool { return f.pool }

// Dispose disposes all live fibers in creation order, then shuts down an
// owned pool and waits for its workers to exit.
func (f *PoolFiberFactory) Dispose() {
	f.disposeOnce.Do(func() {
		f.fibers.DisposeAll()
		if f.ownsPool {
			<-f.pool.Shutdown()
		}
	})
}
