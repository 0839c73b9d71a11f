package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds configuration for metrics collection.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registry to use. If nil, DefaultRegistry is used.
	Registry prometheus.Registerer
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Registry: prometheus.DefaultRegisterer,
	}
}

// Resolve returns the Registry described by the config, or nil when metrics are disabled.
// A nil Registerer resolves to DefaultRegistry.
func (c Config) Resolve() *Registry {
	if !c.Enabled {
		return nil
	}
	return For(c.Registry)
}

var (
	registriesMu sync.Mutex
	registries   = map[prometheus.Registerer]*Registry{}
)

// For returns the Registry bound to reg, creating and registering its collectors
// on first use. Components sharing a Registerer share one Registry, which avoids
// duplicate registration panics.
func For(reg prometheus.Registerer) *Registry {
	if reg == nil || reg == prometheus.DefaultRegisterer {
		return DefaultRegistry
	}

	registriesMu.Lock()
	defer registriesMu.Unlock()

	if r, ok := registries[reg]; ok {
		return r
	}
	r := NewRegistry(reg)
	registries[reg] = r
	return r
}
