// Package metrics defines the metrics surface for the sync daemon without
// binding callers to a concrete Prometheus dependency. Core interfaces live
// here; pkg/metrics/prometheus supplies the concrete implementations and
// registers itself into this package's constructor variables on import,
// avoiding an import cycle between the two.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
	enabled  bool
)

// InitRegistry creates the process-wide Prometheus registry and enables
// metrics collection. Must be called before any New*Metrics constructor if
// metrics are wanted; otherwise those constructors return nil and every
// recording call becomes a no-op.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	registry = prometheus.NewRegistry()
	enabled = true
	return registry
}

// GetRegistry returns the process-wide registry. Panics if InitRegistry has
// not been called; callers must check IsEnabled first.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()

	if registry == nil {
		panic("metrics: GetRegistry called before InitRegistry")
	}
	return registry
}

// IsEnabled reports whether InitRegistry has been called for this process.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// reset clears registry state. Test-only.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	registry = nil
	enabled = false
}
