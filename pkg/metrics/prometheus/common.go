// Package prometheus supplies the concrete Prometheus-backed implementations
// of the interfaces declared in pkg/metrics. Each file registers its
// constructor with the core package via an init() function, so importing
// this package for side effects (blank import from cmd/dittosync) is enough
// to wire metrics collection in.
package prometheus

import (
	coreprom "github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/dittosync/pkg/metrics"
)

// metricsRegistry fetches the process-wide registry. Only ever called from
// a New*Metrics constructor after metrics.IsEnabled() has already been
// checked by the caller in pkg/metrics, so GetRegistry will not panic here.
func metricsRegistry() *coreprom.Registry {
	return metrics.GetRegistry()
}
