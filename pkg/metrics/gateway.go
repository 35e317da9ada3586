package metrics

import "time"

// GatewayMetrics provides observability for outbound calls to the remote
// metadata API and the object store, keyed by a caller-supplied backend
// name ("db" or "s3") so both share one set of timeseries.
//
// Implementations are optional; pass nil to disable collection with zero
// overhead.
type GatewayMetrics interface {
	// ObserveOperation records a single backend call.
	ObserveOperation(backend, operation string, duration time.Duration, err error)

	// RecordBytes records bytes transferred for a backend call.
	RecordBytes(backend, operation string, bytes int64)
}

// NewGatewayMetrics creates a new Prometheus-backed GatewayMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewGatewayMetrics() GatewayMetrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusGatewayMetrics()
}

// newPrometheusGatewayMetrics is set by pkg/metrics/prometheus's init().
var newPrometheusGatewayMetrics func() GatewayMetrics

// RegisterGatewayMetricsConstructor registers the Prometheus gateway
// metrics constructor. Called by pkg/metrics/prometheus during package
// initialization.
func RegisterGatewayMetricsConstructor(constructor func() GatewayMetrics) {
	newPrometheusGatewayMetrics = constructor
}

// ObserveOperation records a backend call, tolerating a nil m.
func ObserveOperation(m GatewayMetrics, backend, operation string, duration time.Duration, err error) {
	if m != nil {
		m.ObserveOperation(backend, operation, duration, err)
	}
}

// RecordBytes records bytes transferred, tolerating a nil m.
func RecordBytes(m GatewayMetrics, backend, operation string, bytes int64) {
	if m != nil {
		m.RecordBytes(backend, operation, bytes)
	}
}
