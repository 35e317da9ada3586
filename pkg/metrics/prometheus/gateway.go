package prometheus

import (
	"time"

	"github.com/marmos91/dittosync/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterGatewayMetricsConstructor(newGatewayMetrics)
}

type gatewayMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
}

func newGatewayMetrics() metrics.GatewayMetrics {
	reg := metricsRegistry()

	return &gatewayMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittosync_gateway_operations_total",
				Help: "Total number of backend calls by backend, operation, and status",
			},
			[]string{"backend", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dittosync_gateway_operation_duration_seconds",
				Help:    "Duration of backend calls by backend and operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittosync_gateway_bytes_transferred_total",
				Help: "Total bytes transferred in backend calls by backend and operation",
			},
			[]string{"backend", "operation"},
		),
	}
}

func (m *gatewayMetrics) ObserveOperation(backend, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(backend, operation, status).Inc()
	m.operationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

func (m *gatewayMetrics) RecordBytes(backend, operation string, bytes int64) {
	if m == nil || bytes <= 0 {
		return
	}
	m.bytesTransferred.WithLabelValues(backend, operation).Add(float64(bytes))
}
