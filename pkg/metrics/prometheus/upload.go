package prometheus

import (
	"time"

	"github.com/marmos91/dittosync/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterUploadMetricsConstructor(newUploadMetrics)
}

type uploadMetrics struct {
	uploadsTotal   *prometheus.CounterVec
	uploadDuration *prometheus.HistogramVec
	uploadBytes    prometheus.Histogram
	retriesTotal   prometheus.Counter
	dequeueBatch   prometheus.Histogram
}

func newUploadMetrics() metrics.UploadMetrics {
	reg := metricsRegistry()

	return &uploadMetrics{
		uploadsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittosync_uploads_total",
				Help: "Total number of upload attempts by outcome (success, failure, skipped)",
			},
			[]string{"status"},
		),
		uploadDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dittosync_upload_duration_seconds",
				Help:    "Duration of S3 PUT operations for pending content",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		uploadBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "dittosync_upload_bytes",
				Help: "Distribution of uploaded content sizes in bytes",
				Buckets: []float64{
					4096, 65536, 1048576, 10485760, 104857600,
				},
			},
		),
		retriesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittosync_upload_retries_total",
				Help: "Total number of upload retry attempts after a transient failure",
			},
		),
		dequeueBatch: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dittosync_upload_dequeue_batch_size",
				Help:    "Number of content hashes dequeued per uploader iteration",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
			},
		),
	}
}

func (m *uploadMetrics) RecordUpload(status string, bytes int64, duration time.Duration) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(status).Inc()
	m.uploadDuration.WithLabelValues(status).Observe(duration.Seconds())
	if bytes > 0 {
		m.uploadBytes.Observe(float64(bytes))
	}
}

func (m *uploadMetrics) RecordRetry(attempt int) {
	if m == nil {
		return
	}
	m.retriesTotal.Inc()
}

func (m *uploadMetrics) RecordDequeue(count int) {
	if m == nil {
		return
	}
	m.dequeueBatch.Observe(float64(count))
}
