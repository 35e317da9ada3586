package metrics

import "time"

// UploadMetrics provides observability for the uploader's dequeue-and-put
// pipeline.
//
// Implementations are optional; pass nil to disable collection with zero
// overhead.
type UploadMetrics interface {
	// RecordUpload records a completed upload attempt. status is one of
	// "success", "failure", or "skipped" (file larger than the upload
	// size limit).
	RecordUpload(status string, bytes int64, duration time.Duration)

	// RecordRetry records a retried upload attempt after a transient
	// failure.
	RecordRetry(attempt int)

	// RecordDequeue records a batch dequeued from the pending-upload
	// queue for processing.
	RecordDequeue(count int)
}

// NewUploadMetrics creates a new Prometheus-backed UploadMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewUploadMetrics() UploadMetrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusUploadMetrics()
}

// newPrometheusUploadMetrics is set by pkg/metrics/prometheus's init().
var newPrometheusUploadMetrics func() UploadMetrics

// RegisterUploadMetricsConstructor registers the Prometheus upload metrics
// constructor. Called by pkg/metrics/prometheus during package
// initialization.
func RegisterUploadMetricsConstructor(constructor func() UploadMetrics) {
	newPrometheusUploadMetrics = constructor
}

// RecordUpload records a completed upload attempt, tolerating a nil m.
func RecordUpload(m UploadMetrics, status string, bytes int64, duration time.Duration) {
	if m != nil {
		m.RecordUpload(status, bytes, duration)
	}
}

// RecordRetry records a retried upload attempt, tolerating a nil m.
func RecordRetry(m UploadMetrics, attempt int) {
	if m != nil {
		m.RecordRetry(attempt)
	}
}

// RecordDequeue records a dequeued batch size, tolerating a nil m.
func RecordDequeue(m UploadMetrics, count int) {
	if m != nil {
		m.RecordDequeue(count)
	}
}
