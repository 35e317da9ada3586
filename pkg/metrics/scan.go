package metrics

import "time"

// ScanMetrics provides observability for registrar scan passes, whether
// triggered by a watcher event batch or a full reconciliation walk.
//
// Implementations are optional; pass nil to disable collection with zero
// overhead.
type ScanMetrics interface {
	// RecordScan records the outcome counts of a single scan pass and its
	// wall-clock duration. source is "watch" or "reconcile".
	RecordScan(source string, registered, updated, unchanged, softDeleted, errors int, duration time.Duration)

	// RecordFileRegistered records a single newly-registered file, in
	// addition to the batch totals recorded by RecordScan.
	RecordFileRegistered(sourceBase string, bytes uint64)

	// RecordQueueDepth reports the current number of debounced watcher
	// events waiting in the event queue.
	RecordQueueDepth(depth int)
}

// NewScanMetrics creates a new Prometheus-backed ScanMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called). When nil
// is returned, callers should pass nil onward; every helper in this file
// tolerates a nil ScanMetrics.
func NewScanMetrics() ScanMetrics {
	if !IsEnabled() {
		return nil
	}
	return newPrometheusScanMetrics()
}

// newPrometheusScanMetrics is set by pkg/metrics/prometheus's init(). This
// indirection avoids an import cycle between the two packages.
var newPrometheusScanMetrics func() ScanMetrics

// RegisterScanMetricsConstructor registers the Prometheus scan metrics
// constructor. Called by pkg/metrics/prometheus during package
// initialization.
func RegisterScanMetricsConstructor(constructor func() ScanMetrics) {
	newPrometheusScanMetrics = constructor
}

// RecordScan records the outcome of a scan pass, tolerating a nil m.
func RecordScan(m ScanMetrics, source string, registered, updated, unchanged, softDeleted, errors int, duration time.Duration) {
	if m != nil {
		m.RecordScan(source, registered, updated, unchanged, softDeleted, errors, duration)
	}
}

// RecordFileRegistered records a single registered file, tolerating a nil m.
func RecordFileRegistered(m ScanMetrics, sourceBase string, bytes uint64) {
	if m != nil {
		m.RecordFileRegistered(sourceBase, bytes)
	}
}

// RecordQueueDepth reports queue depth, tolerating a nil m.
func RecordQueueDepth(m ScanMetrics, depth int) {
	if m != nil {
		m.RecordQueueDepth(depth)
	}
}
