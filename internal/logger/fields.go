package logger

import (
	"log/slog"
)

// Standard field keys for structured logging across the sync engine.
// Use these keys consistently so log lines stay greppable/aggregatable.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ========================================================================
	// Component & Operation
	// ========================================================================
	KeyComponent = "component" // watcher, registrar, reconciler, uploader, dbgateway, objectstore
	KeyAction    = "action"    // register, touch, soft-delete, dequeue, upload, skip
	KeySource    = "source"    // watcher, reconciler (what triggered a registration)

	// ========================================================================
	// Filesystem
	// ========================================================================
	KeyPath       = "path"
	KeyOldPath    = "old_path" // source path for move/rename
	KeyNewPath    = "new_path" // destination path for move/rename
	KeySourceBase = "source_base"
	KeySize       = "size"
	KeyMime       = "mime_type"

	// ========================================================================
	// Content addressing
	// ========================================================================
	KeyContentHash = "content_hash"
	KeyStatus      = "status" // content upload_status

	// ========================================================================
	// Object storage
	// ========================================================================
	KeyBucket = "bucket"
	KeyKey    = "key"
	KeyRegion = "region"

	// ========================================================================
	// Retry / backoff
	// ========================================================================
	KeyAttempt    = "attempt"
	KeyMaxRetries = "max_retries"
	KeyRetryDelay = "retry_delay"

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"

	// ========================================================================
	// Scan summary counters
	// ========================================================================
	KeyRegistered  = "registered"
	KeyUpdated     = "updated"
	KeyUnchanged   = "unchanged"
	KeySoftDeleted = "soft_deleted"
	KeyErrors      = "errors"
	KeyScanned     = "scanned"
	KeyTotal       = "total"
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Component returns a slog.Attr for the emitting component
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Action returns a slog.Attr for the operation being performed
func Action(name string) slog.Attr {
	return slog.String(KeyAction, name)
}

// Path returns a slog.Attr for a full file path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// OldPath returns a slog.Attr for the source path of a move/rename
func OldPath(p string) slog.Attr {
	return slog.String(KeyOldPath, p)
}

// NewPath returns a slog.Attr for the destination path of a move/rename
func NewPath(p string) slog.Attr {
	return slog.String(KeyNewPath, p)
}

// Size returns a slog.Attr for a byte size
func Size(s uint64) slog.Attr {
	return slog.Uint64(KeySize, s)
}

// MimeType returns a slog.Attr for an inferred MIME type
func MimeType(m string) slog.Attr {
	return slog.String(KeyMime, m)
}

// ContentHash returns a slog.Attr for a content digest
func ContentHash(h string) slog.Attr {
	return slog.String(KeyContentHash, h)
}

// Status returns a slog.Attr for an upload/operation status
func Status(s string) slog.Attr {
	return slog.String(KeyStatus, s)
}

// Bucket returns a slog.Attr for an object-store bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// StorageKey returns a slog.Attr for an object-store key
func StorageKey(key string) slog.Attr {
	return slog.String(KeyKey, key)
}

// Attempt returns a slog.Attr for a retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// Err returns a slog.Attr for an error value
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// DurationMs returns a slog.Attr for an operation duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}
