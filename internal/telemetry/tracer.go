package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for sync operations, following OpenTelemetry semantic
// convention style (dotted, lowercase).
const (
	// ========================================================================
	// Filesystem attributes
	// ========================================================================
	AttrPath       = "fs.path"
	AttrOldPath    = "fs.old_path"
	AttrNewPath    = "fs.new_path"
	AttrSourceBase = "fs.source_base"
	AttrSize       = "fs.size"
	AttrMimeType   = "fs.mime_type"

	// ========================================================================
	// Content addressing attributes
	// ========================================================================
	AttrContentHash  = "content.hash"
	AttrUploadStatus = "content.upload_status"
	AttrRetryCount   = "content.retry_count"
	AttrBatchSize    = "content.batch_size"

	// ========================================================================
	// Object storage attributes
	// ========================================================================
	AttrStoreName = "store.name"
	AttrStoreType = "store.type"
	AttrBucket    = "storage.bucket"
	AttrKey       = "storage.key"
	AttrRegion    = "storage.region"

	// ========================================================================
	// Scan summary attributes
	// ========================================================================
	AttrScanned     = "scan.scanned"
	AttrRegistered  = "scan.registered"
	AttrUpdated     = "scan.updated"
	AttrUnchanged   = "scan.unchanged"
	AttrSoftDeleted = "scan.soft_deleted"
	AttrErrors      = "scan.errors"
)

// Span names for the sync engine's operations.
const (
	SpanScan       = "sync.scan"
	SpanRegister   = "sync.register"
	SpanTouch      = "sync.touch"
	SpanSoftDelete = "sync.soft_delete"
	SpanDequeue    = "upload.dequeue"
	SpanUpload     = "upload.put"
	SpanReconcile  = "reconcile.walk"

	SpanContentRead  = "content.read"
	SpanContentWrite = "content.write"
	SpanContentStat  = "content.stat"
	SpanMetaLookup   = "metadata.lookup"
	SpanMetaUpdate   = "metadata.update"
	SpanMetaCreate   = "metadata.create"
	SpanMetaDelete   = "metadata.delete"
)

// Path returns an attribute for a full file path.
func Path(path string) attribute.KeyValue {
	return attribute.String(AttrPath, path)
}

// OldPath returns an attribute for the source path of a move/rename.
func OldPath(path string) attribute.KeyValue {
	return attribute.String(AttrOldPath, path)
}

// NewPath returns an attribute for the destination path of a move/rename.
func NewPath(path string) attribute.KeyValue {
	return attribute.String(AttrNewPath, path)
}

// Size returns an attribute for a byte size.
func Size(size uint64) attribute.KeyValue {
	return attribute.Int64(AttrSize, int64(size))
}

// MimeType returns an attribute for an inferred MIME type.
func MimeType(mime string) attribute.KeyValue {
	return attribute.String(AttrMimeType, mime)
}

// ContentHash returns an attribute for a content digest.
func ContentHash(hash string) attribute.KeyValue {
	return attribute.String(AttrContentHash, hash)
}

// UploadStatus returns an attribute for a content record's upload status.
func UploadStatus(status string) attribute.KeyValue {
	return attribute.String(AttrUploadStatus, status)
}

// RetryCount returns an attribute for an upload retry count.
func RetryCount(n int) attribute.KeyValue {
	return attribute.Int(AttrRetryCount, n)
}

// ContentID is retained as an alias of ContentHash for storage-layer spans
// that deal in opaque content identifiers rather than hex digests directly.
func ContentID(id string) attribute.KeyValue {
	return attribute.String(AttrContentHash, id)
}

// Bucket returns an attribute for an object-store bucket name.
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// StorageKey returns an attribute for an object-store key.
func StorageKey(key string) attribute.KeyValue {
	return attribute.String(AttrKey, key)
}

// Region returns an attribute for a cloud region.
func Region(region string) attribute.KeyValue {
	return attribute.String(AttrRegion, region)
}

// StoreName returns an attribute for a backing store's name.
func StoreName(name string) attribute.KeyValue {
	return attribute.String(AttrStoreName, name)
}

// StoreType returns an attribute for a backing store's type (s3, dbgateway).
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// StartContentSpan starts a span for an object-store operation.
func StartContentSpan(ctx context.Context, operation string, hash string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{ContentHash(hash)}, attrs...)
	return StartSpan(ctx, "content."+operation, trace.WithAttributes(allAttrs...))
}

// StartMetadataSpan starts a span for a DB gateway operation.
func StartMetadataSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, "metadata."+operation, trace.WithAttributes(attrs...))
}

// StartScanSpan starts a span for a full-tree reconciliation scan.
func StartScanSpan(ctx context.Context, sourceBase string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{attribute.String(AttrSourceBase, sourceBase)}, attrs...)
	return StartSpan(ctx, SpanScan, trace.WithAttributes(allAttrs...))
}

// StartUploadSpan starts a span for a single content upload attempt.
func StartUploadSpan(ctx context.Context, hash string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{ContentHash(hash)}, attrs...)
	return StartSpan(ctx, SpanUpload, trace.WithAttributes(allAttrs...))
}
