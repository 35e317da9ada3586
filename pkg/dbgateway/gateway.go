package dbgateway

import (
	"context"
	"time"
)

// Gateway is the narrow contract the sync engine requires of the remote
// metadata store. Registrar, Reconciler and Uploader depend only on this
// interface, never on Client directly, so tests can substitute a fake.
type Gateway interface {
	// FetchPathMap returns every live full_path → content_hash pair,
	// paginated internally with a stable order so the walk cannot skip
	// or duplicate rows.
	FetchPathMap(ctx context.Context) (map[string]string, error)

	// UpsertContent merges on content_hash: inserts in StatusPending if
	// absent, never regresses an existing row's status.
	UpsertContent(ctx context.Context, hash string, size uint64, mime string) error

	// UpsertFile merges on full_path and clears deleted_at
	// (resurrection).
	UpsertFile(ctx context.Context, rec FileRecord) error

	// TouchFile updates last_seen_at only.
	TouchFile(ctx context.Context, fullPath string) error

	// MarkDeleted soft-deletes every row under pathPrefix whose
	// last_seen_at precedes beforeTs, returning the count affected.
	MarkDeleted(ctx context.Context, pathPrefix string, beforeTs time.Time) (int, error)

	// DequeueUploadBatch atomically selects up to batchSize pending
	// content rows reachable from a file under one of pathPrefixes,
	// flips them to StatusUploading, and returns them. Two concurrent
	// callers never observe the same row.
	DequeueUploadBatch(ctx context.Context, batchSize int, pathPrefixes []string) ([]ContentRef, error)

	// MarkUploadComplete transitions a content row to StatusUploaded.
	MarkUploadComplete(ctx context.Context, hash, storagePath, mime string) error

	// MarkUploadFailed increments retry_count and reverts the row to
	// StatusPending with backoff.
	MarkUploadFailed(ctx context.Context, hash, errMsg string) error

	// MarkUploadSkipped terminally marks a content row StatusSkipped.
	MarkUploadSkipped(ctx context.Context, hash, reason string) error

	// ResetStuckUploads reverts StatusUploading rows older than the
	// server's staleness threshold back to StatusPending, returning the
	// count affected. Called once at Uploader startup.
	ResetStuckUploads(ctx context.Context) (int, error)
}
