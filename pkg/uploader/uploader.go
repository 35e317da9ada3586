// Package uploader drains the pending-upload queue maintained by the DB
// gateway and pushes blobs through the object-store gateway.
package uploader

import (
	"context"
	"errors"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/marmos91/dittosync/internal/bytesize"
	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/internal/telemetry"
	"github.com/marmos91/dittosync/pkg/dbgateway"
	"github.com/marmos91/dittosync/pkg/metrics"
)

// DefaultUploadSizeLimit is the per-file upload ceiling (distinct from
// the scan-time size gate).
const DefaultUploadSizeLimit = 100 * bytesize.MiB

// DefaultBatchSize is the number of content refs requested per dequeue.
const DefaultBatchSize = 5

// DefaultEmptyBatchBackoff is how long the loop sleeps after an empty
// dequeue before retrying.
const DefaultEmptyBatchBackoff = 10 * time.Second

// DefaultErrorBackoff is the pause applied after a top-level loop
// exception before resuming.
const DefaultErrorBackoff = 10 * time.Second

// maxErrorMessageLen truncates a stored failure message so a runaway
// error string cannot bloat the content row.
const maxErrorMessageLen = 500

// ObjectPutter is the object-store surface the Uploader needs: put a
// blob under its content hash. Satisfied by *objectstore.Store.
type ObjectPutter interface {
	Put(ctx context.Context, contentHash string, body io.Reader, size int64, mimeType string) (storageKey string, err error)
}

// Uploader is a long-running worker draining the DB gateway's
// pending-upload queue.
type Uploader struct {
	gw              dbgateway.Gateway
	store           ObjectPutter
	pathPrefixes    []string
	batchSize       int
	uploadSizeLimit bytesize.ByteSize
	metrics         metrics.UploadMetrics
}

// Config configures an Uploader.
type Config struct {
	PathPrefixes    []string
	BatchSize       int
	UploadSizeLimit bytesize.ByteSize
	Metrics         metrics.UploadMetrics
}

// New creates an Uploader over gw and store.
func New(gw dbgateway.Gateway, store ObjectPutter, cfg Config) *Uploader {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.UploadSizeLimit == 0 {
		cfg.UploadSizeLimit = DefaultUploadSizeLimit
	}
	return &Uploader{
		gw:              gw,
		store:           store,
		pathPrefixes:    cfg.PathPrefixes,
		batchSize:       cfg.BatchSize,
		uploadSizeLimit: cfg.UploadSizeLimit,
		metrics:         cfg.Metrics,
	}
}

// Run executes reset_stuck_uploads once, then loops dequeuing and
// uploading batches until ctx is cancelled. A top-level error from any
// single iteration is logged and triggers DefaultErrorBackoff before the
// loop continues; it never returns early.
func (u *Uploader) Run(ctx context.Context) {
	if n, err := u.gw.ResetStuckUploads(ctx); err != nil {
		logger.WarnCtx(ctx, "failed to reset stuck uploads at startup", logger.Component("uploader"), logger.Err(err))
	} else if n > 0 {
		logger.InfoCtx(ctx, "reset stuck uploads", logger.Component("uploader"), "count", n)
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := u.runOnce(ctx); err != nil {
			logger.ErrorCtx(ctx, "uploader iteration failed", logger.Component("uploader"), logger.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(DefaultErrorBackoff):
			}
		}
	}
}

// runOnce dequeues and processes a single batch, sleeping
// DefaultEmptyBatchBackoff if the batch was empty.
func (u *Uploader) runOnce(ctx context.Context) error {
	refs, err := u.gw.DequeueUploadBatch(ctx, u.batchSize, u.pathPrefixes)
	if err != nil {
		return err
	}

	metrics.RecordDequeue(u.metrics, len(refs))

	if len(refs) == 0 {
		select {
		case <-ctx.Done():
		case <-time.After(DefaultEmptyBatchBackoff):
		}
		return nil
	}

	for _, ref := range refs {
		u.processOne(ctx, ref)
	}
	return nil
}

func (u *Uploader) processOne(ctx context.Context, ref dbgateway.ContentRef) {
	ctx, span := telemetry.StartUploadSpan(ctx, ref.ContentHash, telemetry.Path(ref.FullPath), telemetry.Size(ref.SizeBytes))
	defer span.End()

	start := time.Now()

	info, err := os.Stat(ref.FullPath)
	if errors.Is(err, os.ErrNotExist) {
		u.fail(ctx, ref.ContentHash, "file missing")
		metrics.RecordUpload(u.metrics, "failure", 0, time.Since(start))
		return
	}
	if err != nil {
		u.fail(ctx, ref.ContentHash, truncate(err.Error()))
		metrics.RecordUpload(u.metrics, "failure", 0, time.Since(start))
		return
	}

	if bytesize.ByteSize(info.Size()) > u.uploadSizeLimit {
		reason := "exceeds upload size limit"
		if err := u.gw.MarkUploadSkipped(ctx, ref.ContentHash, reason); err != nil {
			logger.WarnCtx(ctx, "failed to mark upload skipped", logger.Component("uploader"), logger.ContentHash(ref.ContentHash), logger.Err(err))
		}
		metrics.RecordUpload(u.metrics, "skipped", 0, time.Since(start))
		return
	}

	f, err := os.Open(ref.FullPath)
	if err != nil {
		u.fail(ctx, ref.ContentHash, truncate(err.Error()))
		metrics.RecordUpload(u.metrics, "failure", 0, time.Since(start))
		return
	}
	defer f.Close()

	mimeType := ref.MimeType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(ref.FullPath))
	}

	storagePath, err := u.store.Put(ctx, ref.ContentHash, f, info.Size(), mimeType)
	if err != nil {
		telemetry.RecordError(ctx, err)
		u.fail(ctx, ref.ContentHash, truncate(err.Error()))
		metrics.RecordUpload(u.metrics, "failure", 0, time.Since(start))
		return
	}

	if err := u.gw.MarkUploadComplete(ctx, ref.ContentHash, storagePath, mimeType); err != nil {
		logger.WarnCtx(ctx, "failed to mark upload complete", logger.Component("uploader"), logger.ContentHash(ref.ContentHash), logger.Err(err))
		metrics.RecordUpload(u.metrics, "failure", info.Size(), time.Since(start))
		return
	}

	metrics.RecordUpload(u.metrics, "success", info.Size(), time.Since(start))
	logger.InfoCtx(ctx, "blob uploaded",
		logger.Component("uploader"),
		logger.ContentHash(ref.ContentHash),
		logger.StorageKey(storagePath),
		"size", humanize.Bytes(uint64(info.Size())),
		logger.DurationMs(float64(time.Since(start).Milliseconds())),
	)
}

func (u *Uploader) fail(ctx context.Context, hash, reason string) {
	if err := u.gw.MarkUploadFailed(ctx, hash, reason); err != nil {
		logger.WarnCtx(ctx, "failed to mark upload failed", logger.Component("uploader"), logger.ContentHash(hash), logger.Err(err))
	}
}

func truncate(s string) string {
	if len(s) <= maxErrorMessageLen {
		return s
	}
	return s[:maxErrorMessageLen]
}
