// Package registrar implements the per-file hash+metadata registration
// pipeline: the single contract that turns a
// filesystem path into a durable database record, shared by the Watcher
// and the Reconciler.
package registrar

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/dittosync/internal/bytesize"
	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/internal/telemetry"
	"github.com/marmos91/dittosync/pkg/dbgateway"
	"github.com/marmos91/dittosync/pkg/hashutil"
	"github.com/marmos91/dittosync/pkg/metaextract"
)

// Outcome classifies the result of a single Register call.
type Outcome string

const (
	OutcomeRegistered Outcome = "registered"
	OutcomeUpdated    Outcome = "updated"
	OutcomeUnchanged  Outcome = "unchanged"
	OutcomeSkipped    Outcome = "skipped"
	OutcomeError      Outcome = "error"
)

// Result is the disposition of one Register call, consumed by the
// Reconciler and Watcher-processor for scan summaries.
type Result struct {
	Path    string
	Outcome Outcome
	Reason  string // set for OutcomeSkipped/OutcomeError
	Err     error
}

// DefaultScanSizeLimit is the hard per-file size gate for registration.
const DefaultScanSizeLimit = 1 * bytesize.GiB

// Snapshot is the in-memory full_path → content_hash view a full scan
// loads once via Gateway.FetchPathMap, letting Register decide "unchanged"
// without a per-file DB read. It is safe for concurrent use by a bounded
// worker pool.
type Snapshot struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewSnapshot wraps a path map as a Snapshot.
func NewSnapshot(data map[string]string) *Snapshot {
	if data == nil {
		data = make(map[string]string)
	}
	return &Snapshot{data: data}
}

// Get returns the content hash last known for path, if any.
func (s *Snapshot) Get(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.data[path]
	return h, ok
}

// Set records path's content hash, so a scan revisiting the same path
// later does not redo the work.
func (s *Snapshot) Set(path, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[path] = hash
}

// Registrar turns filesystem paths into durable file/content records.
type Registrar struct {
	gw            dbgateway.Gateway
	scanSizeLimit bytesize.ByteSize
}

// New creates a Registrar writing through gw. A zero scanSizeLimit uses
// DefaultScanSizeLimit.
func New(gw dbgateway.Gateway, scanSizeLimit bytesize.ByteSize) *Registrar {
	if scanSizeLimit == 0 {
		scanSizeLimit = DefaultScanSizeLimit
	}
	return &Registrar{gw: gw, scanSizeLimit: scanSizeLimit}
}

// Register runs the full registration pipeline for a single path:
// security gate, hash, cheap-path-unchanged check, then content/file
// upserts in that order (content before file, so a file record never
// references a non-existent digest).
func (r *Registrar) Register(ctx context.Context, path, sourceBase string, snapshot *Snapshot) Result {
	ctx, span := telemetry.StartScanSpan(ctx, sourceBase, telemetry.Path(path))
	defer span.End()

	if reason, skip := r.securityGate(path, sourceBase); skip {
		logger.WarnCtx(ctx, "skipping path", logger.Component("registrar"), logger.Path(path), logger.Action("skip"), "reason", reason)
		return Result{Path: path, Outcome: OutcomeSkipped, Reason: reason}
	}

	hash, err := hashutil.HashFile(path)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.WarnCtx(ctx, "failed to hash file", logger.Component("registrar"), logger.Path(path), logger.Err(err))
		return Result{Path: path, Outcome: OutcomeError, Err: err}
	}

	if existing, ok := snapshot.Get(path); ok && existing == hash {
		if err := r.gw.TouchFile(ctx, path); err != nil {
			telemetry.RecordError(ctx, err)
			logger.WarnCtx(ctx, "failed to touch unchanged file", logger.Component("registrar"), logger.Path(path), logger.Err(err))
			return Result{Path: path, Outcome: OutcomeError, Err: err}
		}
		return Result{Path: path, Outcome: OutcomeUnchanged}
	}

	meta, err := metaextract.Extract(path, sourceBase)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.WarnCtx(ctx, "failed to extract metadata", logger.Component("registrar"), logger.Path(path), logger.Err(err))
		return Result{Path: path, Outcome: OutcomeError, Err: err}
	}

	wasNew := !pathHadRecord(snapshot, path)

	if err := r.gw.UpsertContent(ctx, hash, meta.Attributes.Size, meta.AutoMetadata.MimeType); err != nil {
		telemetry.RecordError(ctx, err)
		logger.WarnCtx(ctx, "failed to upsert content record", logger.Component("registrar"), logger.ContentHash(hash), logger.Err(err))
		return Result{Path: path, Outcome: OutcomeError, Err: err}
	}

	now := time.Now()
	rec := dbgateway.FileRecord{
		FullPath:     path,
		ContentHash:  hash,
		Filename:     meta.Filename,
		FolderPath:   meta.FolderPath,
		FSCreatedAt:  meta.FSCreatedAt,
		FSModifiedAt: meta.FSModifiedAt,
		FSInode:      meta.Inode,
		FSAttributes: attributesMap(meta.Attributes),
		AutoMetadata: autoMetadataMap(meta.AutoMetadata),
		LastSeenAt:   now,
		DeletedAt:    nil,
	}

	if err := r.gw.UpsertFile(ctx, rec); err != nil {
		telemetry.RecordError(ctx, err)
		logger.WarnCtx(ctx, "failed to upsert file record", logger.Component("registrar"), logger.Path(path), logger.Err(err))
		return Result{Path: path, Outcome: OutcomeError, Err: err}
	}

	snapshot.Set(path, hash)

	outcome := OutcomeUpdated
	if wasNew {
		outcome = OutcomeRegistered
	}
	return Result{Path: path, Outcome: outcome}
}

// pathHadRecord reports whether the snapshot already had any entry
// (including an empty hash) for path, used only to pick the right
// log/metric outcome label (registered vs. updated); it never affects
// correctness.
func pathHadRecord(snapshot *Snapshot, path string) bool {
	_, ok := snapshot.Get(path)
	return ok
}

// securityGate rejects a symlink whose
// resolution escapes sourceBase, or a file whose lstat size exceeds
// r.scanSizeLimit.
func (r *Registrar) securityGate(path, sourceBase string) (reason string, skip bool) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", false // let the hasher's StatError/HashError surface this
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := filepath.EvalSymlinks(path)
		if err != nil {
			return "symlink escape", true
		}
		absBase, err := filepath.Abs(sourceBase)
		if err != nil {
			return "symlink escape", true
		}
		rel, err := filepath.Rel(absBase, target)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "symlink escape", true
		}
	}

	if bytesize.ByteSize(info.Size()) > r.scanSizeLimit {
		return "too large", true
	}

	return "", false
}

func attributesMap(a metaextract.Attributes) map[string]any {
	return map[string]any{
		"size":    a.Size,
		"uid":     a.UID,
		"gid":     a.GID,
		"mode":    a.Mode,
		"symlink": a.IsSymlink,
	}
}

func autoMetadataMap(a metaextract.AutoMetadata) map[string]string {
	return map[string]string{
		"mime_type":   a.MimeType,
		"extension":   a.Extension,
		"source_base": a.SourceBase,
	}
}
