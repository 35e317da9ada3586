// Package reconciler implements the periodic full-tree scan:
// snapshot the remote path map, walk every source root registering each
// regular file, then soft-delete whatever the scan didn't see.
package reconciler

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/internal/telemetry"
	"github.com/marmos91/dittosync/pkg/dbgateway"
	"github.com/marmos91/dittosync/pkg/metrics"
	"github.com/marmos91/dittosync/pkg/registrar"
)

// DefaultWorkers is the fallback worker-pool size when the caller passes
// zero.
const DefaultWorkers = 4

// systemDirs are skipped during the walk in addition to any
// '.'-prefixed name.
var systemDirs = map[string]bool{
	"@eaDir":                    true,
	"#recycle":                  true,
	".SynologyWorkingDirectory": true,
}

// Summary counts the outcomes of one completed scan, for logging and
// metrics.
type Summary struct {
	Registered int
	Updated    int
	Unchanged  int
	Skipped    int
	Errored    int
	Deleted    int
	Duration   time.Duration
}

// Reconciler runs the full-tree scan against a set of source roots.
type Reconciler struct {
	gw       dbgateway.Gateway
	reg      *registrar.Registrar
	roots    []string
	workers  int
	metrics  metrics.ScanMetrics
	scanOnce sync.Mutex
}

// New creates a Reconciler over roots, using reg to register each path
// and gw for the snapshot fetch and soft-delete sweep. A zero workers
// uses DefaultWorkers. m may be nil.
func New(gw dbgateway.Gateway, reg *registrar.Registrar, roots []string, workers int, m metrics.ScanMetrics) *Reconciler {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Reconciler{gw: gw, reg: reg, roots: roots, workers: workers, metrics: m}
}

// Run executes one full scan. It refuses to start a second scan
// concurrently with one already in progress, returning immediately if
// the overlap guard is held.
func (r *Reconciler) Run(ctx context.Context) (Summary, error) {
	if !r.scanOnce.TryLock() {
		return Summary{}, fmt.Errorf("reconciler: scan already in progress")
	}
	defer r.scanOnce.Unlock()

	start := time.Now()
	ctx, span := telemetry.StartScanSpan(ctx, strings.Join(r.roots, ","))
	defer span.End()

	scanStart := time.Now()

	pathMap, err := r.gw.FetchPathMap(ctx)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return Summary{}, fmt.Errorf("reconciler: fetch path map: %w", err)
	}
	snapshot := registrar.NewSnapshot(pathMap)

	var (
		registered, updated, unchanged, skipped, errored int64
	)

	sem := semaphore.NewWeighted(int64(r.workers))
	g, gctx := errgroup.WithContext(ctx)

	for _, root := range r.roots {
		root := root
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				logger.WarnCtx(ctx, "reconciler failed to stat path during walk", logger.Component("reconciler"), logger.Path(path), logger.Err(walkErr))
				atomic.AddInt64(&errored, 1)
				return nil
			}
			if d.IsDir() {
				if path != root && isSkippedDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			g.Go(func() error {
				defer sem.Release(1)

				res := r.reg.Register(gctx, path, root, snapshot)
				switch res.Outcome {
				case registrar.OutcomeRegistered:
					atomic.AddInt64(&registered, 1)
				case registrar.OutcomeUpdated:
					atomic.AddInt64(&updated, 1)
				case registrar.OutcomeUnchanged:
					atomic.AddInt64(&unchanged, 1)
				case registrar.OutcomeSkipped:
					atomic.AddInt64(&skipped, 1)
				case registrar.OutcomeError:
					atomic.AddInt64(&errored, 1)
					logger.WarnCtx(gctx, "registrar error during scan", logger.Component("reconciler"), logger.Path(path), logger.Err(res.Err))
				}
				return nil
			})
			return nil
		})
		if err != nil {
			logger.WarnCtx(ctx, "reconciler walk aborted", logger.Component("reconciler"), logger.Path(root), logger.Err(err))
		}
	}

	if err := g.Wait(); err != nil {
		telemetry.RecordError(ctx, err)
		return Summary{}, fmt.Errorf("reconciler: scan aborted: %w", err)
	}

	var deleted int64
	for _, root := range r.roots {
		count, err := r.gw.MarkDeleted(ctx, normalizeRoot(root), scanStart)
		if err != nil {
			telemetry.RecordError(ctx, err)
			logger.WarnCtx(ctx, "reconciler soft-delete sweep failed", logger.Component("reconciler"), logger.Path(root), logger.Err(err))
			continue
		}
		deleted += int64(count)
	}

	summary := Summary{
		Registered: int(registered),
		Updated:    int(updated),
		Unchanged:  int(unchanged),
		Skipped:    int(skipped),
		Errored:    int(errored),
		Deleted:    int(deleted),
		Duration:   time.Since(start),
	}

	metrics.RecordScan(r.metrics, "reconcile", summary.Registered, summary.Updated, summary.Unchanged, summary.Deleted, summary.Errored, summary.Duration)

	logger.InfoCtx(ctx, "full scan complete",
		logger.Component("reconciler"),
		"registered", summary.Registered,
		"updated", summary.Updated,
		"unchanged", summary.Unchanged,
		"skipped", summary.Skipped,
		"errored", summary.Errored,
		"deleted", summary.Deleted,
		logger.DurationMs(float64(summary.Duration.Milliseconds())),
	)

	return summary, nil
}

func isSkippedDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	return systemDirs[name]
}

// normalizeRoot ensures a scan prefix passed to MarkDeleted has no
// trailing separator, matching the form full_path values are stored in.
func normalizeRoot(root string) string {
	return strings.TrimSuffix(filepath.Clean(root), string(filepath.Separator))
}
