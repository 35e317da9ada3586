// Package orchestrator wires the Watcher, Reconciler and Uploader into a
// single supervised daemon process.
package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/dittosync/internal/cli/health"
	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/internal/scanmarker"
	"github.com/marmos91/dittosync/internal/telemetry"
	"github.com/marmos91/dittosync/pkg/eventqueue"
	"github.com/marmos91/dittosync/pkg/metrics"
	"github.com/marmos91/dittosync/pkg/reconciler"
	"github.com/marmos91/dittosync/pkg/registrar"
	"github.com/marmos91/dittosync/pkg/uploader"
	"github.com/marmos91/dittosync/pkg/watcher"
)

// supervisionInterval is how often the scheduling loop checks whether a
// daily full scan is due.
const supervisionInterval = time.Minute

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// uploaderRestartBackoff is the pause before a crashed Uploader is
// restarted.
const uploaderRestartBackoff = 10 * time.Second

// Config collects the dependencies an Orchestrator needs to run. Queue,
// Watcher, Reconciler, Uploader, Registrar, Marker and Timezone must be
// non-nil; the metrics fields are optional.
type Config struct {
	Version           string
	SourceRoots       []string
	FullScanHour      int
	FullScanOnStartup bool
	Timezone          *time.Location

	Queue      *eventqueue.Queue
	Watcher    *watcher.Watcher
	Reconciler *reconciler.Reconciler
	Uploader   *uploader.Uploader
	Registrar  *registrar.Registrar
	Marker     *scanmarker.Store

	MetricsEnabled bool
	MetricsAddr    string
	ScanMetrics    metrics.ScanMetrics
}

// Orchestrator supervises the long-running components of the sync
// daemon: the Uploader (background, crash-restarted), the Watcher
// (background) and a per-minute scheduling loop that fires the
// Reconciler at the configured hour.
type Orchestrator struct {
	cfg       Config
	startedAt time.Time
}

// New creates an Orchestrator from cfg.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{cfg: cfg}
}

// Run starts every subsystem and blocks until ctx is cancelled (typically
// by a SIGINT/SIGTERM handler installed by the caller), then shuts down
// within ShutdownTimeout.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.startedAt = time.Now()

	var httpServer *http.Server
	if o.cfg.MetricsEnabled {
		httpServer = o.startHealthServer()
	}

	go o.superviseUploader(ctx)
	go o.cfg.Watcher.Run(ctx)
	go o.processQueue(ctx)

	if o.cfg.FullScanOnStartup {
		o.runScan(ctx)
	}

	o.scheduleLoop(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := o.cfg.Watcher.Close(); err != nil {
		logger.Warn("orchestrator failed to close watcher cleanly", logger.Err(err))
	}
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("orchestrator failed to shut down health server cleanly", logger.Err(err))
		}
	}
	return nil
}

// superviseUploader runs the Uploader, restarting it
// uploaderRestartBackoff after it ever panics or returns early.
func (o *Orchestrator) superviseUploader(ctx context.Context) {
	supervise(ctx, uploaderRestartBackoff, func(ctx context.Context) {
		runGuarded(ctx, o.cfg.Uploader.Run)
	})
}

// supervise runs fn until ctx is cancelled, pausing backoff between
// consecutive runs.
func supervise(ctx context.Context, backoff time.Duration, fn func(context.Context)) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		fn(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

// runGuarded invokes fn, converting a panic into a logged error so the
// supervisor can restart it.
func runGuarded(ctx context.Context, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("uploader crashed, restarting", logger.Component("orchestrator"), "panic", r)
		}
	}()
	fn(ctx)
}

// processQueue polls the event queue every 500ms and dispatches ready
// events to the Registrar.
func (o *Orchestrator) processQueue(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, ev := range o.cfg.Queue.GetReady() {
				root := sourceRootFor(ev.Path, o.cfg.SourceRoots)
				if root == "" {
					continue
				}
				res := o.cfg.Registrar.Register(ctx, ev.Path, root, registrar.NewSnapshot(nil))
				if res.Outcome == registrar.OutcomeError {
					logger.WarnCtx(ctx, "watcher-triggered registration failed", logger.Component("orchestrator"), logger.Path(ev.Path), logger.Err(res.Err))
				}
			}
			metrics.RecordQueueDepth(o.cfg.ScanMetrics, o.cfg.Queue.Len())
		}
	}
}

// scheduleLoop checks once per minute whether the configured full-scan
// hour has arrived and today's scan has not yet run.
func (o *Orchestrator) scheduleLoop(ctx context.Context) {
	ticker := time.NewTicker(supervisionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().In(o.cfg.Timezone)
			if now.Hour() != o.cfg.FullScanHour {
				continue
			}
			o.maybeRunScheduledScan(ctx, now)
		}
	}
}

func (o *Orchestrator) maybeRunScheduledScan(ctx context.Context, now time.Time) {
	for _, root := range o.cfg.SourceRoots {
		ran, err := o.cfg.Marker.HasRunToday(root, now, o.cfg.Timezone)
		if err != nil {
			logger.WarnCtx(ctx, "failed to read scan marker", logger.Component("orchestrator"), logger.Path(root), logger.Err(err))
			continue
		}
		if ran {
			return
		}
	}
	o.runScan(ctx)
}

// runScan executes one reconciliation pass and records its completion
// timestamp for every source root, so the scheduled trigger does not
// fire again today.
func (o *Orchestrator) runScan(ctx context.Context) {
	ctx, span := telemetry.StartScanSpan(ctx, "full-scan")
	defer span.End()

	summary, err := o.cfg.Reconciler.Run(ctx)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "full scan failed", logger.Component("orchestrator"), logger.Err(err))
		return
	}

	now := time.Now()
	for _, root := range o.cfg.SourceRoots {
		if err := o.cfg.Marker.RecordScanComplete(root, now); err != nil {
			logger.WarnCtx(ctx, "failed to record scan marker", logger.Component("orchestrator"), logger.Path(root), logger.Err(err))
		}
	}

	logger.InfoCtx(ctx, "scheduled full scan complete", logger.Component("orchestrator"), "registered", summary.Registered, "deleted", summary.Deleted)
}

// startHealthServer exposes /healthz and /metrics on a small chi mux.
func (o *Orchestrator) startHealthServer() *http.Server {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		now := time.Now()
		uptime := now.Sub(o.startedAt)

		var resp health.Response
		resp.Status = "healthy"
		resp.Timestamp = now.Format(time.RFC3339)
		resp.Data.Service = "dittosync"
		resp.Data.Version = o.cfg.Version
		resp.Data.StartedAt = o.startedAt.Format(time.RFC3339)
		resp.Data.Uptime = uptime.Round(time.Second).String()
		resp.Data.UptimeSec = int64(uptime.Seconds())
		resp.Data.Sources = o.cfg.SourceRoots

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	if metrics.IsEnabled() {
		r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	srv := &http.Server{Addr: o.cfg.MetricsAddr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server stopped unexpectedly", logger.Err(err))
		}
	}()
	return srv
}

// sourceRootFor returns the longest configured source root containing path
// (path equals the root or lies beneath it), or "" if none matches.
func sourceRootFor(path string, roots []string) string {
	best := ""
	for _, root := range roots {
		prefix := strings.TrimSuffix(root, string(filepath.Separator)) + string(filepath.Separator)
		if (path == root || strings.HasPrefix(path, prefix)) && len(root) > len(best) {
			best = root
		}
	}
	return best
}
