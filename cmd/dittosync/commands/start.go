package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marmos91/dittosync/internal/logger"
	"github.com/marmos91/dittosync/internal/scanmarker"
	"github.com/marmos91/dittosync/internal/telemetry"
	"github.com/marmos91/dittosync/pkg/config"
	"github.com/marmos91/dittosync/pkg/dbgateway"
	"github.com/marmos91/dittosync/pkg/eventqueue"
	"github.com/marmos91/dittosync/pkg/metrics"
	"github.com/marmos91/dittosync/pkg/objectstore"
	"github.com/marmos91/dittosync/pkg/orchestrator"
	"github.com/marmos91/dittosync/pkg/reconciler"
	"github.com/marmos91/dittosync/pkg/registrar"
	"github.com/marmos91/dittosync/pkg/uploader"
	"github.com/marmos91/dittosync/pkg/watcher"
	"github.com/spf13/cobra"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/dittosync/pkg/metrics/prometheus"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync daemon",
	Long: `Start the dittosync daemon with the specified configuration.

The daemon runs in the foreground until it receives SIGINT or SIGTERM,
watching the configured source paths, reconciling the metadata database
against the filesystem, and uploading new content to the object store.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/dittosync/config.yaml.

Examples:
  # Start with default config location
  dittosync start

  # Start with custom config file
  dittosync start --config /etc/dittosync/config.yaml

  # Start with environment variable overrides
  SYNC_SOURCE_PATHS=/srv/photos,/srv/docs dittosync start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "dittosync",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		logger.Warn("failed to initialize telemetry, continuing without tracing", logger.Err(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				logger.Warn("failed to shut down telemetry cleanly", logger.Err(err))
			}
		}()
	}

	if cfg.Telemetry.Profiling.Enabled {
		stopProfiling, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
			Enabled:        true,
			Endpoint:       cfg.Telemetry.Profiling.Endpoint,
			ServiceName:    "dittosync",
			ServiceVersion: Version,
			ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
		})
		if err != nil {
			logger.Warn("failed to initialize profiling", logger.Err(err))
		} else {
			defer func() {
				if err := stopProfiling(); err != nil {
					logger.Warn("failed to stop profiler cleanly", logger.Err(err))
				}
			}()
		}
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	roots := make([]string, 0, len(cfg.Sync.SourcePaths))
	for _, root := range cfg.Sync.SourcePaths {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			logger.Warn("source path does not exist, skipping", logger.Path(root))
			continue
		}
		roots = append(roots, root)
	}
	if len(roots) == 0 {
		return fmt.Errorf("none of the configured source paths exist")
	}

	loc, err := time.LoadLocation(cfg.Sync.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Sync.Timezone, err)
	}

	gw := dbgateway.New(dbgateway.Config{
		BaseURL: cfg.DB.BaseURL,
		APIKey:  cfg.DB.APIKey,
		Timeout: cfg.DB.Timeout,
		Metrics: metrics.NewGatewayMetrics(),
	})

	store, err := objectstore.New(ctx, objectstore.Config{
		Bucket:         cfg.S3.Bucket,
		Region:         cfg.S3.Region,
		Endpoint:       cfg.S3.Endpoint,
		ForcePathStyle: cfg.S3.ForcePathStyle,
		MaxRetries:     cfg.S3.MaxRetries,
		Metrics:        metrics.NewGatewayMetrics(),
	})
	if err != nil {
		return fmt.Errorf("failed to create object store client: %w", err)
	}

	marker, err := scanmarker.Open(cfg.State.Dir)
	if err != nil {
		return fmt.Errorf("failed to open state directory %s: %w", cfg.State.Dir, err)
	}
	defer func() {
		if err := marker.Close(); err != nil {
			logger.Warn("failed to close state store cleanly", logger.Err(err))
		}
	}()

	debounce := time.Duration(cfg.Sync.DebounceSeconds * float64(time.Second))
	queue := eventqueue.New(debounce)

	fsWatcher, err := watcher.New(roots, cfg.Sync.IgnorePatterns, queue)
	if err != nil {
		return fmt.Errorf("failed to start filesystem watcher: %w", err)
	}

	scanMetrics := metrics.NewScanMetrics()
	reg := registrar.New(gw, cfg.Sync.ScanSizeLimit)
	rec := reconciler.New(gw, reg, roots, cfg.Sync.Workers, scanMetrics)
	upl := uploader.New(gw, store, uploader.Config{
		PathPrefixes:    roots,
		BatchSize:       cfg.DB.BatchSize,
		UploadSizeLimit: cfg.Sync.UploadSizeLimit,
		Metrics:         metrics.NewUploadMetrics(),
	})

	logger.Info("starting dittosync daemon",
		"version", Version,
		"sources", roots,
		"workers", cfg.Sync.Workers,
		"full_scan_hour", cfg.Sync.FullScanHour,
		logger.Bucket(cfg.S3.Bucket),
	)

	orch := orchestrator.New(orchestrator.Config{
		Version:           Version,
		SourceRoots:       roots,
		FullScanHour:      cfg.Sync.FullScanHour,
		FullScanOnStartup: cfg.Sync.FullScanOnStartup,
		Timezone:          loc,
		Queue:             queue,
		Watcher:           fsWatcher,
		Reconciler:        rec,
		Uploader:          upl,
		Registrar:         reg,
		Marker:            marker,
		MetricsEnabled:    cfg.Metrics.Enabled,
		MetricsAddr:       fmt.Sprintf(":%d", cfg.Metrics.Port),
		ScanMetrics:       scanMetrics,
	})

	if err := orch.Run(ctx); err != nil {
		return fmt.Errorf("daemon exited with error: %w", err)
	}

	logger.Info("dittosync daemon stopped")
	return nil
}
