package config

import (
	"strings"
	"time"

	"github.com/marmos91/dittosync/internal/bytesize"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applySyncDefaults(&cfg.Sync)
	applyDBDefaults(&cfg.DB)
	applyS3Defaults(&cfg.S3)
	applyStateDefaults(&cfg.State)
	applyMetricsDefaults(&cfg.Metrics)

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry and Pyroscope defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope continuous profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"}
	}
}

// applySyncDefaults sets scan/debounce/watcher defaults per the external
// interface table: 6 workers, 3s debounce, UTC timezone.
func applySyncDefaults(cfg *SyncConfig) {
	if cfg.Workers == 0 {
		cfg.Workers = 6
	}
	if cfg.DebounceSeconds == 0 {
		cfg.DebounceSeconds = 3.0
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.ScanSizeLimit == 0 {
		cfg.ScanSizeLimit = bytesize.GiB
	}
	if cfg.UploadSizeLimit == 0 {
		cfg.UploadSizeLimit = 100 * bytesize.MiB
	}
}

// applyDBDefaults sets DB gateway client defaults.
func applyDBDefaults(cfg *DBConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 5
	}
}

// applyS3Defaults sets object store defaults.
func applyS3Defaults(cfg *S3Config) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
}

// applyStateDefaults sets the local badger state directory default.
func applyStateDefaults(cfg *StateConfig) {
	if cfg.Dir == "" {
		cfg.Dir = "/var/lib/dittosync/state"
	}
}

// applyMetricsDefaults sets Prometheus metrics server defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for generating sample configuration and for tests, but it
// omits the DB API key and bucket name, which have no safe default.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Sync: SyncConfig{
			SourcePaths: []string{},
		},
		State: StateConfig{
			Dir: "/var/lib/dittosync/state",
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
