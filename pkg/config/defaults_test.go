package config

import (
	"testing"
	"time"

	"github.com/marmos91/dittosync/internal/bytesize"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected text, got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("expected stdout, got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_LogLevelNormalized(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected normalized DEBUG, got %q", cfg.Logging.Level)
	}
}

func TestApplyDefaults_Sync(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Sync.Workers != 6 {
		t.Errorf("expected 6 workers, got %d", cfg.Sync.Workers)
	}
	if cfg.Sync.DebounceSeconds != 3.0 {
		t.Errorf("expected 3.0s debounce, got %v", cfg.Sync.DebounceSeconds)
	}
	if cfg.Sync.Timezone != "UTC" {
		t.Errorf("expected UTC, got %q", cfg.Sync.Timezone)
	}
	if cfg.Sync.ScanSizeLimit != bytesize.GiB {
		t.Errorf("expected 1GiB scan limit, got %v", cfg.Sync.ScanSizeLimit)
	}
	if cfg.Sync.UploadSizeLimit != 100*bytesize.MiB {
		t.Errorf("expected 100MiB upload limit, got %v", cfg.Sync.UploadSizeLimit)
	}
}

func TestApplyDefaults_DB(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.DB.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.DB.Timeout)
	}
	if cfg.DB.BatchSize != 5 {
		t.Errorf("expected batch size 5, got %d", cfg.DB.BatchSize)
	}
}

func TestApplyDefaults_S3(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.S3.Region != "us-east-1" {
		t.Errorf("expected us-east-1, got %q", cfg.S3.Region)
	}
	if cfg.S3.MaxRetries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.S3.MaxRetries)
	}
}

func TestApplyDefaults_MetricsPortOnlyWhenEnabled(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Metrics.Port != 0 {
		t.Errorf("expected metrics port to stay 0 when disabled, got %d", cfg.Metrics.Port)
	}

	cfg2 := &Config{Metrics: MetricsConfig{Enabled: true}}
	ApplyDefaults(cfg2)
	if cfg2.Metrics.Port != 9090 {
		t.Errorf("expected default metrics port 9090, got %d", cfg2.Metrics.Port)
	}
}

func TestGetDefaultConfig_AppliesDefaultsConsistently(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.State.Dir == "" {
		t.Error("expected non-empty state dir")
	}
	if cfg.Telemetry.Profiling.Endpoint == "" {
		t.Error("expected default profiling endpoint")
	}
	if len(cfg.Telemetry.Profiling.ProfileTypes) == 0 {
		t.Error("expected default profile types")
	}
}
