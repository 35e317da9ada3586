package config

import (
	"testing"
	"time"

	"github.com/marmos91/dittosync/internal/bytesize"
)

func validConfig() *Config {
	return &Config{
		Sync: SyncConfig{
			SourcePaths:     []string{"/data/a"},
			Workers:         6,
			DebounceSeconds: 3.0,
			FullScanHour:    2,
			Timezone:        "UTC",
			ScanSizeLimit:   bytesize.GiB,
			UploadSizeLimit: 100 * bytesize.MiB,
		},
		DB: DBConfig{
			BaseURL:   "https://meta.internal:8443",
			APIKey:    "secret",
			BatchSize: 50,
		},
		S3: S3Config{
			Bucket: "dittosync-content",
		},
		State: StateConfig{
			Dir: "/var/lib/dittosync/state",
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
			Output: "stdout",
		},
		ShutdownTimeout: 30 * time.Second,
	}
}

func TestValidate_ValidConfigPasses(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("expected valid config to pass, got: %v", err)
	}
}

func TestValidate_MissingSourcePaths(t *testing.T) {
	cfg := validConfig()
	cfg.Sync.SourcePaths = nil

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for missing source_paths")
	}
}

func TestValidate_EmptySourcePathEntry(t *testing.T) {
	cfg := validConfig()
	cfg.Sync.SourcePaths = []string{"/data/a", ""}

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty source path entry")
	}
}

func TestValidate_InvalidFullScanHour(t *testing.T) {
	cfg := validConfig()
	cfg.Sync.FullScanHour = 24

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for out-of-range full_scan_hour")
	}
}

func TestValidate_MissingDBBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DB.BaseURL = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for missing db.base_url")
	}
}

func TestValidate_InvalidDBBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DB.BaseURL = "not-a-url"

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid db.base_url")
	}
}

func TestValidate_MissingS3Bucket(t *testing.T) {
	cfg := validConfig()
	cfg.S3.Bucket = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for missing s3.bucket")
	}
}

func TestValidate_UploadLimitExceedsScanLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Sync.UploadSizeLimit = bytesize.GiB
	cfg.Sync.ScanSizeLimit = 100 * bytesize.MiB

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error when upload_size_limit exceeds scan_size_limit")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "TRACE"

	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}
