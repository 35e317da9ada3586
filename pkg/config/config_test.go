package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
sync:
  source_paths:
    - "` + yamlSafePath(tmpDir) + `/data"
  workers: 6
  timezone: "UTC"

db:
  base_url: "https://meta.internal:8443"
  api_key: "test-key"
  batch_size: 50

s3:
  bucket: "dittosync-content"

state:
  dir: "` + yamlSafePath(tmpDir) + `/state"

logging:
  level: "INFO"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Sync.DebounceSeconds != 3.0 {
		t.Errorf("Expected default debounce_seconds 3.0, got %v", cfg.Sync.DebounceSeconds)
	}
	if cfg.DB.Timeout != 30*time.Second {
		t.Errorf("Expected default db timeout 30s, got %v", cfg.DB.Timeout)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}

	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}

	if cfg.Sync.Workers != 6 {
		t.Errorf("Expected default workers 6, got %d", cfg.Sync.Workers)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	configContent := `
logging:
  level: INFO
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_TOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[sync]
source_paths = ["` + yamlSafePath(tmpDir) + `/data"]
workers = 4
timezone = "UTC"

[db]
base_url = "https://meta.internal:8443"
api_key = "test-key"
batch_size = 50

[s3]
bucket = "dittosync-content"

[state]
dir = "` + yamlSafePath(tmpDir) + `/state"

[logging]
level = "WARN"
format = "json"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected level 'WARN', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Sync.Workers != 4 {
		t.Errorf("Expected workers 4, got %d", cfg.Sync.Workers)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Sync.Workers != 6 {
		t.Errorf("Expected default workers 6, got %d", cfg.Sync.Workers)
	}
	if cfg.Sync.DebounceSeconds != 3.0 {
		t.Errorf("Expected default debounce 3.0, got %v", cfg.Sync.DebounceSeconds)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("Expected absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("Expected filename 'config.yaml', got %q", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	dir := GetConfigDir()

	if filepath.Base(dir) != "dittosync" {
		t.Errorf("Expected directory name 'dittosync', got %q", filepath.Base(dir))
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	_ = os.Setenv("DITTOSYNC_LOGGING_LEVEL", "ERROR")
	_ = os.Setenv("SYNC_WORKERS", "12")
	defer func() {
		_ = os.Unsetenv("DITTOSYNC_LOGGING_LEVEL")
		_ = os.Unsetenv("SYNC_WORKERS")
	}()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
sync:
  source_paths:
    - "` + yamlSafePath(tmpDir) + `/data"
  workers: 6
  timezone: "UTC"

db:
  base_url: "https://meta.internal:8443"
  api_key: "test-key"
  batch_size: 50

s3:
  bucket: "dittosync-content"

state:
  dir: "` + yamlSafePath(tmpDir) + `/state"

logging:
  level: "INFO"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Sync.Workers != 12 {
		t.Errorf("Expected workers 12 from SYNC_WORKERS env var, got %d", cfg.Sync.Workers)
	}
}

func TestLoad_CommaSeparatedSourcePaths(t *testing.T) {
	_ = os.Setenv("SYNC_SOURCE_PATHS", "/data/a,/data/b")
	defer os.Unsetenv("SYNC_SOURCE_PATHS")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
sync:
  workers: 6
  timezone: "UTC"

db:
  base_url: "https://meta.internal:8443"
  api_key: "test-key"
  batch_size: 50

s3:
  bucket: "dittosync-content"

state:
  dir: "` + yamlSafePath(tmpDir) + `/state"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if len(cfg.Sync.SourcePaths) != 2 {
		t.Fatalf("Expected 2 source paths, got %d: %v", len(cfg.Sync.SourcePaths), cfg.Sync.SourcePaths)
	}
	if cfg.Sync.SourcePaths[0] != "/data/a" || cfg.Sync.SourcePaths[1] != "/data/b" {
		t.Errorf("Unexpected source paths: %v", cfg.Sync.SourcePaths)
	}
}
