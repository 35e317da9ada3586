package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/marmos91/dittosync/internal/bytesize"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the dittosync daemon configuration.
//
// This structure captures every static configuration aspect of the sync
// engine: filesystem sources, the scan/debounce/upload pipeline, the DB
// gateway and object store collaborators, and the ambient logging,
// telemetry, profiling and metrics stack.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DITTOSYNC_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
type Config struct {
	// Sync controls the watcher, debounce window, reconciler and ignore rules.
	Sync SyncConfig `mapstructure:"sync" yaml:"sync"`

	// DB configures the metadata HTTP gateway.
	DB DBConfig `mapstructure:"db" yaml:"db"`

	// S3 configures the content-addressable object store.
	S3 S3Config `mapstructure:"s3" yaml:"s3"`

	// State configures the local embedded store used for the scan marker.
	State StateConfig `mapstructure:"state" yaml:"state"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing and Pyroscope profiling.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`
}

// SyncConfig controls the filesystem watcher, reconciler and upload gate.
type SyncConfig struct {
	// SourcePaths are the absolute directory roots to mirror.
	SourcePaths []string `mapstructure:"source_paths" validate:"required,min=1" yaml:"source_paths"`

	// Workers is the parallelism of the reconciliation scan pool.
	Workers int `mapstructure:"workers" validate:"required,gt=0" yaml:"workers"`

	// DebounceSeconds is the event-coalescing window, in seconds.
	DebounceSeconds float64 `mapstructure:"debounce_seconds" validate:"gt=0" yaml:"debounce_seconds"`

	// IgnorePatterns are glob patterns matched against the basename and the
	// full path.
	IgnorePatterns []string `mapstructure:"ignore_patterns" yaml:"ignore_patterns,omitempty"`

	// FullScanHour is the local hour (0-23) at which the daily full scan runs.
	FullScanHour int `mapstructure:"full_scan_hour" validate:"gte=0,lte=23" yaml:"full_scan_hour"`

	// FullScanOnStartup runs a full scan immediately when the daemon starts.
	FullScanOnStartup bool `mapstructure:"full_scan_on_startup" yaml:"full_scan_on_startup"`

	// Timezone is the local timezone used when comparing FullScanHour.
	Timezone string `mapstructure:"timezone" validate:"required" yaml:"timezone"`

	// ScanSizeLimit is the max per-file size the reconciler will register.
	ScanSizeLimit bytesize.ByteSize `mapstructure:"scan_size_limit" yaml:"scan_size_limit,omitempty"`

	// UploadSizeLimit is the max per-file size the uploader will push to S3.
	UploadSizeLimit bytesize.ByteSize `mapstructure:"upload_size_limit" yaml:"upload_size_limit,omitempty"`
}

// DBConfig configures the metadata HTTP gateway client.
type DBConfig struct {
	// BaseURL is the base URL of the metadata service, e.g. https://meta.internal:8443.
	BaseURL string `mapstructure:"base_url" validate:"required,url" yaml:"base_url"`

	// APIKey is the shared secret sent in the X-API-Key header.
	APIKey string `mapstructure:"api_key" validate:"required" yaml:"api_key"`

	// Timeout bounds every gateway HTTP call.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// BatchSize is the number of rows requested per dequeue_upload_batch call.
	BatchSize int `mapstructure:"batch_size" validate:"required,gt=0" yaml:"batch_size"`
}

// S3Config configures the content-addressable object store.
type S3Config struct {
	// Bucket is the destination bucket name.
	Bucket string `mapstructure:"bucket" validate:"required" yaml:"bucket"`

	// Region is the AWS region (or equivalent) of the bucket.
	Region string `mapstructure:"region" yaml:"region,omitempty"`

	// Endpoint overrides the default S3 endpoint, for S3-compatible stores.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`

	// ForcePathStyle selects path-style addressing, required by most
	// non-AWS S3-compatible object stores.
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style"`

	// MaxRetries is the number of SDK-level retries on transient S3 errors.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries,omitempty"`
}

// StateConfig configures the local embedded key-value store used to persist
// the last full-scan date across restarts.
type StateConfig struct {
	// Dir is the directory badger uses for its local database files.
	Dir string `mapstructure:"dir" validate:"required" yaml:"dir"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	Enabled    bool            `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string          `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool            `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64         `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`
	Profiling  ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  dittosync init\n\n"+
				"Or specify a custom config file:\n"+
				"  dittosync <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  dittosync init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: config carries the DB gateway's shared secret.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variable and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("DITTOSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindLegacyEnvAliases(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// bindLegacyEnvAliases binds the bare protocol-level env var names
// (SYNC_SOURCE_PATHS, SYNC_WORKERS, S3_BUCKET, ...) alongside the
// DITTOSYNC_-prefixed names, so operators can use either.
func bindLegacyEnvAliases(v *viper.Viper) {
	_ = v.BindEnv("sync.source_paths", "SYNC_SOURCE_PATHS")
	_ = v.BindEnv("sync.workers", "SYNC_WORKERS", "DITTOSYNC_SCAN_WORKERS")
	_ = v.BindEnv("sync.debounce_seconds", "DEBOUNCE_SECONDS")
	_ = v.BindEnv("sync.ignore_patterns", "IGNORE_PATTERNS")
	_ = v.BindEnv("sync.full_scan_hour", "FULL_SCAN_HOUR")
	_ = v.BindEnv("sync.full_scan_on_startup", "FULL_SCAN_ON_STARTUP")
	_ = v.BindEnv("sync.timezone", "TIMEZONE")
	_ = v.BindEnv("s3.bucket", "S3_BUCKET")
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns the combined decode hook for ByteSize and
// time.Duration and comma-separated string slices.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
		commaSeparatedSliceDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and integers to bytesize.ByteSize.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// commaSeparatedSliceDecodeHook splits a comma-separated string into a
// []string, so SYNC_SOURCE_PATHS and IGNORE_PATTERNS can be set as plain
// environment variables rather than YAML lists.
func commaSeparatedSliceDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Kind, to reflect.Kind, data interface{}) (interface{}, error) {
		if from != reflect.String || to != reflect.Slice {
			return data, nil
		}
		s, ok := data.(string)
		if !ok || s == "" {
			return data, nil
		}
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	}
}

// getConfigDir returns the configuration directory path.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittosync")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittosync")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
