package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks a Config against its struct-tag constraints and a few
// cross-field rules the tags alone can't express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for _, p := range cfg.Sync.SourcePaths {
		if p == "" {
			return fmt.Errorf("sync.source_paths contains an empty entry")
		}
	}

	if cfg.Sync.UploadSizeLimit > cfg.Sync.ScanSizeLimit {
		return fmt.Errorf("sync.upload_size_limit (%s) must not exceed sync.scan_size_limit (%s)",
			cfg.Sync.UploadSizeLimit, cfg.Sync.ScanSizeLimit)
	}

	return nil
}
