package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/marmos91/dittosync/internal/cli/prompt"
	"github.com/marmos91/dittosync/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a configuration file",
	Long: `Initialize a dittosync configuration file through an interactive wizard.

By default, the configuration file is created at $XDG_CONFIG_HOME/dittosync/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  dittosync init

  # Initialize with custom path
  dittosync init --config /etc/dittosync/config.yaml

  # Force overwrite existing config
  dittosync init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(configPath); err == nil && !initForce {
		overwrite, err := prompt.Confirm(fmt.Sprintf("Configuration file %s already exists. Overwrite?", configPath), false)
		if err != nil {
			if prompt.IsAborted(err) {
				return nil
			}
			return err
		}
		if !overwrite {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg := config.GetDefaultConfig()

	sources, err := prompt.InputWithValidation("Source paths to sync (comma-separated, absolute)", validateSourcePaths)
	if err != nil {
		return wrapAborted(err)
	}
	cfg.Sync.SourcePaths = splitAndTrim(sources)

	baseURL, err := prompt.InputRequired("Metadata service base URL (e.g. https://meta.internal:8443)")
	if err != nil {
		return wrapAborted(err)
	}
	cfg.DB.BaseURL = baseURL

	apiKey, err := prompt.Password("Metadata service API key")
	if err != nil {
		return wrapAborted(err)
	}
	cfg.DB.APIKey = apiKey

	bucket, err := prompt.InputRequired("S3 bucket name")
	if err != nil {
		return wrapAborted(err)
	}
	cfg.S3.Bucket = bucket

	region, err := prompt.InputOptional("S3 region (empty for default)")
	if err != nil {
		return wrapAborted(err)
	}
	cfg.S3.Region = region

	endpoint, err := prompt.InputOptional("S3 endpoint override (empty for AWS)")
	if err != nil {
		return wrapAborted(err)
	}
	if endpoint != "" {
		cfg.S3.Endpoint = endpoint
		cfg.S3.ForcePathStyle = true
	}

	scanHour, err := prompt.InputInt("Daily full scan hour (0-23)", cfg.Sync.FullScanHour)
	if err != nil {
		return wrapAborted(err)
	}
	cfg.Sync.FullScanHour = scanHour

	scanOnStartup, err := prompt.Confirm("Run a full scan on startup?", true)
	if err != nil {
		return wrapAborted(err)
	}
	cfg.Sync.FullScanOnStartup = scanOnStartup

	timezone, err := prompt.Input("Timezone for the scan schedule", cfg.Sync.Timezone)
	if err != nil {
		return wrapAborted(err)
	}
	cfg.Sync.Timezone = timezone

	logLevel, err := prompt.SelectString("Log level", []string{"DEBUG", "INFO", "WARN", "ERROR"})
	if err != nil {
		return wrapAborted(err)
	}
	cfg.Logging.Level = logLevel

	metricsEnabled, err := prompt.Confirm("Expose Prometheus metrics and health endpoint?", cfg.Metrics.Enabled)
	if err != nil {
		return wrapAborted(err)
	}
	cfg.Metrics.Enabled = metricsEnabled
	if metricsEnabled {
		port, err := prompt.InputPort("Metrics listen port", cfg.Metrics.Port)
		if err != nil {
			return wrapAborted(err)
		}
		cfg.Metrics.Port = port
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the daemon with: dittosync start")
	fmt.Printf("  3. Or specify custom config: dittosync start --config %s\n", configPath)
	fmt.Println("\nSecurity note:")
	fmt.Println("  The config file holds the metadata service API key and is written with mode 0600.")
	fmt.Println("  For production, prefer passing the key via an environment variable:")
	fmt.Println("    export DITTOSYNC_DB_API_KEY=<key>")

	return nil
}

func validateSourcePaths(s string) error {
	paths := splitAndTrim(s)
	if len(paths) == 0 {
		return fmt.Errorf("at least one source path is required")
	}
	for _, p := range paths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("source path must be absolute: %s", p)
		}
	}
	return nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func wrapAborted(err error) error {
	if prompt.IsAborted(err) {
		return nil
	}
	return err
}
