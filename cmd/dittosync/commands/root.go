// Package commands implements the CLI commands for the dittosync daemon.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dittosync",
	Short: "DittoSync - Content-addressable file synchronizer",
	Long: `DittoSync continuously mirrors local directory trees into an S3-compatible
object store and a companion metadata database. Every byte of content is
uploaded at most once regardless of how many paths reference it, and every
path-level change (creation, modification, rename, deletion) is reflected
in the metadata within seconds.

Use "dittosync [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetConfigFile returns the config file path set via the global --config flag.
func GetConfigFile() string {
	return cfgFile
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/dittosync/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
}
