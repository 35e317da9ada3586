package commands

import (
	"fmt"
	"os"
	"runtime"

	"github.com/marmos91/dittosync/internal/cli/output"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("dittosync %s\n", Version)
		return output.SimpleTable(os.Stdout, [][2]string{
			{"commit", Commit},
			{"built", Date},
			{"go", fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)},
		})
	},
}
