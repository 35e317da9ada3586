package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/marmos91/dittosync/internal/cli/health"
	"github.com/marmos91/dittosync/internal/cli/output"
	"github.com/marmos91/dittosync/internal/cli/timeutil"
	"github.com/marmos91/dittosync/pkg/config"
	"github.com/marmos91/dittosync/pkg/dbgateway"
	"github.com/marmos91/dittosync/pkg/objectstore"
	"github.com/spf13/cobra"
)

var statusOutputFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon and collaborator status",
	Long: `Show the status of the dittosync daemon and its external collaborators.

Checks, in order:
  1. the local daemon's health endpoint (when metrics are enabled),
  2. the metadata service (counts the tracked files),
  3. the S3 bucket (HeadBucket).

Examples:
  dittosync status
  dittosync status --output json
  dittosync status --config /etc/dittosync/config.yaml`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutputFormat, "output", "o", "table", "Output format: table, json, yaml")
}

// componentStatus is one row of the status report.
type componentStatus struct {
	Component string `json:"component" yaml:"component"`
	Status    string `json:"status" yaml:"status"`
	Detail    string `json:"detail" yaml:"detail"`
}

// statusReport renders as a table, JSON or YAML via output.Printer.
type statusReport struct {
	Components []componentStatus `json:"components" yaml:"components"`
}

func (r *statusReport) Headers() []string {
	return []string{"COMPONENT", "STATUS", "DETAIL"}
}

func (r *statusReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Components))
	for _, c := range r.Components {
		rows = append(rows, []string{c.Component, c.Status, c.Detail})
	}
	return rows
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutputFormat)
	if err != nil {
		return err
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	report := &statusReport{
		Components: []componentStatus{
			daemonStatus(ctx, cfg),
			metadataStatus(ctx, cfg),
			bucketStatus(ctx, cfg),
		},
	}

	printer := output.NewPrinter(os.Stdout, format, true)
	return printer.Print(report)
}

// daemonStatus queries the running daemon's health endpoint. A refused
// connection means the daemon is not running, which is a valid state to
// report, not an error.
func daemonStatus(ctx context.Context, cfg *config.Config) componentStatus {
	if !cfg.Metrics.Enabled {
		return componentStatus{"daemon", "unknown", "metrics endpoint disabled in config"}
	}

	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", cfg.Metrics.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return componentStatus{"daemon", "error", err.Error()}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return componentStatus{"daemon", "stopped", "health endpoint unreachable"}
	}
	defer resp.Body.Close()

	var h health.Response
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return componentStatus{"daemon", "error", fmt.Sprintf("malformed health response: %v", err)}
	}

	detail := fmt.Sprintf("%s, up %s (since %s), %d sources",
		h.Data.Version,
		timeutil.FormatUptime(h.Data.Uptime),
		timeutil.FormatTime(h.Data.StartedAt),
		len(h.Data.Sources),
	)
	return componentStatus{"daemon", h.Status, detail}
}

func metadataStatus(ctx context.Context, cfg *config.Config) componentStatus {
	gw := dbgateway.New(dbgateway.Config{
		BaseURL: cfg.DB.BaseURL,
		APIKey:  cfg.DB.APIKey,
		Timeout: cfg.DB.Timeout,
	})

	pathMap, err := gw.FetchPathMap(ctx)
	if err != nil {
		return componentStatus{"metadata service", "unreachable", err.Error()}
	}
	return componentStatus{"metadata service", "ok", fmt.Sprintf("%d tracked files", len(pathMap))}
}

func bucketStatus(ctx context.Context, cfg *config.Config) componentStatus {
	store, err := objectstore.New(ctx, objectstore.Config{
		Bucket:         cfg.S3.Bucket,
		Region:         cfg.S3.Region,
		Endpoint:       cfg.S3.Endpoint,
		ForcePathStyle: cfg.S3.ForcePathStyle,
	})
	if err != nil {
		return componentStatus{"object store", "error", err.Error()}
	}

	if err := store.HeadBucket(ctx); err != nil {
		return componentStatus{"object store", "unreachable", err.Error()}
	}
	return componentStatus{"object store", "ok", fmt.Sprintf("bucket %s", cfg.S3.Bucket)}
}
