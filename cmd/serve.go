package cmd

import (
	"github.com/huangsam/sonarissues/internal/api"
	"github.com/huangsam/sonarissues/internal/history"
	"github.com/huangsam/sonarissues/internal/sonar"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd exposes the export pipeline over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve issue exports over an HTTP API",
	Long: `Start an HTTP server over the export pipeline.

Endpoints:
  GET /health
  GET /api/v1/issues?scope=&value=&severities=&statuses=
  GET /api/v1/history?limit=

Query parameters override the configured scope and filters per request.

Examples:
  # Loopback only (default 127.0.0.1:8080)
  sonarissues serve
  curl 'localhost:8080/api/v1/issues?scope=pull-request&value=42'

  # Every interface. The API has no authentication and uses your token.
  sonarissues serve --addr :9090`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := sharedSetup(rootCtx, cmd, args); err != nil {
			return err
		}
		cfg.Formats = nil // responses are JSON documents, nothing is written to disk
		return nil
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		source := sonar.NewClientFromConfig(cfg)
		return api.Serve(rootCtx, cfg, source, history.Manager, viper.GetBool("access-log"))
	},
}
