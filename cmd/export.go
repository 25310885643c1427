package cmd

import (
	"errors"

	"github.com/huangsam/sonarissues/core"
	"github.com/huangsam/sonarissues/internal/history"
	"github.com/huangsam/sonarissues/internal/outwriter"
	"github.com/huangsam/sonarissues/internal/sonar"
	"github.com/spf13/cobra"
)

// exportCmd fetches every matching issue and writes the selected formats.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export issues for a branch, pull request or all branches",
	Long: `Fetch every issue matching the scope and filters, normalize it and write
one file per selected format named sonarcloud_issues_<YYYYMMDD_HHMMSS>.<ext>.

Scope (pick at most one, default is the configured default branch):
  --branch NAME     a named branch
  --pr ID           a pull request
  --all-branches    the aggregate view

OPEN issues are always included. A failing format does not stop the others;
the command fails only when no file could be written.

Examples:
  # Default branch, all formats
  sonarissues export

  # Blocker and critical issues of a pull request as CSV
  sonarissues export --pr 42 --severities BLOCKER,CRITICAL --formats csv

  # Include confirmed issues and preview the first 10
  sonarissues export --branch release --statuses CONFIRMED --preview --limit 10`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := cfg.RequireCredentials(); err != nil {
			return err
		}
		_, err := core.ExecuteExport(rootCtx, cfg, sonar.NewClientFromConfig(cfg), history.Manager, outwriter.NewOutWriter())
		if errors.Is(err, core.ErrNoIssues) {
			return nil // troubleshooting guide already printed
		}
		return err
	},
}
