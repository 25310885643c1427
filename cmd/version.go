package cmd

import (
	"runtime"

	"github.com/huangsam/sonarissues/internal/update"
	"github.com/spf13/cobra"
)

// versionCmd prints build details, including the release asset 'update' looks for.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sonarissues.",
	Long: `Display build information for bug reports and update checks.

Shows the release version, commit, build time, Go runtime and platform,
and the release asset name that 'sonarissues update' downloads.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("sonarissues %s (%s, built %s)\n", version, commit, date)
		cmd.Printf("  Go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		cmd.Printf("  Asset:    %s\n", update.AssetName("v"+version, runtime.GOOS))
	},
}
