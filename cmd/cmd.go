// Package cmd defines the command-line interface for sonarissues.
package cmd

import (
	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the config subcommands to the parent config command
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("project", "", "SonarCloud project key")
	rootCmd.PersistentFlags().String("organization", "", "SonarCloud organization key (lower case)")
	rootCmd.PersistentFlags().String("default-branch", schema.DefaultBranchName, "Branch exported when no scope is selected")
	rootCmd.PersistentFlags().String("base-url", contract.DefaultBaseURL, "SonarCloud base URL")
	rootCmd.PersistentFlags().String("timeout", contract.DefaultTimeout.String(), "Per-request timeout (e.g. 30s, 1m)")
	rootCmd.PersistentFlags().Int("page-size", schema.PageSize, "Issues requested per page (1-500)")
	rootCmd.PersistentFlags().Int("max-pages", 0, "Abort after this many pages (0 = no limit)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("history-backend", "", "Export history backend: sqlite or mysql or postgresql or none (empty = disabled)")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of exportCmd to Viper
	exportCmd.Flags().String("branch", "", "Export a named branch")
	exportCmd.Flags().String("pr", "", "Export a pull request by id")
	exportCmd.Flags().Bool("all-branches", false, "Export the aggregate view over all branches")
	exportCmd.Flags().String("severities", "", "Comma-separated severities: BLOCKER,CRITICAL,MAJOR,MINOR,INFO (empty = all)")
	exportCmd.Flags().String("statuses", "", "Comma-separated extra statuses: CONFIRMED,REOPENED,RESOLVED,CLOSED,REVIEWED (OPEN is always included)")
	exportCmd.Flags().String("formats", "parquet,csv,json", "Comma-separated output formats: parquet or csv or json")
	exportCmd.Flags().String("output-dir", "", "Directory for exported files (default: current directory)")
	exportCmd.Flags().Bool("scope-columns", false, "Append branch and pull request columns to tabular outputs")
	exportCmd.Flags().Bool("preview", false, "Print a table preview of the fetched issues")
	exportCmd.Flags().IntP("limit", "l", contract.DefaultPreviewLimit, "Number of issues shown in the preview")
	if err := viper.BindPFlags(exportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding export flags", err)
	}

	// Bind all flags of updateCmd to Viper
	updateCmd.Flags().String("update-repo", contract.DefaultUpdateRepo, "GitHub repository publishing releases (owner/name)")
	updateCmd.Flags().String("github-token", "", "GitHub token for a higher API rate limit (prefer SONARISSUES_GITHUB_TOKEN)")
	updateCmd.Flags().BoolP("yes", "y", false, "Install without asking for confirmation")
	if err := viper.BindPFlags(updateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding update flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultServeAddr, "Address the HTTP API listens on (use :PORT to listen on every interface)")
	serveCmd.Flags().Bool("access-log", false, "Log every HTTP request")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of historyListCmd to Viper
	historyListCmd.Flags().Int("count", 20, "Number of runs to show (0 = all)")
	if err := viper.BindPFlags(historyListCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history list flags", err)
	}

	// Bind all flags of historyExportCmd to Viper
	historyExportCmd.Flags().String("output-file", "", "Parquet file to write the export runs to")
	if err := viper.BindPFlags(historyExportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history export flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
