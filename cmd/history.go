package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/internal/history"
	"github.com/huangsam/sonarissues/internal/outwriter"
	"github.com/huangsam/sonarissues/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historyBackendFromViper resolves the history backend and connection string.
// An empty backend is treated as NoneBackend.
func historyBackendFromViper() (schema.DatabaseBackend, string, error) {
	backend := schema.DatabaseBackend(viper.GetString("history-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("history-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return err
	}

	if err := history.InitHistory(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.UseColors = true
	if colors, err := contract.ParseBoolString(viper.GetString("color")); err == nil {
		cfg.UseColors = colors
	}
	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func historyMigrateSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := historyBackendFromViper()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetHistoryDBFilePath()
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// activeHistoryStore returns the store, or ErrHistoryDisabled.
func activeHistoryStore() (contract.HistoryStore, error) {
	store := history.Manager.GetHistoryStore()
	if store == nil || cfg.HistoryBackend == schema.NoneBackend {
		return nil, history.ErrHistoryDisabled
	}
	return store, nil
}

// historyCmd focused on export history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by export commands. This avoids credential and scope
// processing for simple history operations.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the export run history",
	Long: `Manage the record of past export runs.

When enabled with --history-backend, every export records:
- Run id, project, organization and scope
- Filters, reported and fetched issue counts, pages
- Formats, written files, outcome and error message
- Start time, end time and duration

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  list    - Show recent runs
  status  - Show history statistics
  export  - Export runs to Parquet for analytics
  clear   - Remove all recorded runs
  migrate - Run database schema migrations

Examples:
  # Record exports in SQLite
  sonarissues export --history-backend sqlite

  # Show the last 10 runs
  SONARISSUES_HISTORY_BACKEND=sqlite sonarissues history list --count 10`,
}

// historyListCmd lists recent runs.
var historyListCmd = &cobra.Command{
	Use:     "list",
	Short:   "Show recent export runs",
	PreRunE: historySetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := activeHistoryStore()
		if err != nil {
			return err
		}
		runs, err := store.ListRuns(viper.GetInt("count"))
		if err != nil {
			return fmt.Errorf("failed to list export runs: %w", err)
		}
		return outwriter.WriteRunsTable(os.Stdout, runs, cfg.UseColors)
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history statistics and connection details",
	Long: `Show information about the export history store.

Displays:
- Backend type and connection status
- Total and failed runs
- Total exported issues
- Last and oldest run timestamps`,
	PreRunE: historySetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := activeHistoryStore()
		if err != nil {
			return err
		}
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get history status: %w", err)
		}
		return outwriter.WriteHistoryStatus(os.Stdout, status)
	},
}

// historyClearCmd clears the history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded export runs",
	Long: `Delete all recorded export runs from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the history table`,
	PreRunE: historySetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		dbFile := contract.GetHistoryDBFilePath()
		if cfg.HistoryBackend == schema.SQLiteBackend && cfg.HistoryDBConnect != "" {
			dbFile = cfg.HistoryDBConnect
		}
		history.CloseHistory()
		if err := history.ClearHistory(cfg.HistoryBackend, dbFile, cfg.HistoryDBConnect); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Println("History cleared successfully.")
		return nil
	},
}

// historyExportCmd exports runs to a Parquet file.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded runs to Parquet for BI tools and analytics",
	Long: `Export all recorded export runs to a Parquet file.

Requires: --output-file parameter

Examples:
  sonarissues history export --output-file runs.parquet
  duckdb -c "SELECT outcome, count(*) FROM read_parquet('runs.parquet') GROUP BY 1"`,
	PreRunE: historySetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := activeHistoryStore()
		if err != nil {
			return err
		}
		return history.ExportHistory(store, viper.GetString("output-file"), os.Stdout)
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the export history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  sonarissues history migrate --history-backend sqlite

  # Rollback to initial state
  sonarissues history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		targetVersion := viper.GetInt("target-version")
		if err := history.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion, os.Stdout); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	},
}
