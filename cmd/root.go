package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/internal/history"
	"github.com/huangsam/sonarissues/internal/menu"
	"github.com/huangsam/sonarissues/internal/settings"
	"github.com/huangsam/sonarissues/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "0.1.0"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations. Execute replaces it with one
// that is canceled on interrupt.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// rootCmd is the command-line entrypoint for all other commands.
// Without a subcommand it starts the interactive menu.
var rootCmd = &cobra.Command{
	Use:   "sonarissues",
	Short: "Export SonarCloud issues to Parquet, CSV and JSON.",
	Long: `sonarissues pulls every issue of a SonarCloud project for a branch, a pull request
or all branches, normalizes them and writes Parquet, CSV and JSON files.

Run without arguments for the interactive menu, or use 'sonarissues export' in scripts.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	PreRunE:            sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store := settings.NewStore(settingsPath())
		return menu.New(cfg, store, history.Manager).Run(rootCtx)
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Set config file name and paths
		viper.SetConfigName(strings.TrimSuffix(settings.FileName, ".yaml")) // Name of config file (without extension)
		viper.SetConfigType("yaml")                                         // We'll use YAML format
		viper.AddConfigPath(".")                                            // Look in the current directory
		viper.AddConfigPath("$HOME")                                        // Look in the home directory
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("SONARISSUES")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper. Keys without a flag need one so that
	// Unmarshal picks up their environment variables.
	viper.SetDefault("token", "")
	viper.SetDefault("default-pr", "")
	viper.SetDefault("base-url", contract.DefaultBaseURL)
	viper.SetDefault("default-branch", schema.DefaultBranchName)
	viper.SetDefault("timeout", contract.DefaultTimeout.String())
	viper.SetDefault("page-size", schema.PageSize)
	viper.SetDefault("limit", contract.DefaultPreviewLimit)
	viper.SetDefault("history-backend", "")
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("update-repo", contract.DefaultUpdateRepo)
	viper.SetDefault("addr", contract.DefaultServeAddr)
	viper.SetDefault("color", "yes")
}

// loadDotEnv loads a .env file from the working directory when one exists.
// Variables already set in the environment win.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}
	return nil
}

// sharedSetup unmarshals config and runs validation.
func sharedSetup(_ context.Context, _ *cobra.Command, _ []string) error {
	if err := loadDotEnv(); err != nil {
		return err
	}

	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		if !isConfigNotFound(err) {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	// This function populates the global 'cfg' from 'input'.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	cfg.Version = version

	// 4. Initialize export history with validated config
	if err := history.InitHistory(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}

	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if err := loadDotEnv(); err != nil {
		return err
	}

	// Load config file if present
	if err := viper.ReadInConfig(); err != nil {
		if !isConfigNotFound(err) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// isConfigNotFound reports whether err means there is no config file yet. A
// --config file that does not exist is fine too: config set creates it.
func isConfigNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// settingsPath returns the file the settings commands write to: the --config
// file, the file viper loaded, or the default location.
func settingsPath() string {
	if configFile := viper.GetString("config"); configFile != "" {
		return configFile
	}
	return viper.ConfigFileUsed()
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rootCtx = ctx
	return rootCmd.ExecuteContext(ctx)
}
