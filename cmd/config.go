package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/sonarissues/internal/settings"
	"github.com/spf13/cobra"
)

// configCmd manages the persisted settings file.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change persisted settings",
	Long: `Manage the settings file (.sonarissues.yaml in the working or home directory).

The file holds the SonarCloud token, project key, organization key, default branch
and default pull request. It is written with owner-only permissions.

Subcommands:
  show - Print the settings with the token masked
  set  - Change one setting
  init - Create or replace the settings file from flags and environment

Examples:
  sonarissues config set token squ_xxx
  sonarissues config set organization My-Org   # stored as my-org
  sonarissues config show`,
}

// configShowCmd prints the current settings.
var configShowCmd = &cobra.Command{
	Use:     "show",
	Short:   "Print the current settings with the token masked",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store := settings.NewStore(settingsPath())
		current, err := store.Load()
		if err != nil {
			return err
		}
		if !store.Exists() {
			fmt.Fprintf(os.Stderr, "⚠️  No settings file yet, showing defaults (%s)\n", store.Path())
		}
		return settings.Show(os.Stdout, current, cfg.Version)
	},
}

// configSetCmd changes one setting.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting (token, project, organization, default-branch, default-pr)",
	Long: `Change one persisted setting.

Keys:
  token           SonarCloud user token
  project         project key
  organization    organization key, stored in lower case
  default-branch  branch exported by default (empty resets to main)
  default-pr      pull request used by default (empty clears it)`,
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		value := ""
		if len(args) == 2 {
			value = args[1]
		}
		store := settings.NewStore(settingsPath())
		if err := store.Set(args[0], value); err != nil {
			return err
		}
		fmt.Printf("✅ Saved %s to %s\n", args[0], store.Path())
		return nil
	},
}

// configInitCmd writes every setting at once from the resolved configuration.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the settings file from flags and environment",
	Long: `Create or replace the settings file with the currently resolved values.

Example:
  SONARISSUES_TOKEN=squ_xxx sonarissues config init --project acme_web --organization acme`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store := settings.NewStore(settingsPath())
		err := store.Save(settings.Settings{
			Token:         cfg.Token,
			Project:       cfg.ProjectKey,
			Organization:  cfg.Organization,
			DefaultBranch: cfg.DefaultBranch,
			DefaultPR:     cfg.DefaultPR,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✅ Settings written to %s\n", store.Path())
		return nil
	},
}
