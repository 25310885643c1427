package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/sonarissues/internal/update"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// updateCmd replaces the running binary with the latest release.
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for a newer release and install it",
	Long: `Compare the running version with the latest GitHub release and, after
confirmation, download the matching binary and swap it in place.

The previous binary is kept next to the new one with a .old suffix and is
restored automatically if the swap fails.

Examples:
  sonarissues update
  sonarissues update --yes`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		u, err := update.NewUpdater(rootCtx, cfg)
		if err != nil {
			return err
		}

		var confirm func(string) bool
		if !viper.GetBool("yes") {
			reader := bufio.NewReader(os.Stdin)
			confirm = func(prompt string) bool {
				fmt.Fprint(os.Stderr, prompt)
				answer, _ := reader.ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				return answer == "y" || answer == "yes"
			}
		}

		_, err = u.Run(rootCtx, confirm)
		switch {
		case errors.Is(err, update.ErrUpToDate):
			fmt.Fprintln(os.Stderr, "✅ Already on the latest version")
			return nil
		case errors.Is(err, update.ErrCanceled):
			fmt.Fprintln(os.Stderr, "Update canceled")
			return nil
		}
		return err
	},
}
