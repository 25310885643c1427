package cmd

import (
	"github.com/huangsam/sonarissues/internal/history"
	"github.com/huangsam/sonarissues/internal/mcp"
	"github.com/huangsam/sonarissues/internal/sonar"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the SonarCloud issues MCP server",
	Long:  `Launch an MCP server on stdio that allows AI agents to export SonarCloud issues via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := sharedSetup(rootCtx, cmd, args); err != nil {
			return err
		}
		cfg.Formats = nil // files are written only when a tool call asks for formats
		return nil
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		// Progress lines must stay off stdio, which carries the protocol.
		source := sonar.NewClientFromConfig(cfg, sonar.WithProgress(nil))
		return mcp.StartMCPServer(rootCtx, cfg, source, history.Manager)
	},
}
