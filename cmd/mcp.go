package cmd

import (
	"github.com/huangsam/formpath/internal/mcp"
	"github.com/huangsam/formpath/internal/store"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the formpath MCP server",
	Long:  `Launch an MCP server that lets AI agents walk the questionnaire, read stored forms and compare runs via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr, so stdio stays free for the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, store.Manager)
	},
}
