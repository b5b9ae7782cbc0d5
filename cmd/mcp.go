package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/asana-dump/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets an MCP client run exports and inspect their history.
Configure it with:

  {
    "mcpServers": {
      "asana-dump": { "command": "asana-dump", "args": ["mcp"] }
    }
  }

Available tools: asana_export, asana_list_runs, asana_whoami`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		srv := mcp.NewServer(client, historyStore(), logger, buildVersion)
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
