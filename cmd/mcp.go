package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bugboard/bugboard/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for Claude Code integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets Claude Code query and update the board natively. Tools run
as the account named by actor_email (or --as). Configure in Claude
Code with:

  {
    "mcpServers": {
      "bugboard": { "command": "bugboard", "args": ["mcp"] }
    }
  }

Available tools: bugboard_list_issues, bugboard_create_issue,
bugboard_update_issue, bugboard_archive_issue, bugboard_comment,
bugboard_issue_history, bugboard_list_users, bugboard_board_stats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		email := asEmail
		if email == "" {
			email = viper.GetString("actor_email")
		}

		srv := mcp.NewServer(s, email, allowClosed())
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
