package main

import (
	"github.com/spf13/cobra"

	"github.com/vovakirdan/t2048/internal/transport/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve MCP tools over stdio",
	Long: `Serve the game as Model Context Protocol tools on stdin/stdout so an
agent can play. Games are saved in the database like any other profile;
the tools use the "mcp" profile unless a call names another one.

Logs go to --log-file only, stdout belongs to the protocol.

Example MCP client configuration:
  {"command": "t2048", "args": ["mcp"]}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(_ *cobra.Command, _ []string) error {
	a, err := setup(setupOptions{quiet: true})
	if err != nil {
		return err
	}
	defer a.Close()

	opts := mcp.Options{
		LeaderboardSize: a.cfg.Leaderboard.Size,
		Logger:          a.logger,
	}
	var leaders mcp.Leaderboard
	if a.store != nil {
		leaders = a.store
	}
	return mcp.NewServer(a.manager(), leaders, opts).ServeStdio()
}
