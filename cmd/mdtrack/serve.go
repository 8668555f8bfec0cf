package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pkgmcp "github.com/mdtracker/mdtrack/pkg/mcp"
)

// serveCmd starts the mdtrack MCP server as part of the main CLI.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mdtrack MCP server (stdio transport)",
	Long:  `Launches the MCP stdio server so that external AI agents can record matches and query statistics.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		resolvedPath, err := resolveDBPath()
		if err != nil {
			return err
		}

		fmt.Println("Starting mdtrack MCP Server…")
		fmt.Printf("Using database: %s\n", resolvedPath)

		mcpServer, err := pkgmcp.NewTrackerMCPServer(resolvedPath)
		if err != nil {
			return fmt.Errorf("failed to create mdtrack MCP server: %w", err)
		}
		defer mcpServer.Close()

		mcpServer.RegisterAllTools()

		fmt.Println("mdtrack MCP Server tools registered. Starting stdio listener…")
		if err := mcpServer.Start(); err != nil {
			return fmt.Errorf("mdtrack MCP server error: %w", err)
		}

		fmt.Println("mdtrack MCP Server stopped.")
		return nil
	},
}
