// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents query and refresh the workspace index via stdio
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/harper/notion-rag/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs notionrag as an MCP (Model Context Protocol) server on stdio,
giving LLM agents tools to ask the workspace questions, trigger a
refresh and read the index status. The index refreshes in the
background on the configured interval.

Logs go to stderr so they never mix with the protocol stream.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an agent host)
  notionrag mcp

  # Configure in the host's config file:
  # {
  #   "mcpServers": {
  #     "notion": {
  #       "command": "notionrag",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	server := mcpserver.NewMCPServer("notionrag", versionInfo.Version)
	handlers := mcp.RegisterTools(server, a.composer, a.coordinator, a.logger)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		if err := a.coordinator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("refresh loop stopped", zap.Error(err))
		}
	}()

	a.logger.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err = <-serverErr:
		stop()
	}

	handlers.Shutdown()
	<-refreshDone

	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
