// ABOUTME: MCP tool definitions and registration for the workspace assistant
// ABOUTME: Exposes asking, refreshing and status inspection over stdio
package mcp

import (
	"sync"

	"github.com/harper/notion-rag/internal/logging"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, answerer Answerer, refresher Refresher, logger *zap.Logger) *Handlers {
	handlers := &Handlers{
		answerer:   answerer,
		refresher:  refresher,
		logger:     logging.OrNop(logger).With(zap.String("component", "mcp")),
		shutdownWg: &sync.WaitGroup{},
	}

	// 1. ask_workspace - answer a question from the indexed workspace
	server.AddTool(mcp.Tool{
		Name:        "ask_workspace",
		Description: "Answer a question using the indexed Notion workspace. Replies include up to three source links when relevant pages were found.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "The question to answer",
				},
			},
			Required: []string{"message"},
		},
	}, handlers.AskWorkspace)

	// 2. refresh_workspace - rebuild the index from a fresh crawl
	server.AddTool(mcp.Tool{
		Name:        "refresh_workspace",
		Description: "Re-crawl the Notion workspace and rebuild the search index. Runs in the background unless wait is true.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"wait": map[string]interface{}{
					"type":        "boolean",
					"description": "Block until the refresh finishes (default: false)",
					"default":     false,
				},
			},
		},
	}, handlers.RefreshWorkspace)

	// 3. workspace_status - report refresh state and index size
	server.AddTool(mcp.Tool{
		Name:        "workspace_status",
		Description: "Report the refresh state, last error, and size of the current index.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.WorkspaceStatus)

	return handlers
}
