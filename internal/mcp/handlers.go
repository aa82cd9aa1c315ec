// ABOUTME: MCP tool handler implementations for the workspace assistant
// ABOUTME: Tool failures are returned as error results, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/harper/notion-rag/internal/models"
	"github.com/harper/notion-rag/internal/refresh"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// Answerer composes replies to workspace questions
type Answerer interface {
	Answer(ctx context.Context, q models.Query) (*models.Answer, error)
}

// Refresher runs on-demand refreshes and reports status
type Refresher interface {
	Trigger(ctx context.Context) error
	Status() refresh.Status
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	answerer   Answerer
	refresher  Refresher
	logger     *zap.Logger
	shutdownWg *sync.WaitGroup // background refreshes
}

// AskWorkspace handles the ask_workspace tool
func (h *Handlers) AskWorkspace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil || strings.TrimSpace(message) == "" {
		return mcp.NewToolResultError("message argument is required and must be a non-empty string"), nil
	}

	answer, err := h.answerer.Answer(ctx, models.Query{Text: strings.TrimSpace(message)})
	switch {
	case errors.Is(err, models.ErrIndexNotReady):
		return mcp.NewToolResultText("Index is still loading. Please try again shortly."), nil
	case err != nil:
		h.logger.Warn("ask_workspace failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to answer: %v", err)), nil
	}

	return mcp.NewToolResultText(answer.Reply), nil
}

// RefreshWorkspace handles the refresh_workspace tool
func (h *Handlers) RefreshWorkspace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetBool("wait", false) {
		if err := h.refresher.Trigger(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("refresh failed: %v", err)), nil
		}
		return h.statusResult()
	}

	h.shutdownWg.Add(1)
	go func() {
		defer h.shutdownWg.Done()
		// detached from the request so the cycle outlives the tool call
		if err := h.refresher.Trigger(context.Background()); err != nil && !errors.Is(err, models.ErrRefreshInProgress) {
			h.logger.Warn("background refresh failed", zap.Error(err))
		}
	}()

	return mcp.NewToolResultText("Refresh started."), nil
}

// WorkspaceStatus handles the workspace_status tool
func (h *Handlers) WorkspaceStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.statusResult()
}

func (h *Handlers) statusResult() (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(h.refresher.Status())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// Shutdown waits for background refreshes to complete
func (h *Handlers) Shutdown() {
	h.logger.Info("waiting for background refreshes to complete")
	h.shutdownWg.Wait()
}
