// ABOUTME: Ask command answers one question from the command line
// ABOUTME: Builds an index first, from the crawl cache when available
package commands

import (
	"fmt"
	"strings"

	"github.com/harper/notion-rag/internal/models"
	"github.com/spf13/cobra"
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the workspace",
		Long: `Ask a question about the workspace.

Builds an index (from the crawl cache when one exists, otherwise by
crawling), retrieves the closest passages and prints a grounded reply
with its sources.`,
		Example: `  notionrag ask "Who owns the onboarding checklist?"
  notionrag ask --format json "Where is the Berlin office?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	if err := a.coordinator.RunOnce(ctx); err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	answer, err := a.composer.Answer(ctx, models.Query{Text: question})
	if err != nil {
		return err
	}

	if wantJSON() {
		return writeJSON(cmd.OutOrStdout(), answer)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), answer.Reply)
	return err
}
