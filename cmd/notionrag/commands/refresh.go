// ABOUTME: Refresh command runs one full refresh cycle and reports the result
// ABOUTME: Crawls by default; --use-cache allows the crawl cache to seed the cycle
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var refreshUseCache bool

// NewRefreshCmd creates the refresh command
func NewRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run one refresh cycle",
		Long: `Run one refresh cycle: crawl, chunk, embed and index.

The resulting crawl is written to the crawl cache so the next server
start can build its first index without crawling.`,
		Example: `  notionrag refresh
  notionrag refresh --use-cache --format json`,
		Args: cobra.NoArgs,
		RunE: runRefresh,
	}

	cmd.Flags().BoolVar(&refreshUseCache, "use-cache", false, "Build from the crawl cache when one exists")

	return cmd
}

func runRefresh(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	if refreshUseCache {
		err = a.coordinator.RunOnce(ctx)
	} else {
		err = a.coordinator.Trigger(ctx)
	}
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	return writeStatus(cmd.OutOrStdout(), a.coordinator.Status())
}
