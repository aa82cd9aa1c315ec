// ABOUTME: Serve command runs the HTTP chat API with periodic background refresh
// ABOUTME: The server answers "not ready" until the first snapshot is installed
package commands

import (
	"context"
	"errors"

	"github.com/harper/notion-rag/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP server",
		Long: `Run the chat HTTP server.

Starts listening immediately and refreshes the workspace index in the
background, first from the crawl cache when one exists and then on
every refresh interval. Exposes POST /chat, health probes, /status and
Prometheus /metrics.`,
		Example: `  # Serve on the configured address
  notionrag serve

  # Serve on another port and rebuild from a fresh crawl
  notionrag serve --addr :8080 --force-refresh`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides RAG_HTTP_ADDR)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	cfg := server.DefaultConfig()
	cfg.Addr = a.cfg.HTTPAddr
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	cfg.CORSOrigins = a.cfg.CORSOrigins
	cfg.Version = versionInfo.Version

	srv := server.New(cfg, a.composer, a.coordinator, a.registry, a.logger)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.coordinator.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return srv.Start(ctx)
	})

	err = g.Wait()
	a.logger.Info("shutdown complete", zap.Error(err))
	return err
}
