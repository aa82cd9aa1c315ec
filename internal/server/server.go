// ABOUTME: HTTP server exposing the chat endpoint, health probes, status and metrics
// ABOUTME: Shuts down gracefully when its context is cancelled
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/harper/notion-rag/internal/logging"
	"github.com/harper/notion-rag/internal/models"
	"github.com/harper/notion-rag/internal/refresh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Answerer composes replies to chat queries
type Answerer interface {
	Answer(ctx context.Context, q models.Query) (*models.Answer, error)
}

// StatusReporter describes the refresh lifecycle
type StatusReporter interface {
	Status() refresh.Status
}

// Config holds server configuration
type Config struct {
	Addr            string
	CORSOrigins     []string
	Version         string
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Addr:            ":5000",
		CORSOrigins:     []string{"*"},
		Version:         "dev",
		ShutdownTimeout: 15 * time.Second,
	}
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	cfg        Config
	answerer   Answerer
	status     StatusReporter
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
}

// New creates a server. gatherer may be nil to disable /metrics.
func New(cfg Config, answerer Answerer, status StatusReporter, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}

	s := &Server{
		router:   http.NewServeMux(),
		cfg:      cfg,
		answerer: answerer,
		status:   status,
		gatherer: gatherer,
		logger:   logging.OrNop(logger).With(zap.String("component", "http")),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// generation calls can be slow
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /chat", s.handleChat)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /status", s.handleStatus)
	s.router.HandleFunc("GET /version", s.handleVersion)
	if s.gatherer != nil {
		s.router.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

// Handler returns the routed handler wrapped in middleware
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = NewCORSMiddleware(s.cfg.CORSOrigins).Handler(h)
	h = NewLoggingMiddleware(s.logger).Handler(h)
	h = NewRecoveryMiddleware(s.logger).Handler(h)
	return h
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting server", zap.String("addr", s.httpServer.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}
