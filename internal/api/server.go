// Package api serves the chart engine, saved cases and background reverse
// searches over HTTP with JSON bodies.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bazi/internal/cases"
	"bazi/internal/chart"
	"bazi/internal/jobs"
	"bazi/internal/reverse"
	"bazi/internal/streaming"
)

// Deps are the collaborators the handlers call into.
type Deps struct {
	Engine  *chart.Engine
	Library *cases.Library
	Runner  *jobs.Runner
	// ReverseRange is used when a reverse request names no range.
	ReverseRange reverse.Range
	// Stream tunes /reverse/stream; zero values take the defaults.
	Stream streaming.StreamConfig
	Logger *slog.Logger
}

// Server represents the HTTP API server
type Server struct {
	router    *http.ServeMux
	server    *http.Server
	addr      string
	logger    *slog.Logger
	deps      Deps
	startedAt time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(addr string, deps Deps) *Server {
	if deps.ReverseRange == (reverse.Range{}) {
		deps.ReverseRange = reverse.DefaultRange
	}
	s := &Server{
		addr:      addr,
		logger:    deps.Logger,
		deps:      deps,
		router:    http.NewServeMux(),
		startedAt: time.Now(),
	}

	s.registerRoutes()

	handler := s.applyMiddleware(s.router)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // synchronous reverse searches over wide ranges
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server shut down successfully")
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// applyMiddleware wraps the handler with middleware in the correct order
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	// Last one wraps first
	handler = RecoveryMiddleware(s.logger)(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware()(handler)
	handler = CORSMiddleware()(handler)
	return handler
}
