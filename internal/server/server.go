// Package server exposes the media pipeline as a JSON HTTP API with
// lifecycle management.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/MEITREX/docprocai-fileingestlib/internal/service"
)

// Server wraps the HTTP server with dependencies and lifecycle management.
type Server struct {
	svc    *service.Service
	http   *http.Server
	logger *slog.Logger
}

// New creates a server listening on addr.
func New(addr string, svc *service.Service, logger *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/media-records/{id}/ingest", s.handleIngest)
	mux.HandleFunc("DELETE /api/media-records/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/contents/{id}/links", s.handleLinkContent)
	mux.HandleFunc("GET /api/contents/{id}/links", s.handleGetLinks)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           loggingMiddleware(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the configured HTTP handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run starts the server and blocks until it shuts down.
func (s *Server) Run() error {
	s.logger.Info("starting HTTP server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
