package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/workbooks-sync/internal/config"
)

// Server wraps the HTTP server and router.
type Server struct {
	handler http.Handler
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates the API server. hc may be nil to skip health routes.
func NewServer(cfg config.APIConfig, h *Handlers, hc *HealthChecker) *Server {
	router := SetupRoutes(h, hc, cfg)
	return &Server{
		handler: router,
		router:  router,
	}
}

// ListenAndServe starts the HTTP server. All flows are synchronous
// request-per-invocation; the write timeout bounds the slowest path
// (the on-demand full organisation resync).
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
