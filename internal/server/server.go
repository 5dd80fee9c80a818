// Package server provides the HTTP side of both processes: metrics, health
// probes and, on the orchestrator, a JSON gateway to the graph API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/devrev/graphmesh/internal/health"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is an HTTP server built on a mux router
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer creates a server listening on port
func NewServer(port int, logger *zap.Logger) *Server {
	router := mux.NewRouter()
	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger.Named("http"),
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
	return s
}

// HandleMetrics exposes the metrics in gatherer at path
func (s *Server) HandleMetrics(path string, gatherer prometheus.Gatherer) {
	if path == "" {
		path = "/metrics"
	}
	s.router.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// HandleHealth exposes liveness and readiness probes
func (s *Server) HandleHealth(checker *health.HealthChecker) {
	s.router.HandleFunc("/health/live", checker.LivenessHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/health/ready", checker.ReadinessHandler).Methods(http.MethodGet)
}

// Router returns the router for testing purposes
func (s *Server) Router() *mux.Router {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.Shutdown(ctx)
}
