// Package core provides the HTTP chassis for the weather prediction service.
// It creates a chi router that serves both a standard HTTP listener (local and
// container deployments) and AWS Lambda proxy events. It enforces cross-cutting
// concerns such as logging, metrics and error shaping before requests reach
// the prediction handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"weatherpredict/internal/config"
)

// MetricsCollector records API telemetry. Implementations publish request
// latency and count to CloudWatch or an equivalent backend.
type MetricsCollector interface {
	RecordRequest(method, endpoint, status string, duration time.Duration)
}

// Flusher is implemented by collectors that buffer data and must be drained
// on shutdown.
type Flusher interface {
	Flush(ctx context.Context) error
}

// RouteRegistrar mounts a group of domain routes on the router.
type RouteRegistrar func(r chi.Router)

// Server holds the dependencies of the HTTP API.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	Validator    *Validator
	Metrics      MetricsCollector
	HealthProbes []HealthProbe

	// RouteRegistrars are populated by the entry point so that core never
	// imports handler packages.
	RouteRegistrars []RouteRegistrar

	router *chi.Mux
}

// NewServer prepares a server for route mounting. The caller mounts routes
// with MountRoutes after injecting optional dependencies.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown drains buffered telemetry.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")

	if f, ok := s.Metrics.(Flusher); ok {
		if err := f.Flush(ctx); err != nil {
			s.Logger.Error("error flushing metrics", "error", err)
			return fmt.Errorf("flushing metrics: %w", err)
		}
	}

	s.Logger.Info("server shutdown complete")
	return nil
}
