// Package server exposes projects, issues, cost buckets and the legend
// preference over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/0xmhha/cost-monitor/pkg/chart"
	"github.com/0xmhha/cost-monitor/pkg/discovery"
	"github.com/0xmhha/cost-monitor/pkg/issue"
	"github.com/0xmhha/cost-monitor/pkg/logger"
	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
	"github.com/0xmhha/cost-monitor/pkg/preference"
	"github.com/0xmhha/cost-monitor/pkg/project"
	cmmw "github.com/0xmhha/cost-monitor/pkg/server/middleware"
)

const defaultShutdownTimeout = 10 * time.Second

// Store is the issue data served by the API.
type Store interface {
	orchestrator.Fetcher
	Projects() []project.Project
	ProjectIDs() []string
	Issues(projectID string) []issue.Issue
}

// Dependencies are the collaborators behind the handlers.
type Dependencies struct {
	// Store is required.
	Store Store

	// Fetcher feeds cost aggregation. Defaults to Store.
	Fetcher orchestrator.Fetcher

	// Discoverer adds IDE projects to the project list. Optional.
	Discoverer discovery.Discoverer

	// Preferences persists the legend selection. Defaults to memory.
	Preferences preference.Store
}

// Config holds the configuration for the server.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration

	// Concurrency bounds per-request fetch fan-out.
	Concurrency int

	// Location is used for bucket boundaries. Default: time.Local.
	Location *time.Location

	Dependencies Dependencies
}

// Server is the HTTP API server.
type Server struct {
	router *chi.Mux
	logger logger.Logger
	server *http.Server
	config Config
}

// New creates a server and registers its routes.
func New(log logger.Logger, cfg Config) (*Server, error) {
	if cfg.Dependencies.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if cfg.Dependencies.Fetcher == nil {
		cfg.Dependencies.Fetcher = cfg.Dependencies.Store
	}
	if cfg.Dependencies.Preferences == nil {
		cfg.Dependencies.Preferences = preference.NewMemoryStore()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	h := &handlers{
		store:       cfg.Dependencies.Store,
		fetcher:     cfg.Dependencies.Fetcher,
		discoverer:  cfg.Dependencies.Discoverer,
		legend:      chart.NewLegend(cfg.Dependencies.Preferences, log),
		concurrency: cfg.Concurrency,
		location:    cfg.Location,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(cmmw.Logger(log))
	router.Use(middleware.Recoverer)

	router.Route("/api", func(r chi.Router) {
		r.Get("/projects", h.listProjects)
		r.Get("/projects/{projectId}/issues", h.listIssues)
		r.Get("/costs", h.costs)
		r.Get("/preferences/legend", h.getLegend)
		r.Put("/preferences/legend", h.putLegend)
	})

	return &Server{
		router: router,
		logger: log,
		config: cfg,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts down gracefully within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	go func() {
		s.logger.Info("starting server", "addr", s.server.Addr)
		serverErrors <- s.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-shutdown:
		s.logger.Info("shutdown initiated", "reason", "signal")
	case <-ctx.Done():
		s.logger.Info("shutdown initiated", "reason", "context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("graceful shutdown failed", "error", err)
		if closeErr := s.server.Close(); closeErr != nil {
			return fmt.Errorf("server close failed: %w", closeErr)
		}
		return err
	}

	s.logger.Info("server stopped")
	return nil
}
