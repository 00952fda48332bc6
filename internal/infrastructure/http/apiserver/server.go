// Package apiserver provides the JSON API HTTP server the dashboard
// talks to.
package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/menuforge/v1/internal/infrastructure/config"
	"github.com/menuforge/v1/internal/infrastructure/http/handlers"
	"github.com/menuforge/v1/internal/infrastructure/http/middleware"
	"github.com/menuforge/v1/internal/infrastructure/monitoring"
	"github.com/menuforge/v1/internal/ports/inbound"
	"github.com/menuforge/v1/internal/ports/outbound"
	"github.com/menuforge/v1/pkg/healthcheck"
)

// Server wires the HTTP surface: plan generation job endpoints, the
// task facade, health and metrics.
type Server struct {
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
	router  *chi.Mux
	planner inbound.PlannerService
	tasks   inbound.TaskService
	metrics *monitoring.Metrics
	health  *healthcheck.HealthCheck
}

// New creates the API server.
func New(
	cfg *config.Config,
	log *zap.Logger,
	planner inbound.PlannerService,
	tasks inbound.TaskService,
	metrics *monitoring.Metrics,
	catalog outbound.CatalogProvider,
) *Server {
	s := &Server{
		config:  cfg,
		logger:  log,
		planner: planner,
		tasks:   tasks,
		metrics: metrics,
	}

	s.health = healthcheck.New(cfg.App.Version, 3*time.Second)
	s.health.Register("catalog", func(ctx context.Context) error {
		_, err := catalog.Snapshot(ctx)
		return err
	})

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// setupRoutes configures the JSON API routes.
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security())
	if s.config.Server.EnableCORS {
		r.Use(middleware.CORS())
	}
	r.Use(middleware.Metrics(s.metrics))
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(chimiddleware.Compress(5))

	r.Get(s.config.Monitoring.HealthCheckPath, s.health.Handler())
	if s.config.Monitoring.EnableMetrics {
		r.Method(http.MethodGet, s.config.Monitoring.MetricsPath, s.metrics.Handler())
	}

	planH := handlers.NewPlanAPIHandlers(s.planner, s.logger)
	taskH := handlers.NewTaskAPIHandlers(s.tasks, s.logger)

	r.Post("/start-weekly-plan-generation", planH.StartWeeklyPlanGeneration)
	r.Get("/job-status/{jobID}", planH.JobStatus)
	r.Delete("/job/{jobID}", planH.DeleteJob)

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", taskH.CreateTask)
		r.Get("/", taskH.ListTasks)
		r.Get("/{taskID}", taskH.GetTask)
	})

	return r
}

// Router exposes the mux, mainly for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// RegisterHealthCheck adds a dependency probe to the health endpoint.
func (s *Server) RegisterHealthCheck(name string, fn healthcheck.CheckFunc) {
	s.health.Register(name, fn)
}

// Start begins serving; it returns once the listener stops.
func (s *Server) Start() error {
	s.logger.Info("API server listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
