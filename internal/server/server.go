// Package server exposes the analysis engine over HTTP: one authenticated
// analyze endpoint plus health and metrics, with admission, rate limiting,
// and worker-pool isolation in front of the pipeline.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vitalsense/rppg-analyzer/configs"
	"github.com/vitalsense/rppg-analyzer/internal/analysis"
	"github.com/vitalsense/rppg-analyzer/internal/worker"
	"github.com/vitalsense/rppg-analyzer/pkg/logging"
)

// AnalysisEngine is the part of the analysis engine the HTTP layer needs.
type AnalysisEngine interface {
	ValidateRequest(req *analysis.Request) error
	Analyze(ctx context.Context, req *analysis.Request) (*analysis.Result, error)
}

// Server hosts the HTTP API over a worker pool. Construct with NewServer;
// the zero value is not usable.
type Server struct {
	config  *configs.Config
	engine  AnalysisEngine
	pool    *worker.Pool
	limiter *clientLimiter
	metrics *MetricsRegistry
	logger  logging.Logger
	router  *mux.Router
	server  *http.Server
	started time.Time
}

// NewServer wires the engine, worker pool, and middleware chain. A nil
// engine gets the default pipeline engine; a nil logger falls back to the
// default logger. The returned server is ready to serve via Handler() or
// Start(); the worker pool is already running.
func NewServer(config *configs.Config, engine AnalysisEngine, logger logging.Logger) (*Server, error) {
	if config == nil {
		config = configs.GetDefaultConfig()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	logger = logger.WithFields(logging.Fields{"component": "http_server"})

	if config.Server.AuthEnabled && config.Server.JWTSecret == "" {
		return nil, fmt.Errorf("auth is enabled but no JWT secret is configured")
	}

	if engine == nil {
		engine = analysis.NewEngine(&analysis.EngineConfig{
			Analysis: config.Analysis,
			Logger:   logger,
		})
	}

	pool := worker.NewPool(config.Worker.Count, config.Worker.QueueSize, logger)
	pool.Start()

	s := &Server{
		config:  config,
		engine:  engine,
		pool:    pool,
		logger:  logger,
		router:  mux.NewRouter(),
		started: time.Now(),
	}

	if config.Server.RateLimit > 0 {
		s.limiter = newClientLimiter(config.Server.RateLimit, config.Server.RateBurst)
	}
	if config.Server.MetricsEnabled {
		s.metrics = NewMetricsRegistry(pool)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         config.Server.Address(),
		Handler:      s.router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	if s.metrics != nil {
		s.router.Use(s.metricsMiddleware)
	}
	s.router.Use(s.rateLimitMiddleware)
	s.router.Use(s.corsMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)
	api.Use(s.authMiddleware)
	api.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost, http.MethodOptions)

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// Handler returns the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Server.Address()
}

// Start blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("http server listening", logging.Fields{
		"address":      s.config.Server.Address(),
		"auth_enabled": s.config.Server.AuthEnabled,
		"workers":      s.config.Worker.Count,
		"queue_size":   s.config.Worker.QueueSize,
		"timeout":      s.config.Analysis.Timeout.String(),
	})

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, waits for in-flight requests up to
// the context deadline, then drains the worker pool.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")

	err := s.server.Shutdown(ctx)
	s.pool.Stop()
	return err
}
