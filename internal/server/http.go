// Package server exposes ranking comparisons over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/knoguchi/rankeval/internal/auth"
	"github.com/knoguchi/rankeval/internal/service"
)

// Comparer runs ranking comparisons.
type Comparer interface {
	Run(ctx context.Context, query string) (*service.Comparison, error)
	RunAt(ctx context.Context, query string, latitude, longitude float64) (*service.Comparison, error)
}

// History looks up recent comparisons.
type History interface {
	Get(id uuid.UUID) (*service.Comparison, bool)
	Recent(n int) []*service.Comparison
}

// HTTPServer wraps an HTTP server with the comparison API
type HTTPServer struct {
	server   *http.Server
	router   *chi.Mux
	logger   *slog.Logger
	comparer Comparer
	history  History
	jwt      *auth.JWTManager
	validate *validator.Validate
}

// HTTPServerConfig holds configuration for the HTTP server
type HTTPServerConfig struct {
	Port           int
	Logger         *slog.Logger
	AllowedOrigins []string // CORS allowed origins

	// Authenticator guards /api routes. Nil or disabled leaves them open.
	Authenticator *auth.Authenticator

	// JWT enables the token refresh endpoint when set.
	JWT *auth.JWTManager

	// History enables the comparison lookup endpoints when set.
	History History
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(cfg HTTPServerConfig, comparer Comparer) *HTTPServer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &HTTPServer{
		router:   chi.NewRouter(),
		logger:   logger,
		comparer: comparer,
		history:  cfg.History,
		jwt:      cfg.JWT,
		validate: validator.New(),
	}

	// Add middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLoggingMiddleware(logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(corsMiddleware(cfg.AllowedOrigins))

	// Health, readiness and metrics stay unauthenticated
	s.router.Get("/healthz", healthCheckHandler())
	s.router.Get("/readyz", readinessCheckHandler())
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.jwt != nil {
			r.Post("/token/refresh", s.handleRefreshToken)
		}

		r.Group(func(r chi.Router) {
			if cfg.Authenticator != nil {
				r.Use(cfg.Authenticator.Middleware)
			}
			r.Post("/compare", s.handleCompare)
			r.Post("/ndcg", s.handleNDCG)
			if s.history != nil {
				r.Get("/comparisons", s.handleListComparisons)
				r.Get("/comparisons/{runID}", s.handleGetComparison)
			}
		})
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // A comparison makes N+1 LLM calls
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Handler returns the root handler
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}
