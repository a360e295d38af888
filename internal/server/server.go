// Package server provides the HTTP server and routing for the rebalancer.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/di"
	rebalancinghandlers "github.com/aristath/rebalancer/internal/modules/rebalancing/handlers"
	snapshothandlers "github.com/aristath/rebalancer/internal/modules/state/handlers"
)

// Config holds server configuration
type Config struct {
	Port      int
	DevMode   bool
	Container *di.Container
	Log       zerolog.Logger
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
}

// New creates the server and mounts all routes.
func New(cfg Config) *Server {
	log := cfg.Log.With().Str("component", "server").Logger()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(log))

	if cfg.DevMode {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	c := cfg.Container
	system := NewSystemHandlers(log)

	router.Route("/api", func(r chi.Router) {
		rebalancinghandlers.NewHandler(c.RebalancingService, c.SnapshotRepo, c.RebalanceDefaults, log).
			RegisterRoutes(r)
		if c.SnapshotRepo != nil {
			snapshothandlers.NewHandler(c.SnapshotRepo, log).RegisterRoutes(r)
		}
		r.Get("/health", system.HandleHealth)
		r.Get("/validators", system.HandleValidators(c.ValidatorNames))
	})

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: log,
	}
}

// Router exposes the chi mux, used by tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start begins serving; it blocks until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// requestLogger logs each request at debug level with timing.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("Request handled")
		})
	}
}
