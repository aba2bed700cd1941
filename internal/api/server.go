package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/circular-readiness/internal/assessment"
	"github.com/terra-clan/circular-readiness/internal/catalog"
	"github.com/terra-clan/circular-readiness/internal/config"
	"github.com/terra-clan/circular-readiness/internal/health"
	"github.com/terra-clan/circular-readiness/internal/metrics"
)

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	manager        assessment.Manager
	catalogLoader  *catalog.Loader
	authMiddleware *AuthMiddleware
	health         *health.Registry
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	manager assessment.Manager,
	loader *catalog.Loader,
	auth *AuthMiddleware,
	registry *health.Registry,
) *Server {
	if registry == nil {
		registry = health.NewRegistry(0)
	}
	s := &Server{
		config:         cfg,
		manager:        manager,
		catalogLoader:  loader,
		authMiddleware: auth,
		health:         registry,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// Public endpoints
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)
		requestTimeout := middleware.Timeout(timeout)

		r.Route("/catalog", func(r chi.Router) {
			r.Use(requestTimeout)
			r.Use(s.authMiddleware.RequirePermission("catalog:read"))
			r.Get("/", s.handleGetCatalog)
			r.Get("/levels", s.handleListLevels)
			r.Get("/themes", s.handleListThemes)
			r.Get("/themes/{themeId}", s.handleGetTheme)
			r.Get("/themes/{themeId}/indicators/{indicatorId}", s.handleGetIndicator)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.With(requestTimeout, s.authMiddleware.RequirePermission("sessions:read")).Get("/", s.handleListSessions)
			r.With(requestTimeout, s.authMiddleware.RequirePermission("sessions:write")).Post("/", s.handleCreateSession)

			r.Route("/{id}", func(r chi.Router) {
				// long-lived WebSocket, kept out of the request timeout
				r.With(s.authMiddleware.RequirePermission("sessions:write")).Get("/live", s.handleLiveSession)

				r.Group(func(r chi.Router) {
					r.Use(requestTimeout)
					r.With(s.authMiddleware.RequirePermission("sessions:read")).Get("/", s.handleGetSession)
					r.With(s.authMiddleware.RequirePermission("sessions:write")).Delete("/", s.handleDeleteSession)
					r.With(s.authMiddleware.RequirePermission("sessions:write")).Put("/answers", s.handleSetAnswer)
					r.With(s.authMiddleware.RequirePermission("sessions:write")).Put("/weights", s.handleSetWeights)
					r.With(s.authMiddleware.RequirePermission("sessions:write")).Post("/reset", s.handleResetSession)
					r.With(s.authMiddleware.RequirePermission("sessions:read")).Get("/results", s.handleGetResults)
					r.With(s.authMiddleware.RequirePermission("history:write")).Post("/snapshots", s.handleSaveSnapshot)
				})
			})
		})

		r.Route("/history", func(r chi.Router) {
			r.Use(requestTimeout)
			r.Use(s.authMiddleware.RequirePermission("history:read"))
			r.Get("/", s.handleListHistory)
			r.Get("/comparison", s.handleGetComparison)
			r.Get("/details", s.handleGetDetails)
			r.Get("/{snapshotId}", s.handleGetSnapshot)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
