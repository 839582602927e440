package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/terra-clan/consult-portal/internal/catalog"
	"github.com/terra-clan/consult-portal/internal/config"
	"github.com/terra-clan/consult-portal/internal/events"
	"github.com/terra-clan/consult-portal/internal/health"
	"github.com/terra-clan/consult-portal/internal/intake"
	"github.com/terra-clan/consult-portal/internal/models"
	"github.com/terra-clan/consult-portal/internal/storage"
	"github.com/terra-clan/consult-portal/internal/upload"
	"github.com/terra-clan/consult-portal/pkg/client"
)

// SessionStore keeps portal sessions
type SessionStore interface {
	Create(ctx context.Context, user models.User, backendToken string) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// EventBus fans out per-user notifications
type EventBus interface {
	Publish(ctx context.Context, userID, eventType string, stage int, payload interface{}) error
	Subscribe(ctx context.Context, userID string) (*events.Subscription, error)
}

// Deps are the collaborators of the API server
type Deps struct {
	Backend           *client.Client
	Sessions          SessionStore
	Drafts            storage.DraftRepository
	Events            EventBus
	Catalog           *catalog.Loader
	Validator         *intake.Validator
	Health            *health.Registry
	UploadLimits      upload.Limits
	UploadConcurrency int
}

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	deps           Deps
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	s := &Server{
		config:         cfg,
		deps:           deps,
		authMiddleware: NewAuthMiddleware(deps.Sessions),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	timeout := s.config.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Session-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	auth := s.authMiddleware
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(streamAwareTimeout(timeout))

		r.Post("/session", s.handleCreateSession)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Get("/session", s.handleGetSession)
			r.Delete("/session", s.handleDeleteSession)

			r.Route("/options", func(r chi.Router) {
				r.Use(auth.RequirePermission("catalog:read"))
				r.Get("/", s.handleListOptions)
				r.Get("/{name}", s.handleGetOptions)
			})

			r.Route("/intake", func(r chi.Router) {
				r.With(auth.RequirePermission("intake:read")).Get("/", s.handleGetIntake)
				r.With(auth.RequirePermission("intake:read")).Get("/progress", s.handleGetProgress)
				r.With(auth.RequirePermission("intake:read")).Get("/events", s.handleIntakeEvents)
				r.With(auth.RequirePermission("intake:read")).Get("/drafts", s.handleListDrafts)

				r.Route("/stages/{stage}", func(r chi.Router) {
					r.With(auth.RequirePermission("intake:write")).Put("/", s.handleUpdateStage)
					r.With(auth.RequirePermission("intake:write")).Post("/complete", s.handleCompleteStage)
					r.With(auth.RequirePermission("intake:read")).Get("/draft", s.handleGetDraft)
					r.With(auth.RequirePermission("intake:write")).Put("/draft", s.handleSaveDraft)
				})

				r.With(auth.RequirePermission("intake:write")).Post("/documents", s.handleUploadDocuments)
				r.With(auth.RequirePermission("intake:write")).Delete("/documents/{id}", s.handleDeleteDocument)
			})

			r.Route("/catalog", func(r chi.Router) {
				r.With(auth.RequirePermission("catalog:read")).Get("/templates", s.handleListTemplates)
				r.With(auth.RequirePermission("catalog:read")).Get("/templates/{id}/duration-options", s.handleListDurationOptions)
				r.With(auth.RequirePermission("catalog:write")).Post("/templates/{id}/duration-options", s.handleCreateDurationOption)
				r.With(auth.RequirePermission("catalog:write")).Put("/duration-options/{id}", s.handleUpdateDurationOption)
				r.With(auth.RequirePermission("catalog:write")).Delete("/duration-options/{id}", s.handleDeleteDurationOption)
			})

			r.Route("/consultant", func(r chi.Router) {
				r.With(auth.RequirePermission("pricing:read")).Get("/services", s.handleListConsultantServices)
				r.With(auth.RequirePermission("pricing:read")).Get("/services/{id}/pricing", s.handleGetPricing)
				r.With(auth.RequirePermission("pricing:write")).Put("/services/{id}/pricing", s.handleSetPricing)
			})

			r.Route("/bookings", func(r chi.Router) {
				r.Use(auth.RequirePermission("bookings:write"))
				r.Post("/validate", s.handleValidateBooking)
				r.Post("/", s.handleCreateBooking)
			})
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

// streamAwareTimeout applies middleware.Timeout to everything except
// websocket upgrades, which live as long as the client stays connected
func streamAwareTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := middleware.Timeout(timeout)(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if websocket.IsWebSocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}
