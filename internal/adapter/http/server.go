package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/location-risk-service/internal/domain"
	"github.com/couchcryptid/location-risk-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const apiTimeout = 30 * time.Second

// RiskService is the part of the pipeline the API reads from and triggers.
type RiskService interface {
	Refresh(ctx context.Context) (pipeline.Report, error)
	Status() pipeline.Status
	ActiveAlerts() []domain.Alert
	Assess(locations []domain.Location) []pipeline.Assessment
}

// LocationService manages saved locations.
type LocationService interface {
	List() []domain.Location
	Get(id string) (domain.Location, error)
	Create(ctx context.Context, in pipeline.LocationInput) (domain.Location, error)
	Update(ctx context.Context, id string, in pipeline.LocationUpdate) (domain.Location, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context)
}

// Server exposes the REST API alongside health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	risk       RiskService
	locations  LocationService
	clock      clockwork.Clock
	started    time.Time
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the operational routes and the
// /api tree.
func NewServer(addr string, ready sharedobs.ReadinessChecker, risk RiskService, locations LocationService, clock clockwork.Clock, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: apiTimeout + 5*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		risk:      risk,
		locations: locations,
		clock:     clock,
		started:   clock.Now(),
		logger:    logger,
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Cache-Control"},
		MaxAge:         300,
	}))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(apiTimeout))
		r.Get("/health", s.handleHealth)

		r.Route("/weather", func(r chi.Router) {
			r.Get("/alerts", s.handleAlerts)
			r.Get("/alerts.geojson", s.handleAlertsGeoJSON)
			r.Post("/update", s.handleUpdate)
			r.Get("/{lat}/{lng}", s.handlePoint)
		})
		r.Get("/emergency/active-alerts", s.handleEmergencyAlerts)

		r.Route("/locations", func(r chi.Router) {
			r.Get("/", s.handleListLocations)
			r.Post("/", s.handleCreateLocation)
			r.Delete("/", s.handleClearLocations)
			r.Post("/assess-risk", s.handleAssessRisk)
			r.Get("/{id}", s.handleGetLocation)
			r.Patch("/{id}", s.handleUpdateLocation)
			r.Delete("/{id}", s.handleDeleteLocation)
		})
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Debug("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
