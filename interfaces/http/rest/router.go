package rest

import (
	"net/http"

	"forecast-backend/interfaces/http/rest/handlers"
	"forecast-backend/interfaces/http/rest/middleware"
	pkgerrors "forecast-backend/pkg/errors"
	"forecast-backend/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterOptions toggles the optional surfaces of the router.
type RouterOptions struct {
	ServiceName    string
	EnableMetrics  bool
	EnableTracing  bool
	AllowedOrigins []string
}

// Router creates and configures the HTTP router
type Router struct {
	forecastHandler *handlers.ForecastHandler
	docsHandler     *handlers.DocsHandler
	errorHandler    *pkgerrors.ErrorHandler
	metrics         *observability.Collector
	options         RouterOptions
	logger          *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	forecastHandler *handlers.ForecastHandler,
	docsHandler *handlers.DocsHandler,
	errorHandler *pkgerrors.ErrorHandler,
	metrics *observability.Collector,
	options RouterOptions,
	logger *zap.Logger,
) *Router {
	return &Router{
		forecastHandler: forecastHandler,
		docsHandler:     docsHandler,
		errorHandler:    errorHandler,
		metrics:         metrics,
		options:         options,
		logger:          logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	if rt.options.EnableMetrics {
		router.Use(middleware.Metrics(rt.metrics))
	}
	if rt.options.EnableTracing {
		router.Use(observability.TracingMiddleware(rt.options.ServiceName))
	}
	router.Use(rt.errorHandler.Middleware)

	origins := rt.options.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader, handlers.VersionParam},
		ExposedHeaders: []string{
			middleware.RequestIDHeader,
			"api-supported-versions",
			"api-deprecated-versions",
		},
		MaxAge: 300,
	}))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.Handle(w, r, pkgerrors.NewNotFoundError("route "+r.URL.Path))
	})

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.options.EnableMetrics {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	router.Get("/swagger/{group}/swagger.json", rt.docsHandler.GetDocument)

	router.Route("/api", func(r chi.Router) {
		// Unversioned routes read api-version from the query string or header.
		r.Get("/weatherforecast", rt.forecastHandler.ListForecasts)
		r.Get("/weatherforecast/cached", rt.forecastHandler.ListCachedForecasts)

		r.Route("/{version}/weatherforecast", func(r chi.Router) {
			r.Get("/", rt.forecastHandler.ListForecasts)
			r.Get("/cached", rt.forecastHandler.ListCachedForecasts)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests. Everything the service
// needs is in process, so it is ready as soon as the router exists.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
