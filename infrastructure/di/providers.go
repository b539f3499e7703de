package di

import (
	"fmt"
	"time"

	"forecast-backend/application/queries"
	querybus "forecast-backend/application/queries/bus"
	queries_handlers "forecast-backend/application/queries/handlers"
	"forecast-backend/application/query"
	appversioning "forecast-backend/application/versioning"
	docs "forecast-backend/docs/swagger"
	"forecast-backend/domain/forecast"
	"forecast-backend/infrastructure/config"
	"forecast-backend/interfaces/http/rest"
	"forecast-backend/interfaces/http/rest/handlers"
	"forecast-backend/interfaces/http/rest/response"
	pkgerrors "forecast-backend/pkg/errors"
	"forecast-backend/pkg/observability"

	"go.uber.org/zap"
)

// DocGroups lists the swagger groups registered at start-up.
type DocGroups []string

// ProvideLogLevel creates the runtime adjustable log level
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	return zap.ParseAtomicLevel(cfg.LogLevel)
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", cfg.ServiceName)), nil
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("forecast")
}

// ProvideConstraints creates the frozen query policy
func ProvideConstraints(cfg *config.Config) (*query.Constraints, error) {
	constraints, err := cfg.Constraints()
	if err != nil {
		return nil, fmt.Errorf("failed to build query policy: %w", err)
	}
	return constraints, nil
}

// ProvideRegistry creates the version registry
func ProvideRegistry(cfg *config.Config) (*appversioning.Registry, error) {
	descs, err := cfg.HandlerDescriptors()
	if err != nil {
		return nil, err
	}
	return appversioning.NewRegistry(descs...)
}

// ProvideResolver creates the version resolver
func ProvideResolver(cfg *config.Config, registry *appversioning.Registry) (*appversioning.Resolver, error) {
	def, err := cfg.DefaultVersion()
	if err != nil {
		return nil, err
	}
	return appversioning.NewResolver(registry, cfg.Query.AssumeDefaultVersion, def)
}

// ProvideForecastSource creates the synthetic forecast generator
func ProvideForecastSource(cfg *config.Config) forecast.Source {
	newRand := forecast.TimeSeededRand()
	if cfg.Forecast.Seed != 0 {
		newRand = forecast.SeededRand(cfg.Forecast.Seed)
	}
	return forecast.NewGenerator(cfg.Forecast.Count, newRand, time.Now)
}

// ProvidePipeline creates the query pipeline
func ProvidePipeline(constraints *query.Constraints, logger *zap.Logger, metrics *observability.Collector) *query.Pipeline {
	return query.NewPipeline(query.NewEnforcer(constraints), logger, metrics)
}

// ProvideListForecastsHandler creates the forecast list query handler
func ProvideListForecastsHandler(
	resolver *appversioning.Resolver,
	source forecast.Source,
	pipeline *query.Pipeline,
	logger *zap.Logger,
) *queries_handlers.ListForecastsHandler {
	return queries_handlers.NewListForecastsHandler(resolver, source, pipeline, logger)
}

// ProvideQueryBus creates the query bus with all handlers registered
func ProvideQueryBus(
	listHandler *queries_handlers.ListForecastsHandler,
	metrics *observability.Collector,
) (*querybus.QueryBus, error) {
	bus := querybus.NewQueryBus()
	metricsMiddleware := querybus.NewMetricsMiddleware(metrics)

	if err := bus.Register(queries.ListForecastsQuery{}, metricsMiddleware.Wrap(listHandler.AsQueryHandler())); err != nil {
		return nil, fmt.Errorf("failed to register ListForecastsQuery handler: %w", err)
	}
	return bus, nil
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideAssembler creates the response assembler
func ProvideAssembler(cfg *config.Config) *response.Assembler {
	return response.NewAssembler(time.Duration(cfg.Query.CacheMaxAgeSeconds) * time.Second)
}

// ProvideDocGroups registers the per-version swagger documents
func ProvideDocGroups(registry *appversioning.Registry, constraints *query.Constraints) (DocGroups, error) {
	groups, err := docs.Register(registry, constraints)
	if err != nil {
		return nil, err
	}
	return DocGroups(groups), nil
}

// ProvideForecastHandler creates the forecast HTTP handler
func ProvideForecastHandler(
	queryBus *querybus.QueryBus,
	registry *appversioning.Registry,
	assembler *response.Assembler,
	errorHandler *pkgerrors.ErrorHandler,
	metrics *observability.Collector,
	logger *zap.Logger,
) *handlers.ForecastHandler {
	return handlers.NewForecastHandler(queryBus, registry, assembler, errorHandler, metrics, logger)
}

// ProvideDocsHandler creates the swagger document handler. It depends on
// DocGroups so documents are registered before the first request.
func ProvideDocsHandler(errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger, groups DocGroups) *handlers.DocsHandler {
	logger.Debug("Swagger documents registered", zap.Strings("groups", groups))
	return handlers.NewDocsHandler(errorHandler, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	forecastHandler *handlers.ForecastHandler,
	docsHandler *handlers.DocsHandler,
	errorHandler *pkgerrors.ErrorHandler,
	metrics *observability.Collector,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(forecastHandler, docsHandler, errorHandler, metrics, rest.RouterOptions{
		ServiceName:    cfg.ServiceName,
		EnableMetrics:  cfg.Features.EnableMetrics,
		EnableTracing:  cfg.Features.EnableTracing,
		AllowedOrigins: cfg.AllowedOrigins,
	}, logger)
}
