package di

import (
	querybus "forecast-backend/application/queries/bus"
	"forecast-backend/application/query"
	appversioning "forecast-backend/application/versioning"
	"forecast-backend/infrastructure/config"
	"forecast-backend/interfaces/http/rest"
	pkgerrors "forecast-backend/pkg/errors"
	"forecast-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	LogLevel     zap.AtomicLevel
	Metrics      *observability.Collector
	Constraints  *query.Constraints
	Resolver     *appversioning.Resolver
	Pipeline     *query.Pipeline
	QueryBus     *querybus.QueryBus
	ErrorHandler *pkgerrors.ErrorHandler
	Router       *rest.Router
}

// ApplyConfig applies the settings that may change at runtime. Only the log
// level qualifies; the query policy stays as it was at start-up.
func (c *Container) ApplyConfig(cfg *config.Config) {
	if err := c.LogLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		c.Logger.Warn("Ignoring invalid log level", zap.String("log_level", cfg.LogLevel), zap.Error(err))
		return
	}
	c.Logger.Info("Log level applied", zap.String("log_level", c.LogLevel.String()))
}
