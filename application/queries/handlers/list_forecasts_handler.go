package handlers

import (
	"context"
	"fmt"

	"forecast-backend/application/queries"
	"forecast-backend/application/queries/bus"
	"forecast-backend/application/query"
	appversioning "forecast-backend/application/versioning"
	"forecast-backend/domain/forecast"

	"go.uber.org/zap"
)

// ListForecastsHandler resolves the version, draws a fresh forecast sequence
// and runs the query pipeline over it.
type ListForecastsHandler struct {
	resolver *appversioning.Resolver
	source   forecast.Source
	pipeline *query.Pipeline
	logger   *zap.Logger
}

// NewListForecastsHandler creates a new forecast list handler
func NewListForecastsHandler(
	resolver *appversioning.Resolver,
	source forecast.Source,
	pipeline *query.Pipeline,
	logger *zap.Logger,
) *ListForecastsHandler {
	return &ListForecastsHandler{
		resolver: resolver,
		source:   source,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Handle executes the forecast list query
func (h *ListForecastsHandler) Handle(ctx context.Context, q queries.ListForecastsQuery) (*queries.ListForecastsResult, error) {
	res, err := h.resolver.Resolve(q.VersionToken)
	if err != nil {
		return nil, err
	}

	version := res.Descriptor.Version
	result := &queries.ListForecastsResult{
		Version:   version,
		Variant:   res.Descriptor.Variant.Name,
		Defaulted: res.Defaulted,
		Cached:    q.Cached,
	}

	if q.Cached {
		result.Result = h.pipeline.Ceiling(h.source.Forecasts(ctx, ""))
		return result, nil
	}

	records := h.source.Forecasts(ctx, version.String())
	outcome, err := h.pipeline.Execute(ctx, q.RawQuery, version, res.Descriptor.Variant, records)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Forecast query applied",
		zap.String("api_version", version.String()),
		zap.String("variant", result.Variant),
		zap.Bool("defaulted", res.Defaulted),
		zap.String("directives", outcome.Directives.String()),
		zap.Int("items", len(outcome.Result.Items)),
	)

	result.Directives = outcome.Directives
	result.Result = outcome.Result
	return result, nil
}

// AsQueryHandler adapts the handler for registration on the query bus.
func (h *ListForecastsHandler) AsQueryHandler() bus.QueryHandler {
	return bus.QueryHandlerFunc(func(ctx context.Context, q bus.Query) (interface{}, error) {
		listQuery, ok := q.(queries.ListForecastsQuery)
		if !ok {
			return nil, fmt.Errorf("unexpected query type %T", q)
		}
		result, err := h.Handle(ctx, listQuery)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}
