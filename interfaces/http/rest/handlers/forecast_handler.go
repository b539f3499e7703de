package handlers

import (
	"net/http"

	"forecast-backend/application/queries"
	querybus "forecast-backend/application/queries/bus"
	appversioning "forecast-backend/application/versioning"
	"forecast-backend/interfaces/http/rest/response"
	"forecast-backend/pkg/common"
	pkgerrors "forecast-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// VersionParam is the name of the version token in routes, query strings and headers.
const VersionParam = "api-version"

// ForecastMetrics is what the forecast handler reports per request.
type ForecastMetrics interface {
	RecordVersion(version string)
	RecordQueryError(kind string)
}

// ForecastHandler handles the versioned weather forecast endpoints
type ForecastHandler struct {
	queryBus     *querybus.QueryBus
	registry     *appversioning.Registry
	assembler    *response.Assembler
	errorHandler *pkgerrors.ErrorHandler
	metrics      ForecastMetrics
	logger       *zap.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(
	queryBus *querybus.QueryBus,
	registry *appversioning.Registry,
	assembler *response.Assembler,
	errorHandler *pkgerrors.ErrorHandler,
	metrics ForecastMetrics,
	logger *zap.Logger,
) *ForecastHandler {
	return &ForecastHandler{
		queryBus:     queryBus,
		registry:     registry,
		assembler:    assembler,
		errorHandler: errorHandler,
		metrics:      metrics,
		logger:       logger,
	}
}

// ListForecasts handles GET /api/{version}/weatherforecast
func (h *ForecastHandler) ListForecasts(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, false)
}

// ListCachedForecasts handles GET /api/{version}/weatherforecast/cached
func (h *ForecastHandler) ListCachedForecasts(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true)
}

func (h *ForecastHandler) serve(w http.ResponseWriter, r *http.Request, cached bool) {
	report := h.registry.Report()
	for k, values := range h.assembler.VersionHeaders(report) {
		w.Header()[k] = values
	}

	query := queries.ListForecastsQuery{
		VersionToken: versionToken(r),
		RawQuery:     r.URL.RawQuery,
		Cached:       cached,
	}

	raw, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		kind := string(pkgerrors.ErrorTypeInternal)
		if pkgerrors.IsQueryError(err) {
			kind = string(pkgerrors.GetAppError(err).Type)
		}
		h.metrics.RecordQueryError(kind)
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, ok := raw.(*queries.ListForecastsResult)
	if !ok {
		h.errorHandler.Handle(w, r, pkgerrors.NewInternalError("unexpected query result"))
		return
	}

	h.metrics.RecordVersion(result.Version.String())

	if err := response.Write(w, h.assembler.Assemble(report, result)); err != nil {
		h.logger.Error("Failed to encode forecast response",
			zap.String("api_version", result.Version.String()),
			zap.Error(err),
		)
		return
	}

	h.logger.Debug("Forecasts served",
		zap.String("api_version", result.Version.String()),
		zap.Bool("cached", result.Cached),
		zap.Int("items", len(result.Result.Items)),
		zap.Duration("elapsed", common.GetElapsedTime(r.Context())),
	)
}

// versionToken reads the token from the route, then the query string, then the header.
func versionToken(r *http.Request) string {
	if v := chi.URLParam(r, "version"); v != "" {
		return v
	}
	if v := r.URL.Query().Get(VersionParam); v != "" {
		return v
	}
	return r.Header.Get(VersionParam)
}
