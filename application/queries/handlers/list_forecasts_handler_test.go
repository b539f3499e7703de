package handlers

import (
	"context"
	"strings"
	"testing"
	"time"

	"forecast-backend/application/queries"
	"forecast-backend/application/queries/bus"
	"forecast-backend/application/query"
	appversioning "forecast-backend/application/versioning"
	"forecast-backend/domain/forecast"
	"forecast-backend/domain/versioning"
	pkgerrors "forecast-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *ListForecastsHandler {
	t.Helper()

	v1, v2 := versioning.New(1, 0), versioning.New(2, 0)
	registry, err := appversioning.NewRegistry(
		appversioning.HandlerDescriptor{Version: v1, Variant: query.Variant{Name: "standard"}},
		appversioning.HandlerDescriptor{Version: v2, Variant: query.Variant{
			Name:    "rewrite",
			Rewrite: query.StripDirectives(query.DirectiveTop, query.DirectiveSkip),
		}},
	)
	require.NoError(t, err)

	resolver, err := appversioning.NewResolver(registry, true, v1)
	require.NoError(t, err)

	constraints, err := query.NewConstraints(3, nil, nil)
	require.NoError(t, err)

	now := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	source := forecast.NewGenerator(5, forecast.SeededRand(11), now)

	return NewListForecastsHandler(resolver, source, query.NewPipeline(query.NewEnforcer(constraints), zap.NewNop(), nil), zap.NewNop())
}

func summaries(t *testing.T, result *queries.ListForecastsResult) []string {
	t.Helper()
	var out []string
	for _, e := range result.Result.Items {
		v, ok := e.Get(forecast.FieldSummary)
		require.True(t, ok)
		out = append(out, v.(string))
	}
	return out
}

func TestListForecastsHandler_Handle(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	t.Run("Should prefix summaries with the resolved version", func(t *testing.T) {
		result, err := h.Handle(ctx, queries.ListForecastsQuery{VersionToken: "v2"})
		require.NoError(t, err)

		assert.Equal(t, "2.0", result.Version.String())
		assert.Equal(t, "rewrite", result.Variant)
		require.Len(t, result.Result.Items, 3)
		for _, s := range summaries(t, result) {
			assert.True(t, strings.HasPrefix(s, "2.0"), s)
		}
	})

	t.Run("Should fall back to the default version", func(t *testing.T) {
		result, err := h.Handle(ctx, queries.ListForecastsQuery{RawQuery: "$count=true"})
		require.NoError(t, err)
		assert.True(t, result.Defaulted)
		assert.Equal(t, "1.0", result.Version.String())
		assert.True(t, result.CountRequested())
		assert.Equal(t, 5, *result.Result.TotalCount)
	})

	t.Run("Should ignore directives but keep the page ceiling on the cached variant", func(t *testing.T) {
		result, err := h.Handle(ctx, queries.ListForecastsQuery{VersionToken: "1", RawQuery: "$top=1&$select=summary", Cached: true})
		require.NoError(t, err)
		assert.True(t, result.Cached)
		require.Len(t, result.Result.Items, 3)
		assert.Len(t, result.Result.Items[0].Fields(), 4)
		for _, s := range summaries(t, result) {
			assert.Contains(t, forecast.Summaries, s)
		}
	})

	t.Run("Should report unresolved versions", func(t *testing.T) {
		_, err := h.Handle(ctx, queries.ListForecastsQuery{VersionToken: "v3"})
		assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnresolvedVersion))
	})
}

func TestListForecastsHandler_ThroughBus(t *testing.T) {
	b := bus.NewQueryBus()
	require.NoError(t, b.Register(queries.ListForecastsQuery{}, newTestHandler(t).AsQueryHandler()))

	out, err := b.Ask(context.Background(), queries.ListForecastsQuery{VersionToken: "1.0", RawQuery: "$top=2"})
	require.NoError(t, err)
	result, ok := out.(*queries.ListForecastsResult)
	require.True(t, ok)
	assert.Len(t, result.Result.Items, 2)

	_, err = b.Ask(context.Background(), queries.ListForecastsQuery{RawQuery: "$filter=nonexistentField eq 1"})
	require.Error(t, err)
	assert.Equal(t, "nonexistentField", pkgerrors.GetAppError(err).Field)

	_, err = b.Ask(context.Background(), queries.ListForecastsQuery{RawQuery: strings.Repeat("x", 5000)})
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeMalformedQuery))
}
