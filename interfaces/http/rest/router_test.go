package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"forecast-backend/infrastructure/config"
	"forecast-backend/infrastructure/di"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorBody struct {
	ErrorKind string `json:"errorKind"`
	Message   string `json:"message"`
	Field     string `json:"field"`
	RequestID string `json:"requestId"`
}

func newServer(t *testing.T, mutate func(c *config.Config)) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.LogLevel = "error"
	cfg.Forecast.Seed = 7
	cfg.Features.EnableMetrics = true
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	container, err := di.InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	return container.Router.Setup()
}

func get(t *testing.T, h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeItems(t *testing.T, rec *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items), rec.Body.String())
	return items
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestRouter_VersionResolution(t *testing.T) {
	h := newServer(t, nil)

	t.Run("Should serve a registered version with version headers", func(t *testing.T) {
		rec := get(t, h, "/api/v1/weatherforecast")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "1.0, 2.0", rec.Header().Get("api-supported-versions"))
		assert.Empty(t, rec.Header().Get("api-deprecated-versions"))

		items := decodeItems(t, rec)
		require.Len(t, items, 5)
		for _, item := range items {
			assert.True(t, strings.HasPrefix(item["summary"].(string), "1.0"))
			assert.Contains(t, item, "temperatureFahrenheit")
		}
	})

	t.Run("Should reject an unknown version and still report versions", func(t *testing.T) {
		rec := get(t, h, "/api/v3/weatherforecast")

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "1.0, 2.0", rec.Header().Get("api-supported-versions"))
		body := decodeError(t, rec)
		assert.Equal(t, "UnresolvedVersion", body.ErrorKind)
		assert.Equal(t, "v3", body.Field)
	})

	t.Run("Should use the default version when none is given", func(t *testing.T) {
		items := decodeItems(t, get(t, h, "/api/weatherforecast"))
		require.NotEmpty(t, items)
		assert.True(t, strings.HasPrefix(items[0]["summary"].(string), "1.0"))
	})

	t.Run("Should read the version from the query string", func(t *testing.T) {
		items := decodeItems(t, get(t, h, "/api/weatherforecast?api-version=2.0"))
		require.NotEmpty(t, items)
		assert.True(t, strings.HasPrefix(items[0]["summary"].(string), "2.0"))
	})

	t.Run("Should read the version from the header", func(t *testing.T) {
		items := decodeItems(t, get(t, h, "/api/weatherforecast", "api-version", "2"))
		require.NotEmpty(t, items)
		assert.True(t, strings.HasPrefix(items[0]["summary"].(string), "2.0"))
	})

	t.Run("Should list deprecated versions separately", func(t *testing.T) {
		dh := newServer(t, func(c *config.Config) { c.Versions[0].Deprecated = true })
		rec := get(t, dh, "/api/v2/weatherforecast")

		assert.Equal(t, "2.0", rec.Header().Get("api-supported-versions"))
		assert.Equal(t, "1.0", rec.Header().Get("api-deprecated-versions"))
	})
}

func TestRouter_NoDefaultVersion(t *testing.T) {
	h := newServer(t, func(c *config.Config) { c.Query.AssumeDefaultVersion = false })

	rec := get(t, h, "/api/weatherforecast")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "UnresolvedVersion", decodeError(t, rec).ErrorKind)
}

func TestRouter_QueryOptions(t *testing.T) {
	h := newServer(t, func(c *config.Config) { c.Query.MaxTop = 3 })

	t.Run("Should clamp top to the configured maximum", func(t *testing.T) {
		assert.Len(t, decodeItems(t, get(t, h, "/api/v1/weatherforecast?$top=9999")), 3)
	})

	t.Run("Should apply the maximum when top is absent", func(t *testing.T) {
		assert.Len(t, decodeItems(t, get(t, h, "/api/v1/weatherforecast")), 3)
	})

	t.Run("Should honour a smaller top and skip", func(t *testing.T) {
		all := decodeItems(t, get(t, h, "/api/v1/weatherforecast"))
		page := decodeItems(t, get(t, h, "/api/v1/weatherforecast?$skip=1&$top=1"))
		require.Len(t, page, 1)
		assert.Equal(t, all[1], page[0])
	})

	t.Run("Should ignore client pagination on the rewrite variant", func(t *testing.T) {
		assert.Len(t, decodeItems(t, get(t, h, "/api/v2/weatherforecast?$top=2&$skip=1")), 3)
	})

	t.Run("Should order descending", func(t *testing.T) {
		hAll := newServer(t, nil)
		items := decodeItems(t, get(t, hAll, "/api/v1/weatherforecast?$orderby=temperatureCelsius%20desc"))
		temps := make([]float64, len(items))
		for i, item := range items {
			temps[i] = item["temperatureCelsius"].(float64)
		}
		assert.True(t, sort.SliceIsSorted(temps, func(i, j int) bool { return temps[i] > temps[j] }))
	})

	t.Run("Should project selected fields in order", func(t *testing.T) {
		rec := get(t, h, "/api/v1/weatherforecast?$select=summary,date")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Body.String(), `[{"summary":`), rec.Body.String())
		for _, item := range decodeItems(t, rec) {
			assert.Len(t, item, 2)
		}
	})

	t.Run("Should wrap items with the total count", func(t *testing.T) {
		rec := get(t, h, "/api/v1/weatherforecast?$count=true&$top=2")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Items      []map[string]interface{} `json:"items"`
			TotalCount int                      `json:"totalCount"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Len(t, body.Items, 2)
		assert.Equal(t, 5, body.TotalCount)
	})

	t.Run("Should filter records", func(t *testing.T) {
		items := decodeItems(t, get(t, h, "/api/v1/weatherforecast?$filter=temperatureCelsius%20gt%20100"))
		assert.Empty(t, items)
	})

	t.Run("Should return the same body for the same request", func(t *testing.T) {
		target := "/api/v1/weatherforecast?$orderby=summary&$select=summary,temperatureCelsius"
		first := get(t, h, target).Body.String()
		assert.Equal(t, first, get(t, h, target).Body.String())
	})
}

func TestRouter_QueryErrors(t *testing.T) {
	h := newServer(t, nil)

	tests := []struct {
		name   string
		target string
		kind   string
		field  string
	}{
		{name: "negative top", target: "/api/v1/weatherforecast?$top=-1", kind: "MalformedQuery", field: "$top"},
		{name: "non numeric top", target: "/api/v1/weatherforecast?$top=abc", kind: "MalformedQuery", field: "$top"},
		{name: "bad count", target: "/api/v1/weatherforecast?$count=yes", kind: "MalformedQuery", field: "$count"},
		{name: "unknown select field", target: "/api/v1/weatherforecast?$select=humidity", kind: "UnknownField", field: "humidity"},
		{name: "unknown order field", target: "/api/v1/weatherforecast?$orderby=humidity", kind: "UnknownField", field: "humidity"},
		{name: "filter type mismatch", target: "/api/v1/weatherforecast?$filter=summary%20eq%205", kind: "InvalidFilterExpression", field: "summary"},
		{name: "unsupported key on v2", target: "/api/v2/weatherforecast?$expand=x", kind: "MalformedQuery", field: "$expand"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)

			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "1.0, 2.0", rec.Header().Get("api-supported-versions"))
			body := decodeError(t, rec)
			assert.Equal(t, tt.kind, body.ErrorKind)
			assert.Equal(t, tt.field, body.Field)
			assert.NotEmpty(t, body.Message)
		})
	}

	t.Run("Should ignore keys the version does not reject", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, get(t, h, "/api/v1/weatherforecast?$expand=x").Code)
	})

	t.Run("Should echo the request id in error bodies", func(t *testing.T) {
		rec := get(t, h, "/api/v1/weatherforecast?$top=-1", "X-Request-ID", "req-123")
		assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
		assert.Equal(t, "req-123", decodeError(t, rec).RequestID)
	})
}

func TestRouter_CachedVariant(t *testing.T) {
	h := newServer(t, nil)

	rec := get(t, h, "/api/v1/weatherforecast/cached?$top=1&$filter=nonsense")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public,max-age=60", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "1.0, 2.0", rec.Header().Get("api-supported-versions"))

	items := decodeItems(t, rec)
	require.Len(t, items, 5)
	for _, item := range items {
		assert.False(t, strings.HasPrefix(item["summary"].(string), "1.0"))
	}

	t.Run("Should reject an unknown version", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(t, h, "/api/v9/weatherforecast/cached").Code)
	})

	t.Run("Should cap the cached collection at the page ceiling", func(t *testing.T) {
		large := newServer(t, func(c *config.Config) { c.Forecast.Count = 50 })

		assert.Len(t, decodeItems(t, get(t, large, "/api/v1/weatherforecast/cached")), 10)
		assert.Len(t, decodeItems(t, get(t, large, "/api/v1/weatherforecast")), 10)
	})
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	h := newServer(t, nil)

	t.Run("Should report health and readiness", func(t *testing.T) {
		assert.JSONEq(t, `{"status":"healthy"}`, get(t, h, "/health").Body.String())
		assert.JSONEq(t, `{"status":"ready"}`, get(t, h, "/ready").Body.String())
	})

	t.Run("Should expose metrics", func(t *testing.T) {
		get(t, h, "/api/v1/weatherforecast?$top=2")
		get(t, h, "/api/v1/weatherforecast?$top=-2")

		body := get(t, h, "/metrics").Body.String()
		assert.Contains(t, body, "forecast_http_requests_total")
		assert.Contains(t, body, `forecast_api_version_requests_total{version="1.0"}`)
		assert.Contains(t, body, `forecast_query_errors_total{kind="MalformedQuery"}`)
	})

	t.Run("Should serve swagger documents per version", func(t *testing.T) {
		rec := get(t, h, "/swagger/v2/swagger.json")
		require.Equal(t, http.StatusOK, rec.Code)

		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		assert.Equal(t, "2.0", doc["swagger"])
		assert.Equal(t, "/api/v2", doc["basePath"])

		assert.Equal(t, http.StatusNotFound, get(t, h, "/swagger/v9/swagger.json").Code)
	})

	t.Run("Should return a structured body for unknown routes", func(t *testing.T) {
		rec := get(t, h, "/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NotFound", decodeError(t, rec).ErrorKind)
	})
}
