package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector("forecast")

	t.Run("Should count directives by action", func(t *testing.T) {
		c.RecordDirective("2.0", "top", "clamped")
		c.RecordDirective("2.0", "top", "clamped")
		assert.Equal(t, 2.0, testutil.ToFloat64(c.Directives.WithLabelValues("2.0", "top", "clamped")))
	})

	t.Run("Should implement the bus metrics", func(t *testing.T) {
		c.Increment("query_count", "ListForecastsQuery")
		c.StartTimer("query_duration", "ListForecastsQuery").Stop()
		assert.Equal(t, 1.0, testutil.ToFloat64(c.BusQueries.WithLabelValues("query_count", "ListForecastsQuery")))
	})

	t.Run("Should expose the registry over HTTP", func(t *testing.T) {
		c.RecordHTTPRequest(http.MethodGet, "/api/{version}/weatherforecast", 200, 5*time.Millisecond)
		c.RecordQueryError("UnknownField")
		c.RecordVersion("1.0")

		rec := httptest.NewRecorder()
		c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `forecast_http_requests_total{method="GET",route="/api/{version}/weatherforecast",status="200"} 1`)
		assert.Contains(t, body, `forecast_query_errors_total{kind="UnknownField"} 1`)
		assert.Contains(t, body, `forecast_api_version_requests_total{version="1.0"} 1`)
	})

	t.Run("Should allow independent collectors", func(t *testing.T) {
		assert.NotPanics(t, func() { NewCollector("forecast") })
	})
}
