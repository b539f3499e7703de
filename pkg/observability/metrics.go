package observability

import (
	"net/http"
	"strconv"
	"time"

	"forecast-backend/application/queries/bus"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	VersionRequests *prometheus.CounterVec

	// Query pipeline metrics
	Directives  *prometheus.CounterVec
	QueryErrors *prometheus.CounterVec

	// Query bus metrics
	BusQueries  *prometheus.CounterVec
	BusDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry, so several
// collectors can coexist in one process.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		VersionRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_version_requests_total",
				Help:      "Requests served per resolved API version",
			},
			[]string{"version"},
		),
		Directives: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_directives_total",
				Help:      "Query directives by version and what the pipeline did with them",
			},
			[]string{"version", "directive", "action"},
		),
		QueryErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_errors_total",
				Help:      "Rejected queries by error kind",
			},
			[]string{"kind"},
		),
		BusQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bus_queries_total",
				Help:      "Query bus dispatches by outcome",
			},
			[]string{"metric", "query"},
		),
		BusDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "bus_query_duration_seconds",
				Help:      "Query bus handler duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.VersionRequests,
		c.Directives,
		c.QueryErrors,
		c.BusQueries,
		c.BusDuration,
	)
	return c
}

// RecordHTTPRequest records one completed request.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordVersion counts a request served by the given version.
func (c *Collector) RecordVersion(version string) {
	c.VersionRequests.WithLabelValues(version).Inc()
}

// RecordDirective implements query.Recorder.
func (c *Collector) RecordDirective(version, directive, action string) {
	c.Directives.WithLabelValues(version, directive, action).Inc()
}

// RecordQueryError counts a rejected query by kind.
func (c *Collector) RecordQueryError(kind string) {
	c.QueryErrors.WithLabelValues(kind).Inc()
}

// Increment implements bus.Metrics.
func (c *Collector) Increment(metric, label string) {
	c.BusQueries.WithLabelValues(metric, label).Inc()
}

// StartTimer implements bus.Metrics.
func (c *Collector) StartTimer(metric, label string) bus.Timer {
	return &timer{observer: c.BusDuration.WithLabelValues(label), start: time.Now()}
}

type timer struct {
	observer prometheus.Observer
	start    time.Time
}

func (t *timer) Stop() {
	t.observer.Observe(time.Since(t.start).Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
