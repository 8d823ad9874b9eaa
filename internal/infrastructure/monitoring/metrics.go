// Package monitoring provides Prometheus metrics collection for the
// delivery pipeline.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger *zap.Logger

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Delivery metrics
	rendersTotal       *prometheus.CounterVec
	renderDuration     *prometheus.HistogramVec
	contentQueryTime   prometheus.Histogram
	deliveredBytes     prometheus.Counter
	invalidationsTotal *prometheus.CounterVec

	// Cache metrics
	cacheOperations *prometheus.CounterVec
	cacheHitRatio   *prometheus.GaugeVec

	// Telemetry ingest metrics
	metricsIngested prometheus.Counter
	ingestFailures  prometheus.Counter
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	return &MetricsCollector{
		logger: logger,

		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		httpResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		rendersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "widget_renders_total",
				Help: "Total number of widget render requests",
			},
			[]string{"format", "cache"},
		),
		renderDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "widget_render_duration_seconds",
				Help:    "Widget render duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.3, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"cache"},
		),
		contentQueryTime: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "widget_content_query_duration_seconds",
				Help:    "Content query duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.5, 1.0},
			},
		),
		deliveredBytes: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "widget_delivered_bytes_total",
				Help: "Total bytes of widget content delivered",
			},
		),
		invalidationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "widget_cache_invalidations_total",
				Help: "Total number of cache invalidation calls",
			},
			[]string{"scope"},
		),

		cacheOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_operations_total",
				Help: "Total number of cache operations",
			},
			[]string{"operation", "status"},
		),
		cacheHitRatio: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cache_hit_ratio",
				Help: "Cache hit ratio by layer",
			},
			[]string{"layer"},
		),

		metricsIngested: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "performance_metrics_ingested_total",
				Help: "Total number of performance metric rows ingested",
			},
		),
		ingestFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "performance_metrics_ingest_failures_total",
				Help: "Total number of failed metric ingest attempts",
			},
		),
	}
}

// HTTPMiddleware returns a gin middleware that records request metrics
func (m *MetricsCollector) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		m.httpResponseSize.WithLabelValues(c.Request.Method, path).Observe(float64(c.Writer.Size()))
	}
}

// WidgetRendered records one completed render
func (m *MetricsCollector) WidgetRendered(format string, cacheHit bool, renderTime, queryTime time.Duration, contentSize int) {
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	m.rendersTotal.WithLabelValues(format, cache).Inc()
	m.renderDuration.WithLabelValues(cache).Observe(renderTime.Seconds())
	if !cacheHit {
		m.contentQueryTime.Observe(queryTime.Seconds())
	}
	m.deliveredBytes.Add(float64(contentSize))
}

// CacheInvalidated records one invalidation call
func (m *MetricsCollector) CacheInvalidated(scope string) {
	m.invalidationsTotal.WithLabelValues(scope).Inc()
}

// CacheOperation records one cache store operation
func (m *MetricsCollector) CacheOperation(operation, status string) {
	m.cacheOperations.WithLabelValues(operation, status).Inc()
}

// UpdateCacheHitRatio sets the observed hit ratio of a cache layer
func (m *MetricsCollector) UpdateCacheHitRatio(layer string, ratio float64) {
	m.cacheHitRatio.WithLabelValues(layer).Set(ratio)
}

// MetricIngested records one accepted telemetry row
func (m *MetricsCollector) MetricIngested() {
	m.metricsIngested.Inc()
}

// MetricIngestFailed records one rejected telemetry row
func (m *MetricsCollector) MetricIngestFailed() {
	m.ingestFailures.Inc()
}

// Handler returns the Prometheus scrape endpoint handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.Handler()
}
