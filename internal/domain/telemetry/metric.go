// Package telemetry contains the performance telemetry domain model:
// per-request metric rows, rolling real-time aggregates, and alert rules.
package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// Metric is one row per render request. Rows are append-only, never
// updated, and retained for a rolling 30-day window. The field set is a
// stable contract consumed by downstream reporting.
type Metric struct {
	WidgetID    uuid.UUID `json:"widgetId"`
	Timestamp   time.Time `json:"timestamp"`
	RenderTime  int64     `json:"renderTime"` // milliseconds
	QueryTime   int64     `json:"queryTime"`  // milliseconds
	CacheHit    bool      `json:"cacheHit"`
	ContentSize int       `json:"contentSize"` // bytes
	ImageCount  int       `json:"imageCount"`
	ErrorCount  int       `json:"errorCount"`
	UserAgent   string    `json:"userAgent,omitempty"`
	Region      string    `json:"region,omitempty"`
	Viewport    string    `json:"viewport,omitempty"`
	Referrer    string    `json:"referrer,omitempty"`
}

// RetentionWindow is how long metric rows are kept before the external
// housekeeping job may delete them.
const RetentionWindow = 30 * 24 * time.Hour

// AlertRule holds per-widget alerting thresholds, owned by configuration
type AlertRule struct {
	WidgetID        uuid.UUID `json:"widgetId"`
	MaxRenderTime   int64     `json:"maxRenderTime"`   // milliseconds
	MinCacheHitRate float64   `json:"minCacheHitRate"` // 0..1
	MaxErrorRate    float64   `json:"maxErrorRate"`    // 0..1
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Health classifies the real-time state of a widget
type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthWarning  Health = "warning"
	HealthCritical Health = "critical"
)

// RealTimeMetrics is the per-widget rolling aggregate view. It is derived
// and lossy: it lives in the cache store and can be rebuilt from Metric
// rows if lost.
type RealTimeMetrics struct {
	WidgetID          uuid.UUID `json:"widgetId"`
	AvgRenderTime     float64   `json:"avgRenderTime"` // EMA, milliseconds
	CacheHitRate      float64   `json:"cacheHitRate"`  // EMA, 0..1
	ErrorRate         float64   `json:"errorRate"`     // EMA, 0..1
	RequestsPerSecond float64   `json:"requestsPerSecond"`
	WindowRequests    int64     `json:"windowRequests"`
	QueueLength       int64     `json:"queueLength"`
	Health            Health    `json:"health"`
}
