// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"

	"github.com/embedora/embedora/internal/domain/telemetry"
	"github.com/embedora/embedora/internal/domain/widget"

	"github.com/google/uuid"
)

// DeliveryService is the rendering entry point used by HTTP handlers and
// the content/brand management hooks.
type DeliveryService interface {
	// Deliver renders a widget for one request shape, serving from cache
	// when possible.
	Deliver(ctx context.Context, widgetID uuid.UUID, opts widget.RenderOptions) (*widget.DeliveryResponse, error)

	// InvalidateWidgetCache drops every cached artifact of one widget.
	// Called by the content management service on content or config mutation.
	InvalidateWidgetCache(ctx context.Context, widgetID uuid.UUID) error

	// InvalidateBrandCache drops the brand config of one site along with
	// derived CSS artifacts. Called by the brand management service.
	InvalidateBrandCache(ctx context.Context, websiteID uuid.UUID) error
}

// MonitorService is the telemetry sink and observability surface
type MonitorService interface {
	// Record ingests one per-request metric. Fire-and-forget: the call
	// never returns an error to the render path.
	Record(ctx context.Context, m telemetry.Metric)

	GetRealTimeMetrics(ctx context.Context, widgetID uuid.UUID) (*telemetry.RealTimeMetrics, error)
	GetPerformanceAnalytics(ctx context.Context, widgetID uuid.UUID, period telemetry.Period) (*telemetry.Analytics, error)
	GetSystemOverview(ctx context.Context) (*telemetry.SystemOverview, error)
	SetupAlerts(ctx context.Context, rule telemetry.AlertRule) error
}
