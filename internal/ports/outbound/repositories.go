// Package outbound defines the outbound ports (driven adapters) of the
// delivery core: relational repositories and the cache store.
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/embedora/embedora/internal/domain/telemetry"
	"github.com/embedora/embedora/internal/domain/widget"

	"github.com/google/uuid"
)

// WidgetConfigRepository reads widget configuration. Configuration is
// owned by an external service; this core never writes it.
type WidgetConfigRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*widget.Config, error)
}

// BrandConfigRepository reads per-site brand themes
type BrandConfigRepository interface {
	FindByWebsiteID(ctx context.Context, websiteID uuid.UUID) (*widget.BrandConfig, error)
}

// ContentQuery describes a published-content lookup. Projection selects
// only the columns the widget's display toggles imply.
type ContentQuery struct {
	WebsiteID  uuid.UUID
	Projection widget.DisplayToggles
	Filters    widget.ContentFilters

	// IncludeBody selects the full body column, needed only for
	// single-content rendering.
	IncludeBody bool

	// Request-level runtime filters.
	Search   string
	Category string // single category slug
	Tag      string // single tag slug
	Sort     string

	Offset int
	Limit  int
}

// ContentRepository reads published content rows
type ContentRepository interface {
	FindPublished(ctx context.Context, q ContentQuery) ([]widget.ContentItem, int, error)
}

// MetricRepository persists and reads performance metric rows
type MetricRepository interface {
	Save(ctx context.Context, m *telemetry.Metric) error
	FindByWidgetSince(ctx context.Context, widgetID uuid.UUID, since time.Time) ([]telemetry.Metric, error)
	FindSince(ctx context.Context, since time.Time) ([]telemetry.Metric, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AlertRuleRepository stores per-widget alert thresholds
type AlertRuleRepository interface {
	Upsert(ctx context.Context, rule *telemetry.AlertRule) error
	FindByWidgetID(ctx context.Context, widgetID uuid.UUID) (*telemetry.AlertRule, error)
}

// ErrNotFound is returned by repositories when a requested row is absent
var ErrNotFound = errors.New("record not found")

// ErrCacheMiss is returned by CacheStore.Get when a key is absent
var ErrCacheMiss = errors.New("cache: key not found")

// CacheStore is the key/value store shared by the delivery engine and the
// performance monitor. Implementations must keep every operation bounded
// by a timeout; no caller may block indefinitely on the store.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// DeleteByPrefix removes every key starting with prefix and returns
	// how many were deleted.
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)

	// Hash primitives back the rolling real-time aggregates.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, fields map[string]interface{}, ttl time.Duration) error

	// Sorted-set primitives back the sliding request window.
	ZAdd(ctx context.Context, key string, score float64, member string, ttl time.Duration) error
	ZRemRangeByScore(ctx context.Context, key string, min, max string) error
	ZCard(ctx context.Context, key string) (int64, error)
}
