package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// Period is a historical analytics window
type Period string

const (
	Period1h  Period = "1h"
	Period24h Period = "24h"
	Period7d  Period = "7d"
	Period30d Period = "30d"
)

// Valid reports whether the period is one of the supported windows
func (p Period) Valid() bool {
	switch p {
	case Period1h, Period24h, Period7d, Period30d:
		return true
	}
	return false
}

// Window returns the period's duration
func (p Period) Window() time.Duration {
	switch p {
	case Period1h:
		return time.Hour
	case Period7d:
		return 7 * 24 * time.Hour
	case Period30d:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// BucketWidth returns the trend bucket size for the period, chosen so a
// bounded number of points comes back regardless of window length.
func (p Period) BucketWidth() time.Duration {
	switch p {
	case Period1h:
		return 5 * time.Minute // 12 points
	case Period7d:
		return 6 * time.Hour // 28 points
	case Period30d:
		return 24 * time.Hour // 30 points
	default:
		return time.Hour // 24 points
	}
}

// TrendPoint is one time bucket of the analytics trend series
type TrendPoint struct {
	Start         time.Time `json:"start"`
	Requests      int       `json:"requests"`
	AvgRenderTime float64   `json:"avgRenderTime"`
}

// BreakdownBucket aggregates requests sharing one dimension value
type BreakdownBucket struct {
	Requests      int     `json:"requests"`
	AvgRenderTime float64 `json:"avgRenderTime"`
}

// Analytics is the historical performance report for one widget
type Analytics struct {
	WidgetID          uuid.UUID                  `json:"widgetId"`
	Period            Period                     `json:"period"`
	TotalRequests     int                        `json:"totalRequests"`
	AvgRenderTime     float64                    `json:"avgRenderTime"`
	P95RenderTime     float64                    `json:"p95RenderTime"`
	CacheHitRate      float64                    `json:"cacheHitRate"`
	ErrorRate         float64                    `json:"errorRate"`
	RequestsPerMinute float64                    `json:"requestsPerMinute"`
	UniqueVisitors    int                        `json:"uniqueVisitors"`
	Trend             []TrendPoint               `json:"trend"`
	Regions           map[string]BreakdownBucket `json:"regions"`
	Viewports         map[string]BreakdownBucket `json:"viewports"`
	Referrers         map[string]BreakdownBucket `json:"referrers"`
	Recommendations   []string                   `json:"recommendations"`
}

// WidgetRank is one entry in a system-wide widget ranking
type WidgetRank struct {
	WidgetID      uuid.UUID `json:"widgetId"`
	Requests      int       `json:"requests"`
	AvgRenderTime float64   `json:"avgRenderTime"`
	CacheHitRate  float64   `json:"cacheHitRate"`
}

// SystemOverview aggregates the last 24 hours across all widgets
type SystemOverview struct {
	TotalRequests int          `json:"totalRequests"`
	ActiveWidgets int          `json:"activeWidgets"`
	AvgRenderTime float64      `json:"avgRenderTime"`
	CacheHitRate  float64      `json:"cacheHitRate"`
	ErrorRate     float64      `json:"errorRate"`
	TopPerformers []WidgetRank `json:"topPerformers"`
	Slowest       []WidgetRank `json:"slowest"`
}
