package monitor

import (
	"context"
	"net/url"
	"sort"
	"time"

	"github.com/embedora/embedora/internal/domain/telemetry"
	apperrors "github.com/embedora/embedora/pkg/errors"

	"github.com/google/uuid"
)

// GetPerformanceAnalytics computes the historical report for one widget
// over a period. A widget with no rows in range gets an explicit empty
// report, never an error.
func (s *Service) GetPerformanceAnalytics(ctx context.Context, widgetID uuid.UUID, period telemetry.Period) (*telemetry.Analytics, error) {
	if !period.Valid() {
		return nil, apperrors.NewBadRequestError("unsupported analytics period: " + string(period))
	}

	since := time.Now().UTC().Add(-period.Window())
	rows, err := s.metrics.FindByWidgetSince(ctx, widgetID, since)
	if err != nil {
		return nil, apperrors.NewDatabaseError("load metric rows", err)
	}

	if len(rows) == 0 {
		return emptyAnalytics(widgetID, period), nil
	}

	a := &telemetry.Analytics{
		WidgetID:      widgetID,
		Period:        period,
		TotalRequests: len(rows),
		Regions:       make(map[string]telemetry.BreakdownBucket),
		Viewports:     make(map[string]telemetry.BreakdownBucket),
		Referrers:     make(map[string]telemetry.BreakdownBucket),
	}

	renderTimes := make([]float64, 0, len(rows))
	var renderSum float64
	var hits, errors int
	visitors := make(map[string]struct{})

	for _, m := range rows {
		rt := float64(m.RenderTime)
		renderTimes = append(renderTimes, rt)
		renderSum += rt
		if m.CacheHit {
			hits++
		}
		if m.ErrorCount > 0 {
			errors++
		}
		if m.Referrer != "" {
			visitors[m.Referrer] = struct{}{}
		}

		addBucket(a.Regions, m.Region, rt)
		addBucket(a.Viewports, m.Viewport, rt)
		addBucket(a.Referrers, referrerHost(m.Referrer), rt)
	}

	n := float64(len(rows))
	a.AvgRenderTime = renderSum / n
	a.P95RenderTime = percentile(renderTimes, 0.95)
	a.CacheHitRate = float64(hits) / n
	a.ErrorRate = float64(errors) / n
	a.RequestsPerMinute = n / period.Window().Minutes()
	a.UniqueVisitors = len(visitors)
	a.Trend = buildTrend(rows, since, period.BucketWidth())
	a.Recommendations = analyticsRecommendations(a)

	return a, nil
}

// GetSystemOverview aggregates the last 24 hours across all widgets and
// ranks widgets with at least 10 requests by average render time. Widgets
// below the sample floor are excluded from both rankings so low-traffic
// noise never dominates.
func (s *Service) GetSystemOverview(ctx context.Context) (*telemetry.SystemOverview, error) {
	const sampleFloor = 10
	const rankSize = 5

	rows, err := s.metrics.FindSince(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		return nil, apperrors.NewDatabaseError("load metric rows", err)
	}

	type acc struct {
		requests  int
		renderSum float64
		hits      int
		errors    int
	}
	perWidget := make(map[uuid.UUID]*acc)
	for _, m := range rows {
		a := perWidget[m.WidgetID]
		if a == nil {
			a = &acc{}
			perWidget[m.WidgetID] = a
		}
		a.requests++
		a.renderSum += float64(m.RenderTime)
		if m.CacheHit {
			a.hits++
		}
		if m.ErrorCount > 0 {
			a.errors++
		}
	}

	overview := &telemetry.SystemOverview{
		TotalRequests: len(rows),
		ActiveWidgets: len(perWidget),
		TopPerformers: []telemetry.WidgetRank{},
		Slowest:       []telemetry.WidgetRank{},
	}
	if len(rows) == 0 {
		return overview, nil
	}

	var renderSum float64
	var hits, errors int
	var ranked []telemetry.WidgetRank
	for id, a := range perWidget {
		renderSum += a.renderSum
		hits += a.hits
		errors += a.errors
		if a.requests >= sampleFloor {
			ranked = append(ranked, telemetry.WidgetRank{
				WidgetID:      id,
				Requests:      a.requests,
				AvgRenderTime: a.renderSum / float64(a.requests),
				CacheHitRate:  float64(a.hits) / float64(a.requests),
			})
		}
	}

	n := float64(len(rows))
	overview.AvgRenderTime = renderSum / n
	overview.CacheHitRate = float64(hits) / n
	overview.ErrorRate = float64(errors) / n

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].AvgRenderTime < ranked[j].AvgRenderTime
	})
	overview.TopPerformers = append(overview.TopPerformers, ranked[:min(rankSize, len(ranked))]...)
	for i := len(ranked) - 1; i >= 0 && len(overview.Slowest) < rankSize; i-- {
		overview.Slowest = append(overview.Slowest, ranked[i])
	}

	return overview, nil
}

func emptyAnalytics(widgetID uuid.UUID, period telemetry.Period) *telemetry.Analytics {
	return &telemetry.Analytics{
		WidgetID:        widgetID,
		Period:          period,
		Trend:           []telemetry.TrendPoint{},
		Regions:         map[string]telemetry.BreakdownBucket{},
		Viewports:       map[string]telemetry.BreakdownBucket{},
		Referrers:       map[string]telemetry.BreakdownBucket{},
		Recommendations: []string{"No data available for this period"},
	}
}

func analyticsRecommendations(a *telemetry.Analytics) []string {
	var recs []string
	if a.AvgRenderTime > 500 {
		recs = append(recs, "Average render time exceeds 500ms; enable more optimization passes or reduce items per page")
	}
	if a.CacheHitRate < 0.8 {
		recs = append(recs, "Cache hit rate is below 80%; consider longer content TTLs or fewer distinct request shapes")
	}
	if a.ErrorRate > 0.05 {
		recs = append(recs, "Error rate exceeds 5%; inspect recent render failures for this widget")
	}
	if a.TotalRequests < 100 {
		recs = append(recs, "Low traffic volume; analytics may not be statistically significant")
	}
	return recs
}

// percentile returns the pth percentile of values using the sorted-array
// nearest-rank method. Mutates its argument's order.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	idx := int(p * float64(len(values)))
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return values[idx]
}

func buildTrend(rows []telemetry.Metric, since time.Time, width time.Duration) []telemetry.TrendPoint {
	type bucket struct {
		requests  int
		renderSum float64
	}
	buckets := make(map[int64]*bucket)
	for _, m := range rows {
		slot := int64(m.Timestamp.Sub(since) / width)
		if slot < 0 {
			slot = 0
		}
		b := buckets[slot]
		if b == nil {
			b = &bucket{}
			buckets[slot] = b
		}
		b.requests++
		b.renderSum += float64(m.RenderTime)
	}

	slots := make([]int64, 0, len(buckets))
	for slot := range buckets {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })

	trend := make([]telemetry.TrendPoint, 0, len(slots))
	for _, slot := range slots {
		b := buckets[slot]
		trend = append(trend, telemetry.TrendPoint{
			Start:         since.Add(time.Duration(slot) * width),
			Requests:      b.requests,
			AvgRenderTime: b.renderSum / float64(b.requests),
		})
	}
	return trend
}

func addBucket(m map[string]telemetry.BreakdownBucket, key string, renderTime float64) {
	if key == "" {
		key = "unknown"
	}
	b := m[key]
	// Running average so the bucket never needs a second pass.
	b.AvgRenderTime = (b.AvgRenderTime*float64(b.Requests) + renderTime) / float64(b.Requests+1)
	b.Requests++
	m[key] = b
}

func referrerHost(referrer string) string {
	if referrer == "" {
		return ""
	}
	u, err := url.Parse(referrer)
	if err != nil || u.Host == "" {
		return referrer
	}
	return u.Host
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
