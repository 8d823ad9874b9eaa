// Package testutils provides in-memory fakes for the outbound ports
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/embedora/embedora/internal/domain/telemetry"
	"github.com/embedora/embedora/internal/domain/widget"
	"github.com/embedora/embedora/internal/ports/outbound"
)

// FakeWidgetRepo is an in-memory WidgetConfigRepository
type FakeWidgetRepo struct {
	mu      sync.RWMutex
	configs map[uuid.UUID]*widget.Config

	// Err, when set, is returned by every call.
	Err error
}

// NewFakeWidgetRepo creates an empty fake widget repository
func NewFakeWidgetRepo() *FakeWidgetRepo {
	return &FakeWidgetRepo{configs: make(map[uuid.UUID]*widget.Config)}
}

// Put stores a widget config
func (r *FakeWidgetRepo) Put(cfg *widget.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[cfg.ID] = cfg
}

// FindByID implements outbound.WidgetConfigRepository
func (r *FakeWidgetRepo) FindByID(ctx context.Context, id uuid.UUID) (*widget.Config, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[id]
	if !ok {
		return nil, outbound.ErrNotFound
	}
	clone := *cfg
	return &clone, nil
}

// FakeBrandRepo is an in-memory BrandConfigRepository
type FakeBrandRepo struct {
	mu     sync.RWMutex
	brands map[uuid.UUID]*widget.BrandConfig

	Err error
}

// NewFakeBrandRepo creates an empty fake brand repository
func NewFakeBrandRepo() *FakeBrandRepo {
	return &FakeBrandRepo{brands: make(map[uuid.UUID]*widget.BrandConfig)}
}

// Put stores a brand config
func (r *FakeBrandRepo) Put(b *widget.BrandConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brands[b.WebsiteID] = b
}

// FindByWebsiteID implements outbound.BrandConfigRepository
func (r *FakeBrandRepo) FindByWebsiteID(ctx context.Context, websiteID uuid.UUID) (*widget.BrandConfig, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.brands[websiteID]
	if !ok {
		return nil, outbound.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

// FakeContentRepo is an in-memory ContentRepository. It serves its item
// slice with offset/limit pagination and records the last query so tests
// can assert on projection and paging parameters.
type FakeContentRepo struct {
	mu    sync.RWMutex
	items []widget.ContentItem

	LastQuery outbound.ContentQuery
	Calls     int
	Err       error
}

// NewFakeContentRepo creates a fake content repository serving the given items
func NewFakeContentRepo(items ...widget.ContentItem) *FakeContentRepo {
	return &FakeContentRepo{items: items}
}

// SetItems replaces the served item slice
func (r *FakeContentRepo) SetItems(items []widget.ContentItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = items
}

// FindPublished implements outbound.ContentRepository
func (r *FakeContentRepo) FindPublished(ctx context.Context, q outbound.ContentQuery) ([]widget.ContentItem, int, error) {
	r.mu.Lock()
	r.LastQuery = q
	r.Calls++
	items := r.items
	r.mu.Unlock()

	if r.Err != nil {
		return nil, 0, r.Err
	}

	total := len(items)
	if q.Offset >= total {
		return nil, total, nil
	}
	end := q.Offset + q.Limit
	if q.Limit <= 0 || end > total {
		end = total
	}
	page := make([]widget.ContentItem, end-q.Offset)
	copy(page, items[q.Offset:end])
	return page, total, nil
}

// FakeMetricRepo is an in-memory MetricRepository
type FakeMetricRepo struct {
	mu   sync.RWMutex
	rows []telemetry.Metric

	Err error
}

// NewFakeMetricRepo creates an empty fake metric repository
func NewFakeMetricRepo(rows ...telemetry.Metric) *FakeMetricRepo {
	return &FakeMetricRepo{rows: rows}
}

// Save implements outbound.MetricRepository
func (r *FakeMetricRepo) Save(ctx context.Context, m *telemetry.Metric) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *m)
	return nil
}

// FindByWidgetSince implements outbound.MetricRepository
func (r *FakeMetricRepo) FindByWidgetSince(ctx context.Context, widgetID uuid.UUID, since time.Time) ([]telemetry.Metric, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []telemetry.Metric
	for _, m := range r.rows {
		if m.WidgetID == widgetID && !m.Timestamp.Before(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

// FindSince implements outbound.MetricRepository
func (r *FakeMetricRepo) FindSince(ctx context.Context, since time.Time) ([]telemetry.Metric, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []telemetry.Metric
	for _, m := range r.rows {
		if !m.Timestamp.Before(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

// DeleteOlderThan implements outbound.MetricRepository
func (r *FakeMetricRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.Err != nil {
		return 0, r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0]
	var deleted int64
	for _, m := range r.rows {
		if m.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	r.rows = kept
	return deleted, nil
}

// Rows returns a copy of the stored metric rows
func (r *FakeMetricRepo) Rows() []telemetry.Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]telemetry.Metric, len(r.rows))
	copy(out, r.rows)
	return out
}

// FakeAlertRuleRepo is an in-memory AlertRuleRepository
type FakeAlertRuleRepo struct {
	mu    sync.RWMutex
	rules map[uuid.UUID]*telemetry.AlertRule

	Err error
}

// NewFakeAlertRuleRepo creates an empty fake alert rule repository
func NewFakeAlertRuleRepo() *FakeAlertRuleRepo {
	return &FakeAlertRuleRepo{rules: make(map[uuid.UUID]*telemetry.AlertRule)}
}

// Upsert implements outbound.AlertRuleRepository
func (r *FakeAlertRuleRepo) Upsert(ctx context.Context, rule *telemetry.AlertRule) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *rule
	r.rules[rule.WidgetID] = &clone
	return nil
}

// FindByWidgetID implements outbound.AlertRuleRepository
func (r *FakeAlertRuleRepo) FindByWidgetID(ctx context.Context, widgetID uuid.UUID) (*telemetry.AlertRule, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[widgetID]
	if !ok {
		return nil, nil
	}
	clone := *rule
	return &clone, nil
}

// RecordingMonitor captures Record calls so delivery tests can assert on
// the metric rows the engine reports
type RecordingMonitor struct {
	mu   sync.Mutex
	rows []telemetry.Metric
}

// NewRecordingMonitor creates an empty recording monitor
func NewRecordingMonitor() *RecordingMonitor {
	return &RecordingMonitor{}
}

// Record implements the metric sink used by the delivery engine
func (m *RecordingMonitor) Record(ctx context.Context, metric telemetry.Metric) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, metric)
}

// Recorded returns a copy of the captured metric rows
func (m *RecordingMonitor) Recorded() []telemetry.Metric {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]telemetry.Metric, len(m.rows))
	copy(out, m.rows)
	return out
}

// GetRealTimeMetrics is a stub satisfying inbound.MonitorService
func (m *RecordingMonitor) GetRealTimeMetrics(ctx context.Context, widgetID uuid.UUID) (*telemetry.RealTimeMetrics, error) {
	return &telemetry.RealTimeMetrics{WidgetID: widgetID, Health: telemetry.HealthHealthy}, nil
}

// GetPerformanceAnalytics is a stub satisfying inbound.MonitorService
func (m *RecordingMonitor) GetPerformanceAnalytics(ctx context.Context, widgetID uuid.UUID, period telemetry.Period) (*telemetry.Analytics, error) {
	return &telemetry.Analytics{WidgetID: widgetID, Period: period}, nil
}

// GetSystemOverview is a stub satisfying inbound.MonitorService
func (m *RecordingMonitor) GetSystemOverview(ctx context.Context) (*telemetry.SystemOverview, error) {
	return &telemetry.SystemOverview{}, nil
}

// SetupAlerts is a stub satisfying inbound.MonitorService
func (m *RecordingMonitor) SetupAlerts(ctx context.Context, rule telemetry.AlertRule) error {
	return nil
}
