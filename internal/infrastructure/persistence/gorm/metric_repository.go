package gorm

import (
	"context"
	"errors"
	"time"

	"github.com/embedora/embedora/internal/domain/telemetry"
	"github.com/embedora/embedora/internal/ports/outbound"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetricRepository implements the metric repository using GORM
type MetricRepository struct {
	db *gorm.DB
}

// NewMetricRepository creates a new metric repository
func NewMetricRepository(db *gorm.DB) outbound.MetricRepository {
	return &MetricRepository{db: db}
}

// Save appends one metric row
func (r *MetricRepository) Save(ctx context.Context, m *telemetry.Metric) error {
	return r.db.WithContext(ctx).Create(MetricToModel(m)).Error
}

// FindByWidgetSince loads a widget's metric rows newer than since,
// oldest first.
func (r *MetricRepository) FindByWidgetSince(ctx context.Context, widgetID uuid.UUID, since time.Time) ([]telemetry.Metric, error) {
	var models []PerformanceMetricModel

	result := r.db.WithContext(ctx).
		Where("widget_id = ? AND timestamp >= ?", widgetID, since).
		Order("timestamp ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	return modelsToMetrics(models), nil
}

// FindSince loads all metric rows newer than since across every widget
func (r *MetricRepository) FindSince(ctx context.Context, since time.Time) ([]telemetry.Metric, error) {
	var models []PerformanceMetricModel

	result := r.db.WithContext(ctx).
		Where("timestamp >= ?", since).
		Order("timestamp ASC").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	return modelsToMetrics(models), nil
}

// DeleteOlderThan removes rows past the retention window and returns how
// many were deleted. Called by the housekeeping job.
func (r *MetricRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&PerformanceMetricModel{})
	return result.RowsAffected, result.Error
}

func modelsToMetrics(models []PerformanceMetricModel) []telemetry.Metric {
	metrics := make([]telemetry.Metric, len(models))
	for i := range models {
		metrics[i] = ModelToMetric(&models[i])
	}
	return metrics
}

// AlertRuleRepository implements the alert rule repository using GORM
type AlertRuleRepository struct {
	db *gorm.DB
}

// NewAlertRuleRepository creates a new alert rule repository
func NewAlertRuleRepository(db *gorm.DB) outbound.AlertRuleRepository {
	return &AlertRuleRepository{db: db}
}

// Upsert stores or replaces a widget's alert thresholds
func (r *AlertRuleRepository) Upsert(ctx context.Context, rule *telemetry.AlertRule) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "widget_id"}},
			UpdateAll: true,
		}).
		Create(AlertRuleToModel(rule)).Error
}

// FindByWidgetID returns a widget's alert rule, or nil when none is
// configured.
func (r *AlertRuleRepository) FindByWidgetID(ctx context.Context, widgetID uuid.UUID) (*telemetry.AlertRule, error) {
	var model AlertRuleModel

	result := r.db.WithContext(ctx).First(&model, "widget_id = ?", widgetID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return ModelToAlertRule(&model), nil
}
