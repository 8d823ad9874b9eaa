package monitor

import (
	"context"
	"time"

	"github.com/embedora/embedora/internal/domain/telemetry"
	apperrors "github.com/embedora/embedora/pkg/errors"

	"go.uber.org/zap"
)

// SetupAlerts stores or replaces the alert thresholds of one widget
func (s *Service) SetupAlerts(ctx context.Context, rule telemetry.AlertRule) error {
	if rule.MaxRenderTime < 0 {
		return apperrors.NewBadRequestError("max render time must not be negative")
	}
	if rule.MinCacheHitRate < 0 || rule.MinCacheHitRate > 1 {
		return apperrors.NewBadRequestError("min cache hit rate must be between 0 and 1")
	}
	if rule.MaxErrorRate < 0 || rule.MaxErrorRate > 1 {
		return apperrors.NewBadRequestError("max error rate must be between 0 and 1")
	}

	rule.UpdatedAt = time.Now().UTC()
	if err := s.rules.Upsert(ctx, &rule); err != nil {
		return apperrors.NewDatabaseError("upsert alert rule", err)
	}

	s.logger.Info("alert thresholds configured",
		zap.String("widget_id", rule.WidgetID.String()),
		zap.Int64("max_render_time_ms", rule.MaxRenderTime),
		zap.Float64("min_cache_hit_rate", rule.MinCacheHitRate),
		zap.Float64("max_error_rate", rule.MaxErrorRate),
	)
	return nil
}

// evaluateAlerts checks the sample against the widget's thresholds, if
// any are configured. Alerts are emitted through structured logging; a
// notification channel can subscribe to these entries downstream.
func (s *Service) evaluateAlerts(ctx context.Context, m telemetry.Metric) {
	rule, err := s.rules.FindByWidgetID(ctx, m.WidgetID)
	if err != nil {
		s.logger.Warn("failed to load alert rule", zap.Error(err))
		return
	}
	if rule == nil {
		return
	}

	if rule.MaxRenderTime > 0 && m.RenderTime > rule.MaxRenderTime {
		s.logger.Warn("performance alert: render time threshold exceeded",
			zap.String("widget_id", m.WidgetID.String()),
			zap.Int64("render_time_ms", m.RenderTime),
			zap.Int64("threshold_ms", rule.MaxRenderTime),
		)
	}

	if rule.MaxErrorRate > 0 && m.ErrorCount > 0 {
		s.logger.Warn("performance alert: render errors observed",
			zap.String("widget_id", m.WidgetID.String()),
			zap.Int("error_count", m.ErrorCount),
		)
	}

	if rule.MinCacheHitRate > 0 {
		aggregate, err := s.store.HGetAll(ctx, s.keys.RealTimeKey(m.WidgetID))
		if err != nil {
			return
		}
		if hitRate := parseFloat(aggregate[fieldCacheHitRate]); parseInt(aggregate[fieldSamples]) > 0 && hitRate < rule.MinCacheHitRate {
			s.logger.Warn("performance alert: cache hit rate below threshold",
				zap.String("widget_id", m.WidgetID.String()),
				zap.Float64("cache_hit_rate", hitRate),
				zap.Float64("threshold", rule.MinCacheHitRate),
			)
		}
	}
}
