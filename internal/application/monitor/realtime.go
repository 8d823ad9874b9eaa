package monitor

import (
	"context"
	"strconv"
	"time"

	"github.com/embedora/embedora/internal/domain/telemetry"
	apperrors "github.com/embedora/embedora/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Health classification thresholds. Critical dominates warning; a widget
// with no recent traffic is healthy.
const (
	criticalErrorRate   = 0.1
	criticalRenderTime  = 2000 // milliseconds
	criticalQueueLength = 100

	warningErrorRate   = 0.05
	warningRenderTime  = 1000
	warningQueueLength = 50
)

// GetRealTimeMetrics reads the rolling aggregate and the sliding-window
// request count and derives requests-per-second over the window.
func (s *Service) GetRealTimeMetrics(ctx context.Context, widgetID uuid.UUID) (*telemetry.RealTimeMetrics, error) {
	aggregate, err := s.store.HGetAll(ctx, s.keys.RealTimeKey(widgetID))
	if err != nil {
		return nil, apperrors.NewDatabaseError("read rolling aggregate", err)
	}

	windowKey := s.keys.RequestWindowKey(widgetID)
	cutoff := nowMillis() - s.cfg.RealTimeWindow.Milliseconds()
	if err := s.store.ZRemRangeByScore(ctx, windowKey, "0", strconv.FormatInt(cutoff, 10)); err != nil {
		s.logger.Warn("failed to trim request window", zap.Error(err))
	}
	windowRequests, err := s.store.ZCard(ctx, windowKey)
	if err != nil {
		s.logger.Warn("failed to count request window", zap.Error(err))
		windowRequests = 0
	}

	rt := &telemetry.RealTimeMetrics{
		WidgetID:          widgetID,
		AvgRenderTime:     parseFloat(aggregate[fieldAvgRenderTime]),
		CacheHitRate:      parseFloat(aggregate[fieldCacheHitRate]),
		ErrorRate:         parseFloat(aggregate[fieldErrorRate]),
		WindowRequests:    windowRequests,
		RequestsPerSecond: float64(windowRequests) / s.cfg.RealTimeWindow.Seconds(),
		QueueLength:       s.pending.Load(),
	}
	rt.Health = classifyHealth(rt)
	return rt, nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func classifyHealth(rt *telemetry.RealTimeMetrics) telemetry.Health {
	switch {
	case rt.ErrorRate > criticalErrorRate,
		rt.AvgRenderTime > criticalRenderTime,
		rt.QueueLength > criticalQueueLength:
		return telemetry.HealthCritical
	case rt.ErrorRate > warningErrorRate,
		rt.AvgRenderTime > warningRenderTime,
		rt.QueueLength > warningQueueLength:
		return telemetry.HealthWarning
	default:
		return telemetry.HealthHealthy
	}
}
