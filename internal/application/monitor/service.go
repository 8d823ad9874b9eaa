// Package monitor provides the application layer of the performance
// monitor: the telemetry ingest path and the observability queries built
// on top of it.
package monitor

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/embedora/embedora/internal/domain/telemetry"
	"github.com/embedora/embedora/internal/infrastructure/cache"
	"github.com/embedora/embedora/internal/infrastructure/config"
	"github.com/embedora/embedora/internal/ports/inbound"
	"github.com/embedora/embedora/internal/ports/outbound"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Rolling aggregate hash fields. The hash lives in the cache store with an
// expiry refreshed on every write; losing it only resets the rolling view.
const (
	fieldAvgRenderTime = "avg_render_time"
	fieldCacheHitRate  = "cache_hit_rate"
	fieldErrorRate     = "error_rate"
	fieldSamples       = "samples"
)

// Service implements the performance monitor use cases
type Service struct {
	metrics outbound.MetricRepository
	rules   outbound.AlertRuleRepository
	store   outbound.CacheStore
	keys    *cache.KeyBuilder
	cfg     config.MonitoringConfig
	logger  *zap.Logger

	// pending counts in-flight ingest goroutines; it doubles as the
	// queue-length signal in health classification.
	pending atomic.Int64
}

// NewService creates a performance monitor service
func NewService(
	metrics outbound.MetricRepository,
	rules outbound.AlertRuleRepository,
	store outbound.CacheStore,
	keys *cache.KeyBuilder,
	cfg config.MonitoringConfig,
	logger *zap.Logger,
) inbound.MonitorService {
	return &Service{
		metrics: metrics,
		rules:   rules,
		store:   store,
		keys:    keys,
		cfg:     cfg,
		logger:  logger.Named("monitor"),
	}
}

// Record ingests one metric row. The whole ingest runs detached from the
// caller: recording is best-effort and must never delay or fail a render
// response.
func (s *Service) Record(ctx context.Context, m telemetry.Metric) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Add(-1)

		ingestCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := s.metrics.Save(ingestCtx, &m); err != nil {
			s.logger.Error("failed to persist metric row",
				zap.String("widget_id", m.WidgetID.String()),
				zap.Error(err),
			)
		}

		s.updateRequestWindow(ingestCtx, m)
		s.updateRollingAggregate(ingestCtx, m)
		s.evaluateAlerts(ingestCtx, m)
	}()
}

// updateRequestWindow appends the request timestamp to the sliding window
// set and ages out entries older than the real-time window.
func (s *Service) updateRequestWindow(ctx context.Context, m telemetry.Metric) {
	key := s.keys.RequestWindowKey(m.WidgetID)
	score := float64(m.Timestamp.UnixMilli())
	member := fmt.Sprintf("%d:%s", m.Timestamp.UnixNano(), uuid.NewString()[:8])

	if err := s.store.ZAdd(ctx, key, score, member, s.cfg.RealTimeTTL); err != nil {
		s.logger.Warn("failed to update request window", zap.Error(err))
		return
	}

	cutoff := m.Timestamp.Add(-s.cfg.RealTimeWindow).UnixMilli()
	if err := s.store.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(cutoff, 10)); err != nil {
		s.logger.Warn("failed to trim request window", zap.Error(err))
	}
}

// updateRollingAggregate folds the sample into the per-widget EMAs. The
// first sample seeds the averages directly.
func (s *Service) updateRollingAggregate(ctx context.Context, m telemetry.Metric) {
	key := s.keys.RealTimeKey(m.WidgetID)

	current, err := s.store.HGetAll(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read rolling aggregate", zap.Error(err))
		return
	}

	renderSample := float64(m.RenderTime)
	hitSample := 0.0
	if m.CacheHit {
		hitSample = 1.0
	}
	errSample := 0.0
	if m.ErrorCount > 0 {
		errSample = 1.0
	}

	samples := parseInt(current[fieldSamples])
	var avgRender, hitRate, errRate float64
	if samples == 0 {
		avgRender, hitRate, errRate = renderSample, hitSample, errSample
	} else {
		alpha := s.cfg.SmoothingFactor
		avgRender = ema(parseFloat(current[fieldAvgRenderTime]), renderSample, alpha)
		hitRate = ema(parseFloat(current[fieldCacheHitRate]), hitSample, alpha)
		errRate = ema(parseFloat(current[fieldErrorRate]), errSample, alpha)
	}

	fields := map[string]interface{}{
		fieldAvgRenderTime: avgRender,
		fieldCacheHitRate:  hitRate,
		fieldErrorRate:     errRate,
		fieldSamples:       samples + 1,
	}
	if err := s.store.HSet(ctx, key, fields, s.cfg.RealTimeTTL); err != nil {
		s.logger.Warn("failed to write rolling aggregate", zap.Error(err))
	}
}

// ema computes avg' = avg*(1-alpha) + sample*alpha
func ema(avg, sample, alpha float64) float64 {
	return avg*(1-alpha) + sample*alpha
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
