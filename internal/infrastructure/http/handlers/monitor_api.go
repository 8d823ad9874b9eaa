package handlers

import (
	"errors"
	"net/http"

	"github.com/embedora/embedora/internal/domain/telemetry"
	"github.com/embedora/embedora/internal/infrastructure/monitoring"
	"github.com/embedora/embedora/internal/ports/inbound"
	apperrors "github.com/embedora/embedora/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MonitorHandlers handles telemetry ingest and observability requests
type MonitorHandlers struct {
	monitor   inbound.MonitorService
	collector *monitoring.MetricsCollector
	logger    *zap.Logger
}

// NewMonitorHandlers creates a new monitor handlers instance
func NewMonitorHandlers(
	monitor inbound.MonitorService,
	collector *monitoring.MetricsCollector,
	logger *zap.Logger,
) *MonitorHandlers {
	return &MonitorHandlers{
		monitor:   monitor,
		collector: collector,
		logger:    logger,
	}
}

// IngestMetric handles POST /api/v1/metrics. The sink is fire-and-forget:
// a well-formed row is always accepted.
func (h *MonitorHandlers) IngestMetric(c *gin.Context) {
	var metric telemetry.Metric
	if err := c.ShouldBindJSON(&metric); err != nil {
		h.collector.MetricIngestFailed()
		h.writeError(c, apperrors.NewBadRequestError("invalid metric payload"))
		return
	}
	if metric.WidgetID == uuid.Nil {
		h.collector.MetricIngestFailed()
		h.writeError(c, apperrors.NewBadRequestError("widgetId is required"))
		return
	}

	h.monitor.Record(c.Request.Context(), metric)
	h.collector.MetricIngested()
	c.Status(http.StatusAccepted)
}

// RealTime handles GET /api/v1/widgets/:id/realtime
func (h *MonitorHandlers) RealTime(c *gin.Context) {
	widgetID, ok := h.widgetID(c)
	if !ok {
		return
	}

	metrics, err := h.monitor.GetRealTimeMetrics(c.Request.Context(), widgetID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// Analytics handles GET /api/v1/widgets/:id/analytics?period=
func (h *MonitorHandlers) Analytics(c *gin.Context) {
	widgetID, ok := h.widgetID(c)
	if !ok {
		return
	}

	period := telemetry.Period(c.DefaultQuery("period", string(telemetry.Period24h)))
	analytics, err := h.monitor.GetPerformanceAnalytics(c.Request.Context(), widgetID, period)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// SystemOverview handles GET /api/v1/system/performance
func (h *MonitorHandlers) SystemOverview(c *gin.Context) {
	overview, err := h.monitor.GetSystemOverview(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// alertRequest is the alert threshold payload
type alertRequest struct {
	MaxRenderTime   int64   `json:"maxRenderTime"`
	MinCacheHitRate float64 `json:"minCacheHitRate"`
	MaxErrorRate    float64 `json:"maxErrorRate"`
}

// SetupAlerts handles PUT /api/v1/widgets/:id/alerts
func (h *MonitorHandlers) SetupAlerts(c *gin.Context) {
	widgetID, ok := h.widgetID(c)
	if !ok {
		return
	}

	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, apperrors.NewBadRequestError("invalid alert payload"))
		return
	}

	rule := telemetry.AlertRule{
		WidgetID:        widgetID,
		MaxRenderTime:   req.MaxRenderTime,
		MinCacheHitRate: req.MinCacheHitRate,
		MaxErrorRate:    req.MaxErrorRate,
	}
	if err := h.monitor.SetupAlerts(c.Request.Context(), rule); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *MonitorHandlers) widgetID(c *gin.Context) (uuid.UUID, bool) {
	widgetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.writeError(c, apperrors.NewBadRequestError("invalid widget id"))
		return uuid.Nil, false
	}
	return widgetID, true
}

func (h *MonitorHandlers) writeError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalError("unexpected error")
		h.logger.Error("unclassified handler error", zap.Error(err))
	}
	c.JSON(appErr.StatusCode(), apperrors.ToErrorResponse(appErr, c.GetString("request_id")))
}
