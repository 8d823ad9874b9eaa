// Package handlers provides HTTP handlers for the delivery REST API
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/embedora/embedora/internal/domain/widget"
	"github.com/embedora/embedora/internal/infrastructure/cdn"
	"github.com/embedora/embedora/internal/infrastructure/monitoring"
	"github.com/embedora/embedora/internal/infrastructure/optimize"
	"github.com/embedora/embedora/internal/ports/inbound"
	apperrors "github.com/embedora/embedora/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WidgetHandlers handles widget render and invalidation requests
type WidgetHandlers struct {
	delivery  inbound.DeliveryService
	policy    *cdn.Policy
	collector *monitoring.MetricsCollector
	logger    *zap.Logger
}

// NewWidgetHandlers creates a new widget handlers instance
func NewWidgetHandlers(
	delivery inbound.DeliveryService,
	policy *cdn.Policy,
	collector *monitoring.MetricsCollector,
	logger *zap.Logger,
) *WidgetHandlers {
	return &WidgetHandlers{
		delivery:  delivery,
		policy:    policy,
		collector: collector,
		logger:    logger,
	}
}

// Render handles GET /api/v1/widgets/:id/render
//
// The format parameter selects the serialization: json (default) returns
// the full delivery envelope, html/css return raw artifacts for direct
// embedding, amp returns a standalone AMP document.
func (h *WidgetHandlers) Render(c *gin.Context) {
	widgetID, ok := h.widgetID(c)
	if !ok {
		return
	}

	opts := renderOptions(c, h.policy)
	response, err := h.delivery.Deliver(c.Request.Context(), widgetID, opts)
	if err != nil {
		h.writeError(c, err)
		return
	}

	format := c.DefaultQuery("format", "json")
	h.collector.WidgetRendered(format,
		response.Performance.CacheHit,
		time.Duration(response.Performance.RenderTime)*time.Millisecond,
		time.Duration(response.Performance.QueryTime)*time.Millisecond,
		len(response.HTML)+len(response.CSS),
	)

	for key, value := range h.policy.CacheControl(cdn.ClassDynamic) {
		c.Header(key, value)
	}
	if format == "json" || format == "html" {
		for _, link := range response.PreloadLinks {
			c.Writer.Header().Add("Link", link)
		}
	}

	switch format {
	case "html":
		c.Header("ETag", h.policy.ETag([]byte(response.HTML)))
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(embedDocument(response)))
	case "css":
		c.Header("ETag", h.policy.ETag([]byte(response.CSS)))
		c.Data(http.StatusOK, "text/css; charset=utf-8", []byte(response.CSS))
	case "amp":
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(ampDocument(response)))
	case "json":
		c.Header("ETag", h.policy.ETag([]byte(response.HTML)))
		c.JSON(http.StatusOK, response)
	default:
		h.writeError(c, apperrors.NewBadRequestError("unsupported format: "+format))
	}
}

// InvalidateWidget handles POST /api/v1/widgets/:id/invalidate
func (h *WidgetHandlers) InvalidateWidget(c *gin.Context) {
	widgetID, ok := h.widgetID(c)
	if !ok {
		return
	}

	if err := h.delivery.InvalidateWidgetCache(c.Request.Context(), widgetID); err != nil {
		h.writeError(c, err)
		return
	}

	h.collector.CacheInvalidated("widget")
	c.JSON(http.StatusOK, gin.H{"invalidated": widgetID})
}

// InvalidateBrand handles POST /api/v1/sites/:id/invalidate-brand
func (h *WidgetHandlers) InvalidateBrand(c *gin.Context) {
	websiteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.writeError(c, apperrors.NewBadRequestError("invalid site id"))
		return
	}

	if err := h.delivery.InvalidateBrandCache(c.Request.Context(), websiteID); err != nil {
		h.writeError(c, err)
		return
	}

	h.collector.CacheInvalidated("brand")
	c.JSON(http.StatusOK, gin.H{"invalidated": websiteID})
}

func (h *WidgetHandlers) widgetID(c *gin.Context) (uuid.UUID, bool) {
	widgetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.writeError(c, apperrors.NewBadRequestError("invalid widget id"))
		return uuid.Nil, false
	}
	return widgetID, true
}

func (h *WidgetHandlers) writeError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalError("unexpected error")
		h.logger.Error("unclassified handler error", zap.Error(err))
	}

	c.JSON(appErr.StatusCode(), apperrors.ToErrorResponse(appErr, c.GetString("request_id")))
}

// renderOptions extracts pagination, runtime filters, and provenance from
// the request.
func renderOptions(c *gin.Context, policy *cdn.Policy) widget.RenderOptions {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	clientAddr := c.ClientIP()
	return widget.RenderOptions{
		Page:     page,
		Limit:    limit,
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Sort:     c.Query("sort"),

		Referrer:   c.GetHeader("Referer"),
		UserAgent:  c.GetHeader("User-Agent"),
		ClientAddr: clientAddr,
		Viewport:   c.DefaultQuery("viewport", "desktop"),
		Region:     policy.Region(clientAddr, c.GetHeader("Accept-Language")),
	}
}

// embedDocument wraps a delivery into a minimal standalone HTML document
// with the stylesheet inlined.
func embedDocument(resp *widget.DeliveryResponse) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<link rel="canonical" href="%s">
<style>%s</style>
</head>
<body>%s</body>
</html>`, resp.Meta.Title, resp.Meta.Canonical, resp.CSS, resp.HTML)
}

// ampDocument wraps a delivery into an AMP document: AMP-compatible
// markup, inline custom CSS, and the required AMP boilerplate.
func ampDocument(resp *widget.DeliveryResponse) string {
	ampHTML, ampCSS := optimize.AMPTransform(resp.HTML, resp.CSS)
	return fmt.Sprintf(`<!doctype html>
<html amp lang="en">
<head>
<meta charset="utf-8">
<script async src="https://cdn.ampproject.org/v0.js"></script>
<title>%s</title>
<link rel="canonical" href="%s">
<meta name="viewport" content="width=device-width,minimum-scale=1,initial-scale=1">
<style amp-boilerplate>body{-webkit-animation:-amp-start 8s steps(1,end) 0s 1 normal both;-moz-animation:-amp-start 8s steps(1,end) 0s 1 normal both;-ms-animation:-amp-start 8s steps(1,end) 0s 1 normal both;animation:-amp-start 8s steps(1,end) 0s 1 normal both}@-webkit-keyframes -amp-start{from{visibility:hidden}to{visibility:visible}}@-moz-keyframes -amp-start{from{visibility:hidden}to{visibility:visible}}@-ms-keyframes -amp-start{from{visibility:hidden}to{visibility:visible}}@-o-keyframes -amp-start{from{visibility:hidden}to{visibility:visible}}@keyframes -amp-start{from{visibility:hidden}to{visibility:visible}}</style><noscript><style amp-boilerplate>body{-webkit-animation:none;-moz-animation:none;-ms-animation:none;animation:none}</style></noscript>
<style amp-custom>%s</style>
</head>
<body>%s</body>
</html>`, resp.Meta.Title, resp.Meta.Canonical, ampCSS, ampHTML)
}
