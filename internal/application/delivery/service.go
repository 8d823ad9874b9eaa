// Package delivery provides the application layer of widget content
// delivery: cache-aside rendering, domain policy enforcement, and the
// cache invalidation hooks used by the management services.
package delivery

import (
	"context"
	"errors"
	"math"
	"net/url"
	"time"

	"github.com/embedora/embedora/internal/domain/telemetry"
	"github.com/embedora/embedora/internal/domain/widget"
	"github.com/embedora/embedora/internal/infrastructure/cache"
	"github.com/embedora/embedora/internal/infrastructure/config"
	"github.com/embedora/embedora/internal/infrastructure/optimize"
	"github.com/embedora/embedora/internal/ports/inbound"
	"github.com/embedora/embedora/internal/ports/outbound"
	apperrors "github.com/embedora/embedora/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxPageSize is the hard per-page item cap, applied regardless of the
// requested limit.
const MaxPageSize = 50

// Service implements the widget delivery use cases
type Service struct {
	widgets outbound.WidgetConfigRepository
	brands  outbound.BrandConfigRepository
	content outbound.ContentRepository
	store   outbound.CacheStore
	codec   *cache.Codec
	keys    *cache.KeyBuilder
	engine  *optimize.Engine
	monitor inbound.MonitorService

	cacheCfg  config.CacheConfig
	passes    optimize.Options
	publicURL string
	logger    *zap.Logger
}

// NewService creates a delivery service
func NewService(
	widgets outbound.WidgetConfigRepository,
	brands outbound.BrandConfigRepository,
	content outbound.ContentRepository,
	store outbound.CacheStore,
	codec *cache.Codec,
	keys *cache.KeyBuilder,
	engine *optimize.Engine,
	monitor inbound.MonitorService,
	cfg *config.Config,
	logger *zap.Logger,
) inbound.DeliveryService {
	return &Service{
		widgets:   widgets,
		brands:    brands,
		content:   content,
		store:     store,
		codec:     codec,
		keys:      keys,
		engine:    engine,
		monitor:   monitor,
		cacheCfg:  cfg.Cache,
		passes:    optimizeOptions(cfg.Optimize),
		publicURL: cfg.App.PublicURL,
		logger:    logger.Named("delivery"),
	}
}

// Deliver renders a widget for one request shape. The cache is consulted
// first; a full render happens only on miss. Concurrent misses for the
// same key may each render and write; the last writer wins.
func (s *Service) Deliver(ctx context.Context, widgetID uuid.UUID, opts widget.RenderOptions) (*widget.DeliveryResponse, error) {
	opts = normalizeOptions(opts)
	key := s.keys.ContentKey(widgetID, opts)

	lookupStart := time.Now()
	if cached := s.cacheLookup(ctx, key); cached != nil {
		cached.Performance.CacheHit = true
		cached.Performance.RenderTime = time.Since(lookupStart).Milliseconds()
		applyViewport(cached, opts.Viewport)
		s.report(ctx, widgetID, opts, cached)
		return cached, nil
	}

	renderStart := time.Now()

	cfg, err := s.loadWidgetConfig(ctx, widgetID)
	if err != nil {
		s.reportFailure(ctx, widgetID, opts, renderStart)
		return nil, err
	}

	if host := referrerHost(opts.Referrer); host != "" && !cfg.DomainAllowed(host) {
		s.reportFailure(ctx, widgetID, opts, renderStart)
		return nil, apperrors.NewDomainForbiddenError(widgetID.String(), host)
	}

	limit := appliedLimit(opts.Limit, cfg.ItemsPerPage)

	queryStart := time.Now()
	items, total, err := s.content.FindPublished(ctx, outbound.ContentQuery{
		WebsiteID:   cfg.WebsiteID,
		Projection:  cfg.Display,
		Filters:     cfg.Filters,
		IncludeBody: cfg.Kind == widget.KindSingleContent,
		Search:      opts.Search,
		Category:    opts.Category,
		Tag:         opts.Tag,
		Sort:        sortOrder(opts.Sort, cfg.SortOrder),
		Offset:      (opts.Page - 1) * limit,
		Limit:       limit,
	})
	queryTime := time.Since(queryStart).Milliseconds()
	if err != nil {
		s.reportFailure(ctx, widgetID, opts, renderStart)
		return nil, apperrors.NewDeliveryError("content query", err)
	}

	brand := s.loadBrandConfig(ctx, cfg.WebsiteID)

	html := s.renderHTML(cfg, brand, items, opts)
	css := s.loadOrRenderCSS(ctx, cfg, brand)

	optimized := s.engine.Optimize(html, css, s.passes)

	response := &widget.DeliveryResponse{
		HTML:         optimized.HTML,
		CSS:          combinedCSS(optimized),
		PreloadLinks: optimized.PreloadHeaders,
		Data: widget.PageData{
			Items:      items,
			Total:      total,
			Page:       opts.Page,
			TotalPages: int(math.Ceil(float64(total) / float64(limit))),
			HasMore:    opts.Page*limit < total,
		},
		Meta: s.buildSEOMeta(cfg, items, total),
		Performance: widget.PerformanceInfo{
			CacheHit:   false,
			RenderTime: time.Since(renderStart).Milliseconds(),
			QueryTime:  queryTime,
		},
	}

	// Write-back happens only after full assembly; a failed render never
	// leaves a partial cached entry. The entry is written viewport-neutral:
	// the content key does not encode viewport, so the viewport transform
	// runs per request, after every cache read and write.
	s.cacheWrite(ctx, key, response, s.cacheCfg.ContentTTL)
	applyViewport(response, opts.Viewport)
	s.report(ctx, widgetID, opts, response)

	return response, nil
}

// applyViewport prunes the stylesheet for the caller's viewport. Cached
// entries always hold the full stylesheet; this must never run before a
// cache write.
func applyViewport(resp *widget.DeliveryResponse, viewport string) {
	if viewport == "mobile" {
		resp.CSS = optimize.ViewportCSS(resp.CSS, viewport)
	}
}

// InvalidateWidgetCache drops every cached artifact of one widget:
// all content entries plus the widget-config entry.
func (s *Service) InvalidateWidgetCache(ctx context.Context, widgetID uuid.UUID) error {
	deleted, err := s.store.DeleteByPrefix(ctx, s.keys.ContentPrefix(widgetID))
	if err != nil {
		return apperrors.NewDeliveryError("invalidate content cache", err)
	}
	if err := s.store.Delete(ctx, s.keys.WidgetConfigKey(widgetID)); err != nil {
		return apperrors.NewDeliveryError("invalidate widget config cache", err)
	}

	s.logger.Info("widget cache invalidated",
		zap.String("widget_id", widgetID.String()),
		zap.Int("content_entries", deleted),
	)
	return nil
}

// InvalidateBrandCache drops a site's brand-config entry and purges all
// CSS entries system-wide. CSS keys encode only the widget id and brand
// watermark, so a full prefix purge is the only correct option; the
// coarseness is confined to this method.
func (s *Service) InvalidateBrandCache(ctx context.Context, websiteID uuid.UUID) error {
	if err := s.store.Delete(ctx, s.keys.BrandConfigKey(websiteID)); err != nil {
		return apperrors.NewDeliveryError("invalidate brand config cache", err)
	}
	purged, err := s.store.DeleteByPrefix(ctx, s.keys.CSSPrefix())
	if err != nil {
		return apperrors.NewDeliveryError("purge css cache", err)
	}

	s.logger.Info("brand cache invalidated",
		zap.String("website_id", websiteID.String()),
		zap.Int("css_entries", purged),
	)
	return nil
}

// cacheLookup returns the cached response for key, or nil. Every failure
// mode (miss, store error, decode error) degrades to a miss.
func (s *Service) cacheLookup(ctx context.Context, key string) *widget.DeliveryResponse {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, outbound.ErrCacheMiss) {
			s.logger.Warn("cache read failed, treating as miss", zap.Error(err))
		}
		return nil
	}

	var response widget.DeliveryResponse
	if err := s.codec.Decode(raw, &response); err != nil {
		s.logger.Warn("cache decode failed, treating as miss", zap.Error(err))
		return nil
	}
	return &response
}

// cacheWrite stores a value best-effort; failures are logged and swallowed
func (s *Service) cacheWrite(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	encoded, err := s.codec.Encode(v)
	if err != nil {
		s.logger.Warn("cache encode failed", zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, key, encoded, ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// loadWidgetConfig reads a widget config through its cache layer. An
// absent or non-public widget yields the same NotFound so probing cannot
// distinguish the two.
func (s *Service) loadWidgetConfig(ctx context.Context, widgetID uuid.UUID) (*widget.Config, error) {
	key := s.keys.WidgetConfigKey(widgetID)

	if raw, err := s.store.Get(ctx, key); err == nil {
		var cfg widget.Config
		if err := s.codec.Decode(raw, &cfg); err == nil {
			if !cfg.IsPublic {
				return nil, apperrors.NewWidgetNotFoundError(widgetID.String())
			}
			return &cfg, nil
		}
	}

	cfg, err := s.widgets.FindByID(ctx, widgetID)
	if err != nil {
		if errors.Is(err, outbound.ErrNotFound) {
			return nil, apperrors.NewWidgetNotFoundError(widgetID.String())
		}
		return nil, apperrors.NewDatabaseError("load widget config", err)
	}

	s.cacheWrite(ctx, key, cfg, s.cacheCfg.WidgetConfigTTL)

	if !cfg.IsPublic {
		return nil, apperrors.NewWidgetNotFoundError(widgetID.String())
	}
	return cfg, nil
}

// loadBrandConfig reads a site's brand config through its cache layer.
// A site without one, or any load failure, falls back to the default
// theme: branding must never fail a delivery.
func (s *Service) loadBrandConfig(ctx context.Context, websiteID uuid.UUID) *widget.BrandConfig {
	key := s.keys.BrandConfigKey(websiteID)

	if raw, err := s.store.Get(ctx, key); err == nil {
		var brand widget.BrandConfig
		if err := s.codec.Decode(raw, &brand); err == nil {
			return &brand
		}
	}

	brand, err := s.brands.FindByWebsiteID(ctx, websiteID)
	if err != nil {
		if !errors.Is(err, outbound.ErrNotFound) {
			s.logger.Warn("brand config load failed, using default theme",
				zap.String("website_id", websiteID.String()),
				zap.Error(err),
			)
		}
		return widget.DefaultBrandConfig(websiteID)
	}

	s.cacheWrite(ctx, key, brand, s.cacheCfg.BrandConfigTTL)
	return brand
}

// loadOrRenderCSS reads the widget's themed CSS through its cache layer.
// The brand watermark is part of the key, so a brand update produces a
// fresh artifact without touching the content cache.
func (s *Service) loadOrRenderCSS(ctx context.Context, cfg *widget.Config, brand *widget.BrandConfig) string {
	key := s.keys.CSSKey(cfg.ID, brand.Watermark())

	if raw, err := s.store.Get(ctx, key); err == nil {
		var css string
		if err := s.codec.Decode(raw, &css); err == nil {
			return css
		}
	}

	css := renderThemeCSS(cfg, brand)
	s.cacheWrite(ctx, key, css, s.cacheCfg.CSSTTL)
	return css
}

// report sends one metric row to the monitor; recording is fire-and-forget
func (s *Service) report(ctx context.Context, widgetID uuid.UUID, opts widget.RenderOptions, resp *widget.DeliveryResponse) {
	m := telemetry.Metric{
		WidgetID:    widgetID,
		Timestamp:   time.Now().UTC(),
		RenderTime:  resp.Performance.RenderTime,
		QueryTime:   resp.Performance.QueryTime,
		CacheHit:    resp.Performance.CacheHit,
		ContentSize: len(resp.HTML) + len(resp.CSS),
		ImageCount:  optimize.CountImages(resp.HTML),
		UserAgent:   opts.UserAgent,
		Region:      opts.Region,
		Viewport:    opts.Viewport,
		Referrer:    opts.Referrer,
	}
	s.monitor.Record(ctx, m)
}

// reportFailure records a failed delivery attempt
func (s *Service) reportFailure(ctx context.Context, widgetID uuid.UUID, opts widget.RenderOptions, start time.Time) {
	s.monitor.Record(ctx, telemetry.Metric{
		WidgetID:   widgetID,
		Timestamp:  time.Now().UTC(),
		RenderTime: time.Since(start).Milliseconds(),
		ErrorCount: 1,
		UserAgent:  opts.UserAgent,
		Region:     opts.Region,
		Viewport:   opts.Viewport,
		Referrer:   opts.Referrer,
	})
}

func normalizeOptions(opts widget.RenderOptions) widget.RenderOptions {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit < 0 {
		opts.Limit = 0
	}
	if opts.Limit > MaxPageSize {
		opts.Limit = MaxPageSize
	}
	return opts
}

// appliedLimit resolves the effective page size: the request's limit when
// given, the widget default otherwise, hard-capped either way.
func appliedLimit(requested, widgetDefault int) int {
	limit := requested
	if limit <= 0 {
		limit = widgetDefault
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return limit
}

func sortOrder(requested, widgetDefault string) string {
	if requested != "" {
		return requested
	}
	return widgetDefault
}

// combinedCSS joins critical and remaining CSS when the critical split ran
func combinedCSS(r optimize.Result) string {
	if r.CriticalCSS == "" {
		return r.CSS
	}
	return r.CriticalCSS + r.CSS
}

func referrerHost(referrer string) string {
	if referrer == "" {
		return ""
	}
	u, err := url.Parse(referrer)
	if err != nil || u.Host == "" {
		return referrer
	}
	return u.Hostname()
}

func optimizeOptions(cfg config.OptimizeConfig) optimize.Options {
	return optimize.Options{
		MinifyHTML:        cfg.MinifyHTML,
		MinifyCSS:         cfg.MinifyCSS,
		OptimizeImages:    cfg.OptimizeImages,
		LazyLoading:       cfg.LazyLoading,
		ResponsiveImages:  cfg.ResponsiveImages,
		InlineCriticalCSS: cfg.InlineCriticalCSS,
		PreloadHeaders:    cfg.PreloadHeaders,
	}
}
