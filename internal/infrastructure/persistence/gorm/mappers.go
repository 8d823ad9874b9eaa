// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"encoding/json"

	"github.com/embedora/embedora/internal/domain/telemetry"
	"github.com/embedora/embedora/internal/domain/widget"
)

// ModelToWidgetConfig converts a GORM model to the domain config
func ModelToWidgetConfig(m *WidgetConfigModel) (*widget.Config, error) {
	cfg := &widget.Config{
		ID:             m.ID,
		WebsiteID:      m.WebsiteID,
		Kind:           widget.Kind(m.Kind),
		Title:          m.Title,
		Theme:          m.Theme,
		ItemsPerPage:   m.ItemsPerPage,
		SortOrder:      m.SortOrder,
		IsPublic:       m.IsPublic,
		AllowedDomains: m.AllowedDomains,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}

	if err := remarshal(m.Display, &cfg.Display); err != nil {
		return nil, err
	}
	if err := remarshal(m.Filters, &cfg.Filters); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WidgetConfigToModel converts a domain config to a GORM model
func WidgetConfigToModel(c *widget.Config) (*WidgetConfigModel, error) {
	m := &WidgetConfigModel{
		ID:             c.ID,
		WebsiteID:      c.WebsiteID,
		Kind:           string(c.Kind),
		Title:          c.Title,
		Theme:          c.Theme,
		ItemsPerPage:   c.ItemsPerPage,
		SortOrder:      c.SortOrder,
		IsPublic:       c.IsPublic,
		AllowedDomains: c.AllowedDomains,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}

	if err := remarshal(c.Display, &m.Display); err != nil {
		return nil, err
	}
	if err := remarshal(c.Filters, &m.Filters); err != nil {
		return nil, err
	}

	return m, nil
}

// ModelToBrandConfig converts a GORM model to the domain brand config
func ModelToBrandConfig(m *BrandConfigModel) *widget.BrandConfig {
	return &widget.BrandConfig{
		WebsiteID:       m.WebsiteID,
		PrimaryColor:    m.PrimaryColor,
		SecondaryColor:  m.SecondaryColor,
		BackgroundColor: m.BackgroundColor,
		TextColor:       m.TextColor,
		LinkColor:       m.LinkColor,
		FontFamily:      m.FontFamily,
		CustomCSS:       m.CustomCSS,
		HideBranding:    m.HideBranding,
		UpdatedAt:       m.UpdatedAt,
	}
}

// ModelToContentItem converts a GORM model to the domain content item
func ModelToContentItem(m *ContentItemModel) widget.ContentItem {
	item := widget.ContentItem{
		ID:            m.ID,
		Title:         m.Title,
		Slug:          m.Slug,
		Excerpt:       m.Excerpt,
		Body:          m.Body,
		FeaturedImage: m.FeaturedImage,
		Categories:    termRefsToDomain(m.Categories),
		Tags:          termRefsToDomain(m.Tags),
		CreatedAt:     m.CreatedAt,
	}
	if m.PublishedAt != nil {
		item.PublishedAt = *m.PublishedAt
	}
	if m.AuthorID != nil {
		item.Author = &widget.AuthorRef{ID: *m.AuthorID, Name: m.AuthorName}
	}
	return item
}

// MetricToModel converts a domain metric to a GORM model
func MetricToModel(m *telemetry.Metric) *PerformanceMetricModel {
	return &PerformanceMetricModel{
		WidgetID:    m.WidgetID,
		Timestamp:   m.Timestamp,
		RenderTime:  m.RenderTime,
		QueryTime:   m.QueryTime,
		CacheHit:    m.CacheHit,
		ContentSize: m.ContentSize,
		ImageCount:  m.ImageCount,
		ErrorCount:  m.ErrorCount,
		UserAgent:   m.UserAgent,
		Region:      m.Region,
		Viewport:    m.Viewport,
		Referrer:    m.Referrer,
	}
}

// ModelToMetric converts a GORM model to the domain metric
func ModelToMetric(m *PerformanceMetricModel) telemetry.Metric {
	return telemetry.Metric{
		WidgetID:    m.WidgetID,
		Timestamp:   m.Timestamp,
		RenderTime:  m.RenderTime,
		QueryTime:   m.QueryTime,
		CacheHit:    m.CacheHit,
		ContentSize: m.ContentSize,
		ImageCount:  m.ImageCount,
		ErrorCount:  m.ErrorCount,
		UserAgent:   m.UserAgent,
		Region:      m.Region,
		Viewport:    m.Viewport,
		Referrer:    m.Referrer,
	}
}

// ModelToAlertRule converts a GORM model to the domain alert rule
func ModelToAlertRule(m *AlertRuleModel) *telemetry.AlertRule {
	return &telemetry.AlertRule{
		WidgetID:        m.WidgetID,
		MaxRenderTime:   m.MaxRenderTime,
		MinCacheHitRate: m.MinCacheHitRate,
		MaxErrorRate:    m.MaxErrorRate,
		UpdatedAt:       m.UpdatedAt,
	}
}

// AlertRuleToModel converts a domain alert rule to a GORM model
func AlertRuleToModel(r *telemetry.AlertRule) *AlertRuleModel {
	return &AlertRuleModel{
		WidgetID:        r.WidgetID,
		MaxRenderTime:   r.MaxRenderTime,
		MinCacheHitRate: r.MinCacheHitRate,
		MaxErrorRate:    r.MaxErrorRate,
		UpdatedAt:       r.UpdatedAt,
	}
}

func termRefsToDomain(refs TermRefSlice) []widget.TermRef {
	if len(refs) == 0 {
		return nil
	}
	out := make([]widget.TermRef, len(refs))
	for i, ref := range refs {
		out[i] = widget.TermRef{ID: ref.ID, Name: ref.Name, Slug: ref.Slug}
	}
	return out
}

// remarshal moves a value between a typed struct and a generic JSON map
func remarshal(from, to interface{}) error {
	raw, err := json.Marshal(from)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, to)
}
