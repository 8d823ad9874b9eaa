package cache

import (
	"crypto/md5"
	"fmt"
	"strings"

	"github.com/embedora/embedora/internal/domain/widget"

	"github.com/google/uuid"
)

// KeyBuilder provides standardized cache key generation. Keys are strictly
// namespaced per concern so invalidation of one widget or site never
// touches another's entries.
type KeyBuilder struct {
	prefix    string
	separator string
}

// NewKeyBuilder creates a key builder with the given global prefix
func NewKeyBuilder(prefix string) *KeyBuilder {
	if prefix == "" {
		prefix = "embedora"
	}
	return &KeyBuilder{prefix: prefix, separator: ":"}
}

// build joins the prefix and components
func (kb *KeyBuilder) build(components ...string) string {
	parts := make([]string, 0, len(components)+1)
	parts = append(parts, kb.prefix)
	parts = append(parts, components...)
	return strings.Join(parts, kb.separator)
}

// ContentKey creates the content-cache key for one delivery request shape.
// Only the request shape participates: provenance fields never do.
func (kb *KeyBuilder) ContentKey(widgetID uuid.UUID, opts widget.RenderOptions) string {
	shape := fmt.Sprintf("p%d:l%d:s%s:c%s:t%s:o%s",
		opts.Page, opts.Limit,
		hashComponent(opts.Search),
		hashComponent(opts.Category),
		hashComponent(opts.Tag),
		hashComponent(opts.Sort))
	return kb.build("widget", widgetID.String(), shape)
}

// ContentPrefix returns the prefix covering every content-cache entry of a
// widget, used for bulk invalidation.
func (kb *KeyBuilder) ContentPrefix(widgetID uuid.UUID) string {
	return kb.build("widget", widgetID.String()) + kb.separator
}

// WidgetConfigKey creates the widget-config cache key
func (kb *KeyBuilder) WidgetConfigKey(widgetID uuid.UUID) string {
	return kb.build("widget_config", widgetID.String())
}

// BrandConfigKey creates the brand-config cache key
func (kb *KeyBuilder) BrandConfigKey(websiteID uuid.UUID) string {
	return kb.build("brand_config", websiteID.String())
}

// CSSKey creates the derived-CSS cache key. The brand watermark is part of
// the key: a brand update yields a fresh CSS artifact without touching the
// content cache.
func (kb *KeyBuilder) CSSKey(widgetID uuid.UUID, brandWatermark string) string {
	return kb.build("css", widgetID.String(), brandWatermark)
}

// CSSPrefix returns the prefix covering every CSS cache entry system-wide.
// CSS keys do not encode the site id, so brand invalidation purges them all.
func (kb *KeyBuilder) CSSPrefix() string {
	return kb.build("css") + kb.separator
}

// RealTimeKey creates the key of a widget's rolling aggregate hash
func (kb *KeyBuilder) RealTimeKey(widgetID uuid.UUID) string {
	return kb.build("realtime", widgetID.String())
}

// RequestWindowKey creates the key of a widget's sliding request window
func (kb *KeyBuilder) RequestWindowKey(widgetID uuid.UUID) string {
	return kb.build("requests", widgetID.String())
}

// hashComponent keeps variable-length user input out of key material.
// Empty components map to a stable marker so key shapes stay aligned.
func hashComponent(s string) string {
	if s == "" {
		return "-"
	}
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(s))))
	return fmt.Sprintf("%x", sum)[:8]
}
