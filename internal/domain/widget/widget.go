// Package widget contains the core domain model for embeddable content
// widgets: configuration, brand theming, and published content projections.
package widget

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the widget rendering mode
type Kind string

const (
	KindContentList   Kind = "content_list"
	KindSingleContent Kind = "single_content"
	KindCategoryFeed  Kind = "category_feed"
)

// Valid reports whether the kind is one of the supported rendering modes
func (k Kind) Valid() bool {
	switch k {
	case KindContentList, KindSingleContent, KindCategoryFeed:
		return true
	}
	return false
}

// DisplayToggles controls which content fields a widget renders.
// The content query projects only the columns these toggles imply.
type DisplayToggles struct {
	ShowImages     bool `json:"show_images"`
	ShowExcerpts   bool `json:"show_excerpts"`
	ShowDates      bool `json:"show_dates"`
	ShowAuthors    bool `json:"show_authors"`
	ShowCategories bool `json:"show_categories"`
	ShowTags       bool `json:"show_tags"`
}

// ContentFilters holds the widget-level persisted content filters
type ContentFilters struct {
	CategoryIDs     []uuid.UUID `json:"category_ids,omitempty"`
	TagIDs          []uuid.UUID `json:"tag_ids,omitempty"`
	AuthorIDs       []uuid.UUID `json:"author_ids,omitempty"`
	PublishedAfter  *time.Time  `json:"published_after,omitempty"`
	PublishedBefore *time.Time  `json:"published_before,omitempty"`
}

// Config is the immutable-per-version widget descriptor. It is created and
// updated by the external configuration service and read-only to this core.
type Config struct {
	ID             uuid.UUID      `json:"id"`
	WebsiteID      uuid.UUID      `json:"website_id"`
	Kind           Kind           `json:"kind"`
	Title          string         `json:"title"`
	Theme          string         `json:"theme"`
	Display        DisplayToggles `json:"display"`
	Filters        ContentFilters `json:"filters"`
	ItemsPerPage   int            `json:"items_per_page"`
	SortOrder      string         `json:"sort_order"`
	IsPublic       bool           `json:"is_public"`
	AllowedDomains []string       `json:"allowed_domains,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// DomainAllowed checks a referrer host against the widget allowlist.
// An empty allowlist permits every domain. Subdomains of an allowed
// domain are permitted.
func (c *Config) DomainAllowed(host string) bool {
	if len(c.AllowedDomains) == 0 {
		return true
	}

	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	for _, allowed := range c.AllowedDomains {
		allowed = strings.ToLower(strings.TrimPrefix(allowed, "www."))
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

// BrandConfig is the per-site visual theme, owned by the brand service
type BrandConfig struct {
	WebsiteID       uuid.UUID `json:"website_id"`
	PrimaryColor    string    `json:"primary_color"`
	SecondaryColor  string    `json:"secondary_color"`
	BackgroundColor string    `json:"background_color"`
	TextColor       string    `json:"text_color"`
	LinkColor       string    `json:"link_color"`
	FontFamily      string    `json:"font_family"`
	CustomCSS       string    `json:"custom_css,omitempty"`
	HideBranding    bool      `json:"hide_branding"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Watermark returns the cache-busting input for CSS derived from this
// brand config. Any brand update produces a fresh CSS cache key.
func (b *BrandConfig) Watermark() string {
	return strconv.FormatInt(b.UpdatedAt.Unix(), 10)
}

// DefaultBrandConfig returns the theme used when a site has no brand
// configuration of its own
func DefaultBrandConfig(websiteID uuid.UUID) *BrandConfig {
	return &BrandConfig{
		WebsiteID:       websiteID,
		PrimaryColor:    "#2563eb",
		SecondaryColor:  "#64748b",
		BackgroundColor: "#ffffff",
		TextColor:       "#1e293b",
		LinkColor:       "#2563eb",
		FontFamily:      "system-ui, -apple-system, sans-serif",
	}
}
