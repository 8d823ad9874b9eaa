package delivery

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/embedora/embedora/internal/domain/widget"
)

// structuredDataCap bounds the ItemList entries embedded in SEO metadata
const structuredDataCap = 10

// buildSEOMeta synthesizes the delivery's SEO metadata: canonical URL,
// Open Graph fields, and an ItemList structured-data block when the
// result set is non-empty.
func (s *Service) buildSEOMeta(cfg *widget.Config, items []widget.ContentItem, total int) widget.SEOMeta {
	title := cfg.Title
	if title == "" {
		title = "Content Widget"
	}

	description := fmt.Sprintf("%s: %d items", title, total)
	if len(items) > 0 && items[0].Excerpt != "" {
		description = truncate(items[0].Excerpt, 160)
	}

	canonical := fmt.Sprintf("%s/widgets/%s", strings.TrimSuffix(s.publicURL, "/"), cfg.ID)

	meta := widget.SEOMeta{
		Title:       title,
		Description: description,
		Canonical:   canonical,
		OpenGraph: map[string]string{
			"og:title":       title,
			"og:description": description,
			"og:type":        "website",
			"og:url":         canonical,
		},
	}
	if len(items) > 0 && items[0].FeaturedImage != "" {
		meta.OpenGraph["og:image"] = items[0].FeaturedImage
	}

	if len(items) > 0 {
		meta.StructuredData = itemListStructuredData(s.publicURL, items, total)
	}

	return meta
}

// itemListStructuredData builds a schema.org ItemList. numberOfItems
// reports the full result size even when the element list is capped.
func itemListStructuredData(publicURL string, items []widget.ContentItem, total int) map[string]interface{} {
	capped := items
	if len(capped) > structuredDataCap {
		capped = capped[:structuredDataCap]
	}

	elements := make([]map[string]interface{}, len(capped))
	for i, item := range capped {
		elements[i] = map[string]interface{}{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     item.Title,
			"url":      fmt.Sprintf("%s/%s", strings.TrimSuffix(publicURL, "/"), item.Slug),
		}
	}

	return map[string]interface{}{
		"@context":        "https://schema.org",
		"@type":           "ItemList",
		"numberOfItems":   total,
		"itemListElement": elements,
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back up to a rune boundary so a multibyte character is never split.
	end := max
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	cut := s[:end]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}
