package delivery

import (
	"fmt"
	"html"
	"strings"

	"github.com/embedora/embedora/internal/domain/widget"
)

// renderHTML produces the widget markup for the configured kind. The
// category feed reuses the list renderer; its feed semantics live in the
// content query, not the markup.
func (s *Service) renderHTML(cfg *widget.Config, brand *widget.BrandConfig, items []widget.ContentItem, opts widget.RenderOptions) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<div class="widget widget-%s theme-%s" data-widget-id="%s">`,
		html.EscapeString(string(cfg.Kind)),
		html.EscapeString(cfg.Theme),
		cfg.ID.String()))

	if cfg.Title != "" {
		sb.WriteString(`<div class="widget-header"><h2 class="widget-title">`)
		sb.WriteString(html.EscapeString(cfg.Title))
		sb.WriteString(`</h2></div>`)
	}

	switch cfg.Kind {
	case widget.KindSingleContent:
		renderSingleContent(&sb, cfg, items)
	default:
		renderContentList(&sb, cfg, items)
	}

	if !brand.HideBranding {
		sb.WriteString(`<div class="widget-branding"><a href="https://embedora.io" rel="noopener">Powered by Embedora</a></div>`)
	}

	sb.WriteString(`</div>`)
	return sb.String()
}

func renderContentList(sb *strings.Builder, cfg *widget.Config, items []widget.ContentItem) {
	if len(items) == 0 {
		sb.WriteString(`<div class="widget-empty">No content available</div>`)
		return
	}

	sb.WriteString(`<ul class="widget-list">`)
	for _, item := range items {
		sb.WriteString(`<li class="widget-item">`)

		if cfg.Display.ShowImages && item.FeaturedImage != "" {
			sb.WriteString(fmt.Sprintf(`<img class="widget-item-image" src="%s" alt="%s">`,
				html.EscapeString(item.FeaturedImage),
				html.EscapeString(item.Title)))
		}

		sb.WriteString(fmt.Sprintf(`<h3 class="widget-item-title"><a href="/%s">%s</a></h3>`,
			html.EscapeString(item.Slug),
			html.EscapeString(item.Title)))

		if cfg.Display.ShowExcerpts && item.Excerpt != "" {
			sb.WriteString(`<p class="widget-item-excerpt">`)
			sb.WriteString(html.EscapeString(item.Excerpt))
			sb.WriteString(`</p>`)
		}

		renderItemMeta(sb, cfg, item)

		sb.WriteString(`</li>`)
	}
	sb.WriteString(`</ul>`)
}

func renderSingleContent(sb *strings.Builder, cfg *widget.Config, items []widget.ContentItem) {
	if len(items) == 0 {
		sb.WriteString(`<div class="widget-empty">No content available</div>`)
		return
	}

	item := items[0]
	sb.WriteString(`<article class="widget-single">`)

	if cfg.Display.ShowImages && item.FeaturedImage != "" {
		sb.WriteString(fmt.Sprintf(`<img class="widget-single-image" src="%s" alt="%s">`,
			html.EscapeString(item.FeaturedImage),
			html.EscapeString(item.Title)))
	}

	sb.WriteString(fmt.Sprintf(`<h3 class="widget-item-title">%s</h3>`, html.EscapeString(item.Title)))
	renderItemMeta(sb, cfg, item)

	if item.Body != "" {
		// Body is trusted rich text from the owning site's CMS.
		sb.WriteString(`<div class="widget-single-body">`)
		sb.WriteString(item.Body)
		sb.WriteString(`</div>`)
	} else if cfg.Display.ShowExcerpts && item.Excerpt != "" {
		sb.WriteString(`<p class="widget-item-excerpt">`)
		sb.WriteString(html.EscapeString(item.Excerpt))
		sb.WriteString(`</p>`)
	}

	sb.WriteString(`</article>`)
}

func renderItemMeta(sb *strings.Builder, cfg *widget.Config, item widget.ContentItem) {
	hasMeta := (cfg.Display.ShowDates && !item.PublishedAt.IsZero()) ||
		(cfg.Display.ShowAuthors && item.Author != nil) ||
		(cfg.Display.ShowCategories && len(item.Categories) > 0) ||
		(cfg.Display.ShowTags && len(item.Tags) > 0)
	if !hasMeta {
		return
	}

	sb.WriteString(`<div class="widget-item-meta">`)

	if cfg.Display.ShowDates && !item.PublishedAt.IsZero() {
		sb.WriteString(fmt.Sprintf(`<time datetime="%s">%s</time>`,
			item.PublishedAt.Format("2006-01-02"),
			item.PublishedAt.Format("Jan 2, 2006")))
	}
	if cfg.Display.ShowAuthors && item.Author != nil {
		sb.WriteString(`<span class="widget-item-author">`)
		sb.WriteString(html.EscapeString(item.Author.Name))
		sb.WriteString(`</span>`)
	}
	if cfg.Display.ShowCategories {
		for _, c := range item.Categories {
			sb.WriteString(fmt.Sprintf(`<span class="widget-item-category" data-slug="%s">%s</span>`,
				html.EscapeString(c.Slug), html.EscapeString(c.Name)))
		}
	}
	if cfg.Display.ShowTags {
		for _, t := range item.Tags {
			sb.WriteString(fmt.Sprintf(`<span class="widget-item-tag" data-slug="%s">%s</span>`,
				html.EscapeString(t.Slug), html.EscapeString(t.Name)))
		}
	}

	sb.WriteString(`</div>`)
}

// renderThemeCSS builds the widget stylesheet from the brand theme. The
// custom CSS block comes last so site owners can override anything.
func renderThemeCSS(cfg *widget.Config, brand *widget.BrandConfig) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`
.widget {
  font-family: %s;
  background-color: %s;
  color: %s;
  border-radius: 8px;
  padding: 16px;
}
.widget-title {
  color: %s;
  font-size: 1.25rem;
  margin: 0 0 12px;
}
.widget-list {
  list-style: none;
  margin: 0;
  padding: 0;
}
.widget-item {
  padding: 12px 0;
  border-bottom: 1px solid %s;
}
.widget-item:last-child {
  border-bottom: none;
}
.widget-item-title a {
  color: %s;
  text-decoration: none;
}
.widget-item-title a:hover {
  text-decoration: underline;
}
.widget-item-excerpt {
  margin: 4px 0 0;
  font-size: 0.9rem;
}
.widget-item-meta {
  font-size: 0.8rem;
  color: %s;
}
.widget-item-meta > * {
  margin-right: 8px;
}
.widget-item-image, .widget-single-image {
  max-width: 100%%;
  height: auto;
  border-radius: 4px;
}
.widget-empty {
  padding: 24px;
  text-align: center;
  color: %s;
}
.widget-branding {
  margin-top: 12px;
  font-size: 0.7rem;
  text-align: right;
}
.widget-branding a {
  color: %s;
  text-decoration: none;
}
@media (min-width: 1024px) {
  .widget-item {
    display: flex;
    gap: 16px;
  }
  .widget-item-image {
    width: 180px;
    flex-shrink: 0;
  }
}
`,
		brand.FontFamily,
		brand.BackgroundColor,
		brand.TextColor,
		brand.PrimaryColor,
		brand.SecondaryColor,
		brand.LinkColor,
		brand.SecondaryColor,
		brand.SecondaryColor,
		brand.SecondaryColor,
	))

	// Compact theme tightens spacing for sidebar placements.
	if cfg.Theme == "compact" {
		sb.WriteString(`
.widget { padding: 8px; }
.widget-item { padding: 6px 0; }
.widget-item-excerpt { display: none; }
`)
	}

	if brand.CustomCSS != "" {
		sb.WriteString("\n")
		sb.WriteString(brand.CustomCSS)
	}

	return sb.String()
}
