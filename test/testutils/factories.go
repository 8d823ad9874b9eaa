// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/embedora/embedora/internal/domain/telemetry"
	"github.com/embedora/embedora/internal/domain/widget"
)

// WidgetFactory creates widget configurations for tests
type WidgetFactory struct {
	faker *gofakeit.Faker
}

// NewWidgetFactory creates a widget factory with a seeded faker
func NewWidgetFactory(seed int64) *WidgetFactory {
	return &WidgetFactory{faker: gofakeit.New(seed)}
}

// ContentListWidget returns a public content-list widget with all display
// toggles enabled
func (f *WidgetFactory) ContentListWidget(websiteID uuid.UUID) *widget.Config {
	now := time.Now().UTC()
	return &widget.Config{
		ID:        uuid.New(),
		WebsiteID: websiteID,
		Kind:      widget.KindContentList,
		Title:     f.faker.Sentence(3),
		Theme:     "default",
		Display: widget.DisplayToggles{
			ShowImages:     true,
			ShowExcerpts:   true,
			ShowDates:      true,
			ShowAuthors:    true,
			ShowCategories: true,
			ShowTags:       true,
		},
		ItemsPerPage: 10,
		SortOrder:    "date_desc",
		IsPublic:     true,
		CreatedAt:    now.Add(-24 * time.Hour),
		UpdatedAt:    now,
	}
}

// SingleContentWidget returns a public single-content widget
func (f *WidgetFactory) SingleContentWidget(websiteID uuid.UUID) *widget.Config {
	cfg := f.ContentListWidget(websiteID)
	cfg.Kind = widget.KindSingleContent
	cfg.ItemsPerPage = 1
	return cfg
}

// RestrictedWidget returns a widget locked to the given domains
func (f *WidgetFactory) RestrictedWidget(websiteID uuid.UUID, domains ...string) *widget.Config {
	cfg := f.ContentListWidget(websiteID)
	cfg.AllowedDomains = domains
	return cfg
}

// BrandConfig returns a brand theme for a site
func (f *WidgetFactory) BrandConfig(websiteID uuid.UUID) *widget.BrandConfig {
	return &widget.BrandConfig{
		WebsiteID:       websiteID,
		PrimaryColor:    f.faker.HexColor(),
		SecondaryColor:  f.faker.HexColor(),
		BackgroundColor: "#ffffff",
		TextColor:       "#111111",
		LinkColor:       f.faker.HexColor(),
		FontFamily:      "Georgia, serif",
		UpdatedAt:       time.Now().UTC().Truncate(time.Second),
	}
}

// ContentFactory creates published content items for tests
type ContentFactory struct {
	faker *gofakeit.Faker
}

// NewContentFactory creates a content factory with a seeded faker
func NewContentFactory(seed int64) *ContentFactory {
	return &ContentFactory{faker: gofakeit.New(seed)}
}

// Item returns a fully populated published content item
func (f *ContentFactory) Item() widget.ContentItem {
	title := f.faker.Sentence(4)
	return widget.ContentItem{
		ID:            uuid.New(),
		Title:         title,
		Slug:          f.faker.Generate("?????-?????"),
		Excerpt:       f.faker.Paragraph(1, 2, 8, " "),
		Body:          "<p>" + f.faker.Paragraph(2, 3, 10, " ") + "</p>",
		FeaturedImage: fmt.Sprintf("https://images.example.com/%s.jpg", uuid.New()),
		Author: &widget.AuthorRef{
			ID:   uuid.New(),
			Name: f.faker.Name(),
		},
		Categories: []widget.TermRef{f.Term("news")},
		Tags:       []widget.TermRef{f.Term("featured")},
		PublishedAt: time.Now().UTC().Add(-time.Duration(f.faker.Number(1, 72)) * time.Hour),
		CreatedAt:   time.Now().UTC().Add(-96 * time.Hour),
	}
}

// Items returns n published content items
func (f *ContentFactory) Items(n int) []widget.ContentItem {
	items := make([]widget.ContentItem, n)
	for i := range items {
		items[i] = f.Item()
	}
	return items
}

// Term returns a category or tag reference with the given slug
func (f *ContentFactory) Term(slug string) widget.TermRef {
	return widget.TermRef{
		ID:   uuid.New(),
		Name: f.faker.Word(),
		Slug: slug,
	}
}

// MetricFactory creates performance metric rows for tests
type MetricFactory struct {
	faker *gofakeit.Faker
}

// NewMetricFactory creates a metric factory with a seeded faker
func NewMetricFactory(seed int64) *MetricFactory {
	return &MetricFactory{faker: gofakeit.New(seed)}
}

// Metric returns a single metric row with a sensible default shape
func (f *MetricFactory) Metric(widgetID uuid.UUID) telemetry.Metric {
	return telemetry.Metric{
		WidgetID:    widgetID,
		Timestamp:   time.Now().UTC(),
		RenderTime:  int64(f.faker.Number(20, 400)),
		QueryTime:   int64(f.faker.Number(5, 80)),
		CacheHit:    f.faker.Bool(),
		ContentSize: f.faker.Number(2_000, 60_000),
		ImageCount:  f.faker.Number(0, 6),
		UserAgent:   f.faker.UserAgent(),
		Viewport:    "desktop",
		Referrer:    "https://" + f.faker.DomainName() + "/articles",
	}
}

// Series returns n metric rows spaced evenly going back in time from now,
// oldest first
func (f *MetricFactory) Series(widgetID uuid.UUID, n int, spacing time.Duration) []telemetry.Metric {
	rows := make([]telemetry.Metric, n)
	now := time.Now().UTC()
	for i := range rows {
		m := f.Metric(widgetID)
		m.Timestamp = now.Add(-time.Duration(n-1-i) * spacing)
		rows[i] = m
	}
	return rows
}
