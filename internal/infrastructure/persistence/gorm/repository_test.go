package gorm_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormdb "gorm.io/gorm"

	"github.com/embedora/embedora/internal/domain/telemetry"
	"github.com/embedora/embedora/internal/domain/widget"
	"github.com/embedora/embedora/internal/infrastructure/persistence/gorm"
	"github.com/embedora/embedora/internal/ports/outbound"
	"github.com/embedora/embedora/test/testutils"
)

func seedContentItem(t *testing.T, db *gormdb.DB, m gorm.ContentItemModel) gorm.ContentItemModel {
	t.Helper()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Status == "" {
		m.Status = "published"
	}
	if m.PublishedAt == nil {
		ts := time.Now().UTC().Add(-time.Hour)
		m.PublishedAt = &ts
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func TestWidgetConfigRepository(t *testing.T) {
	db := testutils.NewTestDatabase(t)
	repo := gorm.NewWidgetConfigRepository(db)

	model := gorm.WidgetConfigModel{
		ID:             uuid.New(),
		WebsiteID:      uuid.New(),
		Kind:           "content_list",
		Title:          "Latest posts",
		Theme:          "default",
		Display:        gorm.JSONField{"show_images": true, "show_excerpts": true},
		ItemsPerPage:   10,
		SortOrder:      "date_desc",
		IsPublic:       true,
		AllowedDomains: gorm.StringSlice{"example.com"},
	}
	require.NoError(t, db.Create(&model).Error)

	t.Run("FindByID", func(t *testing.T) {
		cfg, err := repo.FindByID(context.Background(), model.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ID, cfg.ID)
		assert.Equal(t, widget.KindContentList, cfg.Kind)
		assert.True(t, cfg.Display.ShowImages)
		assert.Equal(t, []string{"example.com"}, cfg.AllowedDomains)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.FindByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, outbound.ErrNotFound)
	})
}

func TestBrandConfigRepository(t *testing.T) {
	db := testutils.NewTestDatabase(t)
	repo := gorm.NewBrandConfigRepository(db)

	model := gorm.BrandConfigModel{
		WebsiteID:    uuid.New(),
		PrimaryColor: "#ff0055",
		FontFamily:   "Georgia, serif",
		HideBranding: true,
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, db.Create(&model).Error)

	brand, err := repo.FindByWebsiteID(context.Background(), model.WebsiteID)
	require.NoError(t, err)
	assert.Equal(t, "#ff0055", brand.PrimaryColor)
	assert.True(t, brand.HideBranding)

	_, err = repo.FindByWebsiteID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, outbound.ErrNotFound)
}

func TestContentRepositoryVisibility(t *testing.T) {
	db := testutils.NewTestDatabase(t)
	repo := gorm.NewContentRepository(db)
	websiteID := uuid.New()

	seedContentItem(t, db, gorm.ContentItemModel{WebsiteID: websiteID, Title: "Visible", Slug: "visible"})
	seedContentItem(t, db, gorm.ContentItemModel{WebsiteID: websiteID, Title: "Draft", Slug: "draft", Status: "draft"})

	future := time.Now().UTC().Add(time.Hour)
	seedContentItem(t, db, gorm.ContentItemModel{WebsiteID: websiteID, Title: "Scheduled", Slug: "scheduled", PublishedAt: &future})
	seedContentItem(t, db, gorm.ContentItemModel{WebsiteID: uuid.New(), Title: "Other site", Slug: "other"})

	items, total, err := repo.FindPublished(context.Background(), outbound.ContentQuery{
		WebsiteID: websiteID,
		Limit:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Visible", items[0].Title, "drafts, scheduled rows and other sites stay hidden")
}

func TestContentRepositoryProjection(t *testing.T) {
	db := testutils.NewTestDatabase(t)
	repo := gorm.NewContentRepository(db)
	websiteID := uuid.New()
	authorID := uuid.New()

	seedContentItem(t, db, gorm.ContentItemModel{
		WebsiteID:     websiteID,
		Title:         "Projected",
		Slug:          "projected",
		Excerpt:       "short version",
		Body:          "<p>full body</p>",
		FeaturedImage: "https://images.example.com/a.jpg",
		AuthorID:      &authorID,
		AuthorName:    "Avery Author",
	})

	t.Run("MinimalProjection", func(t *testing.T) {
		items, _, err := repo.FindPublished(context.Background(), outbound.ContentQuery{
			WebsiteID: websiteID,
			Limit:     10,
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Projected", items[0].Title)
		assert.Empty(t, items[0].Excerpt, "untoggled columns never leave the database")
		assert.Empty(t, items[0].Body)
		assert.Empty(t, items[0].FeaturedImage)
		assert.Nil(t, items[0].Author)
	})

	t.Run("FullProjection", func(t *testing.T) {
		items, _, err := repo.FindPublished(context.Background(), outbound.ContentQuery{
			WebsiteID: websiteID,
			Projection: widget.DisplayToggles{
				ShowImages:   true,
				ShowExcerpts: true,
				ShowAuthors:  true,
			},
			IncludeBody: true,
			Limit:       10,
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "short version", items[0].Excerpt)
		assert.Equal(t, "<p>full body</p>", items[0].Body)
		assert.NotEmpty(t, items[0].FeaturedImage)
		require.NotNil(t, items[0].Author)
		assert.Equal(t, "Avery Author", items[0].Author.Name)
	})
}

func TestContentRepositoryFilters(t *testing.T) {
	db := testutils.NewTestDatabase(t)
	repo := gorm.NewContentRepository(db)
	websiteID := uuid.New()

	newsID := uuid.New()
	seedContentItem(t, db, gorm.ContentItemModel{
		WebsiteID:  websiteID,
		Title:      "Go generics deep dive",
		Slug:       "go-generics",
		Excerpt:    "about type parameters",
		Categories: gorm.TermRefSlice{{ID: newsID, Name: "News", Slug: "news"}},
		Tags:       gorm.TermRefSlice{{ID: uuid.New(), Name: "Infra", Slug: "infra"}},
	})
	seedContentItem(t, db, gorm.ContentItemModel{
		WebsiteID:  websiteID,
		Title:      "Cooking with cast iron",
		Slug:       "cast-iron",
		Excerpt:    "weeknight skillet dinners",
		Categories: gorm.TermRefSlice{{ID: uuid.New(), Name: "Food", Slug: "food"}},
	})

	base := outbound.ContentQuery{
		WebsiteID:  websiteID,
		Projection: widget.DisplayToggles{ShowCategories: true},
		Limit:      10,
	}

	t.Run("CategorySlug", func(t *testing.T) {
		q := base
		q.Category = "news"
		items, total, err := repo.FindPublished(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, items, 1)
		assert.Equal(t, "go-generics", items[0].Slug)
	})

	t.Run("CategoryID", func(t *testing.T) {
		q := base
		q.Filters = widget.ContentFilters{CategoryIDs: []uuid.UUID{newsID}}
		_, total, err := repo.FindPublished(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("TagSlug", func(t *testing.T) {
		q := base
		q.Tag = "infra"
		_, total, err := repo.FindPublished(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})

	t.Run("SearchMatchesTitleAndExcerpt", func(t *testing.T) {
		q := base
		q.Search = "GENERICS"
		_, total, err := repo.FindPublished(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, 1, total, "search is case-insensitive")

		q.Search = "weeknight"
		_, total, err = repo.FindPublished(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, 1, total, "search also covers the excerpt")
	})

	t.Run("NoMatches", func(t *testing.T) {
		q := base
		q.Category = "missing"
		items, total, err := repo.FindPublished(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Empty(t, items)
	})
}

func TestContentRepositorySortAndPagination(t *testing.T) {
	db := testutils.NewTestDatabase(t)
	repo := gorm.NewContentRepository(db)
	websiteID := uuid.New()

	base := time.Now().UTC().Add(-24 * time.Hour)
	titles := []string{"Charlie", "Alpha", "Bravo"}
	for i, title := range titles {
		ts := base.Add(time.Duration(i) * time.Hour)
		seedContentItem(t, db, gorm.ContentItemModel{
			WebsiteID:   websiteID,
			Title:       title,
			Slug:        title,
			PublishedAt: &ts,
		})
	}

	t.Run("DefaultIsNewestFirst", func(t *testing.T) {
		items, _, err := repo.FindPublished(context.Background(), outbound.ContentQuery{WebsiteID: websiteID, Limit: 10})
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "Bravo", items[0].Title)
	})

	t.Run("TitleAscending", func(t *testing.T) {
		items, _, err := repo.FindPublished(context.Background(), outbound.ContentQuery{
			WebsiteID: websiteID, Sort: "title_asc", Limit: 10,
		})
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"},
			[]string{items[0].Title, items[1].Title, items[2].Title})
	})

	t.Run("OffsetAndLimit", func(t *testing.T) {
		items, total, err := repo.FindPublished(context.Background(), outbound.ContentQuery{
			WebsiteID: websiteID, Sort: "title_asc", Offset: 1, Limit: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, total, "total counts the full filtered set, not the page")
		require.Len(t, items, 1)
		assert.Equal(t, "Bravo", items[0].Title)
	})
}

func TestMetricRepository(t *testing.T) {
	db := testutils.NewTestDatabase(t)
	repo := gorm.NewMetricRepository(db)
	widgetID := uuid.New()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Save(context.Background(), &telemetry.Metric{
			WidgetID:   widgetID,
			Timestamp:  now.Add(-time.Duration(i) * time.Hour),
			RenderTime: int64(100 + i),
			CacheHit:   i%2 == 0,
		}))
	}
	require.NoError(t, repo.Save(context.Background(), &telemetry.Metric{
		WidgetID:  uuid.New(),
		Timestamp: now,
	}))

	t.Run("FindByWidgetSince", func(t *testing.T) {
		rows, err := repo.FindByWidgetSince(context.Background(), widgetID, now.Add(-2*time.Hour-time.Minute))
		require.NoError(t, err)
		require.Len(t, rows, 3)
		for i := 1; i < len(rows); i++ {
			assert.False(t, rows[i].Timestamp.Before(rows[i-1].Timestamp), "rows come back oldest first")
		}
	})

	t.Run("FindSinceSpansWidgets", func(t *testing.T) {
		rows, err := repo.FindSince(context.Background(), now.Add(-time.Minute))
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("DeleteOlderThan", func(t *testing.T) {
		deleted, err := repo.DeleteOlderThan(context.Background(), now.Add(-90*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(3), deleted)

		rows, err := repo.FindByWidgetSince(context.Background(), widgetID, now.Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})
}

func TestAlertRuleRepository(t *testing.T) {
	db := testutils.NewTestDatabase(t)
	repo := gorm.NewAlertRuleRepository(db)
	widgetID := uuid.New()

	t.Run("AbsentRuleIsNil", func(t *testing.T) {
		rule, err := repo.FindByWidgetID(context.Background(), widgetID)
		require.NoError(t, err)
		assert.Nil(t, rule)
	})

	t.Run("UpsertInsertsThenReplaces", func(t *testing.T) {
		require.NoError(t, repo.Upsert(context.Background(), &telemetry.AlertRule{
			WidgetID: widgetID, MaxRenderTime: 500, UpdatedAt: time.Now().UTC(),
		}))
		require.NoError(t, repo.Upsert(context.Background(), &telemetry.AlertRule{
			WidgetID: widgetID, MaxRenderTime: 900, MinCacheHitRate: 0.7, UpdatedAt: time.Now().UTC(),
		}))

		rule, err := repo.FindByWidgetID(context.Background(), widgetID)
		require.NoError(t, err)
		require.NotNil(t, rule)
		assert.Equal(t, int64(900), rule.MaxRenderTime)
		assert.Equal(t, 0.7, rule.MinCacheHitRate)

		var count int64
		require.NoError(t, db.Model(&gorm.AlertRuleModel{}).Count(&count).Error)
		assert.Equal(t, int64(1), count, "upsert never duplicates a widget's rule")
	})
}
