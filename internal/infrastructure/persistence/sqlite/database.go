// Package sqlite provides SQLite database setup for local development
package sqlite

import (
	"fmt"
	"time"

	gormModels "github.com/embedora/embedora/internal/infrastructure/persistence/gorm"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupDatabase creates and migrates the SQLite database
func SetupDatabase(dbPath string, logLevel logger.LogLevel) (*gorm.DB, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&gormModels.WidgetConfigModel{},
		&gormModels.BrandConfigModel{},
		&gormModels.ContentItemModel{},
		&gormModels.PerformanceMetricModel{},
		&gormModels.AlertRuleModel{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// SeedDatabase populates the database with demo widgets and content so a
// fresh development environment renders something immediately.
func SeedDatabase(db *gorm.DB) error {
	var count int64
	db.Model(&gormModels.WidgetConfigModel{}).Count(&count)
	if count > 0 {
		return nil // already seeded
	}

	gofakeit.Seed(42)

	websiteID := uuid.New()
	now := time.Now().UTC()

	brand := gormModels.BrandConfigModel{
		WebsiteID:       websiteID,
		PrimaryColor:    "#2563eb",
		SecondaryColor:  "#64748b",
		BackgroundColor: "#ffffff",
		TextColor:       "#1e293b",
		LinkColor:       "#2563eb",
		FontFamily:      "system-ui, -apple-system, sans-serif",
		UpdatedAt:       now,
	}
	if err := db.Create(&brand).Error; err != nil {
		return fmt.Errorf("failed to seed brand config: %w", err)
	}

	widgets := []gormModels.WidgetConfigModel{
		{
			ID:        uuid.New(),
			WebsiteID: websiteID,
			Kind:      "content_list",
			Title:     "Latest Articles",
			Theme:     "default",
			Display: gormModels.JSONField{
				"show_images":   true,
				"show_excerpts": true,
				"show_dates":    true,
				"show_authors":  true,
			},
			ItemsPerPage: 10,
			SortOrder:    "date_desc",
			IsPublic:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		{
			ID:           uuid.New(),
			WebsiteID:    websiteID,
			Kind:         "category_feed",
			Title:        "From the Blog",
			Theme:        "compact",
			Display:      gormModels.JSONField{"show_dates": true},
			ItemsPerPage: 5,
			SortOrder:    "date_desc",
			IsPublic:     true,
			AllowedDomains: gormModels.StringSlice{
				"example.com",
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	if err := db.Create(&widgets).Error; err != nil {
		return fmt.Errorf("failed to seed widget configs: %w", err)
	}

	categories := gormModels.TermRefSlice{
		{ID: uuid.New(), Name: "News", Slug: "news"},
		{ID: uuid.New(), Name: "Guides", Slug: "guides"},
	}

	items := make([]gormModels.ContentItemModel, 0, 25)
	for i := 0; i < 25; i++ {
		publishedAt := gofakeit.DateRange(now.Add(-90*24*time.Hour), now)
		authorID := uuid.New()
		items = append(items, gormModels.ContentItemModel{
			ID:            uuid.New(),
			WebsiteID:     websiteID,
			Title:         gofakeit.Sentence(6),
			Slug:          gofakeit.Gamertag(),
			Excerpt:       gofakeit.Paragraph(1, 2, 12, " "),
			Body:          gofakeit.Paragraph(4, 5, 20, "\n\n"),
			FeaturedImage: fmt.Sprintf("https://picsum.photos/seed/%d/800/450", i),
			AuthorID:      &authorID,
			AuthorName:    gofakeit.Name(),
			Categories:    gormModels.TermRefSlice{categories[i%len(categories)]},
			Tags: gormModels.TermRefSlice{
				{ID: uuid.New(), Name: gofakeit.Word(), Slug: gofakeit.Word()},
			},
			Status:      "published",
			PublishedAt: &publishedAt,
			CreatedAt:   publishedAt,
			UpdatedAt:   publishedAt,
		})
	}
	if err := db.Create(&items).Error; err != nil {
		return fmt.Errorf("failed to seed content items: %w", err)
	}

	return nil
}
