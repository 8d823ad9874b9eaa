package gorm

import (
	"context"
	"strings"
	"time"

	"github.com/embedora/embedora/internal/domain/widget"
	"github.com/embedora/embedora/internal/ports/outbound"

	"gorm.io/gorm"
)

// ContentRepository implements the content repository using GORM
type ContentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *gorm.DB) outbound.ContentRepository {
	return &ContentRepository{db: db}
}

// FindPublished finds published content rows matching the query. Only the
// columns the projection implies are fetched; everything else comes back
// as the zero value.
func (r *ContentRepository) FindPublished(ctx context.Context, q outbound.ContentQuery) ([]widget.ContentItem, int, error) {
	base := r.db.WithContext(ctx).Model(&ContentItemModel{}).
		Where("website_id = ?", q.WebsiteID).
		Where("status = ?", "published").
		Where("published_at <= ?", time.Now().UTC())

	base = applyFilters(base, q)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var models []ContentItemModel
	result := base.
		Select(projectedColumns(q)).
		Order(sortClause(q.Sort)).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&models)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	items := make([]widget.ContentItem, len(models))
	for i := range models {
		items[i] = ModelToContentItem(&models[i])
	}
	return items, int(total), nil
}

func applyFilters(query *gorm.DB, q outbound.ContentQuery) *gorm.DB {
	f := q.Filters

	if len(f.AuthorIDs) > 0 {
		query = query.Where("author_id IN ?", f.AuthorIDs)
	}
	if f.PublishedAfter != nil {
		query = query.Where("published_at >= ?", *f.PublishedAfter)
	}
	if f.PublishedBefore != nil {
		query = query.Where("published_at <= ?", *f.PublishedBefore)
	}

	// Term references live in JSON columns; id and slug filters match the
	// serialized form. Coarse but portable across sqlite and postgres.
	for _, id := range f.CategoryIDs {
		query = query.Where("categories LIKE ?", jsonFieldPattern("id", id.String()))
	}
	for _, id := range f.TagIDs {
		query = query.Where("tags LIKE ?", jsonFieldPattern("id", id.String()))
	}
	if q.Category != "" {
		query = query.Where("categories LIKE ?", jsonFieldPattern("slug", strings.ToLower(q.Category)))
	}
	if q.Tag != "" {
		query = query.Where("tags LIKE ?", jsonFieldPattern("slug", strings.ToLower(q.Tag)))
	}

	if q.Search != "" {
		term := "%" + strings.ToLower(q.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(excerpt) LIKE ?", term, term)
	}

	return query
}

func jsonFieldPattern(field, value string) string {
	return `%"` + field + `":"` + value + `"%`
}

// projectedColumns maps display toggles to the column list so unused
// fields never leave the database.
func projectedColumns(q outbound.ContentQuery) []string {
	cols := []string{"id", "website_id", "title", "slug", "published_at", "created_at"}

	if q.Projection.ShowExcerpts {
		cols = append(cols, "excerpt")
	}
	if q.IncludeBody {
		cols = append(cols, "body")
	}
	if q.Projection.ShowImages {
		cols = append(cols, "featured_image")
	}
	if q.Projection.ShowAuthors {
		cols = append(cols, "author_id", "author_name")
	}
	if q.Projection.ShowCategories {
		cols = append(cols, "categories")
	}
	if q.Projection.ShowTags {
		cols = append(cols, "tags")
	}
	return cols
}

func sortClause(sort string) string {
	switch sort {
	case "date_asc":
		return "published_at ASC"
	case "title_asc":
		return "title ASC"
	case "title_desc":
		return "title DESC"
	default:
		return "published_at DESC"
	}
}
