// Package gorm provides GORM-based repository implementations
package gorm

import (
	"context"
	"errors"

	"github.com/embedora/embedora/internal/domain/widget"
	"github.com/embedora/embedora/internal/ports/outbound"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WidgetConfigRepository implements the widget config repository using GORM
type WidgetConfigRepository struct {
	db *gorm.DB
}

// NewWidgetConfigRepository creates a new widget config repository
func NewWidgetConfigRepository(db *gorm.DB) outbound.WidgetConfigRepository {
	return &WidgetConfigRepository{db: db}
}

// FindByID finds a widget configuration by ID
func (r *WidgetConfigRepository) FindByID(ctx context.Context, id uuid.UUID) (*widget.Config, error) {
	var model WidgetConfigModel

	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrNotFound
		}
		return nil, result.Error
	}

	return ModelToWidgetConfig(&model)
}

// BrandConfigRepository implements the brand config repository using GORM
type BrandConfigRepository struct {
	db *gorm.DB
}

// NewBrandConfigRepository creates a new brand config repository
func NewBrandConfigRepository(db *gorm.DB) outbound.BrandConfigRepository {
	return &BrandConfigRepository{db: db}
}

// FindByWebsiteID finds a site's brand configuration
func (r *BrandConfigRepository) FindByWebsiteID(ctx context.Context, websiteID uuid.UUID) (*widget.BrandConfig, error) {
	var model BrandConfigModel

	result := r.db.WithContext(ctx).First(&model, "website_id = ?", websiteID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrNotFound
		}
		return nil, result.Error
	}

	return ModelToBrandConfig(&model), nil
}
