// Package gorm provides GORM model definitions for the application
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WidgetConfigModel represents the GORM model for widget configurations
type WidgetConfigModel struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey"`
	WebsiteID    uuid.UUID `gorm:"type:char(36);not null;index"`
	Kind         string    `gorm:"type:varchar(50);not null"`
	Title        string    `gorm:"type:varchar(255)"`
	Theme        string    `gorm:"type:varchar(50);default:'default'"`
	Display      JSONField `gorm:"type:json"`
	Filters      JSONField `gorm:"type:json"`
	ItemsPerPage int       `gorm:"default:10"`
	SortOrder    string    `gorm:"type:varchar(50);default:'date_desc'"`

	IsPublic       bool        `gorm:"default:false;index"`
	AllowedDomains StringSlice `gorm:"type:json"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the table name
func (WidgetConfigModel) TableName() string {
	return "widget_configs"
}

// BrandConfigModel represents the GORM model for per-site brand themes
type BrandConfigModel struct {
	WebsiteID       uuid.UUID `gorm:"type:char(36);primaryKey"`
	PrimaryColor    string    `gorm:"type:varchar(20)"`
	SecondaryColor  string    `gorm:"type:varchar(20)"`
	BackgroundColor string    `gorm:"type:varchar(20)"`
	TextColor       string    `gorm:"type:varchar(20)"`
	LinkColor       string    `gorm:"type:varchar(20)"`
	FontFamily      string    `gorm:"type:varchar(255)"`
	CustomCSS       string    `gorm:"type:text"`
	HideBranding    bool      `gorm:"default:false"`
	UpdatedAt       time.Time
}

// TableName overrides the table name
func (BrandConfigModel) TableName() string {
	return "brand_configs"
}

// ContentItemModel represents the GORM model for published content rows.
// Category and tag references are denormalized into JSON columns; slug
// filtering happens with LIKE over the serialized form.
type ContentItemModel struct {
	ID            uuid.UUID `gorm:"type:char(36);primaryKey"`
	WebsiteID     uuid.UUID `gorm:"type:char(36);not null;index"`
	Title         string    `gorm:"type:varchar(255);not null"`
	Slug          string    `gorm:"type:varchar(255);not null;index"`
	Excerpt       string    `gorm:"type:text"`
	Body          string    `gorm:"type:text"`
	FeaturedImage string    `gorm:"type:text"`

	AuthorID   *uuid.UUID `gorm:"type:char(36);index"`
	AuthorName string     `gorm:"type:varchar(255)"`

	Categories TermRefSlice `gorm:"type:json"`
	Tags       TermRefSlice `gorm:"type:json"`

	Status      string     `gorm:"type:varchar(20);default:'draft';index"`
	PublishedAt *time.Time `gorm:"index"`
	CreatedAt   time.Time  `gorm:"index"`
	UpdatedAt   time.Time
}

// TableName overrides the table name
func (ContentItemModel) TableName() string {
	return "content_items"
}

// PerformanceMetricModel represents the GORM model for metric rows.
// Rows are append-only; the schema is a stable reporting contract.
type PerformanceMetricModel struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	WidgetID    uuid.UUID `gorm:"type:char(36);not null;index:idx_metrics_widget_time"`
	Timestamp   time.Time `gorm:"not null;index:idx_metrics_widget_time;index"`
	RenderTime  int64     `gorm:"not null"`
	QueryTime   int64     `gorm:"not null"`
	CacheHit    bool      `gorm:"not null"`
	ContentSize int       `gorm:"default:0"`
	ImageCount  int       `gorm:"default:0"`
	ErrorCount  int       `gorm:"default:0"`
	UserAgent   string    `gorm:"type:varchar(512)"`
	Region      string    `gorm:"type:varchar(50);index"`
	Viewport    string    `gorm:"type:varchar(20)"`
	Referrer    string    `gorm:"type:varchar(512)"`
}

// TableName overrides the table name
func (PerformanceMetricModel) TableName() string {
	return "performance_metrics"
}

// AlertRuleModel represents the GORM model for per-widget alert thresholds
type AlertRuleModel struct {
	WidgetID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	MaxRenderTime   int64     `gorm:"default:0"`
	MinCacheHitRate float64   `gorm:"default:0"`
	MaxErrorRate    float64   `gorm:"default:0"`
	UpdatedAt       time.Time
}

// TableName overrides the table name
func (AlertRuleModel) TableName() string {
	return "alert_rules"
}

// JSONField is a generic JSON column
type JSONField map[string]interface{}

// Value implements driver.Valuer
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into JSONField", value)
		}
	}

	return json.Unmarshal(bytes, j)
}

// StringSlice is a JSON-encoded string array column
type StringSlice []string

// Value implements driver.Valuer
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if str, ok := value.(string); ok {
			bytes = []byte(str)
		} else {
			return fmt.Errorf("cannot scan %T into StringSlice", value)
		}
	}

	return json.Unmarshal(bytes, s)
}

// TermRefJSON is the serialized category/tag reference shape
type TermRefJSON struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// TermRefSlice is a JSON-encoded term reference array column
type TermRefSlice []TermRefJSON

// Value implements driver.Valuer
func (t TermRefSlice) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner
func (t *TermRefSlice) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into TermRefSlice", value)
		}
	}

	return json.Unmarshal(bytes, t)
}
