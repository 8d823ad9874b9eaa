package widget

import (
	"time"

	"github.com/google/uuid"
)

// ContentItem is a read-only projection of a published content row. Which
// fields are populated depends on the owning widget's display toggles.
type ContentItem struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Excerpt       string     `json:"excerpt,omitempty"`
	Body          string     `json:"body,omitempty"`
	FeaturedImage string     `json:"featured_image,omitempty"`
	Author        *AuthorRef `json:"author,omitempty"`
	Categories    []TermRef  `json:"categories,omitempty"`
	Tags          []TermRef  `json:"tags,omitempty"`
	PublishedAt   time.Time  `json:"published_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AuthorRef is a lightweight author reference
type AuthorRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// TermRef is a lightweight category or tag reference
type TermRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}
