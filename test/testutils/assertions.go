// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedora/embedora/internal/domain/widget"
)

// DeliveryAssertions provides delivery-specific assertion helpers
type DeliveryAssertions struct {
	t *testing.T
}

// NewDeliveryAssertions creates a delivery assertions helper
func NewDeliveryAssertions(t *testing.T) *DeliveryAssertions {
	return &DeliveryAssertions{t: t}
}

// ValidResponse asserts the structural invariants every delivery must hold:
// a non-empty document, internally consistent pagination, and performance
// info that matches the path taken.
func (da *DeliveryAssertions) ValidResponse(resp *widget.DeliveryResponse) {
	da.t.Helper()

	require.NotNil(da.t, resp, "delivery response should not be nil")
	assert.NotEmpty(da.t, resp.HTML, "delivery should produce HTML")
	assert.NotEmpty(da.t, resp.CSS, "delivery should produce CSS")

	data := resp.Data
	assert.GreaterOrEqual(da.t, data.Total, len(data.Items), "total should cover the returned page")
	assert.GreaterOrEqual(da.t, data.Page, 1, "page numbers are 1-based")
	if data.Total > 0 {
		assert.GreaterOrEqual(da.t, data.TotalPages, 1, "non-empty result sets have at least one page")
	}
	assert.Equal(da.t, data.Page < data.TotalPages, data.HasMore,
		"hasMore should agree with page arithmetic")

	assert.GreaterOrEqual(da.t, resp.Performance.RenderTime, int64(0))
}

// ContainsItems asserts every item title is rendered in the HTML
func (da *DeliveryAssertions) ContainsItems(resp *widget.DeliveryResponse, items []widget.ContentItem) {
	da.t.Helper()
	for _, item := range items {
		assert.True(da.t, strings.Contains(resp.HTML, item.Title),
			"HTML should contain item title %q", item.Title)
	}
}
