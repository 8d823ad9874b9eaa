package cache

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/embedora/embedora/internal/domain/widget"
)

func TestContentKeyDeterministic(t *testing.T) {
	kb := NewKeyBuilder("embedora")
	widgetID := uuid.New()
	opts := widget.RenderOptions{Page: 2, Limit: 10, Search: "go", Category: "news", Tag: "infra", Sort: "date_asc"}

	assert.Equal(t, kb.ContentKey(widgetID, opts), kb.ContentKey(widgetID, opts))
}

func TestContentKeyIgnoresProvenance(t *testing.T) {
	kb := NewKeyBuilder("embedora")
	widgetID := uuid.New()

	a := widget.RenderOptions{Page: 1, Limit: 10}
	b := a
	b.Referrer = "https://blog.example.com/post"
	b.UserAgent = "Mozilla/5.0"
	b.ClientAddr = "203.0.113.9:1234"
	b.Viewport = "mobile"
	b.Region = "eu-west"

	assert.Equal(t, kb.ContentKey(widgetID, a), kb.ContentKey(widgetID, b),
		"provenance must never fragment the content cache")
}

func TestContentKeyVariesByRequestShape(t *testing.T) {
	kb := NewKeyBuilder("embedora")
	widgetID := uuid.New()
	base := widget.RenderOptions{Page: 1, Limit: 10}

	seen := map[string]bool{kb.ContentKey(widgetID, base): true}
	for _, mutate := range []func(*widget.RenderOptions){
		func(o *widget.RenderOptions) { o.Page = 2 },
		func(o *widget.RenderOptions) { o.Limit = 20 },
		func(o *widget.RenderOptions) { o.Search = "gophers" },
		func(o *widget.RenderOptions) { o.Category = "news" },
		func(o *widget.RenderOptions) { o.Tag = "infra" },
		func(o *widget.RenderOptions) { o.Sort = "title_asc" },
	} {
		opts := base
		mutate(&opts)
		key := kb.ContentKey(widgetID, opts)
		assert.False(t, seen[key], "each request-shape dimension must produce a distinct key")
		seen[key] = true
	}
}

func TestContentPrefixCoversContentKeys(t *testing.T) {
	kb := NewKeyBuilder("embedora")
	widgetID := uuid.New()

	key := kb.ContentKey(widgetID, widget.RenderOptions{Page: 1, Limit: 10})
	prefix := kb.ContentPrefix(widgetID)

	assert.True(t, strings.HasPrefix(key, prefix))
	assert.False(t, strings.HasPrefix(kb.WidgetConfigKey(widgetID), prefix),
		"config entries must survive a content purge")
	assert.False(t, strings.HasPrefix(kb.ContentKey(uuid.New(), widget.RenderOptions{}), prefix),
		"other widgets' entries must survive a content purge")
}

func TestCSSKeyEncodesWatermark(t *testing.T) {
	kb := NewKeyBuilder("embedora")
	widgetID := uuid.New()

	before := kb.CSSKey(widgetID, "1772366400")
	after := kb.CSSKey(widgetID, "1772366401")

	assert.NotEqual(t, before, after, "a brand update must address fresh CSS")
	assert.True(t, strings.HasPrefix(before, kb.CSSPrefix()))
	assert.True(t, strings.HasPrefix(after, kb.CSSPrefix()))
}

func TestKeyNamespacesAreDisjoint(t *testing.T) {
	kb := NewKeyBuilder("embedora")
	id := uuid.New()

	keys := []string{
		kb.ContentKey(id, widget.RenderOptions{Page: 1, Limit: 10}),
		kb.WidgetConfigKey(id),
		kb.BrandConfigKey(id),
		kb.CSSKey(id, "w"),
		kb.RealTimeKey(id),
		kb.RequestWindowKey(id),
	}

	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		assert.False(t, seen[k])
		seen[k] = true
	}
}

func TestDefaultPrefix(t *testing.T) {
	kb := NewKeyBuilder("")
	assert.True(t, strings.HasPrefix(kb.WidgetConfigKey(uuid.New()), "embedora:"))
}
