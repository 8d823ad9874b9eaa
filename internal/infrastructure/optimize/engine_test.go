package optimize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedora/embedora/internal/infrastructure/cdn"
	"github.com/embedora/embedora/internal/infrastructure/config"
)

func testEngine() *Engine {
	policy := cdn.NewPolicy(config.CDNConfig{
		ImageBaseURL:   "https://img.embedora.dev/opt",
		DefaultQuality: 80,
		DefaultFormat:  "webp",
		DefaultRegion:  "us-east",
	})
	return NewEngine(policy)
}

func allPasses() Options {
	return Options{
		MinifyHTML:        true,
		MinifyCSS:         true,
		OptimizeImages:    true,
		LazyLoading:       true,
		ResponsiveImages:  true,
		InlineCriticalCSS: true,
		PreloadHeaders:    true,
	}
}

const sampleHTML = `<div class="widget widget-content_list">
	<!-- item list -->
	<ul class="widget-list">
		<li><img src="https://photos.example.com/a.jpg" alt="First"> <a href="/a">First</a></li>
		<li><img src="https://photos.example.com/b.jpg" alt="Second"> <a href="/b">Second</a></li>
		<li><img src="https://photos.example.com/c.jpg" alt="Third"> <a href="/c">Third</a></li>
	</ul>
</div>`

const sampleCSS = `/* base */
.widget { color: #111; padding: 8px; }
.widget-list { margin: 0; }
.footer { color: #999; }
@media (min-width: 1024px) { .widget { padding: 16px; } }`

func TestOptimizeAppliesPassesInOrder(t *testing.T) {
	result := testEngine().Optimize(sampleHTML, sampleCSS, allPasses())

	assert.Equal(t, []string{
		"minify_html",
		"minify_css",
		"critical_css",
		"image_optimization",
		"responsive_images",
		"preload_headers",
		"lazy_loading",
	}, result.Summary.Applied)
}

func TestOptimizeDisabledPassesAreSkipped(t *testing.T) {
	result := testEngine().Optimize(sampleHTML, sampleCSS, Options{MinifyCSS: true})

	assert.Equal(t, []string{"minify_css"}, result.Summary.Applied)
	assert.Equal(t, sampleHTML, result.HTML, "HTML untouched when its passes are off")
	assert.Empty(t, result.CriticalCSS)
	assert.Empty(t, result.PreloadHeaders)
}

func TestOptimizeIsIdempotent(t *testing.T) {
	engine := testEngine()
	opts := allPasses()

	first := engine.Optimize(sampleHTML, sampleCSS, opts)
	second := engine.Optimize(first.HTML, first.CSS+first.CriticalCSS, opts)

	assert.Equal(t, first.HTML, second.HTML, "re-optimizing optimized HTML must be a no-op")
	assert.NotContains(t, second.HTML, "url=https%3A%2F%2Fimg.embedora.dev",
		"CDN-hosted sources must never be routed through the optimizer again")
}

func TestOptimizeSummarySizes(t *testing.T) {
	result := testEngine().Optimize(sampleHTML, sampleCSS, Options{MinifyHTML: true, MinifyCSS: true})

	assert.Equal(t, len(sampleHTML)+len(sampleCSS), result.Summary.OriginalSize)
	assert.Equal(t, len(result.HTML)+len(result.CSS), result.Summary.OptimizedSize)
	assert.Less(t, result.Summary.CompressionRatio, 1.0, "minification should shrink the sample")
	assert.Greater(t, result.Summary.CompressionRatio, 0.0)
}

func TestOptimizeEmptyInput(t *testing.T) {
	result := testEngine().Optimize("", "", allPasses())

	assert.Empty(t, result.HTML)
	assert.Equal(t, 1.0, result.Summary.CompressionRatio)
	assert.Len(t, result.Summary.Applied, 7)
}

func TestMinifyHTML(t *testing.T) {
	in := "<div>\n  <!-- note -->\n  <p>hello   world</p>\n</div>"
	out := MinifyHTML(in)

	assert.Equal(t, "<div><p>hello world</p></div>", out)
	assert.Equal(t, out, MinifyHTML(out), "minification is idempotent")
}

func TestMinifyCSS(t *testing.T) {
	in := "/* c */ .a { color : red ; }\n.b , .c { margin : 0 ; }"
	out := MinifyCSS(in)

	assert.Equal(t, ".a{color:red}.b,.c{margin:0}", out)
	assert.Equal(t, out, MinifyCSS(out), "minification is idempotent")
}

func TestSplitCriticalCSS(t *testing.T) {
	css := ".widget{color:red}.footer{color:blue}body{margin:0}" +
		"@media (min-width: 1024px){.widget{padding:16px}}"

	critical, remaining := SplitCriticalCSS(css)

	assert.Contains(t, critical, ".widget{color:red}")
	assert.Contains(t, critical, "body{margin:0}")
	assert.Contains(t, remaining, ".footer{color:blue}")
	assert.Contains(t, remaining, "@media (min-width: 1024px)", "at-rule blocks are never critical")
	assert.NotContains(t, remaining, ".widget{color:red}")
}

func TestSplitCriticalCSSKeepsMediaBlocksWhole(t *testing.T) {
	css := "@media (max-width: 600px){.widget{font-size:12px}.footer{display:none}}"

	critical, remaining := SplitCriticalCSS(css)

	assert.Empty(t, critical)
	assert.Equal(t, css, remaining, "nested rules stay attached to their wrapper")
}

func TestSplitCriticalCSSMultiSelector(t *testing.T) {
	critical, remaining := SplitCriticalCSS(".sidebar, .widget-title { font-weight: bold }")

	assert.NotEmpty(t, critical, "a rule is critical if any of its selectors is")
	assert.Empty(t, strings.TrimSpace(remaining))
}

func TestRewriteImagesRoutesThroughCDN(t *testing.T) {
	result := testEngine().Optimize(
		`<img src="https://photos.example.com/a.jpg" alt="x">`, "",
		Options{OptimizeImages: true})

	assert.Contains(t, result.HTML, `src="https://img.embedora.dev/opt?`)
	assert.Contains(t, result.HTML, "q=80")
	assert.Contains(t, result.HTML, "fm=webp")
}

func TestRewriteImagesSkipsDataURIs(t *testing.T) {
	in := `<img src="data:image/gif;base64,R0lGOD" alt="inline">`
	result := testEngine().Optimize(in, "", Options{OptimizeImages: true})

	assert.Equal(t, in, result.HTML)
}

func TestRewriteImagesAddsResponsiveSrcSet(t *testing.T) {
	result := testEngine().Optimize(
		`<img src="https://photos.example.com/a.jpg">`, "",
		Options{OptimizeImages: true, ResponsiveImages: true})

	require.Contains(t, result.HTML, "srcset=")
	for _, w := range []string{"320w", "640w", "1920w"} {
		assert.Contains(t, result.HTML, w)
	}
	assert.Contains(t, result.HTML, `sizes="(max-width: 768px) 100vw, 768px"`)
}

func TestRewriteImagesKeepsExistingSrcSet(t *testing.T) {
	in := `<img src="https://photos.example.com/a.jpg" srcset="a.jpg 320w">`
	result := testEngine().Optimize(in, "", Options{OptimizeImages: true, ResponsiveImages: true})

	assert.Equal(t, 1, strings.Count(result.HTML, "srcset="))
}

func TestSweepLazyLoading(t *testing.T) {
	in := `<img src="/a.jpg"><iframe src="/embed"></iframe><img src="/b.jpg" loading="eager">`
	out := SweepLazyLoading(in)

	assert.Equal(t, 2, strings.Count(out, `loading="lazy"`))
	assert.Contains(t, out, `loading="eager"`, "explicit loading attributes are preserved")
	assert.Equal(t, out, SweepLazyLoading(out), "sweep is idempotent")
}

func TestBuildPreloadHeaders(t *testing.T) {
	html := `<img src="https://photos.example.com/1.jpg">` +
		`<img src="https://photos.example.com/2.jpg">` +
		`<img src="https://photos.example.com/3.jpg">` +
		`<link rel="stylesheet" href="https://fonts.example.com/inter.css">` +
		`<script src="https://cdn.example.com/widget.js"></script>` +
		`<img src="/relative.jpg">`

	headers := BuildPreloadHeaders(html)

	require.Len(t, headers, 4, "first two images plus stylesheet plus script")
	assert.Equal(t, "<https://photos.example.com/1.jpg>; rel=preload; as=image", headers[0])
	assert.Equal(t, "<https://photos.example.com/2.jpg>; rel=preload; as=image", headers[1])
	assert.Contains(t, headers, "<https://fonts.example.com/inter.css>; rel=preload; as=style")
	assert.Contains(t, headers, "<https://cdn.example.com/widget.js>; rel=preload; as=script")
}

func TestCountImages(t *testing.T) {
	assert.Equal(t, 0, CountImages("<div>no images</div>"))
	assert.Equal(t, 2, CountImages(`<img src="/a.jpg"><p>x</p><img src="/b.jpg">`))
}
