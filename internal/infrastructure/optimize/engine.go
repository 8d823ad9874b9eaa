// Package optimize provides the content optimization engine: a pure,
// order-sensitive transform pipeline over an (HTML, CSS) pair, plus
// performance scoring, viewport CSS pruning, and AMP generation.
//
// Transforms are pattern-based rather than full HTML/CSS parses. That is a
// known fidelity limit: deeply nested or malformed markup may not transform
// correctly. A real parser can be substituted without changing the
// external contract.
package optimize

import (
	"github.com/embedora/embedora/internal/infrastructure/cdn"
)

// Options enables individual optimization passes
type Options struct {
	MinifyHTML        bool `json:"minify_html"`
	MinifyCSS         bool `json:"minify_css"`
	OptimizeImages    bool `json:"optimize_images"`
	LazyLoading       bool `json:"lazy_loading"`
	ResponsiveImages  bool `json:"responsive_images"`
	InlineCriticalCSS bool `json:"inline_critical_css"`
	PreloadHeaders    bool `json:"preload_headers"`
}

// Result is the output of one optimization run
type Result struct {
	HTML           string   `json:"html"`
	CSS            string   `json:"css"`
	CriticalCSS    string   `json:"critical_css,omitempty"`
	PreloadHeaders []string `json:"preload_headers,omitempty"`
	Summary        Summary  `json:"summary"`
}

// Summary reports what a run achieved
type Summary struct {
	OriginalSize     int      `json:"original_size"`
	OptimizedSize    int      `json:"optimized_size"`
	CompressionRatio float64  `json:"compression_ratio"`
	Applied          []string `json:"applied"`
}

// Engine runs the optimization pipeline. Image URL rewriting is delegated
// to the edge policy so sources are never double-optimized.
type Engine struct {
	policy *cdn.Policy
}

// NewEngine creates an optimization engine
func NewEngine(policy *cdn.Policy) *Engine {
	return &Engine{policy: policy}
}

// Optimize applies the enabled passes in their fixed order:
// minification, critical-CSS partition, image rewriting, preload header
// synthesis, and a final independent lazy-loading sweep.
func (e *Engine) Optimize(html, css string, opts Options) Result {
	result := Result{HTML: html, CSS: css}
	originalSize := len(html) + len(css)
	var applied []string

	if opts.MinifyHTML {
		result.HTML = MinifyHTML(result.HTML)
		applied = append(applied, "minify_html")
	}
	if opts.MinifyCSS {
		result.CSS = MinifyCSS(result.CSS)
		applied = append(applied, "minify_css")
	}

	if opts.InlineCriticalCSS {
		critical, remaining := SplitCriticalCSS(result.CSS)
		result.CriticalCSS = critical
		result.CSS = remaining
		applied = append(applied, "critical_css")
	}

	if opts.OptimizeImages {
		result.HTML = e.rewriteImages(result.HTML, opts)
		applied = append(applied, "image_optimization")
		if opts.ResponsiveImages {
			applied = append(applied, "responsive_images")
		}
	}

	if opts.PreloadHeaders {
		result.PreloadHeaders = BuildPreloadHeaders(result.HTML)
		applied = append(applied, "preload_headers")
	}

	if opts.LazyLoading {
		result.HTML = SweepLazyLoading(result.HTML)
		applied = append(applied, "lazy_loading")
	}

	optimizedSize := len(result.HTML) + len(result.CSS)
	ratio := 1.0
	if originalSize > 0 {
		ratio = float64(optimizedSize) / float64(originalSize)
	}
	result.Summary = Summary{
		OriginalSize:     originalSize,
		OptimizedSize:    optimizedSize,
		CompressionRatio: ratio,
		Applied:          applied,
	}

	return result
}
