package optimize

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	scriptBlockRegex   = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	inlineHandlerRegex = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*(?:"[^"]*"|'[^']*'|[^\s>]+)`)
	widthAttrRegex     = regexp.MustCompile(`(?i)\bwidth\s*=\s*["']?(\d+)`)
	heightAttrRegex    = regexp.MustCompile(`(?i)\bheight\s*=\s*["']?(\d+)`)
)

// Default dimensions for images that carry no explicit size. AMP requires
// width and height on every amp-img so the layout can be reserved.
const (
	ampDefaultWidth  = 300
	ampDefaultHeight = 200
)

// AMPTransform converts widget markup into an AMP-compatible document
// fragment: img tags become responsive amp-img elements, script blocks and
// inline event handlers are stripped, and the stylesheet is minified since
// AMP requires it fully inline.
func AMPTransform(html, css string) (string, string) {
	out := scriptBlockRegex.ReplaceAllString(html, "")
	out = inlineHandlerRegex.ReplaceAllString(out, "")

	out = imgTagRegex.ReplaceAllStringFunc(out, func(tag string) string {
		src := ""
		if m := srcAttrRegex.FindStringSubmatch(tag); m != nil {
			src = m[1]
		}
		if src == "" {
			return ""
		}

		width := ampDefaultWidth
		if m := widthAttrRegex.FindStringSubmatch(tag); m != nil {
			fmt.Sscanf(m[1], "%d", &width)
		}
		height := ampDefaultHeight
		if m := heightAttrRegex.FindStringSubmatch(tag); m != nil {
			fmt.Sscanf(m[1], "%d", &height)
		}

		alt := ""
		if m := altAttrRegex.FindStringSubmatch(tag); m != nil {
			alt = m[1]
		}

		return fmt.Sprintf(`<amp-img src="%s" width="%d" height="%d" layout="responsive" alt="%s"></amp-img>`,
			src, width, height, alt)
	})

	return strings.TrimSpace(out), MinifyCSS(css)
}

var altAttrRegex = regexp.MustCompile(`(?i)\balt\s*=\s*"([^"]*)"`)
