package optimize

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	imgTagRegex    = regexp.MustCompile(`<img\b[^>]*>`)
	iframeTagRegex = regexp.MustCompile(`<iframe\b[^>]*>`)
	srcAttrRegex   = regexp.MustCompile(`src=["']([^"']+)["']`)
)

// rewriteImages routes every image source through the edge image
// optimization helper. Data URIs and already-CDN-hosted sources are left
// untouched, so running the pass twice never double-optimizes. Responsive
// source sets and lazy attributes are attached when the options ask for
// them and the tag does not already carry them.
func (e *Engine) rewriteImages(html string, opts Options) string {
	return imgTagRegex.ReplaceAllStringFunc(html, func(tag string) string {
		srcMatch := srcAttrRegex.FindStringSubmatch(tag)
		if srcMatch == nil {
			return tag
		}
		src := srcMatch[1]

		rewritten := e.policy.ImageURL(src, 0, 0)
		if rewritten != src {
			tag = strings.Replace(tag, srcMatch[0], fmt.Sprintf(`src="%s"`, rewritten), 1)
		}

		if opts.ResponsiveImages && !strings.Contains(tag, "srcset=") {
			if srcset := e.policy.SrcSet(src); srcset != "" {
				tag = insertAttrs(tag, fmt.Sprintf(`srcset="%s" sizes="(max-width: 768px) 100vw, 768px"`, srcset))
			}
		}

		if opts.LazyLoading {
			if !strings.Contains(tag, "loading=") {
				tag = insertAttrs(tag, `loading="lazy"`)
			}
			if !strings.Contains(tag, "decoding=") {
				tag = insertAttrs(tag, `decoding="async"`)
			}
		}

		return tag
	})
}

// SweepLazyLoading adds loading="lazy" to every img and iframe tag that
// lacks a loading attribute. The sweep is idempotent and independent of
// the image optimization pass.
func SweepLazyLoading(html string) string {
	sweep := func(tag string) string {
		if strings.Contains(tag, "loading=") {
			return tag
		}
		return insertAttrs(tag, `loading="lazy"`)
	}
	html = imgTagRegex.ReplaceAllStringFunc(html, sweep)
	return iframeTagRegex.ReplaceAllStringFunc(html, sweep)
}

// CountImages returns the number of img tags in a document
func CountImages(html string) int {
	return len(imgTagRegex.FindAllString(html, -1))
}

// insertAttrs inserts attributes just before the tag's closing bracket
func insertAttrs(tag, attrs string) string {
	if strings.HasSuffix(tag, "/>") {
		return strings.TrimSuffix(tag, "/>") + " " + attrs + "/>"
	}
	return strings.TrimSuffix(tag, ">") + " " + attrs + ">"
}
