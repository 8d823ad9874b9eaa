package optimize

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	stylesheetRegex = regexp.MustCompile(`<link\b[^>]*rel=["']stylesheet["'][^>]*>`)
	scriptTagRegex  = regexp.MustCompile(`<script\b[^>]*src=["']([^"']+)["'][^>]*>`)
	hrefAttrRegex   = regexp.MustCompile(`href=["']([^"']+)["']`)
)

// BuildPreloadHeaders synthesizes Link preload header values for the
// first two images, every external stylesheet, and every external script
// in the document.
func BuildPreloadHeaders(html string) []string {
	var headers []string

	images := 0
	for _, tag := range imgTagRegex.FindAllString(html, -1) {
		if images >= 2 {
			break
		}
		if m := srcAttrRegex.FindStringSubmatch(tag); m != nil && isExternalURL(m[1]) {
			headers = append(headers, fmt.Sprintf("<%s>; rel=preload; as=image", m[1]))
			images++
		}
	}

	for _, tag := range stylesheetRegex.FindAllString(html, -1) {
		if m := hrefAttrRegex.FindStringSubmatch(tag); m != nil && isExternalURL(m[1]) {
			headers = append(headers, fmt.Sprintf("<%s>; rel=preload; as=style", m[1]))
		}
	}

	for _, m := range scriptTagRegex.FindAllStringSubmatch(html, -1) {
		if isExternalURL(m[1]) {
			headers = append(headers, fmt.Sprintf("<%s>; rel=preload; as=script", m[1]))
		}
	}

	return headers
}

func isExternalURL(src string) bool {
	return strings.HasPrefix(src, "http://") ||
		strings.HasPrefix(src, "https://") ||
		strings.HasPrefix(src, "//")
}
