package optimize

import (
	"regexp"
	"strconv"
	"strings"
)

// MobileBreakpoint is the width above which min-width media queries are
// irrelevant for the mobile viewport.
const MobileBreakpoint = 768

var minWidthRegex = regexp.MustCompile(`@media[^{]*min-width:\s*(\d+)px`)

// ViewportCSS prunes a stylesheet for a specific viewport. For mobile,
// min-width media-query blocks whose threshold exceeds the mobile
// breakpoint are stripped whole. This is a coarse pattern-level transform,
// not a CSS parse; other viewports return the stylesheet unchanged.
func ViewportCSS(css, viewport string) string {
	if viewport != "mobile" {
		return css
	}

	var sb strings.Builder
	for _, rule := range splitTopLevelRules(css) {
		if m := minWidthRegex.FindStringSubmatch(rule); m != nil {
			if width, err := strconv.Atoi(m[1]); err == nil && width > MobileBreakpoint {
				continue
			}
		}
		sb.WriteString(rule)
	}
	return sb.String()
}
