package optimize

import (
	"regexp"
	"strings"
)

var (
	htmlCommentRegex    = regexp.MustCompile(`<!--[\s\S]*?-->`)
	interTagSpaceRegex  = regexp.MustCompile(`>\s+<`)
	whitespaceRunRegex  = regexp.MustCompile(`\s{2,}`)
	cssCommentRegex     = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	cssAroundPunctRegex = regexp.MustCompile(`\s*([{};:,>])\s*`)
	cssTrailingSemi     = regexp.MustCompile(`;\}`)
)

// MinifyHTML strips comments and collapses whitespace. Minifying
// already-minified content is a no-op.
func MinifyHTML(html string) string {
	out := htmlCommentRegex.ReplaceAllString(html, "")
	out = interTagSpaceRegex.ReplaceAllString(out, "><")
	out = whitespaceRunRegex.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// MinifyCSS strips comments and collapses whitespace around punctuation.
// Minifying already-minified content is a no-op.
func MinifyCSS(css string) string {
	out := cssCommentRegex.ReplaceAllString(css, "")
	out = whitespaceRunRegex.ReplaceAllString(out, " ")
	out = cssAroundPunctRegex.ReplaceAllString(out, "$1")
	out = cssTrailingSemi.ReplaceAllString(out, "}")
	return strings.TrimSpace(out)
}
