package optimize

import (
	"strings"
)

// criticalSelectorPrefixes is the fixed list of above-the-fold selector
// prefixes. Rules whose selector starts with any of these move into the
// critical bucket; everything else stays in the remaining stylesheet.
var criticalSelectorPrefixes = []string{
	"html", "body", "*",
	".widget", ".widget-container", ".widget-header", ".widget-title",
	".widget-list",
	"h1", "h2", "h3",
	".container", ".header",
}

// SplitCriticalCSS partitions a stylesheet into the rules needed to render
// above-the-fold content and the remainder. At-rule blocks (media queries,
// keyframes) are kept whole and are never critical.
func SplitCriticalCSS(css string) (critical, remaining string) {
	var criticalSB, remainingSB strings.Builder

	for _, rule := range splitTopLevelRules(css) {
		open := strings.Index(rule, "{")
		if open < 0 {
			remainingSB.WriteString(rule)
			continue
		}
		selector := strings.TrimSpace(rule[:open])
		if isCriticalSelector(selector) {
			criticalSB.WriteString(rule)
		} else {
			remainingSB.WriteString(rule)
		}
	}

	return criticalSB.String(), remainingSB.String()
}

// splitTopLevelRules cuts a stylesheet into top-level blocks using brace
// depth, so nested at-rule bodies stay attached to their wrapper.
func splitTopLevelRules(css string) []string {
	var rules []string
	depth := 0
	start := 0

	for i := 0; i < len(css); i++ {
		switch css[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				rules = append(rules, css[start:i+1])
				start = i + 1
			}
		}
	}

	if trailing := strings.TrimSpace(css[start:]); trailing != "" {
		rules = append(rules, css[start:])
	}
	return rules
}

func isCriticalSelector(selector string) bool {
	if strings.HasPrefix(selector, "@") {
		return false
	}

	// A rule with multiple selectors is critical if any of them is.
	for _, sel := range strings.Split(selector, ",") {
		sel = strings.TrimSpace(sel)
		for _, prefix := range criticalSelectorPrefixes {
			if strings.HasPrefix(sel, prefix) {
				return true
			}
		}
	}
	return false
}
