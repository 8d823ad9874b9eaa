// Package cdn provides stateless edge policy helpers: region selection,
// cache-control and security header synthesis, ETag generation, and image
// URL rewriting through the image optimization endpoint.
package cdn

import (
	"crypto/sha1"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/embedora/embedora/internal/infrastructure/config"
)

// ContentClass selects a cache-control policy
type ContentClass string

const (
	ClassStatic  ContentClass = "static"
	ClassDynamic ContentClass = "dynamic"
	ClassAPI     ContentClass = "api"
)

// SrcSetWidths is the fixed breakpoint ladder used for responsive images
var SrcSetWidths = []int{320, 640, 768, 1024, 1280, 1920}

// Policy holds the edge policy configuration. All methods are pure.
type Policy struct {
	imageBaseURL   string
	defaultQuality int
	defaultFormat  string
	defaultRegion  string
}

// NewPolicy creates an edge policy helper from configuration
func NewPolicy(cfg config.CDNConfig) *Policy {
	return &Policy{
		imageBaseURL:   strings.TrimRight(cfg.ImageBaseURL, "/"),
		defaultQuality: cfg.DefaultQuality,
		defaultFormat:  cfg.DefaultFormat,
		defaultRegion:  cfg.DefaultRegion,
	}
}

// Region infers a serving region from the client address and locale. The
// mapping is deliberately coarse: the edge only needs a continent-level
// routing hint.
func (p *Policy) Region(clientAddr, acceptLanguage string) string {
	host := clientAddr
	if h, _, err := net.SplitHostPort(clientAddr); err == nil {
		host = h
	}

	ip := net.ParseIP(host)
	if ip != nil && (ip.IsLoopback() || ip.IsPrivate()) {
		return p.defaultRegion
	}

	lang := strings.ToLower(acceptLanguage)
	switch {
	case strings.HasPrefix(lang, "en-gb"), strings.HasPrefix(lang, "de"),
		strings.HasPrefix(lang, "fr"), strings.HasPrefix(lang, "es"),
		strings.HasPrefix(lang, "it"), strings.HasPrefix(lang, "nl"):
		return "eu-west"
	case strings.HasPrefix(lang, "ja"), strings.HasPrefix(lang, "ko"),
		strings.HasPrefix(lang, "zh"):
		return "ap-northeast"
	case strings.HasPrefix(lang, "pt-br"), strings.HasPrefix(lang, "es-ar"),
		strings.HasPrefix(lang, "es-mx"):
		return "sa-east"
	}

	return p.defaultRegion
}

// CacheControl returns the header set for a content class
func (p *Policy) CacheControl(class ContentClass) map[string]string {
	headers := make(map[string]string)

	switch class {
	case ClassStatic:
		headers["Cache-Control"] = fmt.Sprintf("public, max-age=%d, s-maxage=%d",
			int((24*time.Hour).Seconds()), int((7*24*time.Hour).Seconds()))
	case ClassAPI:
		headers["Cache-Control"] = fmt.Sprintf("public, max-age=%d, s-maxage=%d",
			int((time.Minute).Seconds()), int((5*time.Minute).Seconds()))
		headers["Vary"] = "Accept-Encoding, Origin"
	default:
		headers["Cache-Control"] = fmt.Sprintf("public, max-age=%d, s-maxage=%d",
			int((5*time.Minute).Seconds()), int((time.Hour).Seconds()))
		headers["Vary"] = "Accept-Encoding"
	}

	return headers
}

// ETag synthesizes a strong validator from content bytes
func (p *Policy) ETag(content []byte) string {
	return fmt.Sprintf("\"%x\"", sha1.Sum(content))
}

// SecurityHeaders returns the header set applied to every widget response.
// Widgets render inside third-party pages, so framing stays permitted.
func (p *Policy) SecurityHeaders() map[string]string {
	return map[string]string{
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
		"Content-Security-Policy": "default-src 'self'; img-src * data:; " +
			"style-src 'unsafe-inline'; frame-ancestors *",
	}
}

// ImageURL rewrites an image source through the optimization endpoint with
// width/height/quality/format parameters. Data URIs and already-CDN-hosted
// sources are returned unchanged so an image is never optimized twice.
func (p *Policy) ImageURL(src string, width, height int) string {
	if src == "" || strings.HasPrefix(src, "data:") || p.IsCDNHosted(src) {
		return src
	}

	params := url.Values{}
	params.Set("url", src)
	if width > 0 {
		params.Set("w", fmt.Sprintf("%d", width))
	}
	if height > 0 {
		params.Set("h", fmt.Sprintf("%d", height))
	}
	params.Set("q", fmt.Sprintf("%d", p.defaultQuality))
	params.Set("fm", p.defaultFormat)

	return p.imageBaseURL + "?" + params.Encode()
}

// IsCDNHosted reports whether a source already points at the image CDN
func (p *Policy) IsCDNHosted(src string) bool {
	return strings.HasPrefix(src, p.imageBaseURL)
}

// SrcSet generates a responsive source set over the fixed breakpoint
// ladder. Sources rejected by ImageURL produce an empty set.
func (p *Policy) SrcSet(src string) string {
	if src == "" || strings.HasPrefix(src, "data:") || p.IsCDNHosted(src) {
		return ""
	}

	entries := make([]string, 0, len(SrcSetWidths))
	for _, w := range SrcSetWidths {
		entries = append(entries, fmt.Sprintf("%s %dw", p.ImageURL(src, w, 0), w))
	}
	return strings.Join(entries, ", ")
}
