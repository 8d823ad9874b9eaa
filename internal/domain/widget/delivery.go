package widget

// RenderOptions carries the request-level inputs to a widget delivery:
// pagination, runtime filters, and request provenance.
type RenderOptions struct {
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
	Search   string `json:"search,omitempty"`
	Category string `json:"category,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Sort     string `json:"sort,omitempty"`

	// Request provenance; never part of the cache key.
	Referrer   string `json:"-"`
	UserAgent  string `json:"-"`
	ClientAddr string `json:"-"`
	Viewport   string `json:"-"`
	Region     string `json:"-"`
}

// PageData is the paginated item envelope inside a DeliveryResponse
type PageData struct {
	Items      []ContentItem `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	HasMore    bool          `json:"hasMore"`
}

// SEOMeta holds the delivery's SEO metadata
type SEOMeta struct {
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Canonical      string                 `json:"canonical"`
	OpenGraph      map[string]string      `json:"openGraph,omitempty"`
	StructuredData map[string]interface{} `json:"structuredData,omitempty"`
}

// PerformanceInfo records how a single delivery was produced. CacheHit must
// reflect the actual path taken; it feeds billing and SLO reporting
// downstream and is never fabricated.
type PerformanceInfo struct {
	CacheHit   bool  `json:"cacheHit"`
	RenderTime int64 `json:"renderTime"` // milliseconds
	QueryTime  int64 `json:"queryTime"`  // milliseconds
}

// DeliveryResponse is the synthesized output of one render request. The
// envelope fields (html, css, data, meta, performance) are a stable
// contract consumed by downstream reporting.
type DeliveryResponse struct {
	HTML         string          `json:"html"`
	CSS          string          `json:"css"`
	PreloadLinks []string        `json:"preloadLinks,omitempty"`
	Data         PageData        `json:"data"`
	Meta         SEOMeta         `json:"meta"`
	Performance  PerformanceInfo `json:"performance"`
}
