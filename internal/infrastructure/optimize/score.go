package optimize

// ScoreInput carries the per-request measurements the score is computed
// from. ContentSize is in bytes, timings in milliseconds.
type ScoreInput struct {
	RenderTime    float64 `json:"render_time"`
	QueryTime     float64 `json:"query_time"`
	CacheHit      bool    `json:"cache_hit"`
	ContentSize   int     `json:"content_size"`
	Optimizations int     `json:"optimizations"`
}

// ScoreBreakdown exposes the individual sub-scores
type ScoreBreakdown struct {
	RenderTime    int `json:"render_time"`
	QueryTime     int `json:"query_time"`
	CacheHit      int `json:"cache_hit"`
	ContentSize   int `json:"content_size"`
	Optimizations int `json:"optimizations"`
}

// ScoreResult is a 0-100 performance grade with the sub-scores it is
// composed of and actionable recommendations for any sub-score below its
// top tier.
type ScoreResult struct {
	Score           int            `json:"score"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
	Recommendations []string       `json:"recommendations"`
}

// Score grades a render request. Sub-score weights: render time 30, query
// time 20, cache utilization 20, content size 15, optimization count 15.
func Score(in ScoreInput) ScoreResult {
	var b ScoreBreakdown
	var recs []string

	switch {
	case in.RenderTime < 100:
		b.RenderTime = 30
	case in.RenderTime < 300:
		b.RenderTime = 20
	case in.RenderTime < 500:
		b.RenderTime = 10
	}
	if b.RenderTime < 30 {
		recs = append(recs, "Reduce render time: move expensive work behind the cache or simplify the widget template")
	}

	switch {
	case in.QueryTime < 50:
		b.QueryTime = 20
	case in.QueryTime < 100:
		b.QueryTime = 15
	case in.QueryTime < 200:
		b.QueryTime = 5
	}
	if b.QueryTime < 20 {
		recs = append(recs, "Reduce query time: narrow the field projection or add an index on the filter columns")
	}

	if in.CacheHit {
		b.CacheHit = 20
	} else {
		recs = append(recs, "Improve cache utilization: raise the content TTL or warm the cache after invalidation")
	}

	const kb = 1024
	switch {
	case in.ContentSize < 50*kb:
		b.ContentSize = 15
	case in.ContentSize < 100*kb:
		b.ContentSize = 10
	case in.ContentSize < 200*kb:
		b.ContentSize = 5
	}
	if b.ContentSize < 15 {
		recs = append(recs, "Reduce content size: enable minification and trim excerpts or items per page")
	}

	switch {
	case in.Optimizations >= 4:
		b.Optimizations = 15
	case in.Optimizations >= 2:
		b.Optimizations = 10
	case in.Optimizations >= 1:
		b.Optimizations = 5
	}
	if b.Optimizations < 15 {
		recs = append(recs, "Enable more optimization passes: lazy loading, responsive images and critical CSS all apply here")
	}

	return ScoreResult{
		Score:           b.RenderTime + b.QueryTime + b.CacheHit + b.ContentSize + b.Optimizations,
		Breakdown:       b,
		Recommendations: recs,
	}
}
