package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorePerfectRequest(t *testing.T) {
	result := Score(ScoreInput{
		RenderTime:    50,
		QueryTime:     10,
		CacheHit:      true,
		ContentSize:   10 * 1024,
		Optimizations: 5,
	})

	assert.Equal(t, 100, result.Score)
	assert.Empty(t, result.Recommendations)
}

func TestScoreWorstRequest(t *testing.T) {
	result := Score(ScoreInput{
		RenderTime:    900,
		QueryTime:     400,
		CacheHit:      false,
		ContentSize:   500 * 1024,
		Optimizations: 0,
	})

	assert.Equal(t, 0, result.Score)
	assert.Len(t, result.Recommendations, 5, "every sub-score below top tier yields a recommendation")
}

func TestScoreTiers(t *testing.T) {
	tests := []struct {
		name string
		in   ScoreInput
		want ScoreBreakdown
	}{
		{
			name: "render tier boundaries",
			in:   ScoreInput{RenderTime: 299, QueryTime: 10, CacheHit: true, ContentSize: 1024, Optimizations: 4},
			want: ScoreBreakdown{RenderTime: 20, QueryTime: 20, CacheHit: 20, ContentSize: 15, Optimizations: 15},
		},
		{
			name: "query tier 100-200",
			in:   ScoreInput{RenderTime: 50, QueryTime: 150, CacheHit: true, ContentSize: 1024, Optimizations: 4},
			want: ScoreBreakdown{RenderTime: 30, QueryTime: 5, CacheHit: 20, ContentSize: 15, Optimizations: 15},
		},
		{
			name: "size tier 100-200KB",
			in:   ScoreInput{RenderTime: 50, QueryTime: 10, CacheHit: true, ContentSize: 150 * 1024, Optimizations: 4},
			want: ScoreBreakdown{RenderTime: 30, QueryTime: 20, CacheHit: 20, ContentSize: 5, Optimizations: 15},
		},
		{
			name: "single optimization",
			in:   ScoreInput{RenderTime: 50, QueryTime: 10, CacheHit: true, ContentSize: 1024, Optimizations: 1},
			want: ScoreBreakdown{RenderTime: 30, QueryTime: 20, CacheHit: 20, ContentSize: 15, Optimizations: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Score(tt.in)
			assert.Equal(t, tt.want, result.Breakdown)
		})
	}
}

func TestScoreMonotonicInRenderTime(t *testing.T) {
	base := ScoreInput{QueryTime: 10, CacheHit: true, ContentSize: 1024, Optimizations: 4}

	prev := 101
	for _, rt := range []float64{50, 150, 400, 900} {
		in := base
		in.RenderTime = rt
		score := Score(in).Score
		assert.Less(t, score, prev, "score must not improve as render time grows (rt=%v)", rt)
		prev = score
	}
}

func TestScoreCacheMissCostsTwenty(t *testing.T) {
	hit := ScoreInput{RenderTime: 50, QueryTime: 10, CacheHit: true, ContentSize: 1024, Optimizations: 4}
	miss := hit
	miss.CacheHit = false

	assert.Equal(t, 20, Score(hit).Score-Score(miss).Score)
}
