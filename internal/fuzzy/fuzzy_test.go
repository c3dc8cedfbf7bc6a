package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"silk", "silk", 1.0},
		{"", "", 1.0},
		{"silk", "", 0.0},
		{"weding", "wedding", 12.0 / 13.0},
		{"for", "formal", 2.0 / 3.0},
		{"chst", "chat", 0.75},
		{"xyz", "sari", 0.0},
		{"SILK", "silk", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.want, Ratio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		candidates []string
		cutoff     float64
		max        int
		want       []string
	}{
		{
			name:       "exact",
			token:      "saree",
			candidates: []string{"lehenga", "saree", "kurta"},
			cutoff:     CriteriaCutoff,
			max:        3,
			want:       []string{"saree"},
		},
		{
			name:       "misspelling",
			token:      "weding",
			candidates: []string{"wedding", "festival", "casual"},
			cutoff:     CriteriaCutoff,
			max:        3,
			want:       []string{"wedding"},
		},
		{
			name:       "below criteria cutoff",
			token:      "for",
			candidates: []string{"formal"},
			cutoff:     CriteriaCutoff,
			max:        3,
			want:       nil,
		},
		{
			name:       "above keyword cutoff",
			token:      "for",
			candidates: []string{"formal"},
			cutoff:     KeywordCutoff,
			max:        3,
			want:       []string{"formal"},
		},
		{
			name:       "case insensitive keeps candidate spelling",
			token:      "NORTH",
			candidates: []string{"North", "South"},
			cutoff:     CriteriaCutoff,
			max:        3,
			want:       []string{"North"},
		},
		{
			name:       "truncated to max",
			token:      "sari",
			candidates: []string{"sari", "saree", "sarii", "safari"},
			cutoff:     0.5,
			max:        2,
			want:       []string{"sari", "sarii"},
		},
		{
			name:       "ties broken by candidate descending",
			token:      "ab",
			candidates: []string{"ac", "ad", "ae"},
			cutoff:     0.5,
			max:        0,
			want:       []string{"ae", "ad", "ac"},
		},
		{
			name:       "empty token",
			token:      "",
			candidates: []string{"silk"},
			cutoff:     KeywordCutoff,
			max:        3,
			want:       nil,
		},
		{
			name:       "no candidates",
			token:      "silk",
			candidates: nil,
			cutoff:     KeywordCutoff,
			max:        3,
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.token, tt.candidates, tt.cutoff, tt.max))
		})
	}
}

func TestMatchScored(t *testing.T) {
	got := MatchScored("weding", []string{"wedding", "wedding dress", "festival"}, KeywordCutoff, DefaultMaxResults)

	if assert.Len(t, got, 2) {
		assert.Equal(t, "wedding", got[0].Candidate)
		assert.InDelta(t, 12.0/13.0, got[0].Score, 1e-9)
		assert.Equal(t, "wedding dress", got[1].Candidate)
		assert.Greater(t, got[0].Score, got[1].Score)
	}
}

func TestBest(t *testing.T) {
	got, ok := Best("sker", []string{"search", "with", "chat"}, NormalizeCutoff)
	assert.True(t, ok)
	assert.Equal(t, "search", got)

	_, ok = Best("qwerty", []string{"search", "with", "chat"}, NormalizeCutoff)
	assert.False(t, ok)
}

func BenchmarkMatch(b *testing.B) {
	candidates := []string{
		"saree", "sari", "lehenga", "choli", "salwar", "kameez", "kurta", "pajama",
		"sherwani", "dhoti", "lungi", "anarkali", "churidar", "patiala", "ghagra",
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Match("sherwanee", candidates, KeywordCutoff, DefaultMaxResults)
	}
}
