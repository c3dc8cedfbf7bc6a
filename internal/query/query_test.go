package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/garmentfinder-mcp/internal/lexicon"
	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(lexicon.Default(), Options{})
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"I need a silk saree", []string{"i", "need", "a", "silk", "saree"}},
		{"I'm going to a weding, what?", []string{"i", "m", "going", "to", "a", "weding", "what"}},
		{"SILK Sarée", []string{"silk", "saree"}},
		{"size_42 kurta-pajama", []string{"size_42", "kurta", "pajama"}},
		{"   ", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Tokenize(tt.in)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	n := newTestAnalyzer().Normalizer

	tests := []struct {
		in   string
		want string
	}{
		{"sker eith chst bot", "search with chat bot"},
		{"slk sare", "silk saree"},
		{"SILK Sarée", "silk saree"},
		{"xyz qwerty", "xyz qwerty"},
		{"I'm going to a weding", "i m going to a wedding"},
		{"  multiple   spaces  ", "multiple spaces"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := newTestAnalyzer().Normalizer

	queries := []string{
		"I need a silk saree for a wedding",
		"sker eith chst bot",
		"I'm going to a weding, what should I wear",
		"Mens sherwani for marriage in Punjabi style",
		"Looking for a Banarasi lehenga for my sister's sangeet",
		"Gents kurta in khadi for daily wear",
		"lhnga kurtha dhti pajma shrvani jkt slwr kamez ctn festval casuall formall pty",
		"xyz qwerty",
	}

	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			once := n.Normalize(q)
			assert.Equal(t, once, n.Normalize(once))
		})
	}
}

func TestKeywordExtractor(t *testing.T) {
	e := newTestAnalyzer().Keywords

	t.Run("known terms", func(t *testing.T) {
		got := e.Extract("I need a silk saree for a wedding")
		for _, want := range []string{"silk", "saree", "wedding"} {
			assert.True(t, got.Contains(want), "missing %q in %v", want, got.Sorted())
		}
	})

	t.Run("misspelled terms", func(t *testing.T) {
		got := e.Extract("shervani for diwaly")
		assert.True(t, got.Contains("sherwani"), "got %v", got.Sorted())
		assert.True(t, got.Contains("diwali"), "got %v", got.Sorted())
	})

	t.Run("unrecognized", func(t *testing.T) {
		assert.Empty(t, e.Extract("xyz qwerty"))
	})

	t.Run("blank", func(t *testing.T) {
		assert.Empty(t, e.Extract("   "))
	})

	t.Run("sorted", func(t *testing.T) {
		got := e.Extract("wedding silk saree").Sorted()
		assert.IsNonDecreasing(t, got)
	})
}

func TestCriteriaExtractor(t *testing.T) {
	e := newTestAnalyzer().Criteria

	tests := []struct {
		name  string
		query string
		want  types.Criteria
	}{
		{
			name:  "silk saree for a wedding",
			query: "I need a silk saree for a wedding",
			want: types.Criteria{
				types.DimensionFabric:   "Silk",
				types.DimensionCategory: "Saree",
				types.DimensionOccasion: "Wedding",
			},
		},
		{
			name:  "misspelled occasion",
			query: "I'm going to a weding, what should I wear",
			want:  types.Criteria{types.DimensionOccasion: "Wedding"},
		},
		{
			name:  "every dimension",
			query: "Mens sherwani for marriage in Punjabi style",
			want: types.Criteria{
				types.DimensionGender:   "Men",
				types.DimensionOccasion: "Wedding",
				types.DimensionRegion:   "North",
				types.DimensionCategory: "Sherwani",
			},
		},
		{
			name:  "synonyms",
			query: "Gents kurta in khadi for daily wear",
			want: types.Criteria{
				types.DimensionGender:   "Men",
				types.DimensionOccasion: "Casual",
				types.DimensionFabric:   "Khadi",
				types.DimensionCategory: "Kurta",
			},
		},
		{
			name:  "multi-word canonical",
			query: "salwar for navratri",
			want: types.Criteria{
				types.DimensionOccasion: "Festival",
				types.DimensionCategory: "Salwar Kameez",
			},
		},
		{
			name:  "unrecognized",
			query: "xyz qwerty",
			want:  types.Criteria{},
		},
		{
			name:  "blank",
			query: "   ",
			want:  types.Criteria{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.query))
		})
	}
}

func TestCriteriaExtractor_FirstMatchWins(t *testing.T) {
	e := newTestAnalyzer().Criteria

	// "women" comes first in the query, so it decides gender even though
	// "men" follows.
	got := e.Extract("women and men kurta")
	assert.Equal(t, "Women", got[types.DimensionGender])

	// "celebration" is a variant of both Festival and Party; Festival is
	// declared first.
	got = e.Extract("celebration")
	assert.Equal(t, "Festival", got[types.DimensionOccasion])
}

func TestCriteriaExtractor_ValuesAreCanonical(t *testing.T) {
	a := newTestAnalyzer()
	lex := a.Lexicon()

	queries := []string{
		"I need a silk saree for a wedding",
		"Mens sherwani for marriage in Punjabi style",
		"ladies georgette lehenga for a bengali reception",
		"cotton dhoti for pongal in kerala",
		"unisex indo western fusion for a party",
	}

	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			for dim, value := range a.Criteria.Extract(q) {
				assert.True(t, dim.Valid(), "unknown dimension %q", dim)
				assert.True(t, lex.IsCanonical(dim, value), "%s=%q is not canonical", dim, value)
			}
		})
	}
}

func TestAnalyzer(t *testing.T) {
	got := newTestAnalyzer().Analyze("slk sare for weding")

	assert.Equal(t, "slk sare for weding", got.Query)
	assert.Equal(t, "silk saree formal wedding", got.CleanedQuery)
	assert.Contains(t, got.Keywords, "wedding")
	assert.Equal(t, "Wedding", got.Criteria[types.DimensionOccasion])
}

func TestAnalyzer_CustomCutoffs(t *testing.T) {
	strict := NewAnalyzer(lexicon.Default(), Options{CriteriaCutoff: 0.95})
	assert.NotContains(t, strict.Criteria.Extract("weding"), types.DimensionOccasion)

	loose := NewAnalyzer(lexicon.Default(), Options{})
	assert.Contains(t, loose.Criteria.Extract("weding"), types.DimensionOccasion)
}

func BenchmarkAnalyze(b *testing.B) {
	a := newTestAnalyzer()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Analyze("I need a silk saree for a wedding in Punjabi style")
	}
}
