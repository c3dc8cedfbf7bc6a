package query

import (
	"github.com/dshills/garmentfinder-mcp/internal/lexicon"
	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

// Options holds the fuzzy cutoffs of the three extractors.
// Zero values select the package defaults.
type Options struct {
	NormalizeCutoff float64
	KeywordCutoff   float64
	CriteriaCutoff  float64
}

// Analysis is the outcome of running every extractor over one query
type Analysis struct {
	Query        string         `json:"query"`
	CleanedQuery string         `json:"cleaned_query"`
	Keywords     []string       `json:"keywords"`
	Criteria     types.Criteria `json:"criteria"`
}

// Analyzer bundles the normalizer and the two extractors over one lexicon
type Analyzer struct {
	Normalizer *Normalizer
	Keywords   *KeywordExtractor
	Criteria   *CriteriaExtractor
	lex        *lexicon.Store
}

// NewAnalyzer creates an analyzer over lex
func NewAnalyzer(lex *lexicon.Store, opts Options) *Analyzer {
	return &Analyzer{
		Normalizer: NewNormalizer(lex, opts.NormalizeCutoff),
		Keywords:   NewKeywordExtractor(lex, opts.KeywordCutoff),
		Criteria:   NewCriteriaExtractor(lex, opts.CriteriaCutoff),
		lex:        lex,
	}
}

// Lexicon returns the lexicon the analyzer works over
func (a *Analyzer) Lexicon() *lexicon.Store {
	return a.lex
}

// Analyze runs the normalizer and both extractors sequentially
func (a *Analyzer) Analyze(query string) *Analysis {
	return &Analysis{
		Query:        query,
		CleanedQuery: a.Normalizer.Normalize(query),
		Keywords:     a.Keywords.Extract(query).Sorted(),
		Criteria:     a.Criteria.Extract(query),
	}
}
