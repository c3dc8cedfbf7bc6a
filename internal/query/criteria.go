package query

import (
	"github.com/dshills/garmentfinder-mcp/internal/fuzzy"
	"github.com/dshills/garmentfinder-mcp/internal/lexicon"
	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

// CriteriaExtractor maps a query onto canonical catalog filter values
type CriteriaExtractor struct {
	lex    *lexicon.Store
	cutoff float64
}

// NewCriteriaExtractor creates a criteria extractor. A non-positive cutoff
// uses fuzzy.CriteriaCutoff.
func NewCriteriaExtractor(lex *lexicon.Store, cutoff float64) *CriteriaExtractor {
	if cutoff <= 0 {
		cutoff = fuzzy.CriteriaCutoff
	}
	return &CriteriaExtractor{lex: lex, cutoff: cutoff}
}

// Extract fills each dimension independently. Tokens are scanned in query
// order and, per token, entries in lexicon order; the first entry with a
// variant matching a token decides the dimension. Unmatched dimensions are
// left out.
func (e *CriteriaExtractor) Extract(query string) types.Criteria {
	criteria := make(types.Criteria)
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return criteria
	}

	for _, dim := range types.Dimensions {
		if canonical, ok := e.firstMatch(dim, tokens); ok {
			criteria[dim] = canonical
		}
	}
	return criteria
}

func (e *CriteriaExtractor) firstMatch(dim types.Dimension, tokens []string) (string, bool) {
	entries := e.lex.Entries(dim)
	for _, tok := range tokens {
		for _, entry := range entries {
			if _, ok := fuzzy.Best(tok, entry.Variants, e.cutoff); ok {
				return entry.Canonical, true
			}
		}
	}
	return "", false
}
