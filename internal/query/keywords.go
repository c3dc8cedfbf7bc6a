package query

import (
	"sort"

	"github.com/dshills/garmentfinder-mcp/internal/fuzzy"
	"github.com/dshills/garmentfinder-mcp/internal/lexicon"
)

// KeywordSet is an unordered set of vocabulary terms
type KeywordSet map[string]struct{}

// Add inserts a term
func (s KeywordSet) Add(term string) {
	s[term] = struct{}{}
}

// Contains reports whether term is in the set
func (s KeywordSet) Contains(term string) bool {
	_, ok := s[term]
	return ok
}

// Sorted returns the terms in lexical order
func (s KeywordSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for term := range s {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// KeywordExtractor finds vocabulary terms that a query mentions or misspells
type KeywordExtractor struct {
	lex        *lexicon.Store
	cutoff     float64
	maxResults int
}

// NewKeywordExtractor creates a keyword extractor. A non-positive cutoff
// uses fuzzy.KeywordCutoff.
func NewKeywordExtractor(lex *lexicon.Store, cutoff float64) *KeywordExtractor {
	if cutoff <= 0 {
		cutoff = fuzzy.KeywordCutoff
	}
	return &KeywordExtractor{lex: lex, cutoff: cutoff, maxResults: fuzzy.DefaultMaxResults}
}

// Extract matches every token of query against the keyword vocabulary and
// collects all matches in their vocabulary spelling.
func (e *KeywordExtractor) Extract(query string) KeywordSet {
	set := make(KeywordSet)
	vocab := e.lex.Keywords()
	for _, tok := range Tokenize(query) {
		for _, term := range fuzzy.Match(tok, vocab, e.cutoff, e.maxResults) {
			set.Add(term)
		}
	}
	return set
}
