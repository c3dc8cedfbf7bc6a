package query

import (
	"strings"

	"github.com/dshills/garmentfinder-mcp/internal/fuzzy"
	"github.com/dshills/garmentfinder-mcp/internal/lexicon"
)

// Normalizer rewrites a raw query into a cleaned, spelling-corrected form.
// It is stateless apart from the lexicon and safe for concurrent use.
type Normalizer struct {
	lex    *lexicon.Store
	cutoff float64
}

// NewNormalizer creates a normalizer. A non-positive cutoff uses fuzzy.NormalizeCutoff.
func NewNormalizer(lex *lexicon.Store, cutoff float64) *Normalizer {
	if cutoff <= 0 {
		cutoff = fuzzy.NormalizeCutoff
	}
	return &Normalizer{lex: lex, cutoff: cutoff}
}

// Normalize lower-cases and tokenizes raw, replaces each token by its
// correction when the table has one, otherwise by the closest correction
// target, otherwise keeps it. Tokens are joined by single spaces.
// Normalize(Normalize(q)) == Normalize(q).
func (n *Normalizer) Normalize(raw string) string {
	tokens := Tokenize(raw)
	if len(tokens) == 0 {
		return ""
	}

	targets := n.lex.CorrectionTargets()
	for i, tok := range tokens {
		if fixed, ok := n.lex.Correction(tok); ok {
			tokens[i] = fixed
			continue
		}
		if best, ok := fuzzy.Best(tok, targets, n.cutoff); ok {
			tokens[i] = best
		}
	}
	return strings.Join(tokens, " ")
}
