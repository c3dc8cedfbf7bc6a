// Package fuzzy ranks candidate words by their similarity to a token.
//
// Similarity is the Ratcliff/Obershelp "gestalt" ratio 2*M/T, where M is the
// number of characters in the recursively found longest common blocks and T
// is the combined length of both strings. Comparison is case-insensitive.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Default cutoffs and result limits
const (
	KeywordCutoff     = 0.6
	CriteriaCutoff    = 0.8
	NormalizeCutoff   = 0.6
	DefaultMaxResults = 3
)

// Scored is a candidate together with its similarity to the token
type Scored struct {
	Candidate string  `json:"candidate"`
	Score     float64 `json:"score"`
}

// Ratio returns the similarity of a and b in [0,1].
// Two empty strings are identical and score 1.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(chars(strings.ToLower(a)), chars(strings.ToLower(b))).Ratio()
}

// Match returns up to maxResults candidates scoring at least cutoff against
// token, best first. Candidates keep their original spelling.
// A non-positive maxResults uses DefaultMaxResults.
func Match(token string, candidates []string, cutoff float64, maxResults int) []string {
	scored := MatchScored(token, candidates, cutoff, maxResults)
	if len(scored) == 0 {
		return nil
	}
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.Candidate
	}
	return out
}

// MatchScored is Match with the scores attached
func MatchScored(token string, candidates []string, cutoff float64, maxResults int) []Scored {
	if token == "" || len(candidates) == 0 {
		return nil
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	// The token is the second sequence so its index is built once and
	// reused for every candidate.
	m := difflib.NewMatcher(nil, chars(strings.ToLower(token)))

	type hit struct {
		Scored
		lower string
	}
	var hits []hit
	for _, c := range candidates {
		lower := strings.ToLower(c)
		m.SetSeq1(chars(lower))
		if m.RealQuickRatio() < cutoff || m.QuickRatio() < cutoff {
			continue
		}
		if score := m.Ratio(); score >= cutoff {
			hits = append(hits, hit{Scored: Scored{Candidate: c, Score: score}, lower: lower})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].lower > hits[j].lower
	})

	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	out := make([]Scored, len(hits))
	for i, h := range hits {
		out[i] = h.Scored
	}
	return out
}

// Best returns the single best candidate at or above cutoff
func Best(token string, candidates []string, cutoff float64) (string, bool) {
	matches := Match(token, candidates, cutoff, 1)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// chars splits s into one-element strings per rune, the element type the
// sequence matcher compares.
func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
