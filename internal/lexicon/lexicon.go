package lexicon

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

//go:embed lexicon.yaml
var defaultDocument []byte

// Common errors
var (
	ErrInvalidLexicon = errors.New("invalid lexicon")
)

// Entry is one canonical value of a dimension and its known spellings
type Entry struct {
	Dimension types.Dimension
	Canonical string
	Variants  []string
}

// Store holds the read-only domain dictionaries.
// A Store is immutable after construction and safe for concurrent use.
type Store struct {
	version     string
	entries     map[types.Dimension][]Entry
	corrections map[string]string
	targets     []string
	keywords    []string
}

// document is the YAML wire shape of a lexicon
type document struct {
	Version    string `yaml:"version"`
	Dimensions map[string][]struct {
		Canonical string   `yaml:"canonical"`
		Variants  []string `yaml:"variants"`
	} `yaml:"dimensions"`
	Corrections map[string]string `yaml:"corrections"`
	Keywords    []struct {
		Group string   `yaml:"group"`
		Terms []string `yaml:"terms"`
	} `yaml:"keywords"`
}

// Default returns the embedded lexicon
func Default() *Store {
	store, err := Parse(defaultDocument)
	if err != nil {
		// The embedded document is covered by tests
		panic(fmt.Sprintf("embedded lexicon is invalid: %v", err))
	}
	return store
}

// Load reads a lexicon override file. An empty path returns the embedded lexicon.
func Load(path string) (*Store, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	return Parse(data)
}

// Parse builds a Store from a YAML document and validates it
func Parse(data []byte) (*Store, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLexicon, err)
	}

	s := &Store{
		version:     doc.Version,
		entries:     make(map[types.Dimension][]Entry, len(doc.Dimensions)),
		corrections: make(map[string]string, len(doc.Corrections)),
	}

	for name, raw := range doc.Dimensions {
		dim, ok := types.ParseDimension(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown dimension %q", ErrInvalidLexicon, name)
		}
		entries := make([]Entry, 0, len(raw))
		for _, r := range raw {
			variants := make([]string, 0, len(r.Variants))
			for _, v := range r.Variants {
				if v = strings.TrimSpace(v); v != "" {
					variants = append(variants, v)
				}
			}
			entries = append(entries, Entry{
				Dimension: dim,
				Canonical: strings.TrimSpace(r.Canonical),
				Variants:  variants,
			})
		}
		s.entries[dim] = entries
	}

	for from, to := range doc.Corrections {
		s.corrections[strings.ToLower(strings.TrimSpace(from))] = strings.ToLower(strings.TrimSpace(to))
	}

	seen := make(map[string]bool)
	for _, to := range s.corrections {
		if !seen[to] {
			seen[to] = true
			s.targets = append(s.targets, to)
		}
	}
	sort.Strings(s.targets)

	seen = make(map[string]bool)
	for _, group := range doc.Keywords {
		for _, term := range group.Terms {
			term = strings.TrimSpace(term)
			key := strings.ToLower(term)
			if term == "" || seen[key] {
				continue
			}
			seen[key] = true
			s.keywords = append(s.keywords, term)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the structural invariants of the lexicon
func (s *Store) Validate() error {
	for dim, entries := range s.entries {
		canon := make(map[string]bool, len(entries))
		for _, e := range entries {
			if e.Canonical == "" {
				return fmt.Errorf("%w: empty canonical in %s", ErrInvalidLexicon, dim)
			}
			if canon[e.Canonical] {
				return fmt.Errorf("%w: duplicate canonical %q in %s", ErrInvalidLexicon, e.Canonical, dim)
			}
			canon[e.Canonical] = true
			if len(e.Variants) == 0 {
				return fmt.Errorf("%w: %s/%s has no variants", ErrInvalidLexicon, dim, e.Canonical)
			}
		}
	}

	// A correction target that is itself corrected to something else would
	// make normalization non-idempotent.
	for from, to := range s.corrections {
		if to == "" {
			return fmt.Errorf("%w: empty correction for %q", ErrInvalidLexicon, from)
		}
		if !isFoldedWord(to) {
			return fmt.Errorf("%w: correction %q -> %q is not a single folded word", ErrInvalidLexicon, from, to)
		}
		if next, ok := s.corrections[to]; ok && next != to {
			return fmt.Errorf("%w: correction %q -> %q chains to %q", ErrInvalidLexicon, from, to, next)
		}
	}

	return nil
}

// Version returns the lexicon document version
func (s *Store) Version() string {
	return s.version
}

// Entries returns the ordered entries of a dimension
func (s *Store) Entries(dim types.Dimension) []Entry {
	return s.entries[dim]
}

// Canonicals returns the canonical values of a dimension in lexicon order
func (s *Store) Canonicals(dim types.Dimension) []string {
	entries := s.entries[dim]
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Canonical
	}
	return out
}

// IsCanonical reports whether value is a declared canonical of dim
func (s *Store) IsCanonical(dim types.Dimension, value string) bool {
	for _, e := range s.entries[dim] {
		if e.Canonical == value {
			return true
		}
	}
	return false
}

// Correction looks up the exact, case-insensitive correction for a word
func (s *Store) Correction(word string) (string, bool) {
	to, ok := s.corrections[strings.ToLower(word)]
	return to, ok
}

// CorrectionTargets returns the distinct correct words of the correction
// table, sorted. This is the candidate pool of the normalizer's fuzzy step.
func (s *Store) CorrectionTargets() []string {
	return s.targets
}

// Keywords returns the flattened keyword vocabulary
func (s *Store) Keywords() []string {
	return s.keywords
}

// isFoldedWord reports whether w is one token the query tokenizer leaves
// unchanged: lower-case letters, digits and underscores without diacritics.
func isFoldedWord(w string) bool {
	if !norm.NFKD.IsNormalString(w) {
		return false
	}
	for _, r := range w {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.Is(unicode.Mn, r) {
			return false
		}
	}
	return true
}
