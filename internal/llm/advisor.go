package llm

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

// DefaultAdviceCacheSize is the number of queries whose advice is remembered
const DefaultAdviceCacheSize = 256

// Suggestion is the model's advice for a query and the garment types it names
type Suggestion struct {
	Text     string   `json:"text"`
	Garments []string `json:"garments"`
}

func (s *Suggestion) clone() *Suggestion {
	garments := make([]string, len(s.Garments))
	copy(garments, s.Garments)
	return &Suggestion{Text: s.Text, Garments: garments}
}

// adviceEntry remembers a suggestion together with the garment list
// parse failure, if any
type adviceEntry struct {
	suggestion *Suggestion
	listErr    error
}

// Advisor turns a Generator into garment advice. It implements
// suggest.Suggester and composes the user-facing answer.
type Advisor struct {
	gen    Generator
	cache  *lru.Cache[string, adviceEntry]
	group  singleflight.Group
	logger zerolog.Logger
}

// NewAdvisor creates an advisor. A non-positive cacheSize uses DefaultAdviceCacheSize.
func NewAdvisor(gen Generator, cacheSize int, logger zerolog.Logger) *Advisor {
	if cacheSize <= 0 {
		cacheSize = DefaultAdviceCacheSize
	}
	cache, err := lru.New[string, adviceEntry](cacheSize)
	if err != nil {
		cache, _ = lru.New[string, adviceEntry](DefaultAdviceCacheSize)
	}
	return &Advisor{
		gen:    gen,
		cache:  cache,
		logger: logger.With().Str("component", "advisor").Str("provider", gen.Provider()).Logger(),
	}
}

// Generator returns the underlying generator
func (a *Advisor) Generator() Generator {
	return a.gen
}

// Advise asks the model for advice on query, then asks it to list the
// garment types the advice mentions. When only the list is unusable the
// advice text is still returned, together with an ErrMalformedResponse.
// Concurrent calls for the same query share one model round trip.
func (a *Advisor) Advise(ctx context.Context, query string) (*Suggestion, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidInput)
	}

	key := ComputeHash(query)
	if entry, ok := a.cache.Get(key); ok {
		return entry.suggestion.clone(), entry.listErr
	}

	v, err, _ := a.group.Do(key, func() (interface{}, error) {
		entry, err := a.advise(ctx, query)
		if err != nil {
			return nil, err
		}
		a.cache.Add(key, entry)
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	entry := v.(adviceEntry)
	return entry.suggestion.clone(), entry.listErr
}

func (a *Advisor) advise(ctx context.Context, query string) (adviceEntry, error) {
	text, err := a.gen.Generate(ctx, advicePrompt(query))
	if err != nil {
		return adviceEntry{}, fmt.Errorf("generate advice: %w", err)
	}

	entry := adviceEntry{suggestion: &Suggestion{Text: text}}

	listText, err := a.gen.Generate(ctx, extractionPrompt(text))
	if err != nil {
		if ctx.Err() != nil {
			return adviceEntry{}, ctx.Err()
		}
		entry.listErr = fmt.Errorf("%w: garment extraction failed: %v", ErrMalformedResponse, err)
		return entry, nil
	}

	garments, err := ParseGarmentList(listText)
	if err != nil {
		entry.listErr = err
		a.logger.Debug().Err(err).Msg("unusable garment list")
		return entry, nil
	}
	entry.suggestion.Garments = garments

	a.logger.Debug().Strs("garments", garments).Msg("advice generated")
	return entry, nil
}

// Suggest returns the garment types the model proposes for query
func (a *Advisor) Suggest(ctx context.Context, query string) ([]string, error) {
	s, err := a.Advise(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.Garments, nil
}

// Respond composes the answer shown to the user. With garments it asks the
// model to discuss them and appends the product list; without, it returns
// the general advice for the query behind NoMatchPrefix.
func (a *Advisor) Respond(ctx context.Context, query, cleaned string, garments []types.Garment) (string, error) {
	if len(garments) == 0 {
		// An unusable garment list still leaves usable advice text
		s, err := a.Advise(ctx, query)
		if s == nil {
			return FallbackResponse, err
		}
		return NoMatchPrefix + s.Text, nil
	}

	text, err := a.gen.Generate(ctx, responsePrompt(query, cleaned, garments))
	if err != nil {
		return FallbackResponse, fmt.Errorf("generate response: %w", err)
	}
	return text + ProductsSection(garments), nil
}

// CacheLen returns the number of remembered queries
func (a *Advisor) CacheLen() int {
	return a.cache.Len()
}

// Close releases the generator
func (a *Advisor) Close() error {
	a.cache.Purge()
	return a.gen.Close()
}
