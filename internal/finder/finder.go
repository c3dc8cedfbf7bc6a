package finder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/garmentfinder-mcp/internal/llm"
	"github.com/dshills/garmentfinder-mcp/internal/query"
	"github.com/dshills/garmentfinder-mcp/internal/suggest"
	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

const (
	// DefaultLimit is the number of garments returned when a request sets none
	DefaultLimit = 10
	// MaxLimit caps the garments returned by one request
	MaxLimit = 100
	// MaxQueryLength is the longest query, in runes, that is analyzed
	MaxQueryLength = 2000
)

var (
	// ErrEmptyQuery is returned for blank queries
	ErrEmptyQuery = errors.New("query cannot be empty")
	// ErrInvalidLimit is returned for negative limits
	ErrInvalidLimit = errors.New("limit must be non-negative")
)

// Catalog is the slice of the catalog service the finder reads and writes
type Catalog interface {
	ByCriteria(ctx context.Context, criteria types.Criteria) ([]types.Garment, error)
	RecordExchange(ctx context.Context, userMessage, botResponse string) (*types.ChatExchange, error)
}

// Advisor is the language-model side of a search. *llm.Advisor implements it.
type Advisor interface {
	suggest.Suggester
	Advise(ctx context.Context, query string) (*llm.Suggestion, error)
	Respond(ctx context.Context, query, cleaned string, garments []types.Garment) (string, error)
}

// Request contains the parameters of one search
type Request struct {
	Query string
	Limit int
	// Record stores the exchange in the chat history
	Record bool
}

// Response contains the analysis, the matching garments and the reply
type Response struct {
	RequestID    string         `json:"request_id"`
	Query        string         `json:"query"`
	CleanedQuery string         `json:"cleaned_query"`
	Keywords     []string       `json:"keywords"`
	Structured   types.Criteria `json:"structured_criteria"`
	Criteria     types.Criteria `json:"criteria"`
	Suggestions  []string       `json:"suggestions,omitempty"`
	// SuggestionUsed is true when the reconciler consulted the model
	SuggestionUsed bool            `json:"suggestion_used"`
	Advice         string          `json:"advice,omitempty"`
	Garments       []types.Garment `json:"garments"`
	TotalMatches   int             `json:"total_matches"`
	Message        string          `json:"message"`
	Duration       time.Duration   `json:"duration"`
}

// Options configures a Finder
type Options struct {
	// Eager starts the model suggestion before extraction instead of only
	// when the query names no category
	Eager          bool
	SuggestTimeout time.Duration
	// DefaultLimit applies to requests without a limit; 0 uses DefaultLimit
	DefaultLimit int
}

// Finder coordinates query analysis, category reconciliation and catalog lookup
type Finder struct {
	analyzer   *query.Analyzer
	reconciler *suggest.Reconciler
	catalog    Catalog
	advisor    Advisor
	opts       Options
	logger     zerolog.Logger
}

// New creates a finder. A nil advisor runs without a language model.
func New(analyzer *query.Analyzer, catalog Catalog, advisor Advisor, opts Options, logger zerolog.Logger) *Finder {
	if opts.SuggestTimeout <= 0 {
		opts.SuggestTimeout = suggest.DefaultTimeout
	}
	if opts.DefaultLimit <= 0 || opts.DefaultLimit > MaxLimit {
		opts.DefaultLimit = DefaultLimit
	}
	return &Finder{
		analyzer:   analyzer,
		reconciler: suggest.NewReconciler(opts.SuggestTimeout, logger),
		catalog:    catalog,
		advisor:    advisor,
		opts:       opts,
		logger:     logger.With().Str("component", "finder").Logger(),
	}
}

// Analyzer returns the query analyzer
func (f *Finder) Analyzer() *query.Analyzer {
	return f.analyzer
}

// Find runs the whole search pipeline for one query
func (f *Finder) Find(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()

	if err := validateRequest(&req, f.opts.DefaultLimit); err != nil {
		return nil, fmt.Errorf("invalid find request: %w", err)
	}

	resp := &Response{
		RequestID: uuid.NewString(),
		Query:     req.Query,
	}
	logger := f.logger.With().Str("request_id", resp.RequestID).Logger()

	// The model round trip is the slow part, so it starts first
	var future *suggest.Future
	if f.advisor != nil && f.opts.Eager {
		future = suggest.Start(ctx, f.advisor, req.Query, f.opts.SuggestTimeout)
		defer future.Cancel()
	}

	if err := f.extract(ctx, req.Query, resp); err != nil {
		return nil, err
	}

	outcome := f.reconciler.Resolve(ctx, req.Query, resp.Structured, f.suggestFunc(future))
	resp.Criteria = outcome.Criteria
	resp.Suggestions = outcome.Suggestions
	resp.SuggestionUsed = outcome.Consulted

	garments, err := f.catalog.ByCriteria(ctx, resp.Criteria)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}
	resp.TotalMatches = len(garments)
	if len(garments) > req.Limit {
		garments = garments[:req.Limit]
	}
	resp.Garments = garments

	resp.Advice = f.advice(ctx, req.Query, future, outcome)
	resp.Message = f.compose(ctx, logger, req.Query, resp)

	if req.Record {
		if _, err := f.catalog.RecordExchange(ctx, req.Query, resp.Message); err != nil {
			logger.Warn().Err(err).Msg("failed to record chat exchange")
		}
	}

	resp.Duration = time.Since(startTime)
	logger.Info().
		Str("criteria", resp.Criteria.String()).
		Int("matches", resp.TotalMatches).
		Bool("suggestion_used", resp.SuggestionUsed).
		Dur("duration", resp.Duration).
		Msg("find completed")

	return resp, nil
}

// extract runs the normalizer and both extractors concurrently.
// They share only the immutable lexicon.
func (f *Finder) extract(ctx context.Context, q string, resp *Response) error {
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		resp.CleanedQuery = f.analyzer.Normalizer.Normalize(q)
		return nil
	})
	g.Go(func() error {
		resp.Keywords = f.analyzer.Keywords.Extract(q).Sorted()
		return nil
	})
	g.Go(func() error {
		resp.Structured = f.analyzer.Criteria.Extract(q)
		return nil
	})

	return g.Wait()
}

func (f *Finder) suggestFunc(future *suggest.Future) suggest.SuggestFunc {
	switch {
	case future != nil:
		return future.Func()
	case f.advisor != nil:
		return f.advisor.Suggest
	}
	return nil
}

// advice returns the model's advice text when a suggestion call for q has
// already completed, so the advisor normally serves it from its cache. If
// the entry was evicted meanwhile the refetch is bounded by the request
// context and the suggestion timeout.
func (f *Finder) advice(ctx context.Context, q string, future *suggest.Future, outcome suggest.Outcome) string {
	var err error
	switch {
	case future != nil:
		select {
		case <-future.Done():
		default:
			return ""
		}
		_, err = future.Wait(ctx)
	case outcome.Consulted:
		err = outcome.Err
	default:
		return ""
	}

	// An unusable garment list still leaves cached advice text
	if err != nil && !errors.Is(err, llm.ErrMalformedResponse) && !errors.Is(err, suggest.ErrNoSuggestion) {
		return ""
	}
	adviseCtx, cancel := context.WithTimeout(ctx, f.opts.SuggestTimeout)
	defer cancel()
	s, _ := f.advisor.Advise(adviseCtx, q)
	if s == nil {
		return ""
	}
	return s.Text
}

// compose builds the reply. Model failures fall back to the plain listing.
func (f *Finder) compose(ctx context.Context, logger zerolog.Logger, q string, resp *Response) string {
	if f.advisor == nil {
		return FormatResults(resp.Garments)
	}

	msg, err := f.advisor.Respond(ctx, q, resp.CleanedQuery, resp.Garments)
	if err != nil {
		logger.Warn().Err(err).Msg("model response failed, using plain listing")
		return FormatResults(resp.Garments)
	}
	return msg
}

// validateRequest validates and normalizes a find request
func validateRequest(req *Request, defaultLimit int) error {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return ErrEmptyQuery
	}

	if utf8.RuneCountInString(req.Query) > MaxQueryLength {
		req.Query = string([]rune(req.Query)[:MaxQueryLength])
	}

	if req.Limit < 0 {
		return ErrInvalidLimit
	}
	if req.Limit == 0 {
		req.Limit = defaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}

	return nil
}
