// Package suggest merges free-text garment suggestions from a language model
// into structured criteria when the query itself named no garment category.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

// DefaultTimeout bounds a single suggestion call
const DefaultTimeout = 8 * time.Second

// Common errors
var (
	ErrSuggesterPanic = errors.New("suggester panicked")
	ErrNoSuggestion   = errors.New("no usable suggestion")
)

// Suggester proposes garment types for a free-text query
type Suggester interface {
	Suggest(ctx context.Context, query string) ([]string, error)
}

// SuggesterFunc adapts a function to the Suggester interface
type SuggesterFunc func(ctx context.Context, query string) ([]string, error)

// Suggest calls f
func (f SuggesterFunc) Suggest(ctx context.Context, query string) ([]string, error) {
	return f(ctx, query)
}

// SuggestFunc is the lazily invoked suggestion source of a reconciliation
type SuggestFunc func(ctx context.Context, query string) ([]string, error)

// Outcome describes what a reconciliation did
type Outcome struct {
	Criteria    types.Criteria
	Suggestions []string
	// Consulted is true when the suggestion source was invoked
	Consulted bool
	// Err is the suggestion failure, if any. It is informational only.
	Err error
}

// Reconciler fills a missing category from model suggestions
type Reconciler struct {
	timeout time.Duration
	logger  zerolog.Logger
}

// NewReconciler creates a reconciler. A non-positive timeout uses DefaultTimeout.
func NewReconciler(timeout time.Duration, logger zerolog.Logger) *Reconciler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Reconciler{
		timeout: timeout,
		logger:  logger.With().Str("component", "reconciler").Logger(),
	}
}

// Reconcile returns a copy of structured. When it has no category, the
// first non-blank suggestion becomes the category; any failure of suggest
// leaves the category absent. structured is never modified.
func (r *Reconciler) Reconcile(ctx context.Context, query string, structured types.Criteria, suggest SuggestFunc) types.Criteria {
	return r.Resolve(ctx, query, structured, suggest).Criteria
}

// Resolve is Reconcile with the details of the suggestion call
func (r *Reconciler) Resolve(ctx context.Context, query string, structured types.Criteria, suggest SuggestFunc) Outcome {
	out := Outcome{Criteria: structured.Clone()}
	if out.Criteria.Has(types.DimensionCategory) || suggest == nil {
		return out
	}

	out.Consulted = true
	suggestions, err := r.call(ctx, query, suggest)
	if err != nil {
		out.Err = err
		r.logger.Warn().Err(err).Str("query", query).Msg("garment suggestion failed")
		return out
	}
	out.Suggestions = suggestions

	category, ok := firstNonBlank(suggestions)
	if !ok {
		out.Err = ErrNoSuggestion
		r.logger.Debug().Str("query", query).Msg("model returned no garment suggestion")
		return out
	}

	out.Criteria[types.DimensionCategory] = category
	r.logger.Debug().
		Str("query", query).
		Str("category", category).
		Int("suggestions", len(suggestions)).
		Msg("category filled from suggestion")
	return out
}

// call runs suggest under the reconciler timeout. A suggest that ignores
// its context is abandoned once the deadline passes.
func (r *Reconciler) call(ctx context.Context, query string, suggest SuggestFunc) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		suggestions []string
		err         error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := safeCall(ctx, query, suggest)
		ch <- result{s, err}
	}()

	select {
	case res := <-ch:
		return res.suggestions, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("suggestion: %w", ctx.Err())
	}
}

func safeCall(ctx context.Context, query string, suggest SuggestFunc) (suggestions []string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrSuggesterPanic, p)
		}
	}()
	return suggest(ctx, query)
}

func firstNonBlank(values []string) (string, bool) {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v, true
		}
	}
	return "", false
}
