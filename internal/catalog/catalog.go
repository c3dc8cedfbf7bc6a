// Package catalog serves garment reads through a query cache and keeps the
// cache consistent with writes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/garmentfinder-mcp/internal/cache"
	"github.com/dshills/garmentfinder-mcp/internal/storage"
	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

// ErrNotFound is returned when a garment does not exist
var ErrNotFound = storage.ErrNotFound

// Options configures a Service
type Options struct {
	// TTL of cached reads; 0 uses cache.DefaultTTL
	TTL time.Duration
}

// Service is the catalog facade used by the finder and the MCP tools
type Service struct {
	store  storage.Storage
	cache  cache.QueryCache
	ttl    time.Duration
	logger zerolog.Logger

	// generation counts invalidations. A load that started before an
	// invalidation must not be cached.
	genMu      sync.RWMutex
	generation uint64
}

// New creates a catalog service. A nil cache disables caching.
func New(store storage.Storage, qc cache.QueryCache, opts Options, logger zerolog.Logger) *Service {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Service{
		store:  store,
		cache:  qc,
		ttl:    ttl,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// Store returns the underlying storage
func (s *Service) Store() storage.Storage {
	return s.store
}

// cached runs load on a cache miss and stores its result
func (s *Service) cached(ctx context.Context, key string, load func() ([]types.Garment, error)) ([]types.Garment, error) {
	if s.cache != nil {
		if garments, ok := s.cache.Get(ctx, key); ok {
			s.logger.Debug().Str("key", key).Msg("catalog cache hit")
			return garments, nil
		}
	}

	start := s.currentGeneration()
	garments, err := load()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		// Holding the read lock across Set orders it before or after an
		// invalidation, never between its bump and its purge.
		s.genMu.RLock()
		if s.generation == start {
			s.cache.Set(ctx, key, garments, s.ttl)
		} else {
			s.logger.Debug().Str("key", key).Msg("catalog changed during read, result not cached")
		}
		s.genMu.RUnlock()
	}
	return garments, nil
}

func (s *Service) currentGeneration() uint64 {
	s.genMu.RLock()
	defer s.genMu.RUnlock()
	return s.generation
}

// All returns every garment
func (s *Service) All(ctx context.Context) ([]types.Garment, error) {
	return s.cached(ctx, cache.Key("all"), func() ([]types.Garment, error) {
		return s.store.ListGarments(ctx)
	})
}

// ByCategory returns the garments of one exact category
func (s *Service) ByCategory(ctx context.Context, category string) ([]types.Garment, error) {
	return s.cached(ctx, cache.Key("category", category), func() ([]types.Garment, error) {
		return s.store.ListByCategory(ctx, category)
	})
}

// ByCriteria returns the garments matching every constrained dimension
func (s *Service) ByCriteria(ctx context.Context, criteria types.Criteria) ([]types.Garment, error) {
	for dim := range criteria {
		if !dim.Valid() {
			return nil, fmt.Errorf("unknown criteria dimension %q", dim)
		}
	}
	return s.cached(ctx, cache.CriteriaKey(criteria), func() ([]types.Garment, error) {
		return s.store.GarmentsByCriteria(ctx, criteria)
	})
}

// Search matches a free-text term against name, category and description.
// Searches are not cached.
func (s *Service) Search(ctx context.Context, term string) ([]types.Garment, error) {
	if strings.TrimSpace(term) == "" {
		return []types.Garment{}, nil
	}
	return s.store.SearchGarments(ctx, term)
}

// Categories lists the distinct categories in alphabetical order
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.store.ListCategories(ctx)
}

// Get returns one garment
func (s *Service) Get(ctx context.Context, id int64) (*types.Garment, error) {
	return s.store.GetGarment(ctx, id)
}

// Create adds a garment and invalidates cached reads
func (s *Service) Create(ctx context.Context, garment *types.Garment) error {
	if err := s.store.CreateGarment(ctx, garment); err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

// Update applies a patch to one garment. The cache is invalidated only when
// a column actually changed.
func (s *Service) Update(ctx context.Context, id int64, patch *types.GarmentPatch) (*storage.UpdateResult, error) {
	result, err := s.store.UpdateGarment(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("no garment found with id %d: %w", id, err)
		}
		return nil, err
	}

	if len(result.Changed) > 0 {
		s.Invalidate(ctx)
		s.logger.Info().Int64("garment_id", id).Strs("changed", result.Changed).Msg("garment updated")
	}
	return result, nil
}

// Delete removes a garment and invalidates cached reads
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteGarment(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no garment found with id %d: %w", id, err)
		}
		return err
	}
	s.Invalidate(ctx)
	return nil
}

// Invalidate drops every cached read, including reads still loading
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.genMu.Lock()
	s.generation++
	s.genMu.Unlock()

	if err := s.cache.Purge(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to purge catalog cache")
	}
}

// RecordExchange stores one user message and the reply given to it
func (s *Service) RecordExchange(ctx context.Context, userMessage, botResponse string) (*types.ChatExchange, error) {
	return s.store.SaveChatHistory(ctx, userMessage, botResponse)
}

// RecentExchanges returns the newest exchanges first
func (s *Service) RecentExchanges(ctx context.Context, limit int) ([]types.ChatExchange, error) {
	return s.store.RecentChatHistory(ctx, limit)
}

// Status reports catalog statistics
func (s *Service) Status(ctx context.Context) (*storage.CatalogStatus, error) {
	return s.store.GetStatus(ctx)
}
