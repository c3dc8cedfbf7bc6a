// Package app assembles the garment finder from its configuration: storage,
// catalog cache, lexicon, query analyzer, optional language model, finder
// and importer. Both the MCP server and the CLI commands start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/dshills/garmentfinder-mcp/internal/cache"
	"github.com/dshills/garmentfinder-mcp/internal/catalog"
	"github.com/dshills/garmentfinder-mcp/internal/config"
	"github.com/dshills/garmentfinder-mcp/internal/finder"
	"github.com/dshills/garmentfinder-mcp/internal/importer"
	"github.com/dshills/garmentfinder-mcp/internal/lexicon"
	"github.com/dshills/garmentfinder-mcp/internal/llm"
	"github.com/dshills/garmentfinder-mcp/internal/query"
	"github.com/dshills/garmentfinder-mcp/internal/storage"
)

// MemoryDB is the database path that keeps the catalog in memory
const MemoryDB = ":memory:"

// App holds the wired components
type App struct {
	Config   *config.Config
	Storage  *storage.SQLiteStorage
	Catalog  *catalog.Service
	Analyzer *query.Analyzer
	Finder   *finder.Finder
	Importer *importer.Importer
	// Advisor is nil when no language model is configured
	Advisor *llm.Advisor

	cacheDriver string
	logger      zerolog.Logger
	closers     []func() error
}

// New builds the application. Components are closed in reverse order by
// Close, also when New fails halfway.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *App, err error) {
	a := &App{Config: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	lex, err := lexicon.Load(cfg.Query.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon: %w", err)
	}
	a.Analyzer = query.NewAnalyzer(lex, query.Options{
		NormalizeCutoff: cfg.Query.NormalizeCutoff,
		KeywordCutoff:   cfg.Query.KeywordCutoff,
		CriteriaCutoff:  cfg.Query.CriteriaCutoff,
	})

	store, err := openStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	a.Storage = store
	a.closers = append(a.closers, store.Close)

	qc, err := a.openCache(ctx)
	if err != nil {
		return nil, err
	}
	a.Catalog = catalog.New(store, qc, catalog.Options{TTL: cfg.Cache.TTL}, logger)

	var advisor finder.Advisor
	gen, err := llm.New(cfg.GeneratorConfig())
	switch {
	case errors.Is(err, llm.ErrNoProviderEnabled):
		logger.Info().Msg("no language model configured, suggestions and advice disabled")
	case err != nil:
		return nil, fmt.Errorf("failed to initialize language model: %w", err)
	default:
		a.Advisor = llm.NewAdvisor(gen, cfg.LLM.AdviceCacheSize, logger)
		a.closers = append(a.closers, a.Advisor.Close)
		advisor = a.Advisor
	}

	a.Finder = finder.New(a.Analyzer, a.Catalog, advisor, finder.Options{
		Eager:          cfg.Suggest.Eager,
		SuggestTimeout: cfg.Suggest.Timeout,
		DefaultLimit:   cfg.Finder.DefaultLimit,
	}, logger)
	a.Importer = importer.New(store, a.Catalog, logger)

	if cfg.Database.Seed {
		stats, err := a.Importer.ImportSample(ctx, &importer.Config{OnlyIfEmpty: true})
		if err != nil {
			return nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
		if stats.GarmentsImported > 0 {
			logger.Info().Int("garments", stats.GarmentsImported).Msg("seeded empty catalog with sample garments")
		}
	}

	return a, nil
}

// openStorage opens the SQLite catalog, creating the parent directory of a
// file database
func openStorage(path string) (*storage.SQLiteStorage, error) {
	if path != MemoryDB {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

// openCache returns the configured catalog cache. A nil cache disables
// caching. An unreachable Redis falls back to the in-memory cache.
func (a *App) openCache(ctx context.Context) (cache.QueryCache, error) {
	cfg := a.Config.Cache
	a.cacheDriver = cfg.Driver

	switch cfg.Driver {
	case "none":
		return nil, nil
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			URL:      cfg.Redis.URL,
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}, a.logger)
		if err == nil {
			a.closers = append(a.closers, rc.Close)
			return rc, nil
		}
		a.logger.Warn().Err(err).Msg("redis unavailable, falling back to in-memory catalog cache")
		a.cacheDriver = "memory"
	}

	mc, err := cache.NewMemoryCache(cfg.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog cache: %w", err)
	}
	return mc, nil
}

// CacheDriver reports the cache actually in use
func (a *App) CacheDriver() string {
	return a.cacheDriver
}

// ModelProvider reports the language model provider, or "none"
func (a *App) ModelProvider() string {
	if a.Advisor == nil {
		return llm.ProviderNone
	}
	return a.Advisor.Generator().Provider()
}

// Close releases all components
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
