package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/garmentfinder-mcp/internal/config"
	"github.com/dshills/garmentfinder-mcp/internal/finder"
	"github.com/dshills/garmentfinder-mcp/internal/llm"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Database.Path = MemoryDB
	cfg.LLM.Provider = llm.ProviderNone
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNew_SeedsEmptyCatalog(t *testing.T) {
	a := newTestApp(t, testConfig())

	count, err := a.Storage.CountGarments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 23, count)
	assert.Nil(t, a.Advisor)
	assert.Equal(t, llm.ProviderNone, a.ModelProvider())
	assert.Equal(t, "memory", a.CacheDriver())
}

func TestNew_WithoutSeed(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Seed = false
	a := newTestApp(t, cfg)

	count, err := a.Storage.CountGarments(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNew_FindWithoutModel(t *testing.T) {
	a := newTestApp(t, testConfig())

	resp, err := a.Finder.Find(context.Background(), finder.Request{Query: "silk saree"})
	require.NoError(t, err)

	names := make([]string, 0, len(resp.Garments))
	for _, g := range resp.Garments {
		names = append(names, g.Name)
	}
	assert.ElementsMatch(t, []string{"Banarasi Silk Saree", "Kanjivaram Silk Saree"}, names)
	assert.Empty(t, resp.Advice)
}

func TestNew_CacheDrivers(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		cfg := testConfig()
		cfg.Cache.Driver = "none"
		a := newTestApp(t, cfg)
		assert.Equal(t, "none", a.CacheDriver())

		_, err := a.Catalog.All(context.Background())
		require.NoError(t, err)
	})

	t.Run("unreachable redis falls back to memory", func(t *testing.T) {
		cfg := testConfig()
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.URL = ""
		cfg.Cache.Redis.Addr = "127.0.0.1:1"
		a := newTestApp(t, cfg)
		assert.Equal(t, "memory", a.CacheDriver())
	})
}

func TestNew_InvalidLexicon(t *testing.T) {
	cfg := testConfig()
	cfg.Query.LexiconPath = "/nonexistent/lexicon.yaml"

	a, err := New(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "failed to load lexicon")
}

func TestNew_StorageFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	cfg := testConfig()
	cfg.Database.Path = filepath.Join(blocker, "garments.db")

	a, err := New(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "database directory")
}

func TestNew_InvalidModelKey(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.Provider = llm.ProviderGemini
	t.Setenv(llm.EnvGeminiAPIKey, "not-a-gemini-key")

	// Storage is already open when the model fails; New must close it
	a, err := New(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Nil(t, a)
	assert.ErrorIs(t, err, llm.ErrInvalidAPIKey)
}

func TestNew_MissingModelKeyDisablesAdvice(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.Provider = llm.ProviderGemini
	t.Setenv(llm.EnvGeminiAPIKey, "")

	a := newTestApp(t, cfg)
	assert.Nil(t, a.Advisor)
}
