// Package config provides configuration loading for garmentfinder.
// Values come from defaults, then an optional YAML file, then environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/garmentfinder-mcp/internal/cache"
	"github.com/dshills/garmentfinder-mcp/internal/fuzzy"
	"github.com/dshills/garmentfinder-mcp/internal/llm"
	"github.com/dshills/garmentfinder-mcp/internal/suggest"
)

// Environment variables
const (
	EnvConfigPath   = "GARMENTFINDER_CONFIG"
	EnvDBPath       = "GARMENTFINDER_DB_PATH"
	EnvLexicon      = "GARMENTFINDER_LEXICON"
	EnvCacheDriver  = "GARMENTFINDER_CACHE_DRIVER"
	EnvSuggestEager = "GARMENTFINDER_SUGGEST_EAGER"
	EnvRecord       = "GARMENTFINDER_RECORD_HISTORY"
	EnvRedisURL     = "REDIS_URL"
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogFormat    = "LOG_FORMAT"
)

// Config holds all configuration for garmentfinder
type Config struct {
	Database      DatabaseConfig      `yaml:"database"`
	Cache         CacheConfig         `yaml:"cache"`
	LLM           LLMConfig           `yaml:"llm"`
	Query         QueryConfig         `yaml:"query"`
	Suggest       SuggestConfig       `yaml:"suggest"`
	Finder        FinderConfig        `yaml:"finder"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// DatabaseConfig holds SQLite settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
	// Seed imports the sample catalog into an empty database on startup
	Seed bool `yaml:"seed"`
}

// CacheConfig holds catalog cache settings
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory, redis or none
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL      string `yaml:"url"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// LLMConfig holds language-model settings. API keys are only read from
// the environment.
type LLMConfig struct {
	Provider        string        `yaml:"provider"` // gemini, openrouter, none; empty detects from API keys
	Model           string        `yaml:"model"`
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	Temperature     float64       `yaml:"temperature"`
	TopP            float64       `yaml:"top_p"`
	TopK            int           `yaml:"top_k"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	AdviceCacheSize int           `yaml:"advice_cache_size"`
}

// QueryConfig holds query analysis settings
type QueryConfig struct {
	LexiconPath     string  `yaml:"lexicon_path"`
	NormalizeCutoff float64 `yaml:"normalize_cutoff"`
	KeywordCutoff   float64 `yaml:"keyword_cutoff"`
	CriteriaCutoff  float64 `yaml:"criteria_cutoff"`
}

// SuggestConfig holds model suggestion settings
type SuggestConfig struct {
	Eager   bool          `yaml:"eager"`
	Timeout time.Duration `yaml:"timeout"`
}

// FinderConfig holds search settings
type FinderConfig struct {
	DefaultLimit  int  `yaml:"default_limit"`
	RecordHistory bool `yaml:"record_history"`
}

// ObservabilityConfig holds logging settings
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from path (optional), applies environment
// overrides and validates the result
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	generation := llm.DefaultGenerationConfig()
	return &Config{
		Database: DatabaseConfig{
			Path: "garments.db",
			Seed: true,
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        cache.DefaultTTL,
			MaxEntries: cache.DefaultSize,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: cache.DefaultPrefix,
			},
		},
		LLM: LLMConfig{
			Timeout:         llm.DefaultHTTPTimeout,
			Temperature:     generation.Temperature,
			TopP:            generation.TopP,
			TopK:            generation.TopK,
			MaxOutputTokens: generation.MaxOutputTokens,
			AdviceCacheSize: llm.DefaultAdviceCacheSize,
		},
		Query: QueryConfig{
			NormalizeCutoff: fuzzy.NormalizeCutoff,
			KeywordCutoff:   fuzzy.KeywordCutoff,
			CriteriaCutoff:  fuzzy.CriteriaCutoff,
		},
		Suggest: SuggestConfig{
			Eager:   false,
			Timeout: suggest.DefaultTimeout,
		},
		Finder: FinderConfig{
			DefaultLimit:  10,
			RecordHistory: true,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database path is required")
	}

	switch c.Cache.Driver {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}

	switch strings.ToLower(c.LLM.Provider) {
	case "", llm.ProviderGemini, llm.ProviderOpenRouter, llm.ProviderNone:
	default:
		return fmt.Errorf("invalid llm provider: %s", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.LLM.TopP <= 0 || c.LLM.TopP > 1 {
		return fmt.Errorf("top_p must be in (0, 1]")
	}

	for name, cutoff := range map[string]float64{
		"normalize_cutoff": c.Query.NormalizeCutoff,
		"keyword_cutoff":   c.Query.KeywordCutoff,
		"criteria_cutoff":  c.Query.CriteriaCutoff,
	} {
		if cutoff <= 0 || cutoff > 1 {
			return fmt.Errorf("%s must be in (0, 1]", name)
		}
	}

	if c.Suggest.Timeout <= 0 {
		return fmt.Errorf("suggest timeout must be positive")
	}

	if c.Finder.DefaultLimit < 1 || c.Finder.DefaultLimit > 100 {
		return fmt.Errorf("default_limit must be between 1 and 100")
	}

	if c.Observability.LogFormat != "json" && c.Observability.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s", c.Observability.LogFormat)
	}

	return nil
}

// LLMProvider returns the configured provider, detecting it from the
// environment when unset
func (c *Config) LLMProvider() string {
	if c.LLM.Provider != "" {
		return strings.ToLower(c.LLM.Provider)
	}
	return llm.DetectProvider()
}

// GeneratorConfig converts the LLM settings into a generator configuration
func (c *Config) GeneratorConfig() llm.Config {
	return llm.Config{
		Provider: c.LLMProvider(),
		Model:    c.LLM.Model,
		BaseURL:  c.LLM.BaseURL,
		Timeout:  c.LLM.Timeout,
		Generation: llm.GenerationConfig{
			Temperature:     c.LLM.Temperature,
			TopP:            c.LLM.TopP,
			TopK:            c.LLM.TopK,
			MaxOutputTokens: c.LLM.MaxOutputTokens,
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv(EnvLexicon); v != "" {
		cfg.Query.LexiconPath = v
	}

	if v := os.Getenv(EnvCacheDriver); v != "" {
		cfg.Cache.Driver = v
	}

	if v := os.Getenv(EnvRedisURL); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.URL = v
	}

	if v := os.Getenv(llm.EnvProvider); v != "" {
		cfg.LLM.Provider = v
	}

	if v := os.Getenv(llm.EnvGeminiModel); v != "" && cfg.LLMProvider() == llm.ProviderGemini {
		cfg.LLM.Model = v
	}
	if v := os.Getenv(llm.EnvOpenRouterModel); v != "" && cfg.LLMProvider() == llm.ProviderOpenRouter {
		cfg.LLM.Model = v
	}

	if err := envFloat(llm.EnvTemperature, &cfg.LLM.Temperature); err != nil {
		return err
	}
	if err := envFloat(llm.EnvTopP, &cfg.LLM.TopP); err != nil {
		return err
	}
	if err := envInt(llm.EnvTopK, &cfg.LLM.TopK); err != nil {
		return err
	}
	if err := envInt(llm.EnvMaxOutputTokens, &cfg.LLM.MaxOutputTokens); err != nil {
		return err
	}

	if err := envBool(EnvSuggestEager, &cfg.Suggest.Eager); err != nil {
		return err
	}
	if err := envBool(EnvRecord, &cfg.Finder.RecordHistory); err != nil {
		return err
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Observability.LogFormat = v
	}

	return nil
}

func envFloat(name string, dst *float64) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", name, raw, err)
	}
	*dst = v
	return nil
}

func envInt(name string, dst *int) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", name, raw, err)
	}
	*dst = v
	return nil
}

func envBool(name string, dst *bool) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", name, raw, err)
	}
	*dst = v
	return nil
}
