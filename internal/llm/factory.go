package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables
const (
	EnvProvider         = "GARMENTFINDER_LLM_PROVIDER"
	EnvGeminiAPIKey     = "GEMINI_API_KEY"
	EnvOpenRouterAPIKey = "OPENROUTER_API_KEY"
	EnvTemperature      = "GEMINI_TEMPERATURE"
	EnvTopP             = "GEMINI_TOP_P"
	EnvTopK             = "GEMINI_TOP_K"
	EnvMaxOutputTokens  = "GEMINI_MAX_OUTPUT_TOKENS"
	EnvGeminiModel      = "GEMINI_MODEL"
	EnvOpenRouterModel  = "OPENROUTER_MODEL"
)

// Config holds generator configuration
type Config struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	Generation GenerationConfig
}

// New creates a generator with explicit configuration.
// Provider "none" (or empty) returns ErrNoProviderEnabled.
func New(cfg Config) (Generator, error) {
	opts := ProviderOptions{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		Generation: cfg.Generation,
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderGemini:
		return NewGeminiProvider(opts)
	case ProviderOpenRouter:
		return NewOpenRouterProvider(opts)
	case ProviderNone, "":
		return nil, ErrNoProviderEnabled
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// NewFromEnv creates a generator based on environment variables
// Priority:
// 1. GARMENTFINDER_LLM_PROVIDER (gemini, openrouter, none)
// 2. Check for API keys: GEMINI_API_KEY, OPENROUTER_API_KEY
// 3. ErrNoProviderEnabled if neither is set
func NewFromEnv() (Generator, error) {
	generation, err := GenerationConfigFromEnv()
	if err != nil {
		return nil, err
	}

	provider := DetectProvider()
	model := ""
	switch provider {
	case ProviderGemini:
		model = os.Getenv(EnvGeminiModel)
	case ProviderOpenRouter:
		model = os.Getenv(EnvOpenRouterModel)
	}

	return New(Config{Provider: provider, Model: model, Generation: generation})
}

// DetectProvider returns the provider that would be used based on the current environment
func DetectProvider() string {
	if provider := os.Getenv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}
	if os.Getenv(EnvGeminiAPIKey) != "" {
		return ProviderGemini
	}
	if os.Getenv(EnvOpenRouterAPIKey) != "" {
		return ProviderOpenRouter
	}
	return ProviderNone
}

// GenerationConfigFromEnv reads the sampling parameters, defaulting each
// one that is unset
func GenerationConfigFromEnv() (GenerationConfig, error) {
	cfg := DefaultGenerationConfig()

	if err := envFloat(EnvTemperature, &cfg.Temperature); err != nil {
		return cfg, err
	}
	if err := envFloat(EnvTopP, &cfg.TopP); err != nil {
		return cfg, err
	}
	if err := envInt(EnvTopK, &cfg.TopK); err != nil {
		return cfg, err
	}
	if err := envInt(EnvMaxOutputTokens, &cfg.MaxOutputTokens); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envFloat(name string, dst *float64) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidInput, name, raw)
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
		return fmt.Errorf("%w: %s=%q", ErrInvalidInput, name, raw)
	}
	*dst = v
	return nil
}
