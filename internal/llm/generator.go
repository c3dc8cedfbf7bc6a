package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrProviderFailed    = errors.New("language model provider failed")
	ErrUnsupportedModel  = errors.New("unsupported provider")
	ErrEmptyPrompt       = errors.New("prompt cannot be empty")
	ErrEmptyResponse     = errors.New("model returned an empty response")
	ErrMalformedResponse = errors.New("malformed model response")
	ErrInvalidAPIKey     = errors.New("invalid api key")
	ErrNoProviderEnabled = errors.New("no language model provider configured")
)

// Generator produces text completions for a prompt
type Generator interface {
	// Generate returns the model's text answer for prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// Provider returns the provider name
	Provider() string

	// Model returns the model name
	Model() string

	// Close releases any resources held by the generator
	Close() error
}

// GenerationConfig holds the sampling parameters sent with each request
type GenerationConfig struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}

// DefaultGenerationConfig returns the sampling defaults
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     0.7,
		TopP:            0.8,
		TopK:            40,
		MaxOutputTokens: 2048,
	}
}

// StatusError is a non-200 answer from a provider API
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Body)
}

// Retryable reports whether the request may succeed when repeated.
// Rate limiting and server errors are retryable; other client errors are not.
func (e *StatusError) Retryable() bool {
	return e.Code == 429 || e.Code >= 500
}

// ComputeHash computes the SHA-256 hash of text for caching
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(h[:])
}

// ValidatePrompt rejects blank prompts
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}
