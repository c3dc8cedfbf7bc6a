package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Provider configuration
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderNone       = "none"

	// Default models
	DefaultGeminiModel     = "gemini-2.0-flash"
	DefaultOpenRouterModel = "google/gemini-2.0-flash-001"

	// Default endpoints
	DefaultGeminiBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

	DefaultHTTPTimeout = 30 * time.Second
)

// ProviderOptions configures a provider. Zero values select defaults.
type ProviderOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	Generation GenerationConfig
	Retry      RetryConfig
	HTTPClient *http.Client
}

func (o ProviderOptions) withDefaults(model, baseURL string) ProviderOptions {
	if o.Model == "" {
		o.Model = model
	}
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Timeout <= 0 {
		o.Timeout = DefaultHTTPTimeout
	}
	if o.Generation == (GenerationConfig{}) {
		o.Generation = DefaultGenerationConfig()
	}
	if o.Retry == (RetryConfig{}) {
		o.Retry = DefaultRetryConfig()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	return o
}

// postJSON sends body to url and decodes a 200 answer into out
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(bodyBytes)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrMalformedResponse, err)
	}
	return nil
}

// GeminiProvider implements Generator using the Gemini generateContent API
type GeminiProvider struct {
	apiKey     string
	model      string
	baseURL    string
	generation GenerationConfig
	retry      RetryConfig
	httpClient *http.Client
}

// NewGeminiProvider creates a Gemini generator. The API key falls back to
// GEMINI_API_KEY and must start with "AI".
func NewGeminiProvider(opts ProviderOptions) (*GeminiProvider, error) {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv(EnvGeminiAPIKey)
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvGeminiAPIKey)
	}
	if !strings.HasPrefix(opts.APIKey, "AI") {
		return nil, fmt.Errorf("%w: gemini keys start with \"AI\"", ErrInvalidAPIKey)
	}

	opts = opts.withDefaults(DefaultGeminiModel, DefaultGeminiBaseURL)
	return &GeminiProvider{
		apiKey:     opts.APIKey,
		model:      opts.Model,
		baseURL:    opts.BaseURL,
		generation: opts.Generation,
		retry:      opts.Retry,
		httpClient: opts.HTTPClient,
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig map[string]interface{} `json:"generationConfig"`
	SafetySettings   []geminiSafetySetting  `json:"safetySettings"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

var geminiSafetySettings = []geminiSafetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ValidatePrompt(prompt); err != nil {
		return "", err
	}

	text, err := retryWithBackoff(ctx, g.retry, func() (string, error) {
		return g.callAPI(ctx, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}
	return text, nil
}

func (g *GeminiProvider) callAPI(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: map[string]interface{}{
			"temperature":     g.generation.Temperature,
			"topP":            g.generation.TopP,
			"topK":            g.generation.TopK,
			"maxOutputTokens": g.generation.MaxOutputTokens,
		},
		SafetySettings: geminiSafetySettings,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	var apiResp geminiResponse
	if err := postJSON(ctx, g.httpClient, url, map[string]string{"x-goog-api-key": g.apiKey}, body, &apiResp); err != nil {
		return "", err
	}

	if reason := apiResp.PromptFeedback.BlockReason; reason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", ErrEmptyResponse, reason)
	}
	if len(apiResp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range apiResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

func (g *GeminiProvider) Provider() string {
	return ProviderGemini
}

func (g *GeminiProvider) Model() string {
	return g.model
}

func (g *GeminiProvider) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}

// OpenRouterProvider implements Generator using the OpenRouter chat
// completions API
type OpenRouterProvider struct {
	apiKey     string
	model      string
	baseURL    string
	generation GenerationConfig
	retry      RetryConfig
	httpClient *http.Client
}

// NewOpenRouterProvider creates an OpenRouter generator. The API key falls
// back to OPENROUTER_API_KEY.
func NewOpenRouterProvider(opts ProviderOptions) (*OpenRouterProvider, error) {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv(EnvOpenRouterAPIKey)
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenRouterAPIKey)
	}

	opts = opts.withDefaults(DefaultOpenRouterModel, DefaultOpenRouterBaseURL)
	return &OpenRouterProvider{
		apiKey:     opts.APIKey,
		model:      opts.Model,
		baseURL:    opts.BaseURL,
		generation: opts.Generation,
		retry:      opts.Retry,
		httpClient: opts.HTTPClient,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	TopK        int           `json:"top_k,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

func (o *OpenRouterProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ValidatePrompt(prompt); err != nil {
		return "", err
	}

	text, err := retryWithBackoff(ctx, o.retry, func() (string, error) {
		return o.callAPI(ctx, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}
	return text, nil
}

func (o *OpenRouterProvider) callAPI(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       o.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: o.generation.Temperature,
		TopP:        o.generation.TopP,
		TopK:        o.generation.TopK,
		MaxTokens:   o.generation.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + o.apiKey,
		"X-Title":       "garmentfinder",
	}
	var apiResp chatResponse
	if err := postJSON(ctx, o.httpClient, o.baseURL+"/chat/completions", headers, body, &apiResp); err != nil {
		return "", err
	}

	if len(apiResp.Choices) == 0 || strings.TrimSpace(apiResp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return apiResp.Choices[0].Message.Content, nil
}

func (o *OpenRouterProvider) Provider() string {
	return ProviderOpenRouter
}

func (o *OpenRouterProvider) Model() string {
	return o.model
}

func (o *OpenRouterProvider) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}
