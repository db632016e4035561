// Package llm adapts the generative model backends used to read fixture
// dates out of search snippets.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider is the interface for LLM completions.
type Provider interface {
	// Complete sends a prompt and returns the response text.
	Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error)
	// Name returns a human-readable provider name (e.g., "gemini/gemini-2.0-flash").
	Name() string
}

// CompletionOpts configures a single completion request.
type CompletionOpts struct {
	MaxTokens   int     // 0 = provider default
	Temperature float64 // 0 = deterministic
	JSON        bool    // ask for a JSON object response
	System      string  // optional system prompt
}

// Config holds provider configuration.
type Config struct {
	Provider string // "openai", "gemini"
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// NewProvider creates an LLM provider from the given config.
func NewProvider(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s provider requires an API key", cfg.Provider)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		model := cfg.Model
		if model == "" {
			model = "gpt-4o"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return &openaiProvider{
			apiKey:  cfg.APIKey,
			model:   model,
			baseURL: strings.TrimRight(baseURL, "/"),
			client:  &http.Client{Timeout: timeout},
		}, nil

	case "gemini", "google":
		model := cfg.Model
		if model == "" {
			model = "gemini-2.0-flash"
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://generativelanguage.googleapis.com/v1beta"
		}
		return &geminiProvider{
			apiKey:  cfg.APIKey,
			model:   model,
			baseURL: strings.TrimRight(baseURL, "/"),
			client:  &http.Client{Timeout: timeout},
		}, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: openai, gemini)", cfg.Provider)
	}
}

// StripFences removes a surrounding markdown code fence from model output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
