// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides text completion against the supported model
// providers behind a single Completer interface.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Request is a single-turn completion request.
type Request struct {
	// System is the optional system prompt.
	System string

	// Prompt is the user message.
	Prompt string

	// Prefill seeds the assistant turn. Providers that cannot prefill, or
	// that honour JSON instead, ignore it. The returned text never starts
	// with the prefill, so callers must accept either a continuation or a
	// complete response.
	Prefill string

	// JSON asks the provider for a JSON object response where supported.
	JSON bool

	// MaxTokens overrides the configured completion limit when positive.
	MaxTokens int
}

// Completer abstracts the model API so callers and tests can supply any
// implementation. Complete returns the assistant text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// New builds the Completer selected by cfg.Provider.
func New(ctx context.Context, cfg types.LLMConfig) (Completer, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	switch strings.ToLower(cfg.Provider) {
	case "", "openai", "ollama":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm: base_url is required for the openai provider")
		}
		return &OpenAICompleter{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			MaxTokens:  cfg.MaxTokens,
			MaxRetries: cfg.MaxRetries,
			Client:     client,
		}, nil
	case "anthropic", "claude":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm: anthropic provider needs an API key")
		}
		return NewAnthropic(cfg, client), nil
	case "gemini", "google":
		return NewGemini(ctx, cfg, client)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

func maxTokens(req Request, configured int) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if configured > 0 {
		return configured
	}
	return 2048
}
