// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns text into fixed-length vectors. Providers share the
// Embedder interface; Cached adds an in-process vector cache in front of any
// of them.
package embed

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Embedder produces one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// New builds the Embedder selected by cfg.Provider, wrapped in a cache when
// cfg.CacheSize is positive.
func New(ctx context.Context, cfg types.EmbeddingConfig) (Embedder, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	var e Embedder
	switch strings.ToLower(cfg.Provider) {
	case "", "openai", "ollama":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("embed: base_url is required for the openai provider")
		}
		e = &OpenAIEmbedder{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			MaxRetries: cfg.MaxRetries,
			Client:     client,
		}
	case "cohere":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embed: cohere provider needs an API key")
		}
		e = NewCohere(cfg, client)
	case "gemini", "google":
		g, err := NewGemini(ctx, cfg, client)
		if err != nil {
			return nil, err
		}
		e = g
	default:
		return nil, fmt.Errorf("embed: unknown provider %q", cfg.Provider)
	}

	if cfg.CacheSize > 0 {
		return NewCached(e, cfg.Provider+"/"+cfg.Model, cfg.CacheSize)
	}
	return e, nil
}

func checkCount(got, want int) error {
	if got != want {
		return fmt.Errorf("embedding count mismatch: got %d, want %d", got, want)
	}
	return nil
}
