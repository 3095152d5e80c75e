// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"

	"github.com/pdiddy/deep-research/pkg/types"
)

// CohereEmbedder uses the Cohere Embed v2 API.
type CohereEmbedder struct {
	client *cohereclient.Client
	model  string
}

// NewCohere builds a Cohere embedder from cfg.
func NewCohere(cfg types.EmbeddingConfig, httpClient *http.Client) *CohereEmbedder {
	model := cfg.Model
	if model == "" {
		model = "embed-english-v3.0"
	}
	return &CohereEmbedder{
		client: cohereclient.NewClient(
			cohereclient.WithToken(cfg.APIKey),
			cohereclient.WithHTTPClient(httpClient),
		),
		model: model,
	}
}

// Embed embeds texts as search queries and converts the float64 response.
func (c *CohereEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := c.client.V2.Embed(ctx, &cohere.V2EmbedRequest{
		Texts:          texts,
		Model:          c.model,
		InputType:      cohere.EmbedInputTypeSearchQuery,
		EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
	})
	if err != nil {
		return nil, fmt.Errorf("cohere embed: %w", err)
	}
	if resp == nil || resp.Embeddings == nil || resp.Embeddings.Float == nil {
		return nil, errors.New("cohere embed returned no float embeddings")
	}
	if err := checkCount(len(resp.Embeddings.Float), len(texts)); err != nil {
		return nil, err
	}

	out := make([][]float32, len(resp.Embeddings.Float))
	for i, vec := range resp.Embeddings.Float {
		fv := make([]float32, len(vec))
		for j, v := range vec {
			fv[j] = float32(v)
		}
		out[i] = fv
	}
	return out, nil
}
