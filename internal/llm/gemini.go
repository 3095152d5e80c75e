// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/pdiddy/deep-research/pkg/types"
)

// GeminiCompleter calls the Gemini API through the genai SDK. Gemini has no
// assistant prefill; JSON requests use the JSON response MIME type instead.
type GeminiCompleter struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// NewGemini builds a completer from cfg.
func NewGemini(ctx context.Context, cfg types.LLMConfig, httpClient *http.Client) (*GeminiCompleter, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiCompleter{client: client, model: model, maxTokens: cfg.MaxTokens}, nil
}

// Complete generates a single response for req.
func (c *GeminiCompleter) Complete(ctx context.Context, req Request) (string, error) {
	gc := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens(req, c.maxTokens)),
	}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		gc.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, gc)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("Gemini API returned no text")
	}
	return text, nil
}
