// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// SearxNGBackend queries a SearxNG instance through its JSON API.
type SearxNGBackend struct {
	Client *http.Client
	Config types.SearchConfig
}

// Name returns the backend identifier.
func (b *SearxNGBackend) Name() string { return "searxng" }

// Search runs query against /search with format=json.
func (b *SearxNGBackend) Search(ctx context.Context, query string) ([]types.SearchHit, error) {
	if b.Config.SearxNGURL == "" {
		return nil, fmt.Errorf("SearxNG URL is not configured")
	}

	params := url.Values{
		"q":      {query},
		"format": {"json"},
	}
	if b.Config.Category != "" {
		params.Set("categories", b.Config.Category)
	}
	if b.Config.Language != "" {
		params.Set("language", b.Config.Language)
	}
	params.Set("safesearch", strconv.Itoa(b.Config.SafeSearch))
	if len(b.Config.Engines) > 0 {
		params.Set("engines", strings.Join(b.Config.Engines, ","))
	}

	reqURL := strings.TrimRight(b.Config.SearxNGURL, "/") + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if b.Config.UserAgent != "" {
		req.Header.Set("User-Agent", b.Config.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("SearxNG request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SearxNG returned HTTP %d", resp.StatusCode)
	}

	var sr searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing SearxNG response: %w", err)
	}

	maxResults := b.Config.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxSources
	}

	var hits []types.SearchHit
	for _, r := range sr.Results {
		if r.URL == "" {
			continue
		}
		hits = append(hits, types.SearchHit{
			Title:       strings.TrimSpace(r.Title),
			Link:        r.URL,
			Description: strings.TrimSpace(r.Content),
			Category:    r.Category,
			Engine:      r.Engine,
		})
		if len(hits) == maxResults {
			break
		}
	}
	return hits, nil
}

// SearxNG JSON API structures.
type searxResponse struct {
	Query   string        `json:"query"`
	Results []searxResult `json:"results"`
}

type searxResult struct {
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Content  string  `json:"content"`
	Category string  `json:"category"`
	Engine   string  `json:"engine"`
	Score    float64 `json:"score"`
}
