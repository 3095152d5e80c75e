// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// duckduckgoURL is the DuckDuckGo HTML endpoint. Declared as a var so tests
// can substitute an httptest server.
var duckduckgoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoBackend scrapes the DuckDuckGo HTML results page. It needs no
// API key and serves as a fallback when no SearxNG instance is available.
type DuckDuckGoBackend struct {
	Client     *http.Client
	UserAgent  string
	MaxResults int
}

// Name returns the backend identifier.
func (b *DuckDuckGoBackend) Name() string { return "duckduckgo" }

// Search fetches and parses one results page.
func (b *DuckDuckGoBackend) Search(ctx context.Context, query string) ([]types.SearchHit, error) {
	reqURL := duckduckgoURL + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	ua := b.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0 (compatible; deep-research/0.1)"
	}
	req.Header.Set("User-Agent", ua)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DuckDuckGo returned HTTP %d", resp.StatusCode)
	}

	maxResults := b.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxSources
	}
	return parseDuckDuckGo(resp.Body, maxResults)
}

// parseDuckDuckGo walks the result divs (class "result results_links") and
// reads the title anchor (result__a) and snippet (result__snippet).
func parseDuckDuckGo(r io.Reader, maxResults int) ([]types.SearchHit, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing DuckDuckGo HTML: %w", err)
	}

	var hits []types.SearchHit
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(hits) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "results_links") {
			if hit := extractHit(n); hit.Link != "" {
				hits = append(hits, hit)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return hits, nil
}

func extractHit(n *html.Node) types.SearchHit {
	hit := types.SearchHit{Category: "general", Engine: "duckduckgo"}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				hit.Link = cleanRedirect(attr(n, "href"))
				hit.Title = strings.TrimSpace(textContent(n))
			case hasClass(n, "result__snippet"):
				hit.Description = strings.TrimSpace(textContent(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return hit
}

// cleanRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func cleanRedirect(href string) string {
	if !strings.Contains(href, "duckduckgo.com/l/") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(attr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
