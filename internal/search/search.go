// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries web search engines and returns unified,
// deduplicated hits, plus the lexical relevance filter that turns hits into
// ranked sources.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Searcher runs a web search. Each backend (SearxNG, DuckDuckGo) implements
// it, as do the fan-out and caching wrappers.
type Searcher interface {
	Name() string
	Search(ctx context.Context, query string) ([]types.SearchHit, error)
}

// Multi fans a query out to every backend concurrently and merges the hits
// in backend order, dropping duplicate URLs. A failing backend is logged and
// skipped; Multi only fails when every backend fails.
type Multi struct {
	Backends []Searcher
	Logger   *zap.Logger
}

// Name returns the backend identifier.
func (m *Multi) Name() string {
	names := make([]string, len(m.Backends))
	for i, b := range m.Backends {
		names[i] = b.Name()
	}
	return strings.Join(names, "+")
}

// Search queries all backends and merges their hits.
func (m *Multi) Search(ctx context.Context, query string) ([]types.SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is empty")
	}
	if len(m.Backends) == 0 {
		return nil, fmt.Errorf("no search backends configured")
	}
	log := m.Logger
	if log == nil {
		log = zap.NewNop()
	}

	type backendResult struct {
		pos  int
		hits []types.SearchHit
		err  error
	}

	ch := make(chan backendResult, len(m.Backends))
	var wg sync.WaitGroup
	for i, b := range m.Backends {
		wg.Add(1)
		go func(pos int, b Searcher) {
			defer wg.Done()
			hits, err := b.Search(ctx, query)
			ch <- backendResult{pos: pos, hits: hits, err: err}
		}(i, b)
	}
	go func() {
		wg.Wait()
		close(ch)
	}()

	perBackend := make([][]types.SearchHit, len(m.Backends))
	var errs []string
	for br := range ch {
		if br.err != nil {
			name := m.Backends[br.pos].Name()
			errs = append(errs, fmt.Sprintf("%s: %v", name, br.err))
			log.Warn("search backend failed", zap.String("backend", name), zap.Error(br.err))
			continue
		}
		perBackend[br.pos] = br.hits
	}
	if len(errs) == len(m.Backends) {
		return nil, fmt.Errorf("all search backends failed: %s", strings.Join(errs, "; "))
	}

	var all []types.SearchHit
	for _, hits := range perBackend {
		all = append(all, hits...)
	}
	return Deduplicate(all), nil
}

// Deduplicate keeps the first hit for each normalized URL.
func Deduplicate(hits []types.SearchHit) []types.SearchHit {
	seen := make(map[string]bool, len(hits))
	out := make([]types.SearchHit, 0, len(hits))
	for _, h := range hits {
		key := normalizeURL(h.Link)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	return out
}

// normalizeURL lowercases scheme and host and drops fragments, "www." and
// trailing slashes so trivially different links compare equal.
func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(raw)
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	path := strings.TrimRight(u.Path, "/")
	key := host + path
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}

// FormatTable writes sources as a human-readable table to w.
func FormatTable(sources []types.Source, w io.Writer) {
	if len(sources) == 0 {
		fmt.Fprintln(w, "No relevant results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-5s  %-60s  %s\n", "Rank", "Score", "Title", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for i, s := range sources {
		fmt.Fprintf(w, "%-4d  %-5d  %-60s  %s\n", i+1, s.Score, truncate(s.Title, 60), s.URL)
	}
	fmt.Fprintf(w, "\n%d results\n", len(sources))
}

// FormatJSON writes sources as indented JSON to w.
func FormatJSON(sources []types.Source, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sources)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
