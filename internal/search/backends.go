// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

// New builds the configured searcher: one backend per entry in
// cfg.Backends, fanned out through Multi and wrapped in Cached when store
// is non-nil.
func New(cfg types.SearchConfig, store Store, ttl time.Duration, logger *zap.Logger) (Searcher, error) {
	client := &http.Client{Timeout: cfg.Timeout}

	names := cfg.Backends
	if len(names) == 0 {
		names = []string{"searxng"}
	}

	var backends []Searcher
	for _, name := range names {
		switch name {
		case "searxng":
			backends = append(backends, &SearxNGBackend{Client: client, Config: cfg})
		case "duckduckgo", "ddg":
			backends = append(backends, &DuckDuckGoBackend{Client: client, UserAgent: cfg.UserAgent, MaxResults: cfg.MaxResults})
		default:
			return nil, fmt.Errorf("unknown search backend %q", name)
		}
	}

	var s Searcher = &Multi{Backends: backends, Logger: logger}
	if store != nil {
		s = &Cached{Next: s, Store: store, TTL: ttl, Scope: CacheScope(cfg), Logger: logger}
	}
	return s, nil
}
