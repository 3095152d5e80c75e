// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/pkg/types"
)

type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	if m.data == nil {
		m.data = map[string][]byte{}
		m.ttls = map[string]time.Duration{}
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func TestCachedHitSkipsBackend(t *testing.T) {
	backend := &mockBackend{name: "searxng", hits: []types.SearchHit{hit("one", "https://one.com")}}
	store := &memStore{}
	c := &Cached{Next: backend, Store: store, TTL: time.Hour}

	first, err := c.Search(context.Background(), "Solar Power")
	require.NoError(t, err)
	second, err := c.Search(context.Background(), "  solar power ")
	require.NoError(t, err)

	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, first, second)
	for _, ttl := range store.ttls {
		assert.Equal(t, time.Hour, ttl)
	}
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	backend := &mockBackend{name: "searxng", err: errors.New("down")}
	store := &memStore{}
	c := &Cached{Next: backend, Store: store}

	_, err := c.Search(context.Background(), "q")
	require.Error(t, err)
	assert.Empty(t, store.data)
}

func TestCachedStoreFailuresAreIgnored(t *testing.T) {
	backend := &mockBackend{name: "searxng", hits: []types.SearchHit{hit("one", "https://one.com")}}
	c := &Cached{Next: backend, Store: &memStore{getErr: errors.New("read"), setErr: errors.New("write")}}

	hits, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestCachedCorruptEntry(t *testing.T) {
	backend := &mockBackend{name: "searxng", hits: []types.SearchHit{hit("fresh", "https://f.com")}}
	store := &memStore{}
	require.NoError(t, store.Set(context.Background(), cacheKey("searxng", "", "q"), []byte("{not json"), 0))

	c := &Cached{Next: backend, Store: store}
	hits, err := c.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "fresh", hits[0].Title)
	assert.Equal(t, 1, backend.calls)
}

func TestCacheKeyDistinguishesBackends(t *testing.T) {
	assert.NotEqual(t, cacheKey("a", "", "q"), cacheKey("b", "", "q"))
	assert.Equal(t, cacheKey("a", "", "Q "), cacheKey("a", "", "q"))
}

func TestCachedKeysDependOnSearchSettings(t *testing.T) {
	base := types.SearchConfig{SearxNGURL: "http://localhost:8888", MaxResults: 5, Category: "general", Language: "en"}
	changed := map[string]func(*types.SearchConfig){
		"max_results": func(c *types.SearchConfig) { c.MaxResults = 10 },
		"category":    func(c *types.SearchConfig) { c.Category = "science" },
		"language":    func(c *types.SearchConfig) { c.Language = "de" },
		"engines":     func(c *types.SearchConfig) { c.Engines = []string{"google"} },
		"safe_search": func(c *types.SearchConfig) { c.SafeSearch = 2 },
	}
	for name, mutate := range changed {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			assert.NotEqual(t, CacheScope(base), CacheScope(cfg))
		})
	}

	backend := &mockBackend{name: "searxng", hits: []types.SearchHit{hit("one", "https://one.com")}}
	store := &memStore{}
	wide := base
	wide.MaxResults = 10

	_, err := (&Cached{Next: backend, Store: store, Scope: CacheScope(base)}).Search(context.Background(), "q")
	require.NoError(t, err)
	_, err = (&Cached{Next: backend, Store: store, Scope: CacheScope(wide)}).Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.calls)
	assert.Len(t, store.data, 2)
}
