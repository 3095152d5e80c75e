// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// Cached memoizes vectors per text in a ristretto cache. Only cache misses
// reach the wrapped Embedder, in a single batch.
type Cached struct {
	inner     Embedder
	namespace string
	cache     *ristretto.Cache
}

// NewCached wraps inner with a cache holding up to size vectors. namespace
// keeps vectors from different models apart.
func NewCached(inner Embedder, namespace string, size int64) (*Cached, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}
	return &Cached{inner: inner, namespace: namespace, cache: cache}, nil
}

// Embed returns cached vectors where available and embeds the rest.
func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		if v, ok := c.cache.Get(c.key(text)); ok {
			out[i] = v.([]float32)
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if err := checkCount(len(vecs), len(missTexts)); err != nil {
		return nil, err
	}
	for j, v := range vecs {
		out[missIdx[j]] = v
		c.cache.Set(c.key(missTexts[j]), v, 1)
	}
	c.cache.Wait()
	return out, nil
}

// Close releases the cache's background goroutines.
func (c *Cached) Close() {
	c.cache.Close()
}

func (c *Cached) key(text string) string {
	return c.namespace + "\x00" + text
}
