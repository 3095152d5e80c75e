// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity builds pairwise cosine similarity matrices over
// embedded queries.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/embed"
	"github.com/pdiddy/deep-research/pkg/types"
)

// DefaultDimensions is the zero-vector size used when an embedding fails
// and no dimensionality is configured.
const DefaultDimensions = 1024

// Matrix is a square, symmetric similarity matrix with a zero diagonal.
type Matrix [][]float64

// Zeros returns an n×n matrix of zeros.
func Zeros(n int) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// Len returns the matrix dimension.
func (m Matrix) Len() int { return len(m) }

// Sum returns the sum of every entry, accumulated row by row.
func (m Matrix) Sum() float64 {
	var s float64
	for _, row := range m {
		var rs float64
		for _, v := range row {
			rs += v
		}
		s += rs
	}
	return s
}

// SumRowMax returns the sum over rows of each row's maximum entry.
func (m Matrix) SumRowMax() float64 {
	var s float64
	for _, row := range m {
		if len(row) == 0 {
			continue
		}
		best := row[0]
		for _, v := range row[1:] {
			if v > best {
				best = v
			}
		}
		s += best
	}
	return s
}

// CosineMatrix computes pairwise cosine similarities. Zero-norm vectors are
// similar to nothing. The diagonal is forced to zero.
func CosineMatrix(vectors [][]float32) Matrix {
	n := len(vectors)
	norms := make([]float64, n)
	for i, v := range vectors {
		var s float64
		for _, x := range v {
			s += float64(x) * float64(x)
		}
		norms[i] = math.Sqrt(s)
	}

	m := Zeros(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if norms[i] == 0 || norms[j] == 0 {
				continue
			}
			sim := dot(vectors[i], vectors[j]) / (norms[i] * norms[j])
			m[i][j] = sim
			m[j][i] = sim
		}
	}
	return m
}

func dot(a, b []float32) float64 {
	k := len(a)
	if len(b) < k {
		k = len(b)
	}
	var s float64
	for i := 0; i < k; i++ {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// Engine embeds queries and turns the vectors into a similarity matrix.
type Engine struct {
	Embedder   embed.Embedder
	Dimensions int
	Logger     *zap.Logger
}

// Matrix returns the similarity matrix for queries. It always returns a
// correctly shaped matrix. When some or all embeddings failed the error is a
// *types.DegradedError and failed rows are all zero.
func (e *Engine) Matrix(ctx context.Context, queries []string) (Matrix, error) {
	log := e.Logger
	if log == nil {
		log = zap.NewNop()
	}
	n := len(queries)
	if n == 0 {
		return Matrix{}, nil
	}

	vectors, failed, err := e.embedAll(ctx, queries, log)
	if failed == n {
		log.Warn("all embeddings failed, using zero matrix", zap.Int("queries", n), zap.Error(err))
		return Zeros(n), types.Degraded("embeddings", err)
	}

	m := CosineMatrix(vectors)
	log.Debug("computed similarity matrix", zap.Int("size", n), zap.Int("failed", failed))
	if failed > 0 {
		return m, types.Degraded("embeddings", fmt.Errorf("%d of %d embeddings failed: %w", failed, n, err))
	}
	return m, nil
}

// embedAll tries one batch call, then falls back to one call per query.
// Failed items become zero vectors.
func (e *Engine) embedAll(ctx context.Context, queries []string, log *zap.Logger) ([][]float32, int, error) {
	if e.Embedder == nil {
		return nil, len(queries), errors.New("no embedding provider configured")
	}

	vecs, err := e.Embedder.Embed(ctx, queries)
	if err == nil && len(vecs) == len(queries) {
		return vecs, 0, nil
	}
	if err == nil {
		err = fmt.Errorf("embedding count mismatch: got %d, want %d", len(vecs), len(queries))
	}
	log.Warn("batch embedding failed, embedding one at a time", zap.Error(err))

	dims := e.Dimensions
	if dims <= 0 {
		dims = DefaultDimensions
	}

	out := make([][]float32, len(queries))
	failed := 0
	var lastErr error
	for i, q := range queries {
		v, itemErr := e.Embedder.Embed(ctx, []string{q})
		if itemErr == nil && len(v) == 1 && len(v[0]) > 0 {
			out[i] = v[0]
			continue
		}
		if itemErr == nil {
			itemErr = errors.New("empty embedding")
		}
		log.Warn("embedding failed, using zero vector", zap.Int("index", i), zap.Error(itemErr))
		out[i] = make([]float32, dims)
		failed++
		lastErr = itemErr
	}
	if lastErr == nil {
		lastErr = err
	}
	return out, failed, lastErr
}
