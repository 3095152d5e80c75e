// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decompose

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/similarity"
	"github.com/pdiddy/deep-research/pkg/types"
)

// fixedMatrix returns the same matrix for every call and counts calls.
type fixedMatrix struct {
	m     similarity.Matrix
	err   error
	calls int
}

func (f *fixedMatrix) Matrix(_ context.Context, _ []string) (similarity.Matrix, error) {
	f.calls++
	return f.m, f.err
}

// uniform builds an n×n matrix with off-diagonal value v.
func uniform(n int, v float64) similarity.Matrix {
	m := similarity.Zeros(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				m[i][j] = v
			}
		}
	}
	return m
}

func set(m similarity.Matrix, i, j int, v float64) {
	m[i][j] = v
	m[j][i] = v
}

func candidates(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("candidate query %d", i)
	}
	return out
}

func TestFacilityLocationAndGraphCut(t *testing.T) {
	m := similarity.Matrix{
		{0, 0.5, 0.2},
		{0.5, 0, 0.9},
		{0.2, 0.9, 0},
	}

	tests := []struct {
		name     string
		selected []int
		coverage float64
		cut      float64
	}{
		{"empty", nil, 0, 0},
		{"single", []int{0}, 0.5 + 0.2, 0},
		{"pair", []int{0, 1}, 0.9, 0.5},
		{"all", []int{0, 1, 2}, 0, 0.5 + 0.2 + 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.coverage, FacilityLocation(m, tt.selected), 1e-9)
			assert.InDelta(t, tt.cut, GraphCut(m, tt.selected), 1e-9)
		})
	}
}

func TestObjectiveNormalization(t *testing.T) {
	m := similarity.Matrix{
		{0, 0.5, 0.2},
		{0.5, 0, 0.9},
		{0.2, 0.9, 0},
	}
	obj := NewObjective(m, 0.6, false)

	// maxCoverage = 0.5 + 0.9 + 0.9, maxDiversity = 3.2 / 2.
	want := 0.6*(0.9/2.3) + 0.4*(0.5/1.6)
	assert.InDelta(t, want, obj.Normalized([]int{0, 1}), 1e-9)

	inverted := NewObjective(m, 0.6, true)
	assert.InDelta(t, 0.6*(0.9/2.3)-0.4*(0.5/1.6), inverted.Normalized([]int{0, 1}), 1e-9)

	cov, div := obj.Raw([]int{0, 1})
	assert.InDelta(t, 0.9, cov, 1e-9)
	assert.InDelta(t, 0.5, div, 1e-9)
}

func TestObjectiveZeroMatrix(t *testing.T) {
	obj := NewObjective(similarity.Zeros(4), 0.6, false)
	assert.Zero(t, obj.Normalized([]int{0, 2}))
}

func TestGreedyZeroMatrixPicksLowestIndices(t *testing.T) {
	// Every score ties at 0, so the first index wins each round.
	assert.Equal(t, []int{0, 1, 2}, Greedy(similarity.Zeros(6), 3, 0.6, false))
}

func TestGreedyStopsWhenCandidatesRunOut(t *testing.T) {
	assert.Equal(t, []int{0, 1}, Greedy(uniform(2, 0.3), 5, 0.6, false))
	assert.Empty(t, Greedy(uniform(3, 0.3), 0, 0.6, false))
}

func TestGreedyNeverExceedsKOrDuplicates(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := 2 + rng.Intn(12)
		m := similarity.Zeros(n)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				set(m, i, j, rng.Float64()*2-1)
			}
		}
		k := 1 + rng.Intn(n)
		for _, invert := range []bool{false, true} {
			got := Greedy(m, k, DefaultAlpha, invert)
			require.LessOrEqual(t, len(got), k)
			seen := map[int]bool{}
			for i, idx := range got {
				require.False(t, seen[idx], "duplicate index %d", idx)
				seen[idx] = true
				if i > 0 {
					require.Less(t, got[i-1], idx, "indices must be ascending")
				}
			}
		}
	}
}

func TestGreedyAvoidsNearDuplicates(t *testing.T) {
	// Candidates 0 and 1 are near-duplicates; 2..5 are mutually dissimilar.
	m := uniform(6, 0.1)
	set(m, 0, 1, 0.99)

	got := Greedy(m, 3, DefaultAlpha, false)
	require.Len(t, got, 3)

	dupes, others := 0, 0
	for _, idx := range got {
		if idx <= 1 {
			dupes++
		} else {
			others++
		}
	}
	assert.LessOrEqual(t, dupes, 1)
	assert.Equal(t, 2, others)
	assert.Equal(t, 0, got[0], "the first round prefers the best-covering candidate")

	assert.InDelta(t, 1.19, FacilityLocation(m, got), 1e-9)
	assert.InDelta(t, 0.3, GraphCut(m, got), 1e-9)
}

func TestGreedyCoverageNonDecreasingAcrossClusters(t *testing.T) {
	// Three tight clusters of three. While k is at most the number of
	// clusters each added pick covers a new cluster, so raw coverage grows.
	m := similarity.Zeros(9)
	for i := 0; i < 9; i++ {
		for j := 0; j < 9; j++ {
			switch {
			case i == j:
			case i/3 == j/3:
				m[i][j] = 0.9
			default:
				m[i][j] = 0.05
			}
		}
	}

	prev := 0.0
	for k := 1; k <= 3; k++ {
		got := Greedy(m, k, DefaultAlpha, false)
		clusters := map[int]bool{}
		for _, idx := range got {
			clusters[idx/3] = true
		}
		assert.Len(t, clusters, k, "k=%d should cover %d clusters", k, k)

		cov := FacilityLocation(m, got)
		assert.GreaterOrEqual(t, cov, prev, "coverage dropped at k=%d", k)
		prev = cov
	}
	assert.InDelta(t, 5.4, prev, 1e-9)
}

func TestGreedyInvertDiversityChangesPick(t *testing.T) {
	m := similarity.Matrix{
		{0, 0.1, 0.9, 0.05, 0.2},
		{0.1, 0, 0.05, 0.5, 0.5},
		{0.9, 0.05, 0, 0.5, 0.95},
		{0.05, 0.5, 0.5, 0, 0.5},
		{0.2, 0.5, 0.95, 0.5, 0},
	}
	assert.Equal(t, []int{2, 3}, Greedy(m, 2, DefaultAlpha, false))
	assert.Equal(t, []int{1, 2}, Greedy(m, 2, DefaultAlpha, true))
}

func TestSelectTrivialBranch(t *testing.T) {
	matrices := &fixedMatrix{}
	s := &Selector{Similarity: matrices}

	in := []string{"b query here", "a query here"}
	sel, err := s.Select(context.Background(), in, 2, DefaultAlpha)
	require.NoError(t, err)

	assert.Equal(t, in, sel.Queries)
	assert.Equal(t, []int{0, 1}, sel.Indices)
	assert.Equal(t, 1.0, sel.Coverage)
	assert.Equal(t, 1.0, sel.Diversity)
	assert.Zero(t, matrices.calls, "no embeddings for the trivial branch")

	in[0] = "mutated"
	assert.Equal(t, "b query here", sel.Queries[0], "result must not alias the input")
}

func TestSelectReportsRawScores(t *testing.T) {
	m := uniform(6, 0.1)
	set(m, 0, 1, 0.99)
	s := &Selector{Similarity: &fixedMatrix{m: m}}

	sel, err := s.Select(context.Background(), candidates(6), 3, DefaultAlpha)
	require.NoError(t, err)
	require.Len(t, sel.Queries, 3)
	for i, idx := range sel.Indices {
		assert.Equal(t, fmt.Sprintf("candidate query %d", idx), sel.Queries[i])
	}
	assert.InDelta(t, 1.19, sel.Coverage, 1e-9)
	assert.InDelta(t, 0.3, sel.Diversity, 1e-9)
}

func TestSelectPassesDegradedMatrixThrough(t *testing.T) {
	degraded := types.Degraded("embeddings", errors.New("provider down"))
	s := &Selector{Similarity: &fixedMatrix{m: similarity.Zeros(4), err: degraded}}

	sel, err := s.Select(context.Background(), candidates(4), 2, DefaultAlpha)
	assert.True(t, types.IsDegraded(err))
	assert.Equal(t, []string{"candidate query 0", "candidate query 1"}, sel.Queries)
	assert.Zero(t, sel.Coverage)
	assert.Zero(t, sel.Diversity)
}

func TestSelectRepairsMisshapenMatrix(t *testing.T) {
	s := &Selector{Similarity: &fixedMatrix{m: similarity.Zeros(2)}}
	sel, err := s.Select(context.Background(), candidates(4), 2, DefaultAlpha)
	require.NoError(t, err)
	assert.Len(t, sel.Queries, 2)
}

func TestInsertSorted(t *testing.T) {
	assert.Equal(t, []int{1}, insertSorted(nil, 1))
	assert.Equal(t, []int{1, 3, 5}, insertSorted([]int{1, 5}, 3))
	assert.Equal(t, []int{0, 1, 5}, insertSorted([]int{1, 5}, 0))
	assert.Equal(t, []int{1, 5, 9}, insertSorted([]int{1, 5}, 9))
}
