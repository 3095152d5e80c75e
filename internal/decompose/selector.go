// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decompose

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/similarity"
)

// DefaultAlpha weights coverage against diversity in the combined objective.
const DefaultAlpha = 0.6

// MatrixBuilder produces the similarity matrix for a list of queries.
// *similarity.Engine implements it.
type MatrixBuilder interface {
	Matrix(ctx context.Context, queries []string) (similarity.Matrix, error)
}

// Selection is the result of greedy subset selection.
type Selection struct {
	// Queries are the selected candidates in ascending candidate order.
	Queries []string

	// Indices are the selected candidate positions, ascending.
	Indices []int

	// Coverage and Diversity are the raw facility-location and graph-cut
	// values of the selected set.
	Coverage  float64
	Diversity float64
}

// FacilityLocation sums, over every item outside selected, its best
// similarity to a selected item. It is 0 for an empty selection.
func FacilityLocation(m similarity.Matrix, selected []int) float64 {
	if len(selected) == 0 {
		return 0
	}
	member := membership(m.Len(), selected)
	var coverage float64
	for i := 0; i < m.Len(); i++ {
		if member[i] {
			continue
		}
		best := math.Inf(-1)
		for _, j := range selected {
			if m[i][j] > best {
				best = m[i][j]
			}
		}
		coverage += best
	}
	return coverage
}

// GraphCut sums the pairwise similarities inside selected (each unordered
// pair once). It is 0 when fewer than two items are selected.
func GraphCut(m similarity.Matrix, selected []int) float64 {
	if len(selected) <= 1 {
		return 0
	}
	var total float64
	for a := 0; a < len(selected); a++ {
		for b := a + 1; b < len(selected); b++ {
			total += m[selected[a]][selected[b]]
		}
	}
	return total
}

// Objective is the alpha-weighted combination of normalized coverage and
// normalized graph cut over a fixed matrix.
type Objective struct {
	Matrix similarity.Matrix
	Alpha  float64

	// Invert subtracts the graph-cut term, rewarding dissimilar selections.
	Invert bool

	maxCoverage  float64
	maxDiversity float64
}

// NewObjective precomputes the normalizers for m: the sum of row maxima for
// coverage and half the matrix sum for diversity.
func NewObjective(m similarity.Matrix, alpha float64, invert bool) Objective {
	return Objective{
		Matrix:       m,
		Alpha:        alpha,
		Invert:       invert,
		maxCoverage:  m.SumRowMax(),
		maxDiversity: m.Sum() / 2,
	}
}

// Raw returns the unnormalized coverage and diversity of selected.
func (o Objective) Raw(selected []int) (coverage, diversity float64) {
	return FacilityLocation(o.Matrix, selected), GraphCut(o.Matrix, selected)
}

// Normalized returns the combined score used to rank candidate additions.
// A zero normalizer makes its term 0.
func (o Objective) Normalized(selected []int) float64 {
	coverage, diversity := o.Raw(selected)

	var nc, nd float64
	if o.maxCoverage > 0 {
		nc = coverage / o.maxCoverage
	}
	if o.maxDiversity > 0 {
		nd = diversity / o.maxDiversity
	}
	if o.Invert {
		return o.Alpha*nc - (1-o.Alpha)*nd
	}
	return o.Alpha*nc + (1-o.Alpha)*nd
}

// Greedy runs k rounds of greedy maximization over m and returns the chosen
// indices in ascending order. Each round scans unselected indices in
// ascending order and keeps the first strictly best score.
func Greedy(m similarity.Matrix, k int, alpha float64, invert bool) []int {
	obj := NewObjective(m, alpha, invert)
	n := m.Len()
	member := make([]bool, n)
	var selected []int

	for round := 0; round < k; round++ {
		bestIdx := -1
		bestScore := math.Inf(-1)
		for idx := 0; idx < n; idx++ {
			if member[idx] {
				continue
			}
			score := obj.Normalized(insertSorted(selected, idx))
			if score > bestScore {
				bestScore = score
				bestIdx = idx
			}
		}
		if bestIdx < 0 {
			break
		}
		member[bestIdx] = true
		selected = insertSorted(selected, bestIdx)
	}
	return selected
}

// Selector chooses a diverse, high-coverage subset of candidate queries.
type Selector struct {
	Similarity MatrixBuilder

	// InvertDiversity switches the objective to the negated graph-cut term.
	InvertDiversity bool

	Logger *zap.Logger
}

// Select returns up to k candidates. When there are no more than k
// candidates they are all returned unchanged with scores 1.0/1.0 and no
// embedding work is done. A degraded similarity matrix is still used; its
// error is returned alongside the selection.
func (s *Selector) Select(ctx context.Context, candidates []string, k int, alpha float64) (Selection, error) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if len(candidates) <= k {
		idx := make([]int, len(candidates))
		for i := range idx {
			idx[i] = i
		}
		return Selection{
			Queries:   append([]string(nil), candidates...),
			Indices:   idx,
			Coverage:  1.0,
			Diversity: 1.0,
		}, nil
	}

	var m similarity.Matrix
	var err error
	if s.Similarity != nil {
		m, err = s.Similarity.Matrix(ctx, candidates)
	}
	if m.Len() != len(candidates) {
		m = similarity.Zeros(len(candidates))
	}

	selected := Greedy(m, k, alpha, s.InvertDiversity)
	coverage, diversity := FacilityLocation(m, selected), GraphCut(m, selected)

	queries := make([]string, len(selected))
	for i, idx := range selected {
		queries[i] = candidates[idx]
	}

	log.Info("selected sub-queries",
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(selected)),
		zap.Float64("coverage", coverage),
		zap.Float64("diversity", diversity))

	return Selection{
		Queries:   queries,
		Indices:   selected,
		Coverage:  coverage,
		Diversity: diversity,
	}, err
}

func membership(n int, selected []int) []bool {
	member := make([]bool, n)
	for _, i := range selected {
		member[i] = true
	}
	return member
}

// insertSorted returns a new slice with v inserted into the ascending slice s.
func insertSorted(s []int, v int) []int {
	out := make([]int, 0, len(s)+1)
	inserted := false
	for _, x := range s {
		if !inserted && v < x {
			out = append(out, v)
			inserted = true
		}
		out = append(out, x)
	}
	if !inserted {
		out = append(out, v)
	}
	return out
}
