// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decompose turns a research topic into a small set of diverse
// sub-queries: a language model proposes candidates, and greedy maximization
// of a facility-location plus graph-cut objective over their embedding
// similarities picks the subset.
package decompose

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

// DefaultNumQueries is the number of sub-queries kept per topic.
const DefaultNumQueries = 5

// CandidateGenerator proposes candidate sub-queries for a topic.
// *Generator implements it.
type CandidateGenerator interface {
	Generate(ctx context.Context, topic string, count int) ([]string, error)
}

// Decomposer runs candidate generation followed by subset selection.
type Decomposer struct {
	Generator CandidateGenerator
	Selector  *Selector
	Config    types.DecomposeConfig
	Logger    *zap.Logger
}

// Decompose never fails outright: the returned ResearchQuery is always
// usable. A non-nil error is a *types.DegradedError (possibly joined with
// others) describing which stage fell back.
func (d *Decomposer) Decompose(ctx context.Context, topic string, numQueries int) (types.ResearchQuery, error) {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if numQueries <= 0 {
		numQueries = d.Config.NumQueries
	}
	if numQueries <= 0 {
		numQueries = DefaultNumQueries
	}
	count := d.Config.Candidates
	if count <= 0 {
		count = DefaultCandidates
	}
	alpha := DefaultAlpha
	if d.Config.Alpha != nil {
		alpha = *d.Config.Alpha
	}

	log.Info("decomposing query", zap.String("topic", topic), zap.Int("num_queries", numQueries))

	var candidates []string
	var genErr error
	if d.Generator != nil {
		candidates, genErr = d.Generator.Generate(ctx, topic, count)
	}
	if len(candidates) == 0 {
		candidates = []string{topic}
		if genErr == nil {
			genErr = types.Degraded("candidates", errors.New("no candidates generated"))
		}
	}

	if len(candidates) <= numQueries {
		log.Info("using all candidates", zap.Int("count", len(candidates)))
		return types.ResearchQuery{
			OriginalQuery:  topic,
			SubQueries:     candidates,
			DiversityScore: 1.0,
			CoverageScore:  1.0,
		}, genErr
	}

	selector := d.Selector
	if selector == nil {
		selector = &Selector{Logger: log}
	}
	sel, selErr := selector.Select(ctx, candidates, numQueries, alpha)

	log.Info("query decomposition completed",
		zap.Int("sub_queries", len(sel.Queries)),
		zap.Float64("coverage", sel.Coverage),
		zap.Float64("diversity", sel.Diversity))

	return types.ResearchQuery{
		OriginalQuery:  topic,
		SubQueries:     sel.Queries,
		DiversityScore: sel.Diversity,
		CoverageScore:  sel.Coverage,
	}, errors.Join(genErr, selErr)
}
