// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Decomposer splits a topic into sub-queries. *decompose.Decomposer
// implements it.
type Decomposer interface {
	Decompose(ctx context.Context, topic string, numQueries int) (types.ResearchQuery, error)
}

// Researcher researches one sub-query. *Executor implements it.
type Researcher interface {
	Research(ctx context.Context, query string) types.ResearchResult
}

// Archiver indexes saved reports. *archive.Store implements it.
type Archiver interface {
	AddReport(ctx context.Context, rec types.ReportRecord) (int64, error)
}

// Outcome is everything one pipeline run produced.
type Outcome struct {
	Path          string
	Report        string
	Decomposition types.ResearchQuery
	Results       []types.ResearchResult
}

// Pipeline runs decompose, research, compile and save for one topic.
type Pipeline struct {
	Decomposer Decomposer
	Researcher Researcher
	Saver      *Saver

	// Archive is optional.
	Archive Archiver

	// NumQueries is passed to the decomposer; 0 uses its default.
	NumQueries int

	// Progress receives one human-readable line per stage. Nil discards.
	Progress io.Writer

	Now    func() time.Time
	Logger *zap.Logger
}

// Run executes the pipeline. Sub-queries are researched one after another.
// Upstream failures only degrade the report; the returned error is non-nil
// only when the report could not be saved, in which case Outcome.Path is
// empty and Outcome.Report still holds the compiled Markdown.
func (p *Pipeline) Run(ctx context.Context, topic string) (Outcome, error) {
	log := p.logger().With(zap.String("topic", topic))
	progress := p.Progress
	if progress == nil {
		progress = io.Discard
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	log.Info("starting research")
	decomposition, err := p.Decomposer.Decompose(ctx, topic, p.NumQueries)
	if err != nil {
		log.Warn("decomposition degraded", zap.Error(err))
	}
	fmt.Fprintf(progress, "decomposed into %d sub-queries (coverage %.3f, diversity %.3f)\n",
		len(decomposition.SubQueries), decomposition.CoverageScore, decomposition.DiversityScore)

	results := make([]types.ResearchResult, 0, len(decomposition.SubQueries))
	for i, q := range decomposition.SubQueries {
		fmt.Fprintf(progress, "[%d/%d] %s\n", i+1, len(decomposition.SubQueries), q)
		r := p.Researcher.Research(ctx, q)
		fmt.Fprintf(progress, "       %d sources\n", len(r.Sources))
		results = append(results, r)
	}

	out := Outcome{
		Decomposition: decomposition,
		Results:       results,
		Report:        Compile(results, topic, decomposition, now()),
	}

	saver := p.Saver
	if saver == nil {
		saver = &Saver{Logger: p.Logger, Now: p.Now}
	}
	meta := &Metadata{Decomposition: decomposition, Results: results}
	path, err := saver.Save(ctx, out.Report, meta, "")
	if path == "" {
		return out, fmt.Errorf("saving report: %w", err)
	}
	if err != nil {
		log.Warn("report saved without metadata", zap.Error(err))
	}
	out.Path = path
	fmt.Fprintf(progress, "report saved to %s\n", path)

	if p.Archive != nil {
		rec := types.ReportRecord{
			Path:           path,
			Query:          topic,
			SubQueries:     decomposition.SubQueries,
			DiversityScore: decomposition.DiversityScore,
			CoverageScore:  decomposition.CoverageScore,
			SourceCount:    countSources(results),
			Content:        out.Report,
		}
		if _, err := p.Archive.AddReport(ctx, rec); err != nil {
			log.Warn("archiving report failed", zap.Error(err))
		}
	}

	log.Info("research completed", zap.String("path", path))
	return out, nil
}

// RunResearch runs the pipeline and returns only the report path. It is
// the entry point used by the background task tracker.
func (p *Pipeline) RunResearch(ctx context.Context, topic string) (string, error) {
	out, err := p.Run(ctx, topic)
	return out.Path, err
}

func countSources(results []types.ResearchResult) int {
	n := 0
	for _, r := range results {
		n += len(r.Sources)
	}
	return n
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
