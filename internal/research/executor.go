// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research runs the deep research pipeline: each sub-query is
// searched, filtered for relevance and scraped concurrently, and the
// results are compiled into a Markdown report that is saved to disk.
package research

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/deep-research/internal/scrape"
	"github.com/pdiddy/deep-research/internal/search"
	"github.com/pdiddy/deep-research/pkg/types"
)

// DefaultConcurrency bounds the scrapes in flight for one sub-query.
const DefaultConcurrency = 5

// PageScraper fetches one URL. *scrape.Scraper implements it.
type PageScraper interface {
	Scrape(ctx context.Context, url string, opts scrape.Options) types.Page
}

// Executor researches a single sub-query.
type Executor struct {
	Searcher search.Searcher
	Scraper  PageScraper

	// MaxSources is the relevance filter limit (default 5).
	MaxSources int

	// Concurrency bounds parallel scrapes (default 5).
	Concurrency int

	// Summarize requests a summary for every scraped page, using the
	// sub-query as the summary instructions.
	Summarize bool

	// Now stamps results; nil means time.Now.
	Now func() time.Time

	Logger *zap.Logger
}

// Research searches for query, keeps the most relevant sources and
// scrapes them. It never fails: a search error yields a result with no
// sources, and pages that fail to scrape are left out of Content and
// Summary. Bodies are appended in scrape completion order.
func (e *Executor) Research(ctx context.Context, query string) types.ResearchResult {
	log := e.logger().With(zap.String("query", query))
	log.Info("researching sub-query")

	var hits []types.SearchHit
	if e.Searcher != nil {
		var err error
		hits, err = e.Searcher.Search(ctx, query)
		if err != nil {
			log.Warn("search failed, continuing with no results", zap.Error(err))
			hits = nil
		}
	}

	sources := search.FilterRelevant(hits, query, e.MaxSources)
	log.Debug("relevant sources", zap.Int("hits", len(hits)), zap.Int("kept", len(sources)))

	var (
		mu        sync.Mutex
		contents  []string
		summaries []string
	)

	if e.Scraper != nil && len(sources) > 0 {
		limit := e.Concurrency
		if limit <= 0 {
			limit = DefaultConcurrency
		}
		var g errgroup.Group
		g.SetLimit(limit)

		for _, src := range sources {
			g.Go(func() error {
				page := e.Scraper.Scrape(ctx, src.URL, scrape.Options{
					Summarize:    e.Summarize,
					Instructions: query,
				})
				if page.Markdown == "" {
					log.Warn("no content scraped", zap.String("url", src.URL))
					return nil
				}
				mu.Lock()
				contents = append(contents, page.Markdown)
				if page.Summary != "" {
					summaries = append(summaries, page.Summary)
				}
				mu.Unlock()
				return nil
			})
		}
		g.Wait()
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	result := types.ResearchResult{
		Query:     query,
		Sources:   sources,
		Content:   strings.Join(contents, "\n\n"),
		Summary:   strings.Join(summaries, "\n\n"),
		Timestamp: now().Format(types.TimestampLayout),
	}
	log.Info("sub-query researched",
		zap.Int("sources", len(sources)),
		zap.Int("scraped", len(contents)),
		zap.Int("content_bytes", len(result.Content)))
	return result
}

func (e *Executor) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}
