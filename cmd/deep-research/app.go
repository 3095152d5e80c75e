// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"io"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/archive"
	"github.com/pdiddy/deep-research/internal/decompose"
	"github.com/pdiddy/deep-research/internal/embed"
	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/internal/research"
	"github.com/pdiddy/deep-research/internal/scrape"
	"github.com/pdiddy/deep-research/internal/search"
	"github.com/pdiddy/deep-research/internal/similarity"
	"github.com/pdiddy/deep-research/pkg/types"
)

// app builds pipeline components on demand from the resolved configuration
// and releases them on Close.
type app struct {
	cfg types.PipelineConfig
	log *zap.Logger

	completer llm.Completer
	store     *archive.Store
	closers   []func() error
}

func newApp() (*app, error) {
	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: logger}, nil
}

// Close releases every resource opened by the app, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("closing resource", zap.Error(err))
		}
	}
	a.closers = nil
}

func (a *app) llm(ctx context.Context) (llm.Completer, error) {
	if a.completer != nil {
		return a.completer, nil
	}
	c, err := llm.New(ctx, a.cfg.LLM)
	if err != nil {
		return nil, err
	}
	a.completer = c
	return c, nil
}

func (a *app) decomposer(ctx context.Context) (*decompose.Decomposer, error) {
	completer, err := a.llm(ctx)
	if err != nil {
		return nil, err
	}
	embedder, err := embed.New(ctx, a.cfg.Embedding)
	if err != nil {
		return nil, err
	}
	if c, ok := embedder.(*embed.Cached); ok {
		a.closers = append(a.closers, func() error { c.Close(); return nil })
	}

	log := a.log.Named("decompose")
	return &decompose.Decomposer{
		Generator: &decompose.Generator{LLM: completer, Logger: log},
		Selector: &decompose.Selector{
			Similarity: &similarity.Engine{
				Embedder:   embedder,
				Dimensions: a.cfg.Embedding.Dimensions,
				Logger:     a.log.Named("similarity"),
			},
			InvertDiversity: a.cfg.Decompose.InvertDiversity,
			Logger:          log,
		},
		Config: a.cfg.Decompose,
		Logger: log,
	}, nil
}

// searcher builds the configured search backends. An unreachable Redis
// only disables the cache.
func (a *app) searcher(ctx context.Context) (search.Searcher, error) {
	var store search.Store
	if a.cfg.Cache.RedisAddr != "" {
		rs, err := search.NewRedisStore(ctx, a.cfg.Cache)
		if err != nil {
			a.log.Warn("search cache disabled", zap.Error(err))
		} else {
			store = rs
			a.closers = append(a.closers, rs.Close)
		}
	}
	return search.New(a.cfg.Search, store, a.cfg.Cache.TTL, a.log.Named("search"))
}

func (a *app) scraper(ctx context.Context) (*scrape.Scraper, error) {
	var completer llm.Completer
	if a.cfg.Scrape.Summarize {
		c, err := a.llm(ctx)
		if err != nil {
			return nil, err
		}
		completer = c
	}
	return scrape.New(a.cfg.Scrape, completer, a.log.Named("scrape")), nil
}

// archive opens the report archive once. It returns nil when the archive
// is disabled.
func (a *app) archive() (*archive.Store, error) {
	if a.store != nil || a.cfg.Archive.Path == "" {
		return a.store, nil
	}
	s, err := archive.Open(a.cfg.Archive)
	if err != nil {
		return nil, err
	}
	a.store = s
	a.closers = append(a.closers, s.Close)
	return s, nil
}

func (a *app) saver(ctx context.Context) *research.Saver {
	s := &research.Saver{OutputDir: a.cfg.Report.OutputDir, Logger: a.log.Named("report")}
	if a.cfg.Report.S3Bucket != "" {
		m, err := research.NewS3Mirror(ctx, a.cfg.Report)
		if err != nil {
			a.log.Warn("report mirror disabled", zap.Error(err))
		} else {
			s.Mirror = m
		}
	}
	return s
}

func (a *app) executor(ctx context.Context) (*research.Executor, error) {
	searcher, err := a.searcher(ctx)
	if err != nil {
		return nil, err
	}
	scraper, err := a.scraper(ctx)
	if err != nil {
		return nil, err
	}
	return &research.Executor{
		Searcher:    searcher,
		Scraper:     scraper,
		MaxSources:  a.cfg.Search.MaxSources,
		Concurrency: a.cfg.Scrape.Concurrency,
		Summarize:   a.cfg.Scrape.Summarize,
		Logger:      a.log.Named("research"),
	}, nil
}

// pipeline wires the full topic-to-report pipeline. Progress lines go to
// progress.
func (a *app) pipeline(ctx context.Context, numQueries int, progress io.Writer) (*research.Pipeline, error) {
	dec, err := a.decomposer(ctx)
	if err != nil {
		return nil, err
	}
	exec, err := a.executor(ctx)
	if err != nil {
		return nil, err
	}
	p := &research.Pipeline{
		Decomposer: dec,
		Researcher: exec,
		Saver:      a.saver(ctx),
		NumQueries: numQueries,
		Progress:   progress,
		Logger:     a.log.Named("pipeline"),
	}

	store, err := a.archive()
	if err != nil {
		a.log.Warn("report archive disabled", zap.Error(err))
	} else if store != nil {
		p.Archive = store
	}
	return p, nil
}
