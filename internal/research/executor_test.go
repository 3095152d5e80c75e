// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/scrape"
	"github.com/pdiddy/deep-research/pkg/types"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 15, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fakeSearcher struct {
	hits []types.SearchHit
	err  error
}

func (f *fakeSearcher) Name() string { return "fake" }

func (f *fakeSearcher) Search(context.Context, string) ([]types.SearchHit, error) {
	return f.hits, f.err
}

// fakeScraper returns canned pages keyed by URL and records the options
// it was called with.
type fakeScraper struct {
	pages map[string]types.Page

	mu       sync.Mutex
	calls    []string
	opts     []scrape.Options
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakeScraper) Scrape(_ context.Context, url string, opts scrape.Options) types.Page {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.opts = append(f.opts, opts)
	f.mu.Unlock()

	if p, ok := f.pages[url]; ok {
		return p
	}
	return types.Page{URL: url}
}

func solarHits() []types.SearchHit {
	return []types.SearchHit{
		{Title: "Solar panels", Link: "https://a.com", Description: "efficiency of solar panels"},
		{Title: "Cooking", Link: "https://b.com", Description: "recipes"},
		{Title: "Panel efficiency", Link: "https://c.com", Description: "solar efficiency records"},
		{Title: "Solar wind", Link: "https://d.com"},
	}
}

func TestResearchAggregatesScrapes(t *testing.T) {
	sc := &fakeScraper{pages: map[string]types.Page{
		"https://a.com": {Markdown: "body A", Summary: "sum A"},
		"https://c.com": {Markdown: "body C"},
		"https://d.com": {},
	}}
	e := &Executor{
		Searcher:  &fakeSearcher{hits: solarHits()},
		Scraper:   sc,
		Summarize: true,
		Now:       clock,
	}

	r := e.Research(context.Background(), "solar panel efficiency")

	assert.Equal(t, "solar panel efficiency", r.Query)
	assert.Equal(t, "2026-03-01 09:30:15", r.Timestamp)

	var urls []string
	for _, s := range r.Sources {
		urls = append(urls, s.URL)
	}
	assert.Equal(t, []string{"https://a.com", "https://c.com", "https://d.com"}, urls)

	// Completion order is not fixed, so compare the parts.
	parts := strings.Split(r.Content, "\n\n")
	sort.Strings(parts)
	assert.Equal(t, []string{"body A", "body C"}, parts)
	assert.Equal(t, "sum A", r.Summary)

	require.Len(t, sc.opts, 3)
	for _, o := range sc.opts {
		assert.True(t, o.Summarize)
		assert.Equal(t, "solar panel efficiency", o.Instructions)
	}
}

func TestResearchSearchErrorYieldsEmptyResult(t *testing.T) {
	sc := &fakeScraper{}
	e := &Executor{Searcher: &fakeSearcher{err: errors.New("searxng down")}, Scraper: sc, Now: clock}

	r := e.Research(context.Background(), "anything")

	assert.Empty(t, r.Sources)
	assert.Empty(t, r.Content)
	assert.Empty(t, r.Summary)
	assert.Equal(t, "2026-03-01 09:30:15", r.Timestamp)
	assert.Empty(t, sc.calls)
}

func TestResearchZeroHits(t *testing.T) {
	e := &Executor{Searcher: &fakeSearcher{}, Scraper: &fakeScraper{}}
	r := e.Research(context.Background(), "nothing matches")
	assert.Empty(t, r.Sources)
	assert.NotEmpty(t, r.Timestamp)
}

func TestResearchRespectsMaxSources(t *testing.T) {
	var hits []types.SearchHit
	for i := 0; i < 10; i++ {
		hits = append(hits, types.SearchHit{Title: "solar", Link: "https://x.com/" + string(rune('a'+i))})
	}
	sc := &fakeScraper{}
	e := &Executor{Searcher: &fakeSearcher{hits: hits}, Scraper: sc, MaxSources: 3}

	r := e.Research(context.Background(), "solar")
	assert.Len(t, r.Sources, 3)
	assert.Len(t, sc.calls, 3)
}

func TestResearchBoundsConcurrency(t *testing.T) {
	var hits []types.SearchHit
	for i := 0; i < 8; i++ {
		hits = append(hits, types.SearchHit{Title: "solar", Link: "https://x.com/" + string(rune('a'+i))})
	}
	sc := &fakeScraper{delay: 20 * time.Millisecond}
	e := &Executor{Searcher: &fakeSearcher{hits: hits}, Scraper: sc, MaxSources: 8, Concurrency: 2}

	e.Research(context.Background(), "solar")

	assert.Len(t, sc.calls, 8)
	assert.LessOrEqual(t, sc.peak.Load(), int32(2))
}
