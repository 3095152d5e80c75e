// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TimestampLayout is the layout of ResearchResult.Timestamp and the report
// header timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// ResearchQuery is the outcome of decomposing a topic into diverse sub-queries.
// It is created once per decomposition and never mutated.
type ResearchQuery struct {
	OriginalQuery string `json:"original_query" yaml:"original_query"`

	// SubQueries holds at most k unique sub-queries in ascending candidate order.
	SubQueries []string `json:"sub_queries" yaml:"sub_queries"`

	// DiversityScore is the raw graph-cut value of the selected set
	// (1.0 when selection was skipped).
	DiversityScore float64 `json:"diversity_score" yaml:"diversity_score"`

	// CoverageScore is the raw facility-location value of the selected set
	// (1.0 when selection was skipped).
	CoverageScore float64 `json:"coverage_score" yaml:"coverage_score"`
}

// ResearchResult holds everything gathered for a single sub-query.
type ResearchResult struct {
	Query string `json:"query" yaml:"query"`

	// Sources are ordered by descending relevance score.
	Sources []Source `json:"sources" yaml:"sources"`

	// Content joins the scraped Markdown bodies with blank lines, in
	// scrape completion order.
	Content string `json:"content" yaml:"-"`

	// Summary joins the per-page summaries with blank lines.
	Summary string `json:"summary" yaml:"-"`

	// Timestamp records completion time using TimestampLayout.
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// Page is the output of scraping a single URL. Empty fields mean the
// corresponding step failed.
type Page struct {
	URL      string `json:"url" yaml:"url"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Markdown string `json:"markdown" yaml:"markdown"`
	Summary  string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Links holds the filtered outbound links found on the page.
	Links []string `json:"links,omitempty" yaml:"links,omitempty"`
}
