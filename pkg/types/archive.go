// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ReportRecord is a saved report as indexed in the archive.
type ReportRecord struct {
	ID             int64    `json:"id" yaml:"id"`
	Path           string   `json:"path" yaml:"path"`
	Query          string   `json:"query" yaml:"query"`
	SubQueries     []string `json:"sub_queries" yaml:"sub_queries"`
	DiversityScore float64  `json:"diversity_score" yaml:"diversity_score"`
	CoverageScore  float64  `json:"coverage_score" yaml:"coverage_score"`
	SourceCount    int      `json:"source_count" yaml:"source_count"`

	// Content is the full Markdown report. Listings leave it empty.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// CreatedAt uses RFC 3339.
	CreatedAt string `json:"created_at" yaml:"created_at"`
}
