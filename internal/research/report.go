// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// keySources is how many sources per finding the report lists.
const keySources = 3

const reportIntro = `
## Executive Summary

This report provides comprehensive research findings based on web sources and content analysis using submodular optimization for diverse query generation.

## Research Methodology

`

const reportOutro = `
## Conclusion

This research provides a comprehensive overview of the topic based on current web sources. The findings are compiled from multiple diverse perspectives using submodular optimization to ensure maximum coverage while minimizing redundancy.

## Methodology Notes

The submodular optimization approach ensures:
- **Coverage**: Maximum representation of different aspects of the topic
- **Diversity**: Minimal redundancy between selected queries
- **Relevance**: Each query targets specific, searchable aspects
- **Balance**: Optimal trade-off between exploration and exploitation

## Sources
All information in this report is derived from publicly available web sources accessed during the research process.
`

// Compile renders the Markdown report. The output depends only on its
// arguments, so identical inputs and now give identical reports.
func Compile(results []types.ResearchResult, originalQuery string, decomposition types.ResearchQuery, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Deep Research Report\n")
	fmt.Fprintf(&b, "**Original Query:** %s\n", originalQuery)
	fmt.Fprintf(&b, "**Generated:** %s\n", now.Format(types.TimestampLayout))
	b.WriteString(reportIntro)

	fmt.Fprintf(&b, "- **Query Decomposition**: Used submodular optimization to generate %d diverse sub-queries\n", len(results))
	fmt.Fprintf(&b, "- **Diversity Score**: %.3f\n", decomposition.DiversityScore)
	fmt.Fprintf(&b, "- **Coverage Score**: %.3f\n", decomposition.CoverageScore)
	b.WriteString("- **Web Search**: SearxNG search engine was used to find relevant sources\n")
	b.WriteString("- **Content Extraction**: Web pages were scraped and processed for relevant information\n")
	b.WriteString("- **Analysis**: Content was summarized and compiled into this report\n")

	b.WriteString("\n## Query Decomposition Analysis\n\n")
	b.WriteString("The original query was decomposed into the following diverse sub-queries using submodular optimization:\n\n")
	for i, q := range decomposition.SubQueries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}

	b.WriteString("\n## Detailed Findings\n")
	for i, r := range results {
		fmt.Fprintf(&b, "\n### %d. Research Focus: %s\n\n", i+1, r.Query)
		fmt.Fprintf(&b, "**Timestamp:** %s\n", r.Timestamp)
		fmt.Fprintf(&b, "**Sources Analyzed:** %d\n\n", len(r.Sources))
		b.WriteString("#### Key Sources:\n")

		top := r.Sources
		if len(top) > keySources {
			top = top[:keySources]
		}
		for _, s := range top {
			fmt.Fprintf(&b, "\n\n- **%s**\n", s.Title)
			fmt.Fprintf(&b, "  - URL: %s\n", s.URL)
			fmt.Fprintf(&b, "  - Relevance Score: %d\n", s.Score)
			fmt.Fprintf(&b, "  - Description: %s\n", s.Description)
		}

		fmt.Fprintf(&b, "\n#### Content Summary:\n%s\n\n", r.Summary)
		fmt.Fprintf(&b, "#### Detailed Content:\n%s\n\n---\n", r.Content)
	}

	b.WriteString(reportOutro)
	return b.String()
}
