// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"sort"
	"strings"

	"github.com/pdiddy/deep-research/pkg/types"
)

// DefaultMaxSources is the relevance filter limit when none is configured.
const DefaultMaxSources = 5

// RelevanceScore counts the lower-cased, whitespace-separated query terms
// that occur as substrings of the hit's title and description. Repeated
// terms count each time they appear in the query.
func RelevanceScore(hit types.SearchHit, query string) int {
	text := strings.ToLower(hit.Title + " " + hit.Description)
	score := 0
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(text, term) {
			score++
		}
	}
	return score
}

// FilterRelevant scores hits against query, drops those matching no term,
// sorts the rest by descending score (ties keep search order), and keeps at
// most limit. A non-positive limit uses DefaultMaxSources.
func FilterRelevant(hits []types.SearchHit, query string, limit int) []types.Source {
	if limit <= 0 {
		limit = DefaultMaxSources
	}

	sources := make([]types.Source, 0, len(hits))
	for _, h := range hits {
		score := RelevanceScore(h, query)
		if score == 0 {
			continue
		}
		sources = append(sources, types.Source{
			Title:       h.Title,
			URL:         h.Link,
			Description: h.Description,
			Score:       score,
			Category:    h.Category,
		})
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Score > sources[j].Score
	})

	if len(sources) > limit {
		sources = sources[:limit]
	}
	return sources
}
