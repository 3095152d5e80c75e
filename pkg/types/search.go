// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deep-research pipeline:
// search hits, ranked sources, decompositions, per-query results, background
// task state, and the configuration blocks for every stage.
package types

// SearchHit is one raw result returned by a web search backend.
type SearchHit struct {
	// Title is the page title reported by the engine.
	Title string `json:"title" yaml:"title"`

	// Link is the absolute URL of the page.
	Link string `json:"url" yaml:"url"`

	// Description is the engine's snippet for the page.
	Description string `json:"description" yaml:"description"`

	// Category is the engine category the hit came from (e.g. "general").
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Engine names the upstream engine or backend that produced the hit.
	Engine string `json:"engine,omitempty" yaml:"engine,omitempty"`
}

// Source is a search hit that passed the lexical relevance filter, carrying
// the number of query terms it matched.
type Source struct {
	Title       string `json:"title" yaml:"title"`
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description" yaml:"description"`
	Score       int    `json:"score" yaml:"score"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
}
