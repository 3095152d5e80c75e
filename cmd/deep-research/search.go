// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search the web and rank results by relevance",
	Long: `Search queries the configured backends (SearxNG, DuckDuckGo), merges
and deduplicates their results, and ranks them by how many query terms
appear in each title and snippet.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("max-sources", 0, "maximum number of results to keep (default from config, 5)")
	searchCmd.Flags().StringSlice("backend", nil, "override search backends (searxng, duckduckgo)")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if backends, _ := cmd.Flags().GetStringSlice("backend"); len(backends) > 0 {
		a.cfg.Search.Backends = backends
	}
	limit, _ := cmd.Flags().GetInt("max-sources")
	if limit <= 0 {
		limit = a.cfg.Search.MaxSources
	}

	s, err := a.searcher(cmd.Context())
	if err != nil {
		return err
	}
	hits, err := s.Search(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}
	sources := search.FilterRelevant(hits, query, limit)

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		return search.FormatJSON(sources, os.Stdout)
	}
	search.FormatTable(sources, os.Stdout)
	return nil
}
