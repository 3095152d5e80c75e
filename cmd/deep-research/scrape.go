// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [url]",
	Short: "Fetch one page as Markdown, optionally summarized",
	Long: `Scrape fetches a URL and converts it to Markdown with the same
extraction used by research: readability first, a plain HTML walk when
that yields nothing, and the reader service for PDFs and empty pages.`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().Bool("summarize", false, "summarize the page with the language model")
	scrapeCmd.Flags().String("instructions", "", "summary instructions (default: bullet points with URLs)")
	scrapeCmd.Flags().Bool("json", false, "output the page as JSON, including links")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	summarize, _ := cmd.Flags().GetBool("summarize")
	instructions, _ := cmd.Flags().GetString("instructions")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	a.cfg.Scrape.Summarize = summarize

	s, err := a.scraper(cmd.Context())
	if err != nil {
		return err
	}
	page := s.Scrape(cmd.Context(), args[0], scrape.Options{Summarize: summarize, Instructions: instructions})
	if page.Markdown == "" {
		return fmt.Errorf("no content extracted from %s", args[0])
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}
	if page.Summary != "" {
		fmt.Println(page.Summary)
		return nil
	}
	fmt.Println(page.Markdown)
	return nil
}
