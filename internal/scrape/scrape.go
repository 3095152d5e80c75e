// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape fetches web pages, converts them to Markdown and
// optionally summarizes them with a language model.
//
// Scrape never fails: every problem is logged and yields a Page with the
// corresponding fields left empty.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/convert"
	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/pkg/types"
)

// DefaultInstructions are used for summaries when the caller gives none.
const DefaultInstructions = "Summarise the content into bullet points. Include relevant URLs."

// maxBodyBytes limits how much of a response body is read.
const maxBodyBytes = 4 << 20

// Options control a single scrape.
type Options struct {
	// Summarize requests an LLM summary of the extracted Markdown.
	Summarize bool

	// Instructions steer the summary; empty uses DefaultInstructions.
	Instructions string
}

// Scraper fetches and converts pages. The zero value is not usable; build
// one with New or fill the fields directly in tests.
type Scraper struct {
	Client    *http.Client
	Converter convert.Converter

	// LLM produces summaries. Nil disables summarization.
	LLM llm.Completer

	Config types.ScrapeConfig
	Logger *zap.Logger
}

// New returns a Scraper using the default readability-then-plain converter.
func New(cfg types.ScrapeConfig, completer llm.Completer, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		Client:    &http.Client{Timeout: cfg.Timeout},
		Converter: convert.Default(),
		LLM:       completer,
		Config:    cfg,
		Logger:    logger,
	}
}

// Scrape fetches rawURL and returns its Markdown and, when requested, a
// summary. arXiv abstract pages are rewritten to their HTML rendering. PDFs
// and pages that yield no Markdown go through the reader service when one
// is configured.
func (s *Scraper) Scrape(ctx context.Context, rawURL string, opts Options) types.Page {
	log := s.logger().With(zap.String("url", rawURL))
	page := types.Page{URL: rawURL}
	if strings.TrimSpace(rawURL) == "" {
		log.Warn("scrape skipped: empty URL")
		return page
	}

	target := RewriteURL(rawURL)
	page.URL = target

	if IsPDF(target) {
		page.Markdown = s.readerFallback(ctx, target, log)
	} else {
		doc, err := s.fetchAndConvert(ctx, target)
		if err != nil {
			log.Warn("fetch failed", zap.Error(err))
		}
		page.Title = doc.Title
		page.Markdown = doc.Markdown
		page.Links = convert.FilterLinks(doc.Links, true)
		if page.Markdown == "" {
			page.Markdown = s.readerFallback(ctx, target, log)
		}
	}

	if opts.Summarize && page.Markdown != "" && s.LLM != nil {
		summary, err := s.Summarize(ctx, page.Markdown, opts.Instructions)
		if err != nil {
			log.Warn("summary failed", zap.Error(err))
		}
		page.Summary = summary
	}

	log.Debug("scraped", zap.Int("markdown_bytes", len(page.Markdown)), zap.Bool("summary", page.Summary != ""))
	return page
}

// Summarize asks the LLM for a summary of markdown guided by instructions.
func (s *Scraper) Summarize(ctx context.Context, markdown, instructions string) (string, error) {
	if s.LLM == nil {
		return "", fmt.Errorf("no language model configured")
	}
	if strings.TrimSpace(instructions) == "" {
		instructions = DefaultInstructions
	}
	if limit := s.Config.MaxSummaryInput; limit > 0 && len(markdown) > limit {
		for limit > 0 && !utf8.RuneStart(markdown[limit]) {
			limit--
		}
		markdown = markdown[:limit]
	}

	out, err := s.LLM.Complete(ctx, llm.Request{
		System: instructions + "\n\nMARKDOWN CONTENT:",
		Prompt: markdown,
	})
	if err != nil {
		return "", fmt.Errorf("summarizing: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (s *Scraper) fetchAndConvert(ctx context.Context, target string) (convert.Document, error) {
	u, err := url.Parse(target)
	if err != nil {
		return convert.Document{}, fmt.Errorf("parsing URL: %w", err)
	}

	body, contentType, err := s.get(ctx, target, nil)
	if err != nil {
		return convert.Document{}, err
	}

	if strings.Contains(contentType, "text/plain") || strings.Contains(contentType, "text/markdown") {
		return convert.Document{Markdown: strings.TrimSpace(string(body))}, nil
	}
	if strings.Contains(contentType, "application/pdf") {
		return convert.Document{}, nil
	}

	conv := s.Converter
	if conv == nil {
		conv = convert.Default()
	}
	doc, err := conv.Convert(body, u)
	if err != nil {
		return convert.Document{}, fmt.Errorf("converting %s: %w", target, err)
	}
	return doc, nil
}

// readerFallback fetches target through the reader service, which returns
// Markdown for pages and PDFs alike.
func (s *Scraper) readerFallback(ctx context.Context, target string, log *zap.Logger) string {
	if s.Config.ReaderURL == "" {
		return ""
	}
	body, _, err := s.get(ctx, s.Config.ReaderURL+target, map[string]string{"X-Engine": "browser"})
	if err != nil {
		log.Warn("reader fallback failed", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(string(body))
}

func (s *Scraper) get(ctx context.Context, target string, headers map[string]string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	if s.Config.UserAgent != "" {
		req.Header.Set("User-Agent", s.Config.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetching %s: HTTP %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", target, err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (s *Scraper) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// RewriteURL maps arXiv abstract pages to their HTML full-text rendering.
func RewriteURL(raw string) string {
	return strings.Replace(raw, "arxiv.org/abs", "arxiv.org/html", 1)
}

// IsPDF reports whether the URL points at a PDF document.
func IsPDF(raw string) bool {
	return strings.Contains(strings.ToLower(raw), ".pdf")
}
