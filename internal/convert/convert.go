// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns fetched HTML into Markdown with pluggable backends.
// The readability backend extracts the main article first; the plain
// backend walks the whole document and serves as the fallback.
package convert

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Document is the result of converting one HTML page.
type Document struct {
	Title    string
	Markdown string

	// Links holds the absolute, de-duplicated outbound links in document order.
	Links []string
}

// Converter transforms raw HTML fetched from pageURL into Markdown.
// Different backends (readability, plain DOM walk) implement this interface.
type Converter interface {
	Convert(raw []byte, pageURL *url.URL) (Document, error)
}

// ReadabilityConverter extracts the main article with go-readability and
// renders the article HTML as Markdown.
type ReadabilityConverter struct{}

// Convert runs readability over raw and converts the extracted article.
func (ReadabilityConverter) Convert(raw []byte, pageURL *url.URL) (Document, error) {
	article, err := readability.FromReader(bytes.NewReader(raw), pageURL)
	if err != nil {
		return Document{}, fmt.Errorf("extracting article: %w", err)
	}
	if strings.TrimSpace(article.Content) == "" {
		return Document{}, fmt.Errorf("no readable content")
	}

	doc, err := PlainConverter{}.Convert([]byte(article.Content), pageURL)
	if err != nil {
		return Document{}, err
	}
	if t := strings.TrimSpace(article.Title); t != "" {
		doc.Title = t
	}
	return doc, nil
}

// PlainConverter walks the whole DOM, dropping scripts, styles and page
// chrome (nav, header, footer).
type PlainConverter struct{}

// Convert parses raw and emits Markdown for every visible node.
func (PlainConverter) Convert(raw []byte, pageURL *url.URL) (Document, error) {
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return Document{}, fmt.Errorf("parsing HTML: %w", err)
	}

	w := &walker{base: pageURL, seen: map[string]bool{}}
	w.walk(root, 0)
	return Document{
		Title:    strings.TrimSpace(w.title),
		Markdown: cleanMarkdown(w.sb.String()),
		Links:    w.links,
	}, nil
}

// Chain tries each converter in order and returns the first document with
// non-empty Markdown.
type Chain []Converter

// Convert implements Converter.
func (c Chain) Convert(raw []byte, pageURL *url.URL) (Document, error) {
	var lastErr error
	for _, conv := range c {
		doc, err := conv.Convert(raw, pageURL)
		if err != nil {
			lastErr = err
			continue
		}
		if doc.Markdown != "" {
			return doc, nil
		}
	}
	if lastErr != nil {
		return Document{}, lastErr
	}
	return Document{}, nil
}

// Default returns the readability-then-plain chain used by the scraper.
func Default() Converter {
	return Chain{ReadabilityConverter{}, PlainConverter{}}
}

const maxDepth = 64

type walker struct {
	base  *url.URL
	sb    strings.Builder
	title string
	links []string
	seen  map[string]bool
}

func (w *walker) walk(n *html.Node, depth int) {
	if depth > maxDepth {
		return
	}

	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			w.sb.WriteString(text)
			w.sb.WriteString(" ")
		}
		return
	}

	var href string
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg", "nav", "footer", "header",
			"form", "input", "textarea", "select", "button":
			return
		case "title":
			w.title = textOf(n)
			return
		case "h1", "h2", "h3", "h4", "h5", "h6":
			w.sb.WriteString("\n\n" + strings.Repeat("#", int(n.Data[1]-'0')) + " ")
		case "p", "div", "section", "article", "table", "blockquote":
			w.sb.WriteString("\n\n")
		case "br", "tr":
			w.sb.WriteString("\n")
		case "li":
			w.sb.WriteString("\n- ")
		case "code":
			w.sb.WriteString("`")
		case "pre":
			w.sb.WriteString("\n\n```\n")
		case "strong", "b":
			w.sb.WriteString("**")
		case "em", "i":
			w.sb.WriteString("*")
		case "a":
			href = w.resolve(attr(n, "href"))
			if href != "" {
				w.addLink(href)
				w.sb.WriteString("[")
			}
		case "img":
			if alt := attr(n, "alt"); alt != "" {
				fmt.Fprintf(&w.sb, "[Image: %s]", alt)
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, depth+1)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			w.sb.WriteString("\n\n")
		case "code":
			w.sb.WriteString("`")
		case "pre":
			w.sb.WriteString("\n```\n\n")
		case "strong", "b":
			w.sb.WriteString("**")
		case "em", "i":
			w.sb.WriteString("*")
		case "a":
			if href != "" {
				fmt.Fprintf(&w.sb, "](%s)", href)
			}
		}
	}
}

// resolve makes href absolute against the page URL. Fragment-only and
// javascript: links resolve to "".
func (w *walker) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if w.base != nil {
		u = w.base.ResolveReference(u)
	}
	return u.String()
}

func (w *walker) addLink(href string) {
	if !w.seen[href] {
		w.seen[href] = true
		w.links = append(w.links, href)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(`[ \t]{2,}`)
)

func cleanMarkdown(s string) string {
	s = multiSpace.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
