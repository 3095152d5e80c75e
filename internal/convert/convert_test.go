// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Solar Panel Efficiency</title><script>var tracking = 1;</script></head>
<body>
<nav><a href="/home">Home</a> <a href="/login">Login</a></nav>
<article>
<h1>Solar Panel Efficiency</h1>
<p>Modern photovoltaic panels convert between eighteen and twenty-two percent of incoming sunlight into
electricity. Laboratory cells have passed forty percent by stacking several junctions, each tuned to a
different part of the solar spectrum, although such devices remain too expensive for rooftops.</p>
<p>Temperature matters as much as chemistry. Every degree above twenty-five Celsius costs roughly half a
percent of output, which is why installers leave an air gap behind the panels and why desert farms
sometimes underperform cooler, cloudier sites with the same nameplate capacity.</p>
<p>Read the <a href="/reports/2024">annual efficiency report</a> or the <strong>field study</strong> from the
<a href="https://energy.example.org/study">national laboratory</a> for measured numbers across climates.</p>
<ul><li>Monocrystalline silicon</li><li>Thin-film cadmium telluride</li></ul>
</article>
<footer>Copyright</footer>
</body></html>`

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestPlainConverter(t *testing.T) {
	doc, err := PlainConverter{}.Convert([]byte(articleHTML), mustURL(t, "https://solar.example.com/articles/efficiency"))
	require.NoError(t, err)

	assert.Equal(t, "Solar Panel Efficiency", doc.Title)
	assert.Contains(t, doc.Markdown, "# Solar Panel Efficiency")
	assert.Contains(t, doc.Markdown, "**field study")
	assert.Contains(t, doc.Markdown, "- Monocrystalline silicon")
	assert.Contains(t, doc.Markdown, "[annual efficiency report ](https://solar.example.com/reports/2024)")
	assert.NotContains(t, doc.Markdown, "tracking")
	assert.NotContains(t, doc.Markdown, "Login")
	assert.NotContains(t, doc.Markdown, "Copyright")
	assert.NotContains(t, doc.Markdown, "\n\n\n")

	assert.Equal(t, []string{
		"https://solar.example.com/reports/2024",
		"https://energy.example.org/study",
	}, doc.Links)
}

func TestPlainConverterSkipsFragmentAndScriptLinks(t *testing.T) {
	raw := `<p><a href="#top">top</a> <a href="javascript:void(0)">js</a> <a href="/a">a</a> <a href="/a">again</a></p>`
	doc, err := PlainConverter{}.Convert([]byte(raw), mustURL(t, "https://x.org/"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x.org/a"}, doc.Links)
}

func TestReadabilityConverter(t *testing.T) {
	doc, err := ReadabilityConverter{}.Convert([]byte(articleHTML), mustURL(t, "https://solar.example.com/articles/efficiency"))
	require.NoError(t, err)

	assert.NotEmpty(t, doc.Title)
	assert.Contains(t, doc.Markdown, "photovoltaic panels")
	assert.NotContains(t, doc.Markdown, "tracking")
}

type stubConverter struct {
	doc Document
	err error
}

func (s stubConverter) Convert([]byte, *url.URL) (Document, error) { return s.doc, s.err }

func TestChain(t *testing.T) {
	tests := []struct {
		name    string
		chain   Chain
		want    string
		wantErr bool
	}{
		{"first wins", Chain{stubConverter{doc: Document{Markdown: "one"}}, stubConverter{doc: Document{Markdown: "two"}}}, "one", false},
		{"error falls through", Chain{stubConverter{err: errors.New("boom")}, stubConverter{doc: Document{Markdown: "two"}}}, "two", false},
		{"empty falls through", Chain{stubConverter{}, stubConverter{doc: Document{Markdown: "two"}}}, "two", false},
		{"all empty", Chain{stubConverter{}, stubConverter{}}, "", false},
		{"all fail", Chain{stubConverter{err: errors.New("a")}, stubConverter{err: errors.New("b")}}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := tt.chain.Convert(nil, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Markdown)
		})
	}
}

func TestDefaultFallsBackToPlain(t *testing.T) {
	doc, err := Default().Convert([]byte("<p>short note</p>"), mustURL(t, "https://x.org/"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(doc.Markdown, "short note"))
}

func TestCleanMarkdown(t *testing.T) {
	got := cleanMarkdown("  a   b \n\n\n\n  c\t\td  \n")
	assert.Equal(t, "a b\n\nc d", got)
}
