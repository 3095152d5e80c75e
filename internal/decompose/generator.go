// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decompose

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/pkg/types"
)

// DefaultCandidates is the number of candidate sub-queries requested.
const DefaultCandidates = 20

// minQueryWords drops candidates too short to drive a useful web search.
const minQueryWords = 3

// candidatesPrefill seeds the assistant turn so the model continues a JSON
// object instead of opening with prose.
const candidatesPrefill = `{"queries": ["`

var candidatePromptTmpl = template.Must(template.New("candidates").Parse(`Generate {{.Count}} diverse search queries for the research topic: "{{.Topic}}"

Create queries that cover different aspects, perspectives, and angles of the topic.
Each query should be optimized for web search and include specific keywords.

Focus on diversity across these dimensions:
1. Different subtopics and aspects
2. Various stakeholder perspectives
3. Temporal aspects (current, historical, future)
4. Geographic and regional variations
5. Technical vs practical approaches
6. Challenges vs solutions
7. Theoretical vs applied aspects

Return only the queries as a JSON object, no explanations.
JSON Structure: {"queries": ["query 1", "query 2", "query 3"]}
`))

// Generator asks a language model for candidate sub-queries.
type Generator struct {
	LLM    llm.Completer
	Logger *zap.Logger
}

// Generate returns up to count candidate queries for topic. Any failure
// (model error, unparseable reply, nothing usable left after filtering)
// yields []string{topic} with a *types.DegradedError.
func (g *Generator) Generate(ctx context.Context, topic string, count int) ([]string, error) {
	log := g.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if count <= 0 {
		count = DefaultCandidates
	}

	candidates, err := g.generate(ctx, topic, count)
	if err != nil {
		log.Warn("candidate generation failed, falling back to topic", zap.String("topic", topic), zap.Error(err))
		return []string{topic}, types.Degraded("candidates", err)
	}
	log.Info("generated candidate queries", zap.String("topic", topic), zap.Int("count", len(candidates)))
	log.Debug("candidates", zap.Strings("queries", candidates))
	return candidates, nil
}

func (g *Generator) generate(ctx context.Context, topic string, count int) ([]string, error) {
	if g.LLM == nil {
		return nil, errors.New("no language model configured")
	}

	prompt, err := renderCandidatePrompt(topic, count)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := g.LLM.Complete(ctx, llm.Request{
		Prompt:  prompt,
		Prefill: candidatesPrefill,
		JSON:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("completing candidate prompt: %w", err)
	}

	queries, err := parseQueries(text)
	if err != nil {
		return nil, err
	}

	candidates := cleanCandidates(queries, count)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no usable candidates among %d returned queries", len(queries))
	}
	return candidates, nil
}

func renderCandidatePrompt(topic string, count int) (string, error) {
	var buf bytes.Buffer
	err := candidatePromptTmpl.Execute(&buf, struct {
		Topic string
		Count int
	}{Topic: topic, Count: count})
	return buf.String(), err
}

// parseQueries extracts the "queries" array from a model reply. The reply
// may be a continuation of the prefill, a complete object, or an object
// wrapped in a Markdown code fence.
func parseQueries(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	attempts := []string{text, candidatesPrefill + text}
	if body := stripFence(text); body != text {
		attempts = append(attempts, body)
	}
	if i, j := strings.Index(text, "{"), strings.LastIndex(text, "}"); i >= 0 && j > i {
		attempts = append(attempts, text[i:j+1])
	}

	var lastErr error
	for _, a := range attempts {
		var resp struct {
			Queries []string `json:"queries"`
		}
		if err := json.Unmarshal([]byte(a), &resp); err != nil {
			lastErr = err
			continue
		}
		if resp.Queries == nil {
			lastErr = errors.New(`reply has no "queries" array`)
			continue
		}
		return resp.Queries, nil
	}
	return nil, fmt.Errorf("parsing candidate JSON: %w", lastErr)
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

// cleanCandidates trims, drops short and duplicate queries, and truncates
// to limit.
func cleanCandidates(queries []string, limit int) []string {
	seen := make(map[string]bool, len(queries))
	var out []string
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if len(strings.Fields(q)) < minQueryWords || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
		if len(out) == limit {
			break
		}
	}
	return out
}
