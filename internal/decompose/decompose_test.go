// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decompose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/internal/similarity"
	"github.com/pdiddy/deep-research/pkg/types"
)

// mockGenerator returns canned candidates.
type mockGenerator struct {
	candidates []string
	err        error
	gotCount   int
}

func (m *mockGenerator) Generate(_ context.Context, _ string, count int) ([]string, error) {
	m.gotCount = count
	return m.candidates, m.err
}

func replying(text string, err error) (llm.Completer, *llm.Request) {
	var seen llm.Request
	return llm.CompleterFunc(func(_ context.Context, req llm.Request) (string, error) {
		seen = req
		return text, err
	}), &seen
}

func TestGeneratorParsesReplies(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		count int
		want  []string
	}{
		{
			name:  "continuation of the prefill",
			reply: `mixture of experts routing", "expert load balancing methods", "MoE"]}`,
			count: 20,
			want:  []string{"mixture of experts routing", "expert load balancing methods"},
		},
		{
			name:  "complete object",
			reply: `{"queries": ["sparse expert models history", "moe inference cost 2025"]}`,
			count: 20,
			want:  []string{"sparse expert models history", "moe inference cost 2025"},
		},
		{
			name:  "fenced object",
			reply: "```json\n{\"queries\": [\"gating networks in llms\"]}\n```",
			count: 20,
			want:  []string{"gating networks in llms"},
		},
		{
			name:  "prose around object",
			reply: "Here you go: {\"queries\": [\"expert parallelism on gpus\"]} Enjoy!",
			count: 20,
			want:  []string{"expert parallelism on gpus"},
		},
		{
			name:  "dedupe trim and truncate",
			reply: `{"queries": [" a b c ", "a b c", "d e f", "g h i"]}`,
			count: 2,
			want:  []string{"a b c", "d e f"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := replying(tt.reply, nil)
			g := &Generator{LLM: c}
			got, err := g.Generate(context.Background(), "moe", tt.count)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeneratorRequest(t *testing.T) {
	c, seen := replying(`{"queries": ["one two three"]}`, nil)
	g := &Generator{LLM: c}
	_, err := g.Generate(context.Background(), "quantum batteries", 0)
	require.NoError(t, err)

	assert.Contains(t, seen.Prompt, `Generate 20 diverse search queries for the research topic: "quantum batteries"`)
	assert.Contains(t, seen.Prompt, "7. Theoretical vs applied aspects")
	assert.Equal(t, `{"queries": ["`, seen.Prefill)
	assert.True(t, seen.JSON)
}

func TestGeneratorFallsBackToTopic(t *testing.T) {
	tests := []struct {
		name    string
		llm     llm.Completer
		wantErr string
	}{
		{"model error", mustReply("", errors.New("timeout")), "timeout"},
		{"not json", mustReply("I cannot help with that.", nil), "parsing candidate JSON"},
		{"missing key", mustReply(`{"items": []}`, nil), "queries"},
		{"all too short", mustReply(`{"queries": ["moe", "two words"]}`, nil), "no usable candidates"},
		{"no model", nil, "no language model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Generator{LLM: tt.llm}
			got, err := g.Generate(context.Background(), "topic X", 20)
			assert.Equal(t, []string{"topic X"}, got)
			require.Error(t, err)
			assert.True(t, types.IsDegraded(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func mustReply(text string, err error) llm.Completer {
	c, _ := replying(text, err)
	return c
}

func TestDecomposeUsesAllCandidatesWhenFew(t *testing.T) {
	gen := &mockGenerator{candidates: []string{
		"X aspect one and two",
		"X aspect three and four",
		"X aspect five and six",
	}}
	matrices := &fixedMatrix{}
	d := &Decomposer{Generator: gen, Selector: &Selector{Similarity: matrices}}

	rq, err := d.Decompose(context.Background(), "X", 5)
	require.NoError(t, err)

	assert.Equal(t, "X", rq.OriginalQuery)
	assert.Equal(t, gen.candidates, rq.SubQueries)
	assert.Equal(t, 1.0, rq.CoverageScore)
	assert.Equal(t, 1.0, rq.DiversityScore)
	assert.Equal(t, 20, gen.gotCount)
	assert.Zero(t, matrices.calls)
}

func TestDecomposeSelectsSubset(t *testing.T) {
	m := uniform(6, 0.1)
	set(m, 0, 1, 0.99)
	gen := &mockGenerator{candidates: candidates(6)}
	d := &Decomposer{
		Generator: gen,
		Selector:  &Selector{Similarity: &fixedMatrix{m: m}},
		Config:    types.DecomposeConfig{Candidates: 12},
	}

	rq, err := d.Decompose(context.Background(), "topic", 3)
	require.NoError(t, err)
	assert.Len(t, rq.SubQueries, 3)
	assert.Equal(t, "candidate query 0", rq.SubQueries[0])
	assert.InDelta(t, 1.19, rq.CoverageScore, 1e-9)
	assert.InDelta(t, 0.3, rq.DiversityScore, 1e-9)
	assert.Equal(t, 12, gen.gotCount)
}

func TestDecomposeHonoursZeroAlpha(t *testing.T) {
	m := similarity.Matrix{
		{0, 0.9, 0.1, 0.1},
		{0.9, 0, 0.1, 0.1},
		{0.1, 0.1, 0, 0.8},
		{0.1, 0.1, 0.8, 0},
	}
	build := func(cfg types.DecomposeConfig) *Decomposer {
		return &Decomposer{
			Generator: &mockGenerator{candidates: candidates(4)},
			Selector:  &Selector{Similarity: &fixedMatrix{m: m}},
			Config:    cfg,
		}
	}

	rq, err := build(types.DecomposeConfig{}).Decompose(context.Background(), "topic", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"candidate query 0", "candidate query 2"}, rq.SubQueries)

	zero := 0.0
	rq, err = build(types.DecomposeConfig{Alpha: &zero}).Decompose(context.Background(), "topic", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"candidate query 0", "candidate query 1"}, rq.SubQueries)
	assert.InDelta(t, 0.9, rq.DiversityScore, 1e-9)
}

func TestDecomposeDegradesToTopic(t *testing.T) {
	gen := &mockGenerator{
		candidates: []string{"topic"},
		err:        types.Degraded("candidates", errors.New("llm down")),
	}
	d := &Decomposer{Generator: gen}

	rq, err := d.Decompose(context.Background(), "topic", 0)
	assert.True(t, types.IsDegraded(err))
	assert.Equal(t, []string{"topic"}, rq.SubQueries)
	assert.Equal(t, 1.0, rq.CoverageScore)
}

func TestDecomposeEmptyCandidateList(t *testing.T) {
	d := &Decomposer{Generator: &mockGenerator{}}
	rq, err := d.Decompose(context.Background(), "lonely topic", 5)
	assert.True(t, types.IsDegraded(err))
	assert.Equal(t, []string{"lonely topic"}, rq.SubQueries)
}

func TestDecomposeJoinsDegradedErrors(t *testing.T) {
	gen := &mockGenerator{candidates: candidates(8)}
	embedErr := types.Degraded("embeddings", errors.New("no vectors"))
	d := &Decomposer{
		Generator: gen,
		Selector:  &Selector{Similarity: &fixedMatrix{m: similarity.Zeros(8), err: embedErr}},
	}

	rq, err := d.Decompose(context.Background(), "topic", 5)
	assert.True(t, types.IsDegraded(err))
	assert.True(t, strings.Contains(err.Error(), "embeddings degraded"))
	assert.Len(t, rq.SubQueries, 5)
}
