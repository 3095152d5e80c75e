// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deep-research/internal/archive"
	"github.com/pdiddy/deep-research/pkg/types"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeTasks struct {
	mu        sync.Mutex
	submitted []string
	states    map[string]types.TaskState
}

func (f *fakeTasks) Submit(_ context.Context, topic string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, topic)
	return fmt.Sprintf("research_%d", 1700000000+len(f.submitted)-1)
}

func (f *fakeTasks) Status(id string) types.TaskState {
	if st, ok := f.states[id]; ok {
		return st
	}
	return types.TaskState{Status: types.TaskNotFound}
}

func (f *fakeTasks) ListActive() []types.TaskSummary {
	var out []types.TaskSummary
	for _, st := range f.states {
		out = append(out, types.TaskSummary{ID: st.ID, Query: st.Query, Status: st.Status, StartTime: st.StartTime})
	}
	return out
}

type fakeDecomposer struct {
	rq  types.ResearchQuery
	err error
	got int
}

func (f *fakeDecomposer) Decompose(_ context.Context, topic string, n int) (types.ResearchQuery, error) {
	f.got = n
	rq := f.rq
	rq.OriginalQuery = topic
	return rq, f.err
}

type fakeReports struct {
	records []types.ReportRecord
	opts    archive.QueryOptions
	err     error
}

func (f *fakeReports) Search(_ context.Context, opts archive.QueryOptions) ([]types.ReportRecord, error) {
	f.opts = opts
	return f.records, f.err
}

func (f *fakeReports) Report(_ context.Context, id int64) (types.ReportRecord, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return types.ReportRecord{}, fmt.Errorf("report %d: %w", id, archive.ErrNotFound)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	s := &Server{Tasks: &fakeTasks{}}
	w := do(t, s.Router(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	s := &Server{Tasks: &fakeTasks{}}
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestSubmitResearch(t *testing.T) {
	tasks := &fakeTasks{}
	s := &Server{Tasks: tasks}

	w := do(t, s.Router(), http.MethodPost, "/api/research", `{"query":"  battery recycling  "}`)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"id":"research_1700000000","status":"running"}`, w.Body.String())
	assert.Equal(t, []string{"battery recycling"}, tasks.submitted)
}

func TestSubmitResearchValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty query", `{"query":""}`},
		{"whitespace query", `{"query":"   "}`},
		{"malformed json", `{"query":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks := &fakeTasks{}
			s := &Server{Tasks: tasks}
			w := do(t, s.Router(), http.MethodPost, "/api/research", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, tasks.submitted)
		})
	}
}

func TestTaskStatus(t *testing.T) {
	tasks := &fakeTasks{states: map[string]types.TaskState{
		"research_1": {ID: "research_1", Query: "q", Status: types.TaskCompleted, FilePath: "research_reports/a.md"},
	}}
	s := &Server{Tasks: tasks}
	r := s.Router()

	w := do(t, r, http.MethodGet, "/api/research/research_1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st types.TaskState
	decode(t, w, &st)
	assert.Equal(t, types.TaskCompleted, st.Status)
	assert.Equal(t, "research_reports/a.md", st.FilePath)

	w = do(t, r, http.MethodGet, "/api/research/research_2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"status":"not_found"}`, w.Body.String())
}

func TestListTasksEmpty(t *testing.T) {
	s := &Server{Tasks: &fakeTasks{}}
	w := do(t, s.Router(), http.MethodGet, "/api/research", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tasks":[]}`, w.Body.String())
}

func TestDecompose(t *testing.T) {
	dec := &fakeDecomposer{rq: types.ResearchQuery{
		SubQueries:     []string{"a", "b"},
		DiversityScore: 0.4,
		CoverageScore:  1.2,
	}}
	s := &Server{Tasks: &fakeTasks{}, Decomposer: dec}

	w := do(t, s.Router(), http.MethodPost, "/api/decompose", `{"query":"topic","num_queries":2}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp decomposeResponse
	decode(t, w, &resp)
	assert.Equal(t, "topic", resp.OriginalQuery)
	assert.Equal(t, []string{"a", "b"}, resp.SubQueries)
	assert.Empty(t, resp.Warning)
	assert.Equal(t, 2, dec.got)
}

func TestDecomposeDegradedIsWarning(t *testing.T) {
	dec := &fakeDecomposer{
		rq:  types.ResearchQuery{SubQueries: []string{"topic"}, DiversityScore: 1, CoverageScore: 1},
		err: types.Degraded("candidates", errors.New("connection refused")),
	}
	s := &Server{Tasks: &fakeTasks{}, Decomposer: dec}

	w := do(t, s.Router(), http.MethodPost, "/api/decompose", `{"query":"topic"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp decomposeResponse
	decode(t, w, &resp)
	assert.Equal(t, []string{"topic"}, resp.SubQueries)
	assert.Contains(t, resp.Warning, "connection refused")
}

func TestDecomposeRejectsNegativeCount(t *testing.T) {
	s := &Server{Tasks: &fakeTasks{}, Decomposer: &fakeDecomposer{}}
	w := do(t, s.Router(), http.MethodPost, "/api/decompose", `{"query":"topic","num_queries":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptionalRoutesAbsent(t *testing.T) {
	s := &Server{Tasks: &fakeTasks{}}
	r := s.Router()

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPost, "/api/decompose", `{"query":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/reports", "").Code)
}

func TestListReports(t *testing.T) {
	reports := &fakeReports{records: []types.ReportRecord{
		{ID: 2, Path: "research_reports/b.md", Query: "solar"},
	}}
	s := &Server{Tasks: &fakeTasks{}, Reports: reports}

	w := do(t, s.Router(), http.MethodGet, "/api/reports?q=solar&since=2026-01-01T00:00:00Z&limit=3", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Reports []types.ReportRecord `json:"reports"`
	}
	decode(t, w, &body)
	require.Len(t, body.Reports, 1)
	assert.Equal(t, "research_reports/b.md", body.Reports[0].Path)
	assert.Equal(t, archive.QueryOptions{Query: "solar", Since: "2026-01-01T00:00:00Z", MaxResults: 3}, reports.opts)
}

func TestListReportsErrors(t *testing.T) {
	s := &Server{Tasks: &fakeTasks{}, Reports: &fakeReports{err: errors.New("database is locked")}}
	r := s.Router()

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/reports?limit=ten", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, r, http.MethodGet, "/api/reports", "").Code)
}

func TestGetReport(t *testing.T) {
	reports := &fakeReports{records: []types.ReportRecord{
		{ID: 7, Path: "research_reports/a.md", Content: "# Research Report"},
	}}
	s := &Server{Tasks: &fakeTasks{}, Reports: reports}
	r := s.Router()

	w := do(t, r, http.MethodGet, "/api/reports/7", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rec types.ReportRecord
	decode(t, w, &rec)
	assert.Equal(t, "# Research Report", rec.Content)

	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/reports/8", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/reports/abc", "").Code)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s := &Server{Tasks: &fakeTasks{}}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	assert.NoError(t, <-done)
}
