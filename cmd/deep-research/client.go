// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// apiClient talks to a running "deep-research serve" instance.
type apiClient struct {
	BaseURL string
	Client  *http.Client
}

// Submit starts a background research task and returns its id.
func (c *apiClient) Submit(ctx context.Context, topic string) (string, error) {
	body, _ := json.Marshal(map[string]string{"query": topic})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/api/research"), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		ID    string `json:"id"`
		Error string `json:"error"`
	}
	status, err := c.do(ctx, req, &out)
	if err != nil {
		return "", err
	}
	if status != http.StatusAccepted {
		return "", fmt.Errorf("server rejected task (HTTP %d): %s", status, out.Error)
	}
	return out.ID, nil
}

// Status returns the state of a task on the server. Unknown ids yield the
// not_found state without an error.
func (c *apiClient) Status(ctx context.Context, id string) (types.TaskState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/api/research/"+url.PathEscape(id)), nil)
	if err != nil {
		return types.TaskState{}, err
	}
	var st types.TaskState
	status, err := c.do(ctx, req, &st)
	if err != nil {
		return types.TaskState{}, err
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return types.TaskState{}, fmt.Errorf("server returned HTTP %d", status)
	}
	return st, nil
}

func (c *apiClient) url(path string) string {
	return strings.TrimSuffix(c.BaseURL, "/") + path
}

func (c *apiClient) do(ctx context.Context, req *http.Request, out any) (int, error) {
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return 0, fmt.Errorf("contacting %s: %w", c.BaseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("parsing response (HTTP %d): %w", resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}
