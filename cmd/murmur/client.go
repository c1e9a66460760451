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

	"murmur/internal/api"
	"murmur/internal/queue"
)

// apiClient talks to the murmurd HTTP API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(server, token string) *apiClient {
	server = strings.TrimSpace(server)
	if server == "" {
		server = "127.0.0.1:7733"
	}
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	return &apiClient{
		baseURL: strings.TrimRight(server, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) Submit(ctx context.Context, audioPath string, metadata map[string]string) (api.Job, error) {
	var out api.JobResponse
	err := c.do(ctx, http.MethodPost, "/api/jobs", api.SubmitRequest{
		AudioPath: audioPath,
		Metadata:  metadata,
	}, &out)
	return out.Job, err
}

func (c *apiClient) GetJob(ctx context.Context, id string, includeResults bool) (api.Job, error) {
	path := "/api/jobs/" + url.PathEscape(id)
	if includeResults {
		path += "?results=1"
	}
	var out api.JobResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Job, err
}

func (c *apiClient) ListJobs(ctx context.Context, statuses ...queue.Status) ([]api.Job, error) {
	path := "/api/queue"
	if len(statuses) > 0 {
		values := url.Values{}
		for _, status := range statuses {
			values.Add("status", string(status))
		}
		path += "?" + values.Encode()
	}
	var out api.JobListResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Jobs, err
}

func (c *apiClient) ClearFinished(ctx context.Context) (int64, error) {
	var out api.ClearFinishedResponse
	err := c.do(ctx, http.MethodDelete, "/api/queue/finished", nil, &out)
	return out.Removed, err
}

func (c *apiClient) Status(ctx context.Context) (api.DaemonStatus, error) {
	var out api.DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &out)
	return out, err
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("is murmurd running? %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload api.ErrorResponse
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return fmt.Errorf("%s", payload.Message)
	}
	return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
}
