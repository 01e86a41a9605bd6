package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"autotag/internal/middleware"
)

const (
	pathAllTags      = "/api/file/getAllTags"
	pathUntagged     = "/api/file/getUntaggedFiles"
	pathSetHashTags  = "/api/file/setHashTags"
	maxErrorBodySize = 4096
)

// FileRecord is an upload the backend has not tagged yet.
type FileRecord struct {
	Hash string `json:"hash"`
	Path string `json:"path"`
}

// StatusError reports a non-2xx answer from the metadata backend.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("metadata %s: http %d: %s", e.Op, e.StatusCode, strings.TrimSpace(e.Body))
}

// Client talks to the web app's file API.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ListTags returns the names of every tag known to the backend.
func (c *Client) ListTags(ctx context.Context) ([]string, error) {
	var tags []struct {
		Name string `json:"name"`
	}
	if _, err := c.getJSON(ctx, "list tags", pathAllTags, &tags, false); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(tags))
	for _, t := range tags {
		if t.Name != "" {
			names = append(names, t.Name)
		}
	}
	return names, nil
}

// ListUntagged returns the files still waiting for tags. The backend answers
// 404 when there are none, which is reported as an empty list.
func (c *Client) ListUntagged(ctx context.Context) ([]FileRecord, error) {
	var files []FileRecord
	found, err := c.getJSON(ctx, "list untagged", pathUntagged, &files, true)
	if err != nil {
		return nil, err
	}
	if !found || files == nil {
		return []FileRecord{}, nil
	}
	return files, nil
}

// SetHashTags attaches tags to every file sharing hash and marks it tagged.
// An empty tags slice still marks the hash as tagged.
func (c *Client) SetHashTags(ctx context.Context, hash string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	body, err := json.Marshal(map[string]interface{}{
		"hash": hash,
		"tags": tags,
	})
	if err != nil {
		return fmt.Errorf("metadata set tags: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathSetHashTags, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("metadata set tags: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.decorate(ctx, req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("metadata set tags: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError("set tags", resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}, notFoundIsEmpty bool) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("metadata %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	c.decorate(ctx, req)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("metadata %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && notFoundIsEmpty {
		slog.DebugContext(ctx, "metadata backend reported nothing found", "op", op)
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, statusError(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("metadata %s: decode response: %w", op, err)
	}
	return true, nil
}

func (c *Client) decorate(ctx context.Context, req *http.Request) {
	if id := middleware.GetCorrelationID(ctx); id != "unknown" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
}
