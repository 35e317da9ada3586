package dbgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marmos91/dittosync/pkg/metrics"
)

// Client is the HTTP implementation of Gateway, modeled on the corpus's
// REST client pattern: a thin JSON-over-HTTP RPC wrapper with a shared
// baseURL and transport, swapping that client's interactive Bearer JWT for
// a static shared secret (this system has no interactive users, only the
// sync daemon).
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    metrics.GatewayMetrics
}

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Metrics metrics.GatewayMetrics
}

// New creates a metadata gateway HTTP client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    cfg.Metrics,
	}
}

var _ Gateway = (*Client)(nil)

// do performs an HTTP request and decodes a JSON response, wrapping any
// failure in a *GatewayError.
func (c *Client) do(ctx context.Context, op, method, path string, body, result any) error {
	start := time.Now()
	err := c.doRequest(ctx, method, path, body, result)
	metrics.ObserveOperation(c.metrics, "db", op, time.Since(start), err)
	if err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &GatewayError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

const pageSize = 500

// FetchPathMap paginates through GET /v1/files, ordered by full_path, and
// assembles the complete live path → content_hash snapshot.
func (c *Client) FetchPathMap(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string)
	cursor := ""

	for {
		var page struct {
			Files      []FileRecord `json:"files"`
			NextCursor string       `json:"next_cursor"`
		}

		path := fmt.Sprintf("/v1/files?limit=%d", pageSize)
		if cursor != "" {
			path += "&cursor=" + cursor
		}

		if err := c.do(ctx, "fetch_path_map", http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}

		for _, f := range page.Files {
			out[f.FullPath] = f.ContentHash
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return out, nil
}

// UpsertContent issues PUT /v1/contents/{hash}.
func (c *Client) UpsertContent(ctx context.Context, hash string, size uint64, mimeType string) error {
	body := map[string]any{"size_bytes": size, "mime_type": mimeType}
	return c.do(ctx, "upsert_content", http.MethodPut, "/v1/contents/"+hash, body, nil)
}

// UpsertFile issues PUT /v1/files/{full_path}.
func (c *Client) UpsertFile(ctx context.Context, rec FileRecord) error {
	return c.do(ctx, "upsert_file", http.MethodPut, "/v1/files"+rec.FullPath, rec, nil)
}

// TouchFile issues PATCH /v1/files/{full_path}/touch.
func (c *Client) TouchFile(ctx context.Context, fullPath string) error {
	return c.do(ctx, "touch_file", http.MethodPatch, "/v1/files"+fullPath+"/touch", nil, nil)
}

// MarkDeleted issues PATCH /v1/files:mark-deleted.
func (c *Client) MarkDeleted(ctx context.Context, pathPrefix string, beforeTs time.Time) (int, error) {
	body := map[string]any{"path_prefix": pathPrefix, "before": beforeTs}
	var result struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, "mark_deleted", http.MethodPatch, "/v1/files:mark-deleted", body, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

// DequeueUploadBatch issues POST /v1/contents:dequeue.
func (c *Client) DequeueUploadBatch(ctx context.Context, batchSize int, pathPrefixes []string) ([]ContentRef, error) {
	body := map[string]any{"batch_size": batchSize, "path_prefixes": pathPrefixes}
	var result struct {
		Items []ContentRef `json:"items"`
	}
	if err := c.do(ctx, "dequeue_upload_batch", http.MethodPost, "/v1/contents:dequeue", body, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// MarkUploadComplete issues POST /v1/contents/{hash}:complete.
func (c *Client) MarkUploadComplete(ctx context.Context, hash, storagePath, mimeType string) error {
	body := map[string]any{"storage_path": storagePath, "mime_type": mimeType}
	return c.do(ctx, "mark_upload_complete", http.MethodPost, "/v1/contents/"+hash+":complete", body, nil)
}

// MarkUploadFailed issues POST /v1/contents/{hash}:fail.
func (c *Client) MarkUploadFailed(ctx context.Context, hash, errMsg string) error {
	body := map[string]any{"error": errMsg}
	return c.do(ctx, "mark_upload_failed", http.MethodPost, "/v1/contents/"+hash+":fail", body, nil)
}

// MarkUploadSkipped issues POST /v1/contents/{hash}:skip.
func (c *Client) MarkUploadSkipped(ctx context.Context, hash, reason string) error {
	body := map[string]any{"reason": reason}
	return c.do(ctx, "mark_upload_skipped", http.MethodPost, "/v1/contents/"+hash+":skip", body, nil)
}

// ResetStuckUploads issues POST /v1/contents:reset-stuck.
func (c *Client) ResetStuckUploads(ctx context.Context) (int, error) {
	var result struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, "reset_stuck_uploads", http.MethodPost, "/v1/contents:reset-stuck", nil, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}
