// Package client provides HTTP access to a running photoscan daemon for
// the CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"photoscan/internal/api"
)

const defaultTimeout = 30 * time.Second

// StatusError reports a non-2xx daemon response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("daemon returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("daemon returned %d", e.Code)
}

// Client talks to the daemon API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a client for the daemon listening at bind (host:port).
func New(bind string) *Client {
	base := strings.TrimSpace(bind)
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

// StartScan requests a new scan of the directory.
func (c *Client) StartScan(ctx context.Context, directory string, force bool) (api.ScanAccepted, error) {
	var resp api.ScanAccepted
	err := c.do(ctx, http.MethodPost, "/api/scan", api.ScanRequest{DirectoryPath: directory, ForceRescan: force}, &resp)
	return resp, err
}

// Control pauses, resumes, or cancels the running scan.
func (c *Client) Control(ctx context.Context, action string) (api.ScanStatus, error) {
	var resp api.ScanStatus
	err := c.do(ctx, http.MethodPost, "/api/scan/control", api.ScanControlRequest{Action: action}, &resp)
	return resp, err
}

// ScanStatus retrieves the current scan snapshot.
func (c *Client) ScanStatus(ctx context.Context) (api.ScanStatus, error) {
	var resp api.ScanStatus
	err := c.do(ctx, http.MethodGet, "/api/scan/status", nil, &resp)
	return resp, err
}

// Logs tails the most recent log events.
func (c *Client) Logs(ctx context.Context, limit int) (api.LogsResponse, error) {
	path := "/api/scan/logs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp api.LogsResponse
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp, err
}

// History lists every directory root ever scanned.
func (c *Client) History(ctx context.Context) (api.ScanHistoryResponse, error) {
	var resp api.ScanHistoryResponse
	err := c.do(ctx, http.MethodGet, "/api/scan/history", nil, &resp)
	return resp, err
}

// Entities lists every clustered identity.
func (c *Client) Entities(ctx context.Context) (api.EntitiesResponse, error) {
	var resp api.EntitiesResponse
	err := c.do(ctx, http.MethodGet, "/api/entities", nil, &resp)
	return resp, err
}

// RenameEntity relabels one entity by id.
func (c *Client) RenameEntity(ctx context.Context, id int64, newName string) error {
	return c.do(ctx, http.MethodPost, "/api/entities/name", api.RenameEntityRequest{EntityID: id, NewName: newName}, nil)
}

// DeleteEntities removes every entity carrying the name.
func (c *Client) DeleteEntities(ctx context.Context, name string) (api.DeleteEntitiesResponse, error) {
	var resp api.DeleteEntitiesResponse
	err := c.do(ctx, http.MethodDelete, "/api/entities/"+url.PathEscape(name), nil, &resp)
	return resp, err
}

// PhotoEntities lists the entities linked to one photo.
func (c *Client) PhotoEntities(ctx context.Context, photoID int64) (api.PhotoEntitiesResponse, error) {
	var resp api.PhotoEntitiesResponse
	err := c.do(ctx, http.MethodGet, "/api/photos/"+strconv.FormatInt(photoID, 10)+"/entities", nil, &resp)
	return resp, err
}

// Duplicates lists the duplicate quarantine.
func (c *Client) Duplicates(ctx context.Context) (api.DuplicatesResponse, error) {
	var resp api.DuplicatesResponse
	err := c.do(ctx, http.MethodGet, "/api/duplicates", nil, &resp)
	return resp, err
}

// Skipped lists the skip quarantine.
func (c *Client) Skipped(ctx context.Context) (api.SkippedResponse, error) {
	var resp api.SkippedResponse
	err := c.do(ctx, http.MethodGet, "/api/skipped", nil, &resp)
	return resp, err
}

// DaemonStatus retrieves daemon-level status.
func (c *Client) DaemonStatus(ctx context.Context) (api.DaemonStatus, error) {
	var resp api.DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
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

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		var wire struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(payload, &wire)
		return &StatusError{Code: resp.StatusCode, Message: wire.Error}
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
