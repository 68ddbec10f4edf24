package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"appforge/internal/api"
)

// client is a thin HTTP wrapper over the appforged API.
type client struct {
	baseURL string
}

func (c *client) httpClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Minute}
}

func (c *client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out any) error {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var envelope api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
		return fmt.Errorf("server returned %s (%s)", envelope.Error, resp.Status)
	}
	return fmt.Errorf("server returned %s", resp.Status)
}

// Health pings the daemon.
func (c *client) Health(ctx context.Context) (api.HealthResponse, error) {
	var out api.HealthResponse
	err := c.get(ctx, "/api/health", &out)
	return out, err
}

// Upload sends an archive and returns the registered file id.
func (c *client) Upload(ctx context.Context, path string) (api.UploadResponse, error) {
	var out api.UploadResponse

	f, err := os.Open(path)
	if err != nil {
		return out, err
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return out, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return out, err
	}
	if err := writer.Close(); err != nil {
		return out, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	err = c.do(req, &out)
	return out, err
}

// Convert creates a conversion job for an uploaded file.
func (c *client) Convert(ctx context.Context, fileID, target string) (api.ConvertResponse, error) {
	var out api.ConvertResponse
	err := c.postJSON(ctx, "/api/convert", api.ConvertRequest{FileID: fileID, Target: target}, &out)
	return out, err
}

// JobStatus fetches one job snapshot.
func (c *client) JobStatus(ctx context.Context, jobID string) (api.JobStatus, error) {
	var out api.JobStatus
	err := c.get(ctx, "/api/status/"+url.PathEscape(jobID), &out)
	return out, err
}

// Jobs lists job snapshots, optionally filtered by status.
func (c *client) Jobs(ctx context.Context, statuses []string) (api.JobListResponse, error) {
	var out api.JobListResponse
	path := "/api/jobs"
	if len(statuses) > 0 {
		values := url.Values{}
		for _, status := range statuses {
			values.Add("status", status)
		}
		path += "?" + values.Encode()
	}
	err := c.get(ctx, path, &out)
	return out, err
}

// Download streams a finished artifact to the given path.
func (c *client) Download(ctx context.Context, jobID, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/download/"+url.PathEscape(jobID), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
