// Package transform provides the HTTP client for the external image filter
// service (the accelerator applying named filters to image bytes).
//
// Only Transform is on the creation pipeline's correctness path; Filters and
// Health are discovery/monitoring side channels. The client deliberately
// does not retry: a failed transform must fail the enclosing creation.
package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client calls the image transform service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption is a functional option for configuring a Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a transform client for the service at baseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Transform applies the named filter to the image bytes by POSTing a
// multipart request to /process and returns the processed bytes.
func (c *Client) Transform(ctx context.Context, image []byte, filterName string) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to build transform request: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to build transform request: %w", err)
	}
	if err := writer.WriteField("filter", filterName); err != nil {
		return nil, fmt.Errorf("failed to build transform request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build transform request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/process", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create transform request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transform request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("transform service returned status %d: %s",
			resp.StatusCode, readErrorBody(resp.Body))
	}

	processed, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transformed image: %w", err)
	}

	return processed, nil
}

// Filters returns the filter names the service advertises.
func (c *Client) Filters(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/filters", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create filters request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("filters request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transform service returned status %d: %s",
			resp.StatusCode, readErrorBody(resp.Body))
	}

	var payload struct {
		Filters []string `json:"filters"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode filters response: %w", err)
	}

	return payload.Filters, nil
}

// HealthStatus is the transform service's health report
type HealthStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Health reports the transform service's health. An unreachable service is
// reported as unhealthy rather than as an error, so monitoring endpoints can
// surface it directly.
func (c *Client) Health(ctx context.Context) HealthStatus {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return HealthStatus{Status: "unhealthy", Error: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{Status: "unhealthy", Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return HealthStatus{
			Status: "unhealthy",
			Error:  fmt.Sprintf("status %d", resp.StatusCode),
		}
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return HealthStatus{Status: "unhealthy", Error: err.Error()}
	}
	if status.Status == "" {
		status.Status = "healthy"
	}

	return status
}

func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil || len(data) == 0 {
		return "<no body>"
	}
	return strings.TrimSpace(string(data))
}
