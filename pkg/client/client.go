// Package client provides the HTTP client for the data-preprocessing
// backend: dataset upload, preprocessing and comparison submission, job
// status fetches, downloads, and the admin analytics endpoints.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"prepdash/internal/logger"
	"prepdash/internal/metrics"
)

// Sentinel errors for backend failures
var (
	ErrBackendUnreachable = errors.New("backend unreachable")
	ErrRequestTimeout     = errors.New("backend request timeout")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBadStatus          = errors.New("unexpected backend status")
)

// Client talks to the preprocessing backend over HTTP
type Client struct {
	baseURL    string
	adminToken string
	httpClient *http.Client
	log        logger.Logger
}

// NewClient creates a backend client for the given base URL
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL: %q", baseURL)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.Default().WithComponent(logger.ComponentClient).WithSource(logger.LogSourceBackend),
	}, nil
}

// SetAdminToken sets the token sent as X-Admin-Token on analytics calls
func (c *Client) SetAdminToken(token string) {
	c.adminToken = token
}

// Health checks the backend health endpoint
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.getJSON(ctx, "/health", false, &resp); err != nil {
		return err
	}
	if resp.Status != "healthy" {
		return fmt.Errorf("%w: backend reports %q", ErrBadStatus, resp.Status)
	}
	return nil
}

// errorBody is the backend's error envelope
type errorBody struct {
	Error string `json:"error"`
}

// getJSON issues a GET and decodes the JSON response into out
func (c *Client) getJSON(ctx context.Context, path string, admin bool, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if admin {
		req.Header.Set("X-Admin-Token", c.adminToken)
	}
	return c.doJSON(req, out)
}

// postJSON issues a POST with a JSON body and decodes the response into out
func (c *Client) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, out)
}

// doJSON executes a request, maps error statuses, and decodes the body
func (c *Client) doJSON(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.Default().RecordRequest(true)
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.Default().RecordRequest(true)
		return statusError(resp)
	}
	metrics.Default().RecordRequest(false)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding backend response: %w", err)
	}
	return nil
}

// statusError turns a non-2xx response into a typed error, preserving the
// backend's error message when one is present
func statusError(resp *http.Response) error {
	var body errorBody
	msg := ""
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil {
		msg = body.Error
	}

	var base error
	switch resp.StatusCode {
	case http.StatusNotFound:
		base = ErrNotFound
	case http.StatusUnauthorized:
		base = ErrUnauthorized
	default:
		base = ErrBadStatus
	}

	if msg != "" {
		return fmt.Errorf("%w: %s (status %d)", base, msg, resp.StatusCode)
	}
	return fmt.Errorf("%w: status %d", base, resp.StatusCode)
}

// classifyError maps transport errors to sentinel errors
func classifyError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrRequestTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrBackendUnreachable, err)
}
