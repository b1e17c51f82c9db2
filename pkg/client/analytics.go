package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"prepdash/internal/metrics"
)

// DashboardReport is the body of GET /api/analytics/dashboard.
// Stats and UserFlow shapes are computed server-side and left opaque.
type DashboardReport struct {
	Success     bool                       `json:"success"`
	Stats       map[string]json.RawMessage `json:"stats"`
	UserFlow    json.RawMessage            `json:"user_flow"`
	GeneratedAt string                     `json:"generated_at"`
}

// RealtimeWindow holds activity counters for the trailing window
type RealtimeWindow struct {
	PageViews      int `json:"page_views"`
	ActiveSessions int `json:"active_sessions"`
}

// RealtimeSnapshot is the body of GET /api/analytics/realtime
type RealtimeSnapshot struct {
	LastFiveMinutes RealtimeWindow `json:"last_5_minutes"`
	CurrentTime     string         `json:"current_time"`
}

// AnalyticsDashboard fetches the aggregated analytics dashboard.
// Requires an admin token.
func (c *Client) AnalyticsDashboard(ctx context.Context) (*DashboardReport, error) {
	var report DashboardReport
	if err := c.getJSON(ctx, "/api/analytics/dashboard", true, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// AnalyticsRealtime fetches activity counters for the last five minutes
func (c *Client) AnalyticsRealtime(ctx context.Context) (*RealtimeSnapshot, error) {
	var snap RealtimeSnapshot
	if err := c.getJSON(ctx, "/api/analytics/realtime", false, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// AnalyticsExport streams the analytics CSV export into w.
// Requires an admin token.
func (c *Client) AnalyticsExport(ctx context.Context, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/analytics/export", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("X-Admin-Token", c.adminToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.Default().RecordRequest(true)
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.Default().RecordRequest(true)
		return statusError(resp)
	}
	metrics.Default().RecordRequest(false)

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}

// AnalyticsCleanup asks the backend to drop analytics data older than the
// given number of days. Requires an admin token.
func (c *Client) AnalyticsCleanup(ctx context.Context, days int) error {
	if days <= 0 {
		return fmt.Errorf("days must be positive")
	}

	payload, err := json.Marshal(map[string]int{"days": days})
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analytics/cleanup", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Token", c.adminToken)

	return c.doJSON(req, nil)
}

// Track reports a usage event to the backend. Used by the tracker
// package; failures are the caller's to swallow or surface.
func (c *Client) Track(ctx context.Context, sessionID, page, action string) error {
	body := map[string]string{
		"session_id": sessionID,
		"page":       page,
		"action":     action,
	}
	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.postJSON(ctx, "/api/track", body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: track event rejected", ErrBadStatus)
	}
	return nil
}
