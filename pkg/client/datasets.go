package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"prepdash/internal/job"
	"prepdash/internal/metrics"
)

// DatasetInfo is the backend's summary of a freshly uploaded dataset
type DatasetInfo struct {
	DatasetID     string            `json:"dataset_id"`
	Filename      string            `json:"filename"`
	Rows          int               `json:"rows"`
	Columns       int               `json:"columns"`
	ColumnNames   []string          `json:"columns_list"`
	Dtypes        map[string]string `json:"dtypes"`
	MissingValues map[string]int    `json:"missing_values"`
}

// MissingSummary aggregates missing-value counts for a dataset
type MissingSummary struct {
	TotalMissing       int            `json:"total_missing"`
	ColumnsWithMissing map[string]int `json:"columns_with_missing"`
}

// DatasetDetail is the backend's full per-column view of a dataset
type DatasetDetail struct {
	DatasetID      string                 `json:"dataset_id"`
	Shape          []int                  `json:"shape"`
	Columns        []string               `json:"columns"`
	ColumnInfo     map[string]interface{} `json:"column_info"`
	MissingSummary MissingSummary         `json:"missing_summary"`
}

// submitResponse is the body returned by job-submitting endpoints
type submitResponse struct {
	JobID     string `json:"job_id"`
	Message   string `json:"message"`
	StatusURL string `json:"status_url"`
}

// Upload sends a dataset file (CSV or Excel) to the backend and returns
// its summary. The backend assigns the dataset id.
func (c *Client) Upload(ctx context.Context, path string) (*DatasetInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("reading dataset file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var info DatasetInfo
	if err := c.doJSON(req, &info); err != nil {
		return nil, err
	}

	c.log.Info("dataset uploaded",
		"dataset_id", info.DatasetID,
		"rows", info.Rows,
		"columns", info.Columns)

	return &info, nil
}

// DatasetInfo fetches the per-column detail view of an uploaded dataset
func (c *Client) DatasetInfo(ctx context.Context, datasetID string) (*DatasetDetail, error) {
	if datasetID == "" {
		return nil, fmt.Errorf("dataset id cannot be empty")
	}

	var detail DatasetDetail
	if err := c.getJSON(ctx, "/dataset/"+url.PathEscape(datasetID)+"/info", false, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Preprocess submits a preprocessing job for a dataset and returns the
// backend-assigned job id. An empty steps slice requests the backend's
// automatic preprocessing heuristic.
func (c *Client) Preprocess(ctx context.Context, datasetID string, steps []job.PreprocessingStep) (string, error) {
	if datasetID == "" {
		return "", fmt.Errorf("dataset id cannot be empty")
	}
	if err := job.ValidateSteps(steps); err != nil {
		return "", fmt.Errorf("invalid preprocessing steps: %w", err)
	}
	if steps == nil {
		steps = []job.PreprocessingStep{}
	}

	body := map[string]interface{}{"steps": steps}

	var resp submitResponse
	if err := c.postJSON(ctx, "/dataset/"+url.PathEscape(datasetID)+"/preprocess", body, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("%w: preprocess response carried no job id", ErrBadStatus)
	}

	c.log.Info("preprocessing submitted", "dataset_id", datasetID, "job_id", resp.JobID, "steps", len(steps))
	return resp.JobID, nil
}

// Compare submits a model comparison job between the original dataset and
// its processed file, and returns the backend-assigned job id.
func (c *Client) Compare(ctx context.Context, datasetID, processedFile, targetColumn string) (string, error) {
	if datasetID == "" {
		return "", fmt.Errorf("dataset id cannot be empty")
	}
	if processedFile == "" {
		return "", fmt.Errorf("processed file cannot be empty")
	}

	body := map[string]string{
		"processed_file": processedFile,
		"target_column":  targetColumn,
	}

	var resp submitResponse
	if err := c.postJSON(ctx, "/dataset/"+url.PathEscape(datasetID)+"/compare", body, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("%w: compare response carried no job id", ErrBadStatus)
	}

	c.log.Info("comparison submitted", "dataset_id", datasetID, "job_id", resp.JobID, "target_column", targetColumn)
	return resp.JobID, nil
}

// JobStatus fetches the current status of a job. Non-2xx responses and
// malformed bodies surface as transport errors; interpreting the status
// is the poller's concern.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*job.StatusResponse, error) {
	if jobID == "" {
		return nil, fmt.Errorf("job id cannot be empty")
	}

	var resp job.StatusResponse
	if err := c.getJSON(ctx, "/job/"+url.PathEscape(jobID)+"/status", false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Download streams a processed file from the backend into destPath
func (c *Client) Download(ctx context.Context, filename, destPath string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/download/"+url.PathEscape(filename), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

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

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("writing %s: %w", destPath, err)
	}

	c.log.Info("file downloaded", "filename", filename, "dest", destPath)
	return nil
}
