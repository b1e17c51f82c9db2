package job

import (
	"encoding/json"
	"time"
)

// JobStatus represents the backend-reported status of a job
type JobStatus string

const (
	// StatusPending indicates the job was submitted but no status response
	// has been observed yet
	StatusPending JobStatus = "pending"
	// StatusProcessing indicates the backend is currently working on the job
	StatusProcessing JobStatus = "processing"
	// StatusCompleted indicates the job finished successfully
	StatusCompleted JobStatus = "completed"
	// StatusError indicates the job failed and carries an error message.
	// This is the label the preprocessing backend emits; deployments that
	// report "failed" instead can override it via the poller configuration.
	StatusError JobStatus = "error"
)

// IsTerminal reports whether a status is terminal given the failure label
// in effect. Terminal statuses never transition again.
func (s JobStatus) IsTerminal(failure JobStatus) bool {
	return s == StatusCompleted || s == failure
}

// JobKind identifies what kind of backend operation a job represents.
// The kind affects what the result payload means, not the polling mechanics.
type JobKind string

const (
	// KindPreprocessing is a dataset preprocessing job
	KindPreprocessing JobKind = "preprocessing"
	// KindComparison is a model comparison job
	KindComparison JobKind = "comparison"
)

// Job represents one outstanding asynchronous backend operation
type Job struct {
	// ID is the opaque identifier assigned by the backend at submission
	ID string `json:"id"`
	// Kind identifies the backend operation
	Kind JobKind `json:"kind"`
	// Status is the last observed status
	Status JobStatus `json:"status"`
	// Progress is the last reported completion percentage [0, 100].
	// Backend-reported values are trusted verbatim.
	Progress int `json:"progress"`
	// CreatedAt is when the submission call returned the id
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the last status response was applied
	UpdatedAt time.Time `json:"updated_at"`
	// Error holds the backend-supplied message once the job has failed
	Error string `json:"error,omitempty"`
}

// NewJob creates a job record for a freshly submitted backend operation.
// The initial status is pending until the first poll response is observed.
func NewJob(id string, kind JobKind) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		Kind:      kind,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply updates the job record from a status response
func (j *Job) Apply(resp *StatusResponse) {
	j.Status = resp.Status
	j.Progress = resp.Progress
	j.Error = resp.Error
	j.UpdatedAt = time.Now()
}

// StatusResponse is the body of GET /job/{id}/status
type StatusResponse struct {
	JobID    string          `json:"job_id"`
	Status   JobStatus       `json:"status"`
	Progress int             `json:"progress"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}
