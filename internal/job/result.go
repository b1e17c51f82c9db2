package job

import (
	"encoding/json"
	"time"
)

// JobResult represents the terminal outcome of a job
type JobResult struct {
	// JobID is the unique identifier of the job
	JobID string `json:"job_id"`

	// Status is the terminal status (completed, or the failure label)
	Status JobStatus `json:"status"`

	// Result contains the job's payload (only for successful jobs).
	// Its shape depends on the job kind; see PreprocessOutcome and
	// ComparisonOutcome.
	Result json.RawMessage `json:"result,omitempty"`

	// Error contains the backend-supplied message if the job failed
	Error string `json:"error,omitempty"`

	// CompletedAt is when the terminal status was observed
	CompletedAt time.Time `json:"completed_at"`

	// Duration is how long the job was polled before settling
	Duration time.Duration `json:"duration"`
}

// IsSuccess returns true if the job completed successfully
func (r *JobResult) IsSuccess() bool {
	return r.Status == StatusCompleted
}

// IsFailed returns true if the job failed
func (r *JobResult) IsFailed() bool {
	return !r.IsSuccess()
}

// UnmarshalResult unmarshals the result payload into the provided destination.
// Returns an error if the job failed or if unmarshaling fails.
func (r *JobResult) UnmarshalResult(dest interface{}) error {
	if r.IsFailed() {
		return &ResultError{Message: r.Error}
	}
	if len(r.Result) == 0 {
		return nil // No result data
	}
	return json.Unmarshal(r.Result, dest)
}

// ResultError represents a backend-reported job failure
type ResultError struct {
	Message string
}

func (e *ResultError) Error() string {
	return e.Message
}

// PreprocessOutcome is the result payload of a preprocessing job
type PreprocessOutcome struct {
	// ProcessedFile is the server-side name of the cleaned dataset
	ProcessedFile string `json:"processed_file"`
	// Report summarizes what preprocessing did (backend-defined shape)
	Report map[string]interface{} `json:"report"`
	// DownloadURL is the relative path for fetching the processed file
	DownloadURL string `json:"download_url"`
}

// ComparisonOutcome is the result payload of a model comparison job
type ComparisonOutcome struct {
	Comparison   []ModelScore `json:"comparison"`
	ProblemType  string       `json:"problem_type"`
	TargetColumn string       `json:"target_column"`
}

// ModelScore holds one model's score before and after preprocessing.
// Scores are numbers in the happy path but the backend reports the string
// "Error" when a model could not be evaluated, so these stay loosely typed.
type ModelScore struct {
	Model       string      `json:"model"`
	Original    interface{} `json:"original"`
	Processed   interface{} `json:"processed"`
	Improvement interface{} `json:"improvement"`
	Metric      string      `json:"metric"`
}
