// Package state holds the client-local session state: which dataset is
// loaded, which cleaning steps are configured, and which job is in flight.
// State is an explicit struct with an explicit save/load boundary, so a
// restarted client can resume polling an outstanding job.
package state

import (
	"context"
	"time"

	"github.com/google/uuid"

	"prepdash/internal/job"
)

// ActiveJob records an outstanding backend job so polling can resume
// after a restart
type ActiveJob struct {
	ID        string      `json:"id"`
	Kind      job.JobKind `json:"kind"`
	StartedAt time.Time   `json:"started_at"`
}

// AppState is the full client-side session state
type AppState struct {
	// SessionID identifies this client session to the backend's analytics
	SessionID string `json:"session_id"`
	// DatasetID is the backend id of the uploaded dataset
	DatasetID string `json:"dataset_id,omitempty"`
	// Filename is the original name of the uploaded file
	Filename string `json:"filename,omitempty"`
	// Columns are the dataset's column names
	Columns []string `json:"columns,omitempty"`
	// TargetColumn is the column chosen for model comparison
	TargetColumn string `json:"target_column,omitempty"`
	// Steps are the configured cleaning steps
	Steps []job.PreprocessingStep `json:"steps,omitempty"`
	// ProcessedFile is the server-side name of the preprocessed dataset
	ProcessedFile string `json:"processed_file,omitempty"`
	// ActiveJob is the job currently being polled, if any
	ActiveJob *ActiveJob `json:"active_job,omitempty"`
	// UpdatedAt is when the state was last modified
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a fresh session state with a generated session id
func New() *AppState {
	return &AppState{
		SessionID: uuid.New().String(),
		UpdatedAt: time.Now(),
	}
}

// SetDataset records an uploaded dataset and clears per-dataset fields
func (s *AppState) SetDataset(datasetID, filename string, columns []string) {
	s.DatasetID = datasetID
	s.Filename = filename
	s.Columns = columns
	s.TargetColumn = ""
	s.Steps = nil
	s.ProcessedFile = ""
	s.ActiveJob = nil
	s.UpdatedAt = time.Now()
}

// SetActiveJob records the job being polled
func (s *AppState) SetActiveJob(id string, kind job.JobKind) {
	s.ActiveJob = &ActiveJob{
		ID:        id,
		Kind:      kind,
		StartedAt: time.Now(),
	}
	s.UpdatedAt = time.Now()
}

// ClearActiveJob drops the active job record once its outcome is consumed
func (s *AppState) ClearActiveJob() {
	s.ActiveJob = nil
	s.UpdatedAt = time.Now()
}

// Store persists session state. Load returns (nil, nil) when no state
// exists for the session.
type Store interface {
	Save(ctx context.Context, st *AppState) error
	Load(ctx context.Context, sessionID string) (*AppState, error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}
