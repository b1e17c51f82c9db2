// Package main provides the prepdash CLI: upload a dataset, run
// preprocessing on the backend, poll the job to completion, compare models
// on the cleaned data, and download the result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"prepdash/internal/config"
	"prepdash/internal/job"
	"prepdash/internal/logger"
	"prepdash/internal/metrics"
	"prepdash/internal/poller"
	"prepdash/internal/state"
	"prepdash/internal/track"
	"prepdash/pkg/client"
)

type app struct {
	cfg    *config.Config
	client *client.Client
	poller *poller.Poller
	store  state.Store
	st     *state.AppState
	log    logger.Logger
	outDir string
}

func main() {
	var (
		filePath  = flag.String("file", "", "dataset file to upload (.csv, .xls, .xlsx)")
		stepsPath = flag.String("steps", "", "JSON file with preprocessing steps (empty = automatic)")
		target    = flag.String("target", "", "target column for model comparison (empty = skip comparison)")
		outDir    = flag.String("out", ".", "directory for downloaded files")
		sessionID = flag.String("session", "", "resume an existing session by id")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := log.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close logger: %v\n", err)
		}
	}()
	logger.SetDefault(log)

	cliLog := log.WithComponent(logger.ComponentCLI).WithSource(logger.LogSourceInternal)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, cliLog, *filePath, *stepsPath, *target, *outDir, *sessionID); err != nil {
		if errors.Is(err, context.Canceled) {
			cliLog.Warn("interrupted")
			os.Exit(130)
		}
		cliLog.Error("prepdash failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger, filePath, stepsPath, target, outDir, sessionID string) error {
	c, err := client.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	st, err := loadOrCreateState(ctx, store, sessionID)
	if err != nil {
		return err
	}

	a := &app{
		cfg:    cfg,
		client: c,
		store:  store,
		st:     st,
		log:    log,
		outDir: outDir,
		poller: poller.New(c, poller.Config{
			Interval:      cfg.PollInterval,
			RetryBackoff:  cfg.PollRetryBackoff,
			MaxRetries:    cfg.PollMaxRetries,
			Deadline:      cfg.PollDeadline,
			FailureStatus: cfg.FailureStatus,
		}),
	}

	tr := track.New(c, st.SessionID, cfg.TrackingEnabled)

	log.Info("session ready",
		"session_id", st.SessionID,
		"backend", cfg.BackendURL,
		"state_backend", cfg.StateBackend)

	if err := c.Health(ctx); err != nil {
		log.Warn("backend health check failed", "error", err)
	}

	// Instrumented operations, composed once up front
	uploadOp := tr.Instrument("home", "upload", func(ctx context.Context) error {
		return a.upload(ctx, filePath)
	})
	preprocessOp := tr.Instrument("preprocessing", "start", func(ctx context.Context) error {
		return a.preprocess(ctx, stepsPath)
	})
	compareOp := tr.Instrument("model_comparison", "start", func(ctx context.Context) error {
		return a.compare(ctx, target)
	})
	downloadOp := tr.Instrument("download", "start", a.download)

	// A job left over from an interrupted run is finished first
	if st.ActiveJob != nil {
		if err := a.resume(ctx); err != nil {
			return err
		}
	}

	if filePath != "" {
		if err := uploadOp(ctx); err != nil {
			return err
		}
	}
	if a.st.DatasetID == "" {
		return fmt.Errorf("no dataset in session %s; pass -file to upload one", st.SessionID)
	}

	if a.st.ProcessedFile == "" {
		if err := preprocessOp(ctx); err != nil {
			return err
		}
	}

	if target != "" {
		if err := compareOp(ctx); err != nil {
			return err
		}
	}

	if err := downloadOp(ctx); err != nil {
		return err
	}

	snap := metrics.Default().Snapshot()
	log.Info("done",
		"requests", snap.Requests,
		"poll_cycles", snap.PollCycles,
		"transport_retries", snap.TransportRetries,
		"avg_poll_duration", snap.AvgPollDuration)
	return nil
}

// upload sends the dataset and records it in the session state
func (a *app) upload(ctx context.Context, filePath string) error {
	info, err := a.client.Upload(ctx, filePath)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	a.st.SetDataset(info.DatasetID, info.Filename, info.ColumnNames)
	if err := a.store.Save(ctx, a.st); err != nil {
		return err
	}

	a.log.Info("dataset ready",
		"dataset_id", info.DatasetID,
		"rows", info.Rows,
		"columns", info.Columns)
	return nil
}

// preprocess submits the cleaning job and polls it to completion
func (a *app) preprocess(ctx context.Context, stepsPath string) error {
	steps, err := readSteps(stepsPath)
	if err != nil {
		return err
	}
	a.st.Steps = steps

	jobID, err := a.client.Preprocess(ctx, a.st.DatasetID, steps)
	if err != nil {
		return fmt.Errorf("preprocess: %w", err)
	}

	a.st.SetActiveJob(jobID, job.KindPreprocessing)
	if err := a.store.Save(ctx, a.st); err != nil {
		return err
	}

	return a.awaitActive(ctx)
}

// compare submits the model comparison job and polls it to completion
func (a *app) compare(ctx context.Context, target string) error {
	if a.st.ProcessedFile == "" {
		return fmt.Errorf("no processed file yet; run preprocessing first")
	}
	a.st.TargetColumn = target

	jobID, err := a.client.Compare(ctx, a.st.DatasetID, a.st.ProcessedFile, target)
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}

	a.st.SetActiveJob(jobID, job.KindComparison)
	if err := a.store.Save(ctx, a.st); err != nil {
		return err
	}

	return a.awaitActive(ctx)
}

// resume finishes polling a job recorded by an interrupted run
func (a *app) resume(ctx context.Context) error {
	a.log.Info("resuming job from previous run",
		"job_id", a.st.ActiveJob.ID,
		"kind", a.st.ActiveJob.Kind,
		"started_at", a.st.ActiveJob.StartedAt)
	return a.awaitActive(ctx)
}

// awaitActive polls the session's active job, applies its outcome to the
// state, and clears the active-job record
func (a *app) awaitActive(ctx context.Context) error {
	active := a.st.ActiveJob
	jobLog := a.log.WithFields(map[string]interface{}{"job_id": active.ID, "kind": active.Kind})

	result, err := a.poller.Wait(ctx, active.ID, func(percent int, status string) {
		jobLog.Info("job progress", "progress", percent, "status", status)
	})
	if err != nil {
		var failure *job.ResultError
		if errors.As(err, &failure) {
			// Terminal backend verdict: the job is gone, don't resume it
			a.st.ClearActiveJob()
			if saveErr := a.store.Save(ctx, a.st); saveErr != nil {
				jobLog.Warn("failed to save state", "error", saveErr)
			}
			metrics.Default().RecordJobFailed(active.Kind)
			return fmt.Errorf("%s job failed: %s", active.Kind, failure.Message)
		}
		return err
	}

	metrics.Default().RecordJobCompleted(active.Kind, result.Duration)

	switch active.Kind {
	case job.KindPreprocessing:
		var outcome job.PreprocessOutcome
		if err := result.UnmarshalResult(&outcome); err != nil {
			return fmt.Errorf("decoding preprocessing result: %w", err)
		}
		a.st.ProcessedFile = outcome.ProcessedFile
		jobLog.Info("preprocessing finished", "processed_file", outcome.ProcessedFile)

	case job.KindComparison:
		var outcome job.ComparisonOutcome
		if err := result.UnmarshalResult(&outcome); err != nil {
			return fmt.Errorf("decoding comparison result: %w", err)
		}
		jobLog.Info("comparison finished",
			"problem_type", outcome.ProblemType,
			"target_column", outcome.TargetColumn)
		for _, score := range outcome.Comparison {
			jobLog.Info("model score",
				"model", score.Model,
				"metric", score.Metric,
				"original", score.Original,
				"processed", score.Processed,
				"improvement", score.Improvement)
		}
	}

	a.st.ClearActiveJob()
	return a.store.Save(ctx, a.st)
}

// download fetches the processed dataset into the output directory
func (a *app) download(ctx context.Context) error {
	if a.st.ProcessedFile == "" {
		return fmt.Errorf("nothing to download")
	}
	dest := filepath.Join(a.outDir, a.st.ProcessedFile)
	return a.client.Download(ctx, a.st.ProcessedFile, dest)
}

// readSteps loads preprocessing steps from a JSON file; an empty path
// means automatic preprocessing
func readSteps(path string) ([]job.PreprocessingStep, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading steps file: %w", err)
	}
	var steps []job.PreprocessingStep
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("decoding steps file: %w", err)
	}
	if err := job.ValidateSteps(steps); err != nil {
		return nil, err
	}
	return steps, nil
}

// openStore opens the configured state store
func openStore(cfg *config.Config) (state.Store, error) {
	switch cfg.StateBackend {
	case config.StateBackendRedis:
		return state.NewRedisStore(cfg.RedisURL, cfg.StateTTL)
	default:
		return state.NewFileStore(cfg.StatePath)
	}
}

// loadOrCreateState resumes the named session or starts a fresh one
func loadOrCreateState(ctx context.Context, store state.Store, sessionID string) (*state.AppState, error) {
	if sessionID == "" {
		return state.New(), nil
	}
	st, err := store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("no saved state for session %s", sessionID)
	}
	return st, nil
}
