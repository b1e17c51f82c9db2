package config

import (
	"testing"
	"time"

	"prepdash/internal/job"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.BackendURL != "http://localhost:5000" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.PollInterval)
	}
	if cfg.PollRetryBackoff != 2*time.Second {
		t.Errorf("PollRetryBackoff = %v, want 2s", cfg.PollRetryBackoff)
	}
	if cfg.PollMaxRetries != 3 {
		t.Errorf("PollMaxRetries = %d, want 3", cfg.PollMaxRetries)
	}
	if cfg.PollDeadline != 10*time.Minute {
		t.Errorf("PollDeadline = %v, want 10m", cfg.PollDeadline)
	}
	if cfg.FailureStatus != job.StatusError {
		t.Errorf("FailureStatus = %v, want error", cfg.FailureStatus)
	}
	if cfg.StateBackend != StateBackendFile {
		t.Errorf("StateBackend = %q, want file", cfg.StateBackend)
	}
	if !cfg.TrackingEnabled {
		t.Error("TrackingEnabled = false, want true by default")
	}
	if cfg.Logging == nil {
		t.Fatal("Logging config is nil")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://preprocess.example.com")
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("POLL_MAX_RETRIES", "5")
	t.Setenv("POLL_DEADLINE", "2m")
	t.Setenv("JOB_FAILURE_STATUS", "failed")
	t.Setenv("STATE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("STATE_TTL", "1h")
	t.Setenv("TRACKING_ENABLED", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.BackendURL != "https://preprocess.example.com" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.PollInterval != 500*time.Millisecond {
		t.Errorf("PollInterval = %v, want 500ms", cfg.PollInterval)
	}
	if cfg.PollMaxRetries != 5 {
		t.Errorf("PollMaxRetries = %d, want 5", cfg.PollMaxRetries)
	}
	if cfg.PollDeadline != 2*time.Minute {
		t.Errorf("PollDeadline = %v, want 2m", cfg.PollDeadline)
	}
	if cfg.FailureStatus != job.JobStatus("failed") {
		t.Errorf("FailureStatus = %v, want failed", cfg.FailureStatus)
	}
	if cfg.StateBackend != StateBackendRedis {
		t.Errorf("StateBackend = %q, want redis", cfg.StateBackend)
	}
	if cfg.RedisURL != "redis://cache:6379/1" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.StateTTL != time.Hour {
		t.Errorf("StateTTL = %v, want 1h", cfg.StateTTL)
	}
	if cfg.TrackingEnabled {
		t.Error("TrackingEnabled = true, want false")
	}
}

func TestLoadConfig_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "not-a-duration")
	t.Setenv("POLL_MAX_RETRIES", "not-a-number")
	t.Setenv("TRACKING_ENABLED", "not-a-bool")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want default 1s", cfg.PollInterval)
	}
	if cfg.PollMaxRetries != 3 {
		t.Errorf("PollMaxRetries = %d, want default 3", cfg.PollMaxRetries)
	}
	if !cfg.TrackingEnabled {
		t.Error("TrackingEnabled = false, want default true")
	}
}

func TestLoadConfig_RejectsBadBackendURL(t *testing.T) {
	t.Setenv("BACKEND_URL", "not a url")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for invalid BACKEND_URL, got nil")
	}
}

func TestLoadConfig_RejectsCompletedAsFailureStatus(t *testing.T) {
	t.Setenv("JOB_FAILURE_STATUS", "completed")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for JOB_FAILURE_STATUS=completed, got nil")
	}
}

func TestLoadConfig_RejectsUnknownStateBackend(t *testing.T) {
	t.Setenv("STATE_BACKEND", "dynamo")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for unknown STATE_BACKEND, got nil")
	}
}

func TestLoadConfig_RejectsNegativeRetries(t *testing.T) {
	t.Setenv("POLL_MAX_RETRIES", "-1")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for negative POLL_MAX_RETRIES, got nil")
	}
}

func TestLoadConfig_LoggingOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_FILE_ENABLED", "true")
	t.Setenv("LOG_FILE_PATH", "/tmp/prepdash-test.log")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if string(cfg.Logging.Level) != "debug" {
		t.Errorf("Logging.Level = %v, want debug", cfg.Logging.Level)
	}
	if string(cfg.Logging.Format) != "json" {
		t.Errorf("Logging.Format = %v, want json", cfg.Logging.Format)
	}
	if !cfg.Logging.File.Enabled {
		t.Error("Logging.File.Enabled = false, want true")
	}
	if cfg.Logging.File.Path != "/tmp/prepdash-test.log" {
		t.Errorf("Logging.File.Path = %q", cfg.Logging.File.Path)
	}
}
