package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"bad level", func(c *Config) { c.Level = "verbose" }, true},
		{"bad format", func(c *Config) { c.Format = "xml" }, true},
		{"console buffer must be positive", func(c *Config) { c.Console.BufferSize = 0 }, true},
		{"console flush interval must be positive", func(c *Config) { c.Console.FlushInterval = 0 }, true},
		{"file tier needs a path", func(c *Config) {
			c.File.Enabled = true
			c.File.Path = ""
		}, true},
		{"disabled console skips console checks", func(c *Config) {
			c.Console.Enabled = false
			c.Console.BufferSize = 0
		}, false},
		{"disabled file tier skips file checks", func(c *Config) {
			c.File.Enabled = false
			c.File.Path = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"

	if _, err := NewLogger(cfg); err == nil {
		t.Error("expected error for invalid config, got nil")
	}
}

// fileOnlyConfig returns a config with a fast file tier writing to dir
// and the console tier off, so tests can read the output back.
func fileOnlyConfig(dir string) *Config {
	cfg := DefaultConfig()
	cfg.Level = LevelDebug
	cfg.Console.Enabled = false
	cfg.File.Enabled = true
	cfg.File.Path = filepath.Join(dir, "test.log")
	cfg.File.Compress = false
	cfg.File.BatchSize = 1
	cfg.File.BatchInterval = 10 * time.Millisecond
	return cfg
}

func readEntries(t *testing.T, path string) []LogEntry {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening log file: %v", err)
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e LogEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("bad JSON line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestFileTier_WritesJSONLines(t *testing.T) {
	cfg := fileOnlyConfig(t.TempDir())
	log, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	log.Info("upload accepted", "dataset_id", "ds-1")
	log.Warn("retrying status fetch", "job_id", "j-42")

	if err := log.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries := readEntries(t, cfg.File.Path)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Level != LevelInfo || entries[0].Message != "upload accepted" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].JobID != "j-42" {
		t.Errorf("JobID = %q, want j-42 promoted from fields", entries[1].JobID)
	}
}

func TestLevelFiltering(t *testing.T) {
	cfg := fileOnlyConfig(t.TempDir())
	cfg.Level = LevelWarn

	log, err := NewLogger(cfg)
	if err != nil {
		t.Fatal(err)
	}

	log.Debug("dropped")
	log.Info("dropped")
	log.Warn("kept")
	log.Error("kept")

	if err := log.Close(); err != nil {
		t.Fatal(err)
	}

	entries := readEntries(t, cfg.File.Path)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (warn and error only)", len(entries))
	}
	for _, e := range entries {
		if e.Message != "kept" {
			t.Errorf("unexpected entry %+v", e)
		}
	}
}

func TestWithComponentAndSource(t *testing.T) {
	cfg := fileOnlyConfig(t.TempDir())
	log, err := NewLogger(cfg)
	if err != nil {
		t.Fatal(err)
	}

	log.WithComponent(ComponentPoller).
		WithSource(LogSourceBackend).
		Info("status fetched", "job_id", "j-1")

	if err := log.Close(); err != nil {
		t.Fatal(err)
	}

	entries := readEntries(t, cfg.File.Path)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Component != ComponentPoller {
		t.Errorf("Component = %q, want poller", entries[0].Component)
	}
	if entries[0].Source != LogSourceBackend {
		t.Errorf("Source = %q, want prepdash_backend", entries[0].Source)
	}
}

func TestWithFields_DoesNotMutateParent(t *testing.T) {
	cfg := fileOnlyConfig(t.TempDir())
	log, err := NewLogger(cfg)
	if err != nil {
		t.Fatal(err)
	}

	child := log.WithFields(map[string]interface{}{"session_id": "sess-1"})
	child.Info("from child")
	log.Info("from parent")

	if err := log.Close(); err != nil {
		t.Fatal(err)
	}

	entries := readEntries(t, cfg.File.Path)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		switch e.Message {
		case "from child":
			if e.SessionID != "sess-1" {
				t.Errorf("child entry missing session: %+v", e)
			}
		case "from parent":
			if e.SessionID != "" {
				t.Errorf("parent entry picked up child field: %+v", e)
			}
		}
	}
}

func TestErrorFieldPromotion(t *testing.T) {
	cfg := fileOnlyConfig(t.TempDir())
	log, err := NewLogger(cfg)
	if err != nil {
		t.Fatal(err)
	}

	log.Error("preprocess failed", "error", os.ErrNotExist)

	if err := log.Close(); err != nil {
		t.Fatal(err)
	}

	entries := readEntries(t, cfg.File.Path)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Error == "" {
		t.Error("error field not promoted to the entry's Error")
	}
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	noop := &NoOpLogger{}
	SetDefault(noop)
	if Default() != Logger(noop) {
		t.Error("Default() did not return the logger passed to SetDefault")
	}
}
