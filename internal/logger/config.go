package logger

import (
	"fmt"
	"time"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat represents the output format for logs
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// LogSource distinguishes internal prepdash logs from backend round-trip logs
type LogSource string

const (
	LogSourceInternal LogSource = "prepdash_internal" // Internal system logs
	LogSourceBackend  LogSource = "prepdash_backend"  // Backend request/response logs
)

// Component identifies which part of the system generated the log
type Component string

const (
	ComponentClient    Component = "client"
	ComponentPoller    Component = "poller"
	ComponentState     Component = "state"
	ComponentTracker   Component = "tracker"
	ComponentAnalytics Component = "analytics"
	ComponentCLI       Component = "cli"
	ComponentLogger    Component = "logger"
)

// Config holds the complete logging configuration for both tiers
type Config struct {
	// Global settings
	Level  LogLevel  `json:"level"`
	Format LogFormat `json:"format"`

	// Tier 1: Console
	Console ConsoleConfig `json:"console"`

	// Tier 2: File (optional)
	File FileConfig `json:"file"`
}

// ConsoleConfig configures the console tier
type ConsoleConfig struct {
	Enabled       bool          `json:"enabled"`
	Color         bool          `json:"color"`
	BufferSize    int           `json:"buffer_size"`
	FlushInterval time.Duration `json:"flush_interval"`
}

// FileConfig configures the rotating file tier
type FileConfig struct {
	Enabled       bool          `json:"enabled"`
	Path          string        `json:"path"`
	MaxSizeMB     int           `json:"max_size_mb"`
	MaxBackups    int           `json:"max_backups"`
	MaxAgeDays    int           `json:"max_age_days"`
	Compress      bool          `json:"compress"`
	BufferSize    int           `json:"buffer_size"`
	BatchSize     int           `json:"batch_size"`
	BatchInterval time.Duration `json:"batch_interval"`
}

// DefaultConfig returns a configuration with sensible defaults:
// colored console logging at info level, file tier disabled.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: FormatText,
		Console: ConsoleConfig{
			Enabled:       true,
			Color:         true,
			BufferSize:    65536,
			FlushInterval: 100 * time.Millisecond,
		},
		File: FileConfig{
			Enabled:       false,
			Path:          "prepdash.log",
			MaxSizeMB:     50,
			MaxBackups:    3,
			MaxAgeDays:    14,
			Compress:      true,
			BufferSize:    10000,
			BatchSize:     100,
			BatchInterval: 100 * time.Millisecond,
		},
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	switch c.Level {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		return fmt.Errorf("invalid log level: %s", c.Level)
	}

	switch c.Format {
	case FormatJSON, FormatText:
	default:
		return fmt.Errorf("invalid log format: %s", c.Format)
	}

	if c.Console.Enabled {
		if c.Console.BufferSize <= 0 {
			return fmt.Errorf("console buffer size must be positive")
		}
		if c.Console.FlushInterval <= 0 {
			return fmt.Errorf("console flush interval must be positive")
		}
	}

	if c.File.Enabled {
		if c.File.Path == "" {
			return fmt.Errorf("file path cannot be empty when file logging is enabled")
		}
		if c.File.MaxSizeMB <= 0 {
			return fmt.Errorf("file max size must be positive")
		}
		if c.File.BatchSize <= 0 {
			return fmt.Errorf("file batch size must be positive")
		}
	}

	return nil
}
