// Package logger provides tiered structured logging for prepdash:
// a buffered console tier and an optional batched rotating file tier.
package logger

import (
	"fmt"
	"sync"
)

// Logger is the main interface for logging throughout the application
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithFields returns a logger with additional fields
	WithFields(fields map[string]interface{}) Logger

	// WithComponent returns a logger tagged with a component
	WithComponent(component Component) Logger

	// WithSource returns a logger tagged with a log source
	WithSource(source LogSource) Logger

	// Close flushes and closes all log destinations
	Close() error
}

// LogEntry represents a single log entry with all metadata
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	Message   string                 `json:"message"`
	Component Component              `json:"component,omitempty"`
	Source    LogSource              `json:"log_source,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	JobID     string                 `json:"job_id,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// TieredLogger implements Logger by dispatching to the enabled tiers
type TieredLogger struct {
	config     *Config
	console    *ConsoleLogger
	file       *FileLogger
	baseFields map[string]interface{}
	component  Component
	source     LogSource
}

// NewLogger creates a tiered logger from configuration
func NewLogger(config *Config) (*TieredLogger, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger config: %w", err)
	}

	tl := &TieredLogger{
		config:     config,
		baseFields: make(map[string]interface{}),
	}

	if config.Console.Enabled {
		console, err := NewConsoleLogger(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create console logger: %w", err)
		}
		tl.console = console
	}

	if config.File.Enabled {
		file, err := NewFileLogger(config)
		if err != nil {
			return nil, fmt.Errorf("failed to create file logger: %w", err)
		}
		tl.file = file
	}

	return tl, nil
}

func (tl *TieredLogger) Debug(msg string, args ...interface{}) { tl.log(LevelDebug, msg, args...) }
func (tl *TieredLogger) Info(msg string, args ...interface{})  { tl.log(LevelInfo, msg, args...) }
func (tl *TieredLogger) Warn(msg string, args ...interface{})  { tl.log(LevelWarn, msg, args...) }
func (tl *TieredLogger) Error(msg string, args ...interface{}) { tl.log(LevelError, msg, args...) }

// WithFields returns a new logger with additional fields
func (tl *TieredLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(tl.baseFields)+len(fields))
	for k, v := range tl.baseFields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	clone := *tl
	clone.baseFields = merged
	return &clone
}

// WithComponent returns a new logger tagged with a component
func (tl *TieredLogger) WithComponent(component Component) Logger {
	clone := *tl
	clone.component = component
	return &clone
}

// WithSource returns a new logger tagged with a log source
func (tl *TieredLogger) WithSource(source LogSource) Logger {
	clone := *tl
	clone.source = source
	return &clone
}

// Close flushes and closes all tiers
func (tl *TieredLogger) Close() error {
	var errs []error

	if tl.console != nil {
		if err := tl.console.Close(); err != nil {
			errs = append(errs, fmt.Errorf("console close: %w", err))
		}
	}
	if tl.file != nil {
		if err := tl.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("file close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing logger: %v", errs)
	}
	return nil
}

// shouldLog checks if a message at the given level should be logged
func (tl *TieredLogger) shouldLog(level LogLevel) bool {
	ranks := map[LogLevel]int{
		LevelDebug: 0,
		LevelInfo:  1,
		LevelWarn:  2,
		LevelError: 3,
	}
	return ranks[level] >= ranks[tl.config.Level]
}

// log parses variadic key-value args and dispatches to the enabled tiers
func (tl *TieredLogger) log(level LogLevel, msg string, args ...interface{}) {
	if !tl.shouldLog(level) {
		return
	}

	fields := make(map[string]interface{}, len(tl.baseFields)+len(args)/2)
	for k, v := range tl.baseFields {
		fields[k] = v
	}
	for i := 0; i+1 < len(args); i += 2 {
		fields[fmt.Sprintf("%v", args[i])] = args[i+1]
	}

	if tl.console != nil {
		tl.console.log(level, msg, tl.component, tl.source, fields)
	}
	if tl.file != nil {
		tl.file.log(level, msg, tl.component, tl.source, fields)
	}
}

// NoOpLogger is a logger that does nothing (for testing)
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, args ...interface{})           {}
func (n *NoOpLogger) Info(msg string, args ...interface{})            {}
func (n *NoOpLogger) Warn(msg string, args ...interface{})            {}
func (n *NoOpLogger) Error(msg string, args ...interface{})           {}
func (n *NoOpLogger) WithFields(fields map[string]interface{}) Logger { return n }
func (n *NoOpLogger) WithComponent(component Component) Logger        { return n }
func (n *NoOpLogger) WithSource(source LogSource) Logger              { return n }
func (n *NoOpLogger) Close() error                                    { return nil }

// Ensure NoOpLogger implements Logger
var _ Logger = (*NoOpLogger)(nil)

// Global default logger (can be replaced)
var (
	defaultLogger Logger = &NoOpLogger{}
	loggerMu      sync.RWMutex
)

// SetDefault sets the global default logger
func SetDefault(l Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	defaultLogger = l
}

// Default returns the global default logger
func Default() Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}
