package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"prepdash/internal/job"
	"prepdash/internal/logger"
)

// State store backends
const (
	StateBackendFile  = "file"
	StateBackendRedis = "redis"
)

// Config holds all configuration for the prepdash client
type Config struct {
	// BackendURL is the base URL of the preprocessing service
	BackendURL string
	// AdminToken authenticates analytics endpoints (X-Admin-Token header)
	AdminToken string
	// RequestTimeout bounds each individual backend request
	RequestTimeout time.Duration

	// PollInterval is the delay between successful status fetches
	PollInterval time.Duration
	// PollRetryBackoff is the delay before retrying a failed status fetch
	PollRetryBackoff time.Duration
	// PollMaxRetries is the number of consecutive transport failures
	// tolerated before a poll settles with an error (0 = fail fast)
	PollMaxRetries int
	// PollDeadline bounds the total wait for one job (0 = unbounded)
	PollDeadline time.Duration
	// FailureStatus is the status label the backend uses for failed jobs
	FailureStatus job.JobStatus

	// StateBackend selects where session state lives ("file" or "redis")
	StateBackend string
	// StatePath is the directory for the file state store
	StatePath string
	// RedisURL is the connection URL for the Redis state store
	RedisURL string
	// StateTTL is how long Redis-held session state survives inactivity
	StateTTL time.Duration

	// TrackingEnabled toggles usage-event reporting to /api/track
	TrackingEnabled bool

	// Logging configuration
	Logging *logger.Config
}

// LoadConfig loads configuration from the environment with sensible
// defaults. A .env file in the working directory is honored when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BackendURL:       getEnv("BACKEND_URL", "http://localhost:5000"),
		AdminToken:       getEnv("ADMIN_TOKEN", ""),
		RequestTimeout:   getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
		PollInterval:     getEnvAsDuration("POLL_INTERVAL", 1*time.Second),
		PollRetryBackoff: getEnvAsDuration("POLL_RETRY_BACKOFF", 2*time.Second),
		PollMaxRetries:   getEnvAsInt("POLL_MAX_RETRIES", 3),
		PollDeadline:     getEnvAsDuration("POLL_DEADLINE", 10*time.Minute),
		FailureStatus:    job.JobStatus(getEnv("JOB_FAILURE_STATUS", string(job.StatusError))),
		StateBackend:     getEnv("STATE_BACKEND", StateBackendFile),
		StatePath:        getEnv("STATE_PATH", defaultStatePath()),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),
		StateTTL:         getEnvAsDuration("STATE_TTL", 24*time.Hour),
		TrackingEnabled:  getEnvAsBool("TRACKING_ENABLED", true),
		Logging:          loadLoggingConfig(),
	}

	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL cannot be empty")
	}
	if u, err := url.Parse(cfg.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("BACKEND_URL is not a valid URL: %s", cfg.BackendURL)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if cfg.PollRetryBackoff <= 0 {
		return nil, fmt.Errorf("POLL_RETRY_BACKOFF must be positive")
	}
	if cfg.PollMaxRetries < 0 {
		return nil, fmt.Errorf("POLL_MAX_RETRIES cannot be negative")
	}
	if cfg.FailureStatus == "" || cfg.FailureStatus == job.StatusCompleted {
		return nil, fmt.Errorf("JOB_FAILURE_STATUS must be a non-empty status other than %q", job.StatusCompleted)
	}
	switch cfg.StateBackend {
	case StateBackendFile:
		if cfg.StatePath == "" {
			return nil, fmt.Errorf("STATE_PATH cannot be empty with the file state backend")
		}
	case StateBackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL cannot be empty with the redis state backend")
		}
	default:
		return nil, fmt.Errorf("STATE_BACKEND must be %q or %q, got %q", StateBackendFile, StateBackendRedis, cfg.StateBackend)
	}

	if err := cfg.Logging.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}

	return cfg, nil
}

// defaultStatePath puts session state under the user config dir,
// falling back to a dotdir in the working directory
func defaultStatePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/prepdash"
	}
	return ".prepdash"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// loadLoggingConfig loads logging configuration from environment variables
func loadLoggingConfig() *logger.Config {
	cfg := logger.DefaultConfig()

	if level := getEnv("LOG_LEVEL", ""); level != "" {
		cfg.Level = logger.LogLevel(level)
	}
	if format := getEnv("LOG_FORMAT", ""); format != "" {
		cfg.Format = logger.LogFormat(format)
	}

	// Tier 1: Console
	cfg.Console.Enabled = getEnvAsBool("LOG_CONSOLE_ENABLED", true)
	cfg.Console.Color = getEnvAsBool("LOG_COLOR", true)
	cfg.Console.BufferSize = getEnvAsInt("LOG_CONSOLE_BUFFER_SIZE", cfg.Console.BufferSize)
	cfg.Console.FlushInterval = getEnvAsDuration("LOG_CONSOLE_FLUSH_INTERVAL", cfg.Console.FlushInterval)

	// Tier 2: File
	cfg.File.Enabled = getEnvAsBool("LOG_FILE_ENABLED", false)
	cfg.File.Path = getEnv("LOG_FILE_PATH", cfg.File.Path)
	cfg.File.MaxSizeMB = getEnvAsInt("LOG_FILE_MAX_SIZE_MB", cfg.File.MaxSizeMB)
	cfg.File.MaxBackups = getEnvAsInt("LOG_FILE_MAX_BACKUPS", cfg.File.MaxBackups)
	cfg.File.MaxAgeDays = getEnvAsInt("LOG_FILE_MAX_AGE_DAYS", cfg.File.MaxAgeDays)
	cfg.File.Compress = getEnvAsBool("LOG_FILE_COMPRESS", cfg.File.Compress)
	cfg.File.BufferSize = getEnvAsInt("LOG_FILE_BUFFER_SIZE", cfg.File.BufferSize)
	cfg.File.BatchSize = getEnvAsInt("LOG_FILE_BATCH_SIZE", cfg.File.BatchSize)
	cfg.File.BatchInterval = getEnvAsDuration("LOG_FILE_BATCH_INTERVAL", cfg.File.BatchInterval)

	return cfg
}
