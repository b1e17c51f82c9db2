package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"prepdash/internal/job"
)

// Collector tracks client-side counters in memory
type Collector struct {
	// Counters (atomic for thread-safety)
	requests         atomic.Int64
	requestErrors    atomic.Int64
	pollCycles       atomic.Int64
	transportRetries atomic.Int64

	// Job tracking by kind (protected by mutex)
	mu            sync.RWMutex
	completedByKind map[job.JobKind]int64
	failedByKind    map[job.JobKind]int64
	totalPollTime   time.Duration
	startTime       time.Time
}

// Metrics is a snapshot of current counters
type Metrics struct {
	Requests         int64                 `json:"requests"`
	RequestErrors    int64                 `json:"request_errors"`
	PollCycles       int64                 `json:"poll_cycles"`
	TransportRetries int64                 `json:"transport_retries"`
	CompletedByKind  map[job.JobKind]int64 `json:"completed_by_kind"`
	FailedByKind     map[job.JobKind]int64 `json:"failed_by_kind"`
	AvgPollDuration  time.Duration         `json:"avg_poll_duration"`
	ErrorRate        float64               `json:"error_rate"`
	Uptime           time.Duration         `json:"uptime"`
}

var (
	globalCollector *Collector
	once            sync.Once
)

// Default returns the global collector instance
func Default() *Collector {
	once.Do(func() {
		globalCollector = NewCollector()
	})
	return globalCollector
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		completedByKind: make(map[job.JobKind]int64),
		failedByKind:    make(map[job.JobKind]int64),
		startTime:       time.Now(),
	}
}

// RecordRequest counts one backend request; failed marks transport or
// HTTP-level failures
func (c *Collector) RecordRequest(failed bool) {
	c.requests.Add(1)
	if failed {
		c.requestErrors.Add(1)
	}
}

// RecordPollCycle counts one successful status fetch
func (c *Collector) RecordPollCycle() {
	c.pollCycles.Add(1)
}

// RecordTransportRetry counts one retried status fetch
func (c *Collector) RecordTransportRetry() {
	c.transportRetries.Add(1)
}

// RecordJobCompleted records a job reaching the completed state
func (c *Collector) RecordJobCompleted(kind job.JobKind, pollDuration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completedByKind[kind]++
	c.totalPollTime += pollDuration
}

// RecordJobFailed records a job reaching the failure state
func (c *Collector) RecordJobFailed(kind job.JobKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedByKind[kind]++
}

// Snapshot returns a copy of all current counters
func (c *Collector) Snapshot() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	completed := make(map[job.JobKind]int64, len(c.completedByKind))
	var completedTotal int64
	for k, v := range c.completedByKind {
		completed[k] = v
		completedTotal += v
	}
	failed := make(map[job.JobKind]int64, len(c.failedByKind))
	for k, v := range c.failedByKind {
		failed[k] = v
	}

	m := Metrics{
		Requests:         c.requests.Load(),
		RequestErrors:    c.requestErrors.Load(),
		PollCycles:       c.pollCycles.Load(),
		TransportRetries: c.transportRetries.Load(),
		CompletedByKind:  completed,
		FailedByKind:     failed,
		Uptime:           time.Since(c.startTime),
	}

	if completedTotal > 0 {
		m.AvgPollDuration = c.totalPollTime / time.Duration(completedTotal)
	}
	if m.Requests > 0 {
		m.ErrorRate = float64(m.RequestErrors) / float64(m.Requests)
	}

	return m
}

// Reset clears all counters (for tests)
func (c *Collector) Reset() {
	c.requests.Store(0)
	c.requestErrors.Store(0)
	c.pollCycles.Store(0)
	c.transportRetries.Store(0)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.completedByKind = make(map[job.JobKind]int64)
	c.failedByKind = make(map[job.JobKind]int64)
	c.totalPollTime = 0
	c.startTime = time.Now()
}
