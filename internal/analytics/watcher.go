// Package analytics drives the admin view of the backend: it periodically
// fetches realtime and dashboard snapshots on cron schedules and hands them
// to the caller.
package analytics

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"prepdash/internal/logger"
)

// refreshIDPattern validates refresh IDs (alphanumeric, underscores, hyphens)
var refreshIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Refresh is one scheduled analytics fetch
type Refresh struct {
	// ID uniquely identifies the refresh
	ID string

	// Cron expression with seconds (6-field: second minute hour day month
	// weekday). The realtime feed wants sub-minute cadence.
	// Examples:
	//   "*/30 * * * * *"  - Every 30 seconds
	//   "0 */5 * * * *"   - Every 5 minutes
	//   "0 0 6 * * *"     - Daily at 06:00
	Cron string

	// Run performs the fetch
	Run func(ctx context.Context) error

	// Description for logging
	Description string
}

// entry tracks the runtime state of a registered refresh
type entry struct {
	refresh  Refresh
	schedule cron.Schedule
	nextRun  time.Time
	runCount int64
	lastErr  error
}

// Watcher runs registered refreshes on their schedules. The loop wakes on
// a fixed interval and fires everything that has come due, one at a time;
// a slow fetch delays later ones rather than overlapping them.
type Watcher struct {
	mu       sync.Mutex
	entries  map[string]*entry
	parser   cron.Parser
	interval time.Duration
	log      logger.Logger
}

// NewWatcher creates a watcher that checks for due refreshes every interval
func NewWatcher(interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		entries:  make(map[string]*entry),
		parser:   cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		interval: interval,
		log:      logger.Default().WithComponent(logger.ComponentAnalytics),
	}
}

// Register adds a refresh to the watcher
func (w *Watcher) Register(r Refresh) error {
	if r.ID == "" {
		return fmt.Errorf("refresh ID cannot be empty")
	}
	if !refreshIDPattern.MatchString(r.ID) {
		return fmt.Errorf("refresh ID must contain only alphanumeric characters, underscores, and hyphens")
	}
	if r.Run == nil {
		return fmt.Errorf("refresh %s has no Run function", r.ID)
	}

	schedule, err := w.parser.Parse(r.Cron)
	if err != nil {
		return fmt.Errorf("invalid cron expression for %s: %w", r.ID, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.entries[r.ID]; exists {
		return fmt.Errorf("refresh with ID %s already exists", r.ID)
	}

	w.entries[r.ID] = &entry{
		refresh:  r,
		schedule: schedule,
		nextRun:  schedule.Next(time.Now()),
	}
	return nil
}

// MustRegister registers a refresh, panicking on error.
// Useful for initialization-time registration.
func (w *Watcher) MustRegister(r Refresh) {
	if err := w.Register(r); err != nil {
		panic(fmt.Sprintf("failed to register refresh: %v", err))
	}
}

// Count returns the number of registered refreshes
func (w *Watcher) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// NextRun returns when a refresh will next fire
func (w *Watcher) NextRun(id string) (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, exists := w.entries[id]
	if !exists {
		return time.Time{}, false
	}
	return e.nextRun, true
}

// Start runs the watcher loop until ctx is cancelled
func (w *Watcher) Start(ctx context.Context) {
	w.log.Info("analytics watcher started",
		"interval", w.interval,
		"refreshes", w.Count())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("analytics watcher stopping")
			return
		case now := <-ticker.C:
			w.fireDue(ctx, now)
		}
	}
}

// fireDue runs every refresh whose next-run time has passed
func (w *Watcher) fireDue(ctx context.Context, now time.Time) {
	for _, e := range w.due(now) {
		err := e.refresh.Run(ctx)

		w.mu.Lock()
		e.runCount++
		e.lastErr = err
		e.nextRun = e.schedule.Next(now)
		w.mu.Unlock()

		if err != nil {
			w.log.Warn("analytics refresh failed",
				"refresh", e.refresh.ID, "error", err)
		} else {
			w.log.Debug("analytics refresh completed",
				"refresh", e.refresh.ID, "next_run", e.nextRun)
		}
	}
}

// due collects entries whose schedule has come due
func (w *Watcher) due(now time.Time) []*entry {
	w.mu.Lock()
	defer w.mu.Unlock()

	var due []*entry
	for _, e := range w.entries {
		if !e.nextRun.After(now) {
			due = append(due, e)
		}
	}
	return due
}
