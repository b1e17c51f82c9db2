// Package main provides the prepdash admin watcher: it polls the backend's
// analytics endpoints on a schedule and logs the snapshots, with optional
// one-shot CSV export and data cleanup.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"prepdash/internal/analytics"
	"prepdash/internal/config"
	"prepdash/internal/logger"
	"prepdash/pkg/client"
)

func main() {
	var (
		exportPath  = flag.String("export", "", "write the analytics CSV export to this file and exit")
		cleanupDays = flag.Int("cleanup", 0, "delete analytics data older than N days and exit")
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

	adminLog := log.WithComponent(logger.ComponentAnalytics).WithSource(logger.LogSourceInternal)

	if cfg.AdminToken == "" {
		adminLog.Error("ADMIN_TOKEN is required for the admin watcher")
		os.Exit(1)
	}

	c, err := client.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	if err != nil {
		adminLog.Error("failed to create backend client", "error", err)
		os.Exit(1)
	}
	c.SetAdminToken(cfg.AdminToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *exportPath != "" {
		if err := runExport(ctx, c, *exportPath); err != nil {
			adminLog.Error("analytics export failed", "error", err)
			os.Exit(1)
		}
		adminLog.Info("analytics exported", "path", *exportPath)
		return
	}

	if *cleanupDays > 0 {
		if err := c.AnalyticsCleanup(ctx, *cleanupDays); err != nil {
			adminLog.Error("analytics cleanup failed", "error", err)
			os.Exit(1)
		}
		adminLog.Info("analytics cleanup completed", "days", *cleanupDays)
		return
	}

	watcher := analytics.NewWatcher(time.Second)
	err = analytics.RegisterStandardRefreshes(watcher, c,
		func(snap *client.RealtimeSnapshot) {
			adminLog.Info("realtime activity",
				"page_views", snap.LastFiveMinutes.PageViews,
				"active_sessions", snap.LastFiveMinutes.ActiveSessions,
				"as_of", snap.CurrentTime)
		},
		func(report *client.DashboardReport) {
			adminLog.Info("dashboard refreshed",
				"stats", len(report.Stats),
				"generated_at", report.GeneratedAt)
		})
	if err != nil {
		adminLog.Error("failed to register refreshes", "error", err)
		os.Exit(1)
	}

	adminLog.Info("admin watcher starting", "backend", cfg.BackendURL)
	watcher.Start(ctx)
}

func runExport(ctx context.Context, c *client.Client, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return c.AnalyticsExport(ctx, f)
}
