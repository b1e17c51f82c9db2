package analytics

import (
	"context"
	"fmt"

	"prepdash/pkg/client"
)

// Source fetches analytics snapshots. *client.Client satisfies this.
type Source interface {
	AnalyticsRealtime(ctx context.Context) (*client.RealtimeSnapshot, error)
	AnalyticsDashboard(ctx context.Context) (*client.DashboardReport, error)
}

// Cadences for the standard admin refreshes
const (
	realtimeCron  = "*/30 * * * * *" // every 30 seconds
	dashboardCron = "0 */5 * * * *"  // every 5 minutes
)

// RegisterStandardRefreshes wires the two refreshes the admin view needs:
// a fast realtime feed and a slower dashboard aggregate. Snapshots are
// delivered through the callbacks; a nil callback skips that refresh.
func RegisterStandardRefreshes(w *Watcher, src Source,
	onRealtime func(*client.RealtimeSnapshot),
	onDashboard func(*client.DashboardReport)) error {

	if onRealtime != nil {
		err := w.Register(Refresh{
			ID:          "realtime",
			Cron:        realtimeCron,
			Description: "realtime activity counters",
			Run: func(ctx context.Context) error {
				snap, err := src.AnalyticsRealtime(ctx)
				if err != nil {
					return err
				}
				onRealtime(snap)
				return nil
			},
		})
		if err != nil {
			return fmt.Errorf("registering realtime refresh: %w", err)
		}
	}

	if onDashboard != nil {
		err := w.Register(Refresh{
			ID:          "dashboard",
			Cron:        dashboardCron,
			Description: "aggregated dashboard stats",
			Run: func(ctx context.Context) error {
				report, err := src.AnalyticsDashboard(ctx)
				if err != nil {
					return err
				}
				onDashboard(report)
				return nil
			},
		})
		if err != nil {
			return fmt.Errorf("registering dashboard refresh: %w", err)
		}
	}

	return nil
}
