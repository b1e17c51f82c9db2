// Package track reports usage events to the backend's analytics endpoint.
// Operations are instrumented by wrapping them at registration time with
// Instrument; nothing is patched at runtime.
package track

import (
	"context"
	"time"

	"prepdash/internal/logger"
)

// Sender delivers one usage event. *client.Client satisfies this.
type Sender interface {
	Track(ctx context.Context, sessionID, page, action string) error
}

// Op is an instrumentable operation
type Op func(ctx context.Context) error

// Tracker reports usage events for one session. Delivery is best-effort:
// tracking failures are logged and never propagate into the operation's
// own error.
type Tracker struct {
	sender  Sender
	session string
	enabled bool
	timeout time.Duration
	log     logger.Logger
}

// New creates a tracker for a session. A disabled tracker drops all events.
func New(sender Sender, sessionID string, enabled bool) *Tracker {
	return &Tracker{
		sender:  sender,
		session: sessionID,
		enabled: enabled && sender != nil,
		timeout: 5 * time.Second,
		log:     logger.Default().WithComponent(logger.ComponentTracker),
	}
}

// Event reports a single page/action event, fire-and-forget
func (t *Tracker) Event(ctx context.Context, page, action string) {
	if !t.enabled {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if err := t.sender.Track(sendCtx, t.session, page, action); err != nil {
		t.log.Debug("usage event dropped", "page", page, "action", action, "error", err)
	}
}

// Instrument returns op wrapped so that running it first reports the given
// page/action, then reports "success" or "failure" when it returns. The
// wrapping happens here, at composition time; the returned Op is what gets
// registered with the caller's workflow.
func (t *Tracker) Instrument(page, action string, op Op) Op {
	return func(ctx context.Context) error {
		t.Event(ctx, page, action)

		err := op(ctx)

		if err != nil {
			t.Event(ctx, page, "failure")
		} else {
			t.Event(ctx, page, "success")
		}
		return err
	}
}
