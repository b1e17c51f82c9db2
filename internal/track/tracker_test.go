package track

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type event struct {
	session string
	page    string
	action  string
}

type fakeSender struct {
	mu     sync.Mutex
	events []event
	err    error
}

func (f *fakeSender) Track(_ context.Context, sessionID, page, action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event{session: sessionID, page: page, action: action})
	return f.err
}

func (f *fakeSender) recorded() []event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]event, len(f.events))
	copy(out, f.events)
	return out
}

func TestEvent_ReportsToSender(t *testing.T) {
	sender := &fakeSender{}
	tr := New(sender, "sess-1", true)

	tr.Event(context.Background(), "home", "upload")

	events := sender.recorded()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0] != (event{session: "sess-1", page: "home", action: "upload"}) {
		t.Errorf("event = %+v", events[0])
	}
}

func TestEvent_DisabledTrackerDropsEverything(t *testing.T) {
	sender := &fakeSender{}
	tr := New(sender, "sess-1", false)

	tr.Event(context.Background(), "home", "upload")

	if got := sender.recorded(); len(got) != 0 {
		t.Errorf("disabled tracker sent %d events", len(got))
	}
}

func TestEvent_NilSenderIsSafe(t *testing.T) {
	tr := New(nil, "sess-1", true)
	// Must not panic
	tr.Event(context.Background(), "home", "upload")
}

func TestInstrument_ReportsStartThenSuccess(t *testing.T) {
	sender := &fakeSender{}
	tr := New(sender, "sess-1", true)

	var ran bool
	op := tr.Instrument("preprocessing", "start", func(ctx context.Context) error {
		ran = true
		return nil
	})

	if err := op(context.Background()); err != nil {
		t.Fatalf("op error = %v", err)
	}
	if !ran {
		t.Fatal("wrapped operation did not run")
	}

	events := sender.recorded()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].action != "start" || events[1].action != "success" {
		t.Errorf("actions = [%s, %s], want [start, success]", events[0].action, events[1].action)
	}
}

func TestInstrument_ReportsFailureAndPropagatesError(t *testing.T) {
	sender := &fakeSender{}
	tr := New(sender, "sess-1", true)

	opErr := errors.New("target column missing")
	op := tr.Instrument("model_comparison", "start", func(ctx context.Context) error {
		return opErr
	})

	if err := op(context.Background()); !errors.Is(err, opErr) {
		t.Fatalf("op error = %v, want the operation's own error", err)
	}

	events := sender.recorded()
	if len(events) != 2 || events[1].action != "failure" {
		t.Errorf("events = %+v, want start then failure", events)
	}
}

func TestInstrument_SenderErrorsDoNotAffectOperation(t *testing.T) {
	sender := &fakeSender{err: errors.New("analytics down")}
	tr := New(sender, "sess-1", true)

	op := tr.Instrument("download", "start", func(ctx context.Context) error {
		return nil
	})

	if err := op(context.Background()); err != nil {
		t.Errorf("op error = %v, tracking failures must not propagate", err)
	}
}
