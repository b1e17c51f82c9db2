package metrics

import (
	"sync"
	"testing"
	"time"

	"prepdash/internal/job"
)

func TestCollector_RecordsCounters(t *testing.T) {
	c := NewCollector()

	c.RecordRequest(false)
	c.RecordRequest(false)
	c.RecordRequest(true)
	c.RecordPollCycle()
	c.RecordPollCycle()
	c.RecordTransportRetry()

	m := c.Snapshot()
	if m.Requests != 3 {
		t.Errorf("Requests = %d, want 3", m.Requests)
	}
	if m.RequestErrors != 1 {
		t.Errorf("RequestErrors = %d, want 1", m.RequestErrors)
	}
	if m.PollCycles != 2 {
		t.Errorf("PollCycles = %d, want 2", m.PollCycles)
	}
	if m.TransportRetries != 1 {
		t.Errorf("TransportRetries = %d, want 1", m.TransportRetries)
	}
}

func TestCollector_ErrorRate(t *testing.T) {
	c := NewCollector()

	if m := c.Snapshot(); m.ErrorRate != 0 {
		t.Errorf("ErrorRate with no requests = %f, want 0", m.ErrorRate)
	}

	c.RecordRequest(false)
	c.RecordRequest(true)

	if m := c.Snapshot(); m.ErrorRate != 0.5 {
		t.Errorf("ErrorRate = %f, want 0.5", m.ErrorRate)
	}
}

func TestCollector_JobOutcomesByKind(t *testing.T) {
	c := NewCollector()

	c.RecordJobCompleted(job.KindPreprocessing, 4*time.Second)
	c.RecordJobCompleted(job.KindPreprocessing, 2*time.Second)
	c.RecordJobCompleted(job.KindComparison, 6*time.Second)
	c.RecordJobFailed(job.KindComparison)

	m := c.Snapshot()
	if m.CompletedByKind[job.KindPreprocessing] != 2 {
		t.Errorf("completed preprocessing = %d, want 2", m.CompletedByKind[job.KindPreprocessing])
	}
	if m.CompletedByKind[job.KindComparison] != 1 {
		t.Errorf("completed comparison = %d, want 1", m.CompletedByKind[job.KindComparison])
	}
	if m.FailedByKind[job.KindComparison] != 1 {
		t.Errorf("failed comparison = %d, want 1", m.FailedByKind[job.KindComparison])
	}
	if m.AvgPollDuration != 4*time.Second {
		t.Errorf("AvgPollDuration = %v, want 4s", m.AvgPollDuration)
	}
}

func TestCollector_SnapshotIsACopy(t *testing.T) {
	c := NewCollector()
	c.RecordJobCompleted(job.KindPreprocessing, time.Second)

	m := c.Snapshot()
	m.CompletedByKind[job.KindPreprocessing] = 99

	if got := c.Snapshot().CompletedByKind[job.KindPreprocessing]; got != 1 {
		t.Errorf("collector state mutated through snapshot: %d", got)
	}
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector()
	c.RecordRequest(true)
	c.RecordPollCycle()
	c.RecordJobCompleted(job.KindPreprocessing, time.Second)

	c.Reset()

	m := c.Snapshot()
	if m.Requests != 0 || m.PollCycles != 0 || len(m.CompletedByKind) != 0 {
		t.Errorf("counters survived reset: %+v", m)
	}
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordRequest(false)
				c.RecordPollCycle()
				c.RecordJobCompleted(job.KindComparison, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	m := c.Snapshot()
	if m.Requests != 1000 {
		t.Errorf("Requests = %d, want 1000", m.Requests)
	}
	if m.CompletedByKind[job.KindComparison] != 1000 {
		t.Errorf("completed = %d, want 1000", m.CompletedByKind[job.KindComparison])
	}
}

func TestDefault_ReturnsSameInstance(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() returned different instances")
	}
}
