package monitor

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"sdrwatch/internal/health"
	"sdrwatch/internal/notify"
)

type fakeSweeper struct {
	processed int
	deleted   int
	calls     int
	panics    bool
}

func (f *fakeSweeper) Sweep() (int, int) {
	f.calls++
	if f.panics {
		panic("sweeper exploded")
	}
	return f.processed, f.deleted
}

type fakeEvaluator struct {
	verdict health.Verdict
	calls   int
}

func (f *fakeEvaluator) Evaluate(context.Context, health.SessionInfo) health.Verdict {
	f.calls++
	return f.verdict
}

type fakeHeartbeat struct {
	statuses []notify.Status
	err      error
}

func (f *fakeHeartbeat) Send(_ context.Context, status notify.Status) error {
	f.statuses = append(f.statuses, status)
	return f.err
}

type fakePublisher struct {
	events []CycleEvent
}

func (f *fakePublisher) Publish(_ context.Context, _ string, v any) error {
	f.events = append(f.events, v.(CycleEvent))
	return nil
}

func newMonitor(sweeper *fakeSweeper, eval *fakeEvaluator, hb *fakeHeartbeat) *Monitor {
	now := time.Date(2025, 6, 29, 12, 0, 0, 0, time.UTC)
	return &Monitor{
		Interval:     10 * time.Millisecond,
		MonitorAudio: true,
		Sweeper:      sweeper,
		Evaluator:    eval,
		Heartbeat:    hb,
		Username:     "radio",
		Hostname:     "shack",
		Logger:       log.New(io.Discard, "", 0),
		Session:      NewSession(now),
		Now:          func() time.Time { return now },
	}
}

func TestCycleHealthySendsHeartbeat(t *testing.T) {
	sweeper := &fakeSweeper{processed: 3, deleted: 5}
	eval := &fakeEvaluator{verdict: health.Verdict{Healthy: true}}
	hb := &fakeHeartbeat{}

	m := newMonitor(sweeper, eval, hb)
	m.RunCycle(context.Background())

	if len(hb.statuses) != 1 {
		t.Fatalf("heartbeats sent = %d, want 1", len(hb.statuses))
	}
	got := hb.statuses[0]
	if got.Status != "healthy" || !got.Running {
		t.Errorf("heartbeat = %+v, want healthy/running", got)
	}
	if got.AudioFilesProcessed != 3 {
		t.Errorf("heartbeat processed count = %d, want 3", got.AudioFilesProcessed)
	}
	if got.Username != "radio" {
		t.Errorf("heartbeat username = %q", got.Username)
	}
}

func TestCycleUnhealthySkipsHeartbeat(t *testing.T) {
	eval := &fakeEvaluator{verdict: health.Verdict{Reason: health.ReasonProcessDown, Detail: "down"}}
	hb := &fakeHeartbeat{}

	m := newMonitor(&fakeSweeper{}, eval, hb)
	m.RunCycle(context.Background())

	if len(hb.statuses) != 0 {
		t.Fatalf("heartbeats sent = %d, want 0 when unhealthy", len(hb.statuses))
	}
}

func TestCycleAccumulatesProcessedCount(t *testing.T) {
	sweeper := &fakeSweeper{processed: 2}
	eval := &fakeEvaluator{verdict: health.Verdict{Healthy: true}}

	m := newMonitor(sweeper, eval, &fakeHeartbeat{})
	m.RunCycle(context.Background())
	m.RunCycle(context.Background())

	snap := m.Session.Snapshot()
	if snap.AudioFilesProcessed != 4 {
		t.Fatalf("cumulative processed = %d, want 4", snap.AudioFilesProcessed)
	}
}

func TestCycleAudioDisabledSkipsSweep(t *testing.T) {
	sweeper := &fakeSweeper{processed: 2}
	eval := &fakeEvaluator{verdict: health.Verdict{Healthy: true}}

	m := newMonitor(sweeper, eval, &fakeHeartbeat{})
	m.MonitorAudio = false
	m.RunCycle(context.Background())

	if sweeper.calls != 0 {
		t.Fatalf("sweeper ran %d times with audio monitoring disabled", sweeper.calls)
	}
}

func TestCycleRecoversFromPanic(t *testing.T) {
	sweeper := &fakeSweeper{panics: true}
	eval := &fakeEvaluator{verdict: health.Verdict{Healthy: true}}

	m := newMonitor(sweeper, eval, &fakeHeartbeat{})
	m.RunCycle(context.Background()) // must not propagate

	// The loop itself must also survive a panicking stage.
	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()
	if err := m.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() = %v, want deadline exceeded after surviving panics", err)
	}
	if sweeper.calls < 2 {
		t.Fatalf("sweeper calls = %d, want the loop to keep cycling after a panic", sweeper.calls)
	}
}

func TestCycleHeartbeatFailureDoesNotPanic(t *testing.T) {
	eval := &fakeEvaluator{verdict: health.Verdict{Healthy: true}}
	hb := &fakeHeartbeat{err: errors.New("endpoint timeout")}

	m := newMonitor(&fakeSweeper{}, eval, hb)
	m.RunCycle(context.Background())

	if eval.calls != 1 {
		t.Fatalf("evaluator calls = %d", eval.calls)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	eval := &fakeEvaluator{verdict: health.Verdict{Healthy: true}}
	m := newMonitor(&fakeSweeper{}, eval, &fakeHeartbeat{})
	m.Interval = time.Hour // cancellation must abort the in-progress wait

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run() did not stop promptly after cancellation")
	}
}

func TestCyclePublishesEvent(t *testing.T) {
	eval := &fakeEvaluator{verdict: health.Verdict{Reason: health.ReasonLogErrors, Detail: "errors"}}
	pub := &fakePublisher{}

	m := newMonitor(&fakeSweeper{processed: 1}, eval, &fakeHeartbeat{})
	m.Publisher = pub
	m.Subject = "sdrwatch.cycles"
	m.RunCycle(context.Background())

	if len(pub.events) != 1 {
		t.Fatalf("events published = %d, want 1", len(pub.events))
	}
	evt := pub.events[0]
	if evt.Healthy || evt.Reason != string(health.ReasonLogErrors) {
		t.Errorf("event = %+v, want unhealthy log_errors", evt)
	}
	if evt.AgentID != m.Session.AgentID() {
		t.Errorf("event agent id = %q, want %q", evt.AgentID, m.Session.AgentID())
	}
	if evt.CycleID == "" {
		t.Error("event cycle id is empty")
	}
}

func TestSessionVerdictVisibleInSnapshot(t *testing.T) {
	verdict := health.Verdict{Reason: health.ReasonNoAudio, Detail: "quiet"}
	eval := &fakeEvaluator{verdict: verdict}

	m := newMonitor(&fakeSweeper{}, eval, &fakeHeartbeat{})
	m.RunCycle(context.Background())

	snap := m.Session.Snapshot()
	if snap.LastVerdict.Reason != health.ReasonNoAudio {
		t.Fatalf("snapshot verdict = %+v, want no_audio_activity", snap.LastVerdict)
	}
}
