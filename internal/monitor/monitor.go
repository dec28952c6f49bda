// Package monitor drives the fixed-interval check cycle.
package monitor

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"sdrwatch/internal/health"
	"sdrwatch/internal/metrics"
	"sdrwatch/internal/notify"
)

// Sweeper empties the recordings directory and reports counts.
type Sweeper interface {
	Sweep() (processed, deleted int)
}

// Evaluator produces the per-cycle health verdict.
type Evaluator interface {
	Evaluate(ctx context.Context, sess health.SessionInfo) health.Verdict
}

// HeartbeatSender delivers the healthy-status document.
type HeartbeatSender interface {
	Send(ctx context.Context, status notify.Status) error
}

// EventPublisher emits per-cycle events to an external bus.
type EventPublisher interface {
	Publish(ctx context.Context, subj string, v any) error
}

// CycleEvent is published after each completed cycle when a bus is
// configured.
type CycleEvent struct {
	CycleID             string    `json:"cycle_id"`
	AgentID             string    `json:"agent_id"`
	Timestamp           time.Time `json:"timestamp"`
	Healthy             bool      `json:"healthy"`
	Reason              string    `json:"reason,omitempty"`
	Detail              string    `json:"detail,omitempty"`
	AudioFilesProcessed int       `json:"audio_files_processed"`
}

// Monitor runs the check cycle: sweep recordings, evaluate health, send
// the heartbeat when healthy. It has two states, running and stopped;
// the only transition is context cancellation. A panicking cycle is
// logged and the loop carries on at the next tick.
type Monitor struct {
	Interval     time.Duration
	MonitorAudio bool
	Sweeper      Sweeper
	Evaluator    Evaluator
	Heartbeat    HeartbeatSender
	Publisher    EventPublisher
	Subject      string
	Username     string
	Hostname     string
	Logger       *log.Logger
	Metrics      *metrics.Metrics
	Session      *Session

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Run executes cycles until ctx is cancelled. The first cycle starts
// immediately; cancellation is observed at the tick boundary, so an
// in-progress sleep aborts promptly.
func (m *Monitor) Run(ctx context.Context) error {
	m.Logger.Printf("INFO monitor session %s started at %s", m.Session.AgentID(), m.Session.Start().Format(time.RFC3339))

	m.RunCycle(ctx)

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Logger.Printf("INFO monitoring stopped")
			return ctx.Err()
		case <-ticker.C:
			m.RunCycle(ctx)
		}
	}
}

// RunCycle executes one complete monitoring cycle. Any panic from a
// stage is recovered here so a single bad cycle cannot take the agent
// down.
func (m *Monitor) RunCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.Logger.Printf("ERROR unexpected failure in monitoring cycle: %v", r)
			if m.Metrics != nil {
				m.Metrics.CyclePanics.Inc()
			}
		}
	}()

	now := m.now()
	if m.Metrics != nil {
		m.Metrics.Cycles.Inc()
		m.Metrics.LastCycleUnix.Set(float64(now.Unix()))
	}
	m.Logger.Printf("INFO starting monitoring cycle")

	if m.MonitorAudio {
		processed, deleted := m.Sweeper.Sweep()
		if m.Metrics != nil {
			m.Metrics.ArtifactsProcessed.Add(float64(processed))
			m.Metrics.ArtifactsDeleted.Add(float64(deleted))
		}
		m.Session.RecordProcessed(processed, m.now())
	} else {
		m.Logger.Printf("INFO audio monitoring is disabled by config")
	}

	verdict := m.Evaluator.Evaluate(ctx, m.Session.Info())
	m.Session.SetVerdict(verdict)
	if m.Metrics != nil {
		if verdict.Healthy {
			m.Metrics.Healthy.Set(1)
		} else {
			m.Metrics.Healthy.Set(0)
		}
	}

	if verdict.Healthy {
		m.sendHeartbeat(ctx)
	} else {
		m.Logger.Printf("WARN conditions not met for heartbeat: %s", verdict.Detail)
	}

	m.publishCycleEvent(ctx, verdict)
	m.Logger.Printf("INFO monitoring cycle completed")
}

func (m *Monitor) sendHeartbeat(ctx context.Context) {
	snap := m.Session.Snapshot()
	status := notify.Status{
		Timestamp:           m.now().Format(time.RFC3339),
		Status:              "healthy",
		Running:             true,
		AudioFilesProcessed: snap.AudioFilesProcessed,
		Username:            m.Username,
		Hostname:            m.Hostname,
		AgentID:             snap.AgentID,
	}

	if err := m.Heartbeat.Send(ctx, status); err != nil {
		m.Logger.Printf("ERROR sending heartbeat: %v", err)
		if m.Metrics != nil {
			m.Metrics.HeartbeatFailures.Inc()
		}
		return
	}
	m.Logger.Printf("INFO heartbeat sent successfully")
	if m.Metrics != nil {
		m.Metrics.HeartbeatsSent.Inc()
	}
}

func (m *Monitor) publishCycleEvent(ctx context.Context, verdict health.Verdict) {
	if m.Publisher == nil || m.Subject == "" {
		return
	}

	snap := m.Session.Snapshot()
	event := CycleEvent{
		CycleID:             uuid.NewString(),
		AgentID:             snap.AgentID,
		Timestamp:           verdict.CheckedAt,
		Healthy:             verdict.Healthy,
		Reason:              string(verdict.Reason),
		Detail:              verdict.Detail,
		AudioFilesProcessed: snap.AudioFilesProcessed,
	}
	if err := m.Publisher.Publish(ctx, m.Subject, event); err != nil {
		m.Logger.Printf("ERROR publishing cycle event: %v", err)
	}
}

func (m *Monitor) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}
