package monitor

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"sdrwatch/internal/health"
)

// Session is the mutable per-boot monitor state. The cycle driver is
// the only writer; the status server reads snapshots concurrently.
type Session struct {
	mu sync.RWMutex

	agentID             string
	start               time.Time
	audioFilesProcessed int
	lastProcessedAt     time.Time
	lastVerdict         health.Verdict
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	AgentID             string         `json:"agent_id"`
	SessionStart        time.Time      `json:"session_start"`
	AudioFilesProcessed int            `json:"audio_files_processed"`
	LastProcessedAt     time.Time      `json:"last_processed_at"`
	LastVerdict         health.Verdict `json:"last_verdict"`
}

// NewSession starts a session at now. The session start fixes the
// "after start" boundary for log scanning; last audio activity begins
// at start so a quiet radio does not alert immediately on boot.
func NewSession(now time.Time) *Session {
	return &Session{
		agentID:         uuid.NewString(),
		start:           now,
		lastProcessedAt: now,
	}
}

// AgentID returns the per-boot agent identifier.
func (s *Session) AgentID() string {
	return s.agentID
}

// Start returns the session start timestamp.
func (s *Session) Start() time.Time {
	return s.start
}

// RecordProcessed adds n quality-pass clips and marks audio activity.
func (s *Session) RecordProcessed(n int, at time.Time) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audioFilesProcessed += n
	s.lastProcessedAt = at
}

// SetVerdict stores the latest evaluation outcome.
func (s *Session) SetVerdict(v health.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastVerdict = v
}

// Info returns the fields the health evaluator needs.
func (s *Session) Info() health.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return health.SessionInfo{
		Start:           s.start,
		LastProcessedAt: s.lastProcessedAt,
	}
}

// Snapshot returns a copy of the full session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		AgentID:             s.agentID,
		SessionStart:        s.start,
		AudioFilesProcessed: s.audioFilesProcessed,
		LastProcessedAt:     s.lastProcessedAt,
		LastVerdict:         s.lastVerdict,
	}
}
