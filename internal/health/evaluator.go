// Package health combines the probe, log scanner, and audio activity
// timer into a single per-cycle verdict.
package health

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"sdrwatch/internal/metrics"
)

// Reason classifies why a verdict is unhealthy.
type Reason string

const (
	ReasonProcessDown Reason = "process_down"
	ReasonLogErrors   Reason = "log_errors"
	ReasonNoAudio     Reason = "no_audio_activity"
)

// Verdict is the outcome of one health evaluation. It is computed fresh
// each cycle and never persisted.
type Verdict struct {
	Healthy   bool      `json:"healthy"`
	Reason    Reason    `json:"reason,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// SessionInfo is the slice of monitor session state the evaluator needs.
type SessionInfo struct {
	Start           time.Time
	LastProcessedAt time.Time
}

// ProcessProbe reports whether the monitored process is running.
type ProcessProbe interface {
	Running(ctx context.Context) bool
}

// LogScanner returns error lines newer than since.
type LogScanner interface {
	NewErrors(path string, since time.Time) []string
}

// AlertSender delivers a free-text alert. Implementations are
// best-effort; a failed delivery must not fail the evaluation.
type AlertSender interface {
	Send(ctx context.Context, text string) error
}

// NopAlerts is an AlertSender that discards everything, useful in tests.
type NopAlerts struct{}

func (NopAlerts) Send(context.Context, string) error { return nil }

// Evaluator runs the health checks in order, short-circuiting on the
// first failure. Each unhealthy branch dispatches exactly one alert
// before returning; the healthy path is silent.
type Evaluator struct {
	Probe        ProcessProbe
	Scanner      LogScanner
	Alerts       AlertSender
	LogPath      string
	MaxAudioAge  time.Duration
	MonitorAudio bool
	Logger       *log.Logger
	Metrics      *metrics.Metrics

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

// Evaluate produces the verdict for the current cycle.
func (e *Evaluator) Evaluate(ctx context.Context, sess SessionInfo) Verdict {
	now := e.now()

	if !e.Probe.Running(ctx) {
		e.Logger.Printf("WARN target process is not running")
		e.alert(ctx, "❌ **SDRTrunk is not running!**\n\nPlease check the application status.")
		return Verdict{Reason: ReasonProcessDown, Detail: "target process not running", CheckedAt: now}
	}

	if errs := e.Scanner.NewErrors(e.LogPath, sess.Start); len(errs) > 0 {
		e.Logger.Printf("WARN found %d new errors in log file", len(errs))
		if e.Metrics != nil {
			e.Metrics.LogErrorsFound.Add(float64(len(errs)))
		}
		detail := summarizeErrors(errs)
		e.alert(ctx, "⚠️ **SDRTrunk Errors Detected**\n\n"+detail)
		return Verdict{Reason: ReasonLogErrors, Detail: detail, CheckedAt: now}
	}

	if e.MonitorAudio {
		if gap := now.Sub(sess.LastProcessedAt); gap > e.MaxAudioAge {
			e.Logger.Printf("WARN no audio processing for %s", gap.Round(time.Second))
			detail := fmt.Sprintf("No audio processing detected for more than %s.", e.MaxAudioAge)
			e.alert(ctx, "⚠️ **No Audio Processing**\n\n"+detail)
			return Verdict{Reason: ReasonNoAudio, Detail: detail, CheckedAt: now}
		}
	}

	return Verdict{Healthy: true, CheckedAt: now}
}

func (e *Evaluator) alert(ctx context.Context, text string) {
	if err := e.Alerts.Send(ctx, text); err != nil {
		e.Logger.Printf("ERROR sending alert: %v", err)
		return
	}
	if e.Metrics != nil {
		e.Metrics.AlertsSent.Inc()
	}
}

func (e *Evaluator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// summarizeErrors renders the first three error lines plus a remainder
// count, truncating long lines for the alert channel.
func summarizeErrors(errs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d errors in SDRTrunk log file:\n\n", len(errs))
	for i, line := range errs {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, truncate(line, 100))
	}
	if len(errs) > 3 {
		fmt.Fprintf(&b, "\n... and %d more errors", len(errs)-3)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
