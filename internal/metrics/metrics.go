// Package metrics exposes the agent's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every collector the monitor updates. Collectors are
// registered against the provided registry so tests can use isolated
// registries.
type Metrics struct {
	Cycles             prometheus.Counter
	CyclePanics        prometheus.Counter
	LogErrorsFound     prometheus.Counter
	ArtifactsProcessed prometheus.Counter
	ArtifactsDeleted   prometheus.Counter
	HeartbeatsSent     prometheus.Counter
	HeartbeatFailures  prometheus.Counter
	AlertsSent         prometheus.Counter
	Healthy            prometheus.Gauge
	LastCycleUnix      prometheus.Gauge
}

// New registers and returns the agent's collectors.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Cycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "sdrwatch_cycles_total",
			Help: "Monitoring cycles started.",
		}),
		CyclePanics: factory.NewCounter(prometheus.CounterOpts{
			Name: "sdrwatch_cycle_panics_total",
			Help: "Cycles that recovered from a panic.",
		}),
		LogErrorsFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "sdrwatch_log_errors_found_total",
			Help: "New error lines flagged in the application log.",
		}),
		ArtifactsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "sdrwatch_artifacts_processed_total",
			Help: "Recording clips that passed the quality gate.",
		}),
		ArtifactsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "sdrwatch_artifacts_deleted_total",
			Help: "Recording clips removed by the sweeper.",
		}),
		HeartbeatsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "sdrwatch_heartbeats_sent_total",
			Help: "Heartbeats delivered successfully.",
		}),
		HeartbeatFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sdrwatch_heartbeat_failures_total",
			Help: "Heartbeat deliveries that failed.",
		}),
		AlertsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "sdrwatch_alerts_sent_total",
			Help: "Alert messages dispatched to the alert channel.",
		}),
		Healthy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sdrwatch_healthy",
			Help: "1 when the last verdict was healthy, 0 otherwise.",
		}),
		LastCycleUnix: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sdrwatch_last_cycle_timestamp_seconds",
			Help: "Unix time of the last completed cycle.",
		}),
	}
}
