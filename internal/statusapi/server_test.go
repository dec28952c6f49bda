package statusapi

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sdrwatch/internal/health"
	"sdrwatch/internal/metrics"
	"sdrwatch/internal/monitor"
)

func newTestServer(session *monitor.Session) *httptest.Server {
	reg := prometheus.NewRegistry()
	metrics.New(reg).Cycles.Inc()
	srv := New(":0", session, reg, nil, log.New(io.Discard, "", 0))
	return httptest.NewServer(srv.Routes())
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(monitor.NewSession(time.Now()))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /healthz = %d, want 200", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	session := monitor.NewSession(time.Date(2025, 6, 29, 12, 0, 0, 0, time.UTC))
	session.RecordProcessed(5, time.Date(2025, 6, 29, 13, 0, 0, 0, time.UTC))
	session.SetVerdict(health.Verdict{Reason: health.ReasonLogErrors, Detail: "boom"})

	ts := newTestServer(session)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /v1/status = %d, want 200", resp.StatusCode)
	}

	var snap monitor.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if snap.AgentID != session.AgentID() {
		t.Errorf("agent_id = %q, want %q", snap.AgentID, session.AgentID())
	}
	if snap.AudioFilesProcessed != 5 {
		t.Errorf("audio_files_processed = %d, want 5", snap.AudioFilesProcessed)
	}
	if snap.LastVerdict.Reason != health.ReasonLogErrors {
		t.Errorf("last verdict = %+v", snap.LastVerdict)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(monitor.NewSession(time.Now()))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "sdrwatch_cycles_total") {
		t.Fatal("metrics output missing sdrwatch_cycles_total")
	}
}

func TestReadyz(t *testing.T) {
	ts := newTestServer(monitor.NewSession(time.Now()))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/readyz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /readyz = %d, want 200", resp.StatusCode)
	}
}
