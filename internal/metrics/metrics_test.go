package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	m := New()
	m.CheckInRecorded("on_track")
	m.CheckInRecorded("on_track")
	m.DraftRequest("generate_objective", "ok")
	m.BackupCompleted("local")

	if got := testutil.ToFloat64(m.checkIns.WithLabelValues("on_track")); got != 2 {
		t.Errorf("check_ins_total{on_track} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.draftRequests.WithLabelValues("generate_objective", "ok")); got != 1 {
		t.Errorf("draft_requests_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.backups.WithLabelValues("local")); got != 1 {
		t.Errorf("backups_total = %v, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.CheckInRecorded("at_risk")
	m.DraftRequest("x", "error")
	m.BackupCompleted("error")

	called := false
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("nil middleware must pass through")
	}
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/okrs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", m.Handler())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/okrs/01ABC", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	want := `okrpulse_http_request_duration_seconds_count{method="GET",route="/okrs/{id}",status="204"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("metrics output missing %q", want)
	}
	if strings.Contains(string(body), "01ABC") {
		t.Error("raw path leaked into labels")
	}
}
