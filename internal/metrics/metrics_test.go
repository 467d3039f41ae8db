package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"animesync/internal/reconcile"
	"animesync/internal/shikimori"
)

func TestRunLifecycle(t *testing.T) {
	m := New()

	m.RunStarted()
	if got := testutil.ToFloat64(m.RunActive); got != 1 {
		t.Fatalf("expected active gauge 1, got %v", got)
	}
	m.RecordProcessed(reconcile.OutcomeUpdated, 10*time.Millisecond)
	m.RecordProcessed(reconcile.OutcomeNotFound, 5*time.Millisecond)
	m.RecordProcessed(reconcile.OutcomeUpdated, 5*time.Millisecond)
	m.RunFinished(reconcile.Report{Stopped: true, Duration: 2 * time.Second}, nil)

	if got := testutil.ToFloat64(m.RunActive); got != 0 {
		t.Fatalf("expected active gauge 0, got %v", got)
	}
	if got := testutil.ToFloat64(m.RecordsTotal.WithLabelValues("updated")); got != 2 {
		t.Fatalf("expected 2 updated, got %v", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("stopped")); got != 1 {
		t.Fatalf("expected one stopped run, got %v", got)
	}
}

func TestRunResultClassification(t *testing.T) {
	wrapped := fmt.Errorf("%w: %w", reconcile.ErrStoreUnreachable, errors.New("refused"))
	tests := []struct {
		report reconcile.Report
		err    error
		want   string
	}{
		{reconcile.Report{}, nil, "completed"},
		{reconcile.Report{Stopped: true}, nil, "stopped"},
		{reconcile.Report{}, wrapped, "store_unreachable"},
		{reconcile.Report{}, errors.New("panic"), "error"},
	}
	for _, tt := range tests {
		if got := runResult(tt.report, tt.err); got != tt.want {
			t.Errorf("runResult(%+v, %v) = %q, want %q", tt.report, tt.err, got, tt.want)
		}
	}
}

func TestObserveRequest(t *testing.T) {
	m := New()
	var observer shikimori.Observer = m.ObserveRequest
	observer(shikimori.OperationSearch, 20*time.Millisecond, nil)
	observer(shikimori.OperationDetail, 20*time.Millisecond, errors.New("timeout"))

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("search", "ok")); got != 1 {
		t.Fatalf("expected one ok search, got %v", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("detail", "error")); got != 1 {
		t.Fatalf("expected one failed detail, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.RecordProcessed(reconcile.OutcomeFailed, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `animesync_records_total{outcome="failed"} 1`) {
		t.Fatalf("expected records counter in exposition, got:\n%s", body)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RunStarted()
	m.RecordProcessed(reconcile.OutcomeUpdated, time.Millisecond)
	m.RunFinished(reconcile.Report{}, nil)
	m.ObserveRequest("search", time.Millisecond, nil)
}
