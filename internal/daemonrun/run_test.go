package daemonrun_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"animesync/internal/api"
	"animesync/internal/catalog"
	"animesync/internal/config"
	"animesync/internal/daemon"
	"animesync/internal/daemonrun"
	"animesync/internal/logging"
	"animesync/internal/testsupport"
)

func newShikimoriStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Query string `json:"query"`
		}
		_ = json.Unmarshal(body, &req)
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(req.Query, "ids:") {
			_, _ = io.WriteString(w, `{"data":{"animes":[{"id":"1","score":8.75,"episodes":26,"status":"released",`+
				`"url":"https://shikimori.one/animes/1","genres":[{"name":"Action","russian":"Экшен"}],`+
				`"studios":[{"name":"Sunrise"}],"externalLinks":[]}]}}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"animes":[{"id":"1","name":"Cowboy Bebop","russian":"Ковбой Бибоп"}]}}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func seed(t *testing.T, cfg *config.Config, titles ...string) {
	t.Helper()
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store, err := catalog.OpenSQLite(context.Background(), cfg.SQLitePath())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()
	testsupport.SeedRecords(t, store, titles)
}

func TestBuildWiresClientMetricsAndStore(t *testing.T) {
	stub := newShikimoriStub(t)
	cfg := testsupport.NewConfig(t, testsupport.WithShikimoriURL(stub.URL))
	seed(t, cfg, "Cowboy Bebop")

	components, err := daemonrun.Build(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer components.Close()

	report, err := components.Controller.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if report.Stats.Updated != 1 {
		t.Fatalf("expected one update, got %+v", report.Stats)
	}

	records, err := components.Store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 || records[0].Score == nil || *records[0].Score != 8.75 || records[0].Status != catalog.StatusReleased {
		t.Fatalf("unexpected stored record %+v", records)
	}

	if got := testutil.ToFloat64(components.Metrics.RequestsTotal.WithLabelValues("search", "ok")); got != 1 {
		t.Fatalf("expected one search request metric, got %v", got)
	}
	if got := testutil.ToFloat64(components.Metrics.RunsTotal.WithLabelValues("completed")); got != 1 {
		t.Fatalf("expected one completed run metric, got %v", got)
	}
}

func TestBuildRejectsUnknownBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Store.Backend = "redis"
	if _, err := daemonrun.Build(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestRunServesUntilCancelled(t *testing.T) {
	stub := newShikimoriStub(t)
	cfg := testsupport.NewConfig(t, testsupport.WithShikimoriURL(stub.URL), testsupport.WithToken("secret"))
	cfg.Logging.Level = "error"
	seed(t, cfg, "Ковбой Бибоп")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan *daemon.Daemon, 1)
	result := make(chan error, 1)
	go func() {
		result <- daemonrun.Run(ctx, cfg, daemonrun.Options{Ready: func(d *daemon.Daemon) { ready <- d }})
	}()

	var d *daemon.Daemon
	select {
	case d = <-ready:
	case err := <-result:
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not become ready")
	}

	client, err := api.NewClient(d.Status().Address, "secret")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	report, err := client.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if report.Stats.Updated != 1 || report.Stats.Total != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	cancel()
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
