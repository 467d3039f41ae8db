package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"animesync/internal/catalog"
	"animesync/internal/config"
	"animesync/internal/daemon"
	"animesync/internal/daemonrun"
	"animesync/internal/logging"
	"animesync/internal/server"
	"animesync/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	daemon     *daemon.Daemon
}

// setupCLITestEnv writes a config pointing at a stub Shikimori endpoint and
// a closed API port. Call startDaemon to serve the API.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	stub := newShikimoriStub(t)
	cfg := testsupport.NewConfig(t, testsupport.WithShikimoriURL(stub.URL))
	cfg.Server.Bind = closedAddress(t)
	cfg.Logging.Level = "error"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: filepath.Join(testsupport.BaseDir(cfg), "config.toml"),
	}
	env.writeConfig(t)
	return env
}

func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	data, err := toml.Marshal(e.cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(e.configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) startDaemon(t *testing.T) {
	t.Helper()
	e.cfg.Server.Bind = "127.0.0.1:0"
	components, err := daemonrun.Build(context.Background(), e.cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemonrun.Build: %v", err)
	}
	srv, err := server.New(components.Controller, components.Store, server.Options{
		Bind:           e.cfg.Server.Bind,
		StreamInterval: e.cfg.StreamInterval(),
	})
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	d, err := daemon.New(e.cfg, logging.NewNop(), components.Store, components.Controller, srv)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon start: %v", err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})
	e.daemon = d
	e.cfg.Server.Bind = d.Status().Address
	e.writeConfig(t)
}

func (e *cliTestEnv) seed(t *testing.T, titles ...[]string) {
	t.Helper()
	store, err := catalog.OpenSQLite(context.Background(), e.cfg.SQLitePath())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer store.Close()
	testsupport.SeedRecords(t, store, titles...)
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func newShikimoriStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		_ = json.Unmarshal(body, &req)
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(req.Query, "ids:") {
			_, _ = io.WriteString(w, `{"data":{"animes":[{"id":"1","score":8.75,"episodes":26,"status":"released",`+
				`"url":"https://shikimori.one/animes/1","genres":[],"studios":[{"name":"Sunrise"}],"externalLinks":[]}]}}`)
			return
		}
		if req.Variables["search"] == "Cowboy Bebop" {
			_, _ = io.WriteString(w, `{"data":{"animes":[{"id":"1","name":"Cowboy Bebop","russian":"Ковбой Бибоп"}]}}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"animes":[]}}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func closedAddress(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	_ = listener.Close()
	return addr
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
