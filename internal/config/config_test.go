package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"animesync/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	oldwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldwd) })

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "animesync")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.SQLitePath() != filepath.Join(wantData, "catalog.db") {
		t.Fatalf("unexpected sqlite path: %q", cfg.SQLitePath())
	}
	if cfg.Server.Bind != "127.0.0.1:7488" {
		t.Fatalf("unexpected bind: %q", cfg.Server.Bind)
	}
	if cfg.Store.Backend != config.BackendSQLite {
		t.Fatalf("expected sqlite backend by default, got %q", cfg.Store.Backend)
	}
	if cfg.TitleDelay() != 500*time.Millisecond {
		t.Fatalf("unexpected title delay: %v", cfg.TitleDelay())
	}
	if cfg.RecordDelay() != 1500*time.Millisecond {
		t.Fatalf("unexpected record delay: %v", cfg.RecordDelay())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "animesync.toml")

	type payload struct {
		Shikimori struct {
			BaseURL   string `toml:"base_url"`
			UserAgent string `toml:"user_agent"`
		} `toml:"shikimori"`
		Sync struct {
			TitleDelayMillis  int `toml:"title_delay_ms"`
			RecordDelayMillis int `toml:"record_delay_ms"`
		} `toml:"sync"`
		Store struct {
			Backend string `toml:"backend"`
			DSN     string `toml:"dsn"`
		} `toml:"store"`
	}
	custom := payload{}
	custom.Shikimori.BaseURL = "https://example.com/api/graphql"
	custom.Shikimori.UserAgent = "tester"
	custom.Sync.TitleDelayMillis = 10
	custom.Sync.RecordDelayMillis = 20
	custom.Store.Backend = "PostgreSQL"
	custom.Store.DSN = "postgres://localhost/anime"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom path to be used, got %q (exists=%v)", resolved, exists)
	}
	if cfg.Shikimori.BaseURL != "https://example.com/api/graphql" {
		t.Fatalf("unexpected base url: %q", cfg.Shikimori.BaseURL)
	}
	if cfg.Shikimori.UserAgent != "tester" {
		t.Fatalf("unexpected user agent: %q", cfg.Shikimori.UserAgent)
	}
	if cfg.TitleDelay() != 10*time.Millisecond || cfg.RecordDelay() != 20*time.Millisecond {
		t.Fatalf("unexpected delays: %v %v", cfg.TitleDelay(), cfg.RecordDelay())
	}
	if cfg.Store.Backend != config.BackendPostgres {
		t.Fatalf("expected backend alias to normalize to postgres, got %q", cfg.Store.Backend)
	}
	if cfg.Shikimori.SearchLimit != config.Default().Shikimori.SearchLimit {
		t.Fatalf("expected default search limit, got %d", cfg.Shikimori.SearchLimit)
	}
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANIMESYNC_API_TOKEN", " secret ")
	t.Setenv("ANIMESYNC_DATABASE_URL", "mongodb://localhost:27017")
	t.Setenv("SHIKIMORI_USER_AGENT", "env-agent")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[store]\nbackend = \"mongodb\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Token != "secret" {
		t.Fatalf("expected token from env, got %q", cfg.Server.Token)
	}
	if cfg.Store.Backend != config.BackendMongo {
		t.Fatalf("expected mongo backend, got %q", cfg.Store.Backend)
	}
	if cfg.Store.DSN != "mongodb://localhost:27017" {
		t.Fatalf("expected dsn from env, got %q", cfg.Store.DSN)
	}
	if cfg.Shikimori.UserAgent != "env-agent" {
		t.Fatalf("expected user agent from env, got %q", cfg.Shikimori.UserAgent)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "unknown backend",
			mutate: func(c *config.Config) { c.Store.Backend = "redis" },
			want:   "store.backend",
		},
		{
			name:   "postgres without dsn",
			mutate: func(c *config.Config) { c.Store.Backend = config.BackendPostgres },
			want:   "store.dsn",
		},
		{
			name:   "missing user agent",
			mutate: func(c *config.Config) { c.Shikimori.UserAgent = "" },
			want:   "shikimori.user_agent",
		},
		{
			name:   "relative base url",
			mutate: func(c *config.Config) { c.Shikimori.BaseURL = "/api/graphql" },
			want:   "shikimori.base_url",
		},
		{
			name:   "bad log level",
			mutate: func(c *config.Config) { c.Logging.Level = "loud" },
			want:   "logging.level",
		},
		{
			name:   "relative ntfy topic",
			mutate: func(c *config.Config) { c.Notifications.NtfyTopic = "animesync" },
			want:   "notifications.ntfy_topic",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample config to load, exists=%v err=%v", exists, err)
	}
}
