package testsupport

import (
	"path/filepath"
	"testing"

	"animesync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Remote pacing is disabled so reconciliation tests run without sleeping.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Server.StreamIntervalMillis = 10
	cfgVal.Shikimori.UserAgent = "animesync-test"
	cfgVal.Shikimori.CacheSize = 0
	cfgVal.Sync.TitleDelayMillis = 0
	cfgVal.Sync.RecordDelayMillis = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithShikimoriURL points the client at a test endpoint.
func WithShikimoriURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Shikimori.BaseURL = url
	}
}

// WithToken enables bearer authentication on the HTTP surface.
func WithToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.Token = token
	}
}

// WithDelays sets the title and record pacing in milliseconds.
func WithDelays(titleMillis, recordMillis int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.TitleDelayMillis = titleMillis
		b.cfg.Sync.RecordDelayMillis = recordMillis
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
