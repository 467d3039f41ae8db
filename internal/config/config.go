package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Store backends understood by the catalog package.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Server contains the HTTP control surface settings.
type Server struct {
	Bind                 string `toml:"bind"`
	Token                string `toml:"token"`
	StreamIntervalMillis int    `toml:"stream_interval_ms"`
}

// Shikimori contains configuration for the Shikimori GraphQL API.
type Shikimori struct {
	BaseURL               string `toml:"base_url"`
	UserAgent             string `toml:"user_agent"`
	SearchLimit           int    `toml:"search_limit"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	CacheSize             int    `toml:"cache_size"`
	CacheTTLSeconds       int    `toml:"cache_ttl_seconds"`
}

// Sync contains pacing for the reconciliation job.
type Sync struct {
	// TitleDelayMillis separates searches for different titles of one record.
	TitleDelayMillis int `toml:"title_delay_ms"`
	// RecordDelayMillis separates consecutive records.
	RecordDelayMillis int `toml:"record_delay_ms"`
}

// Store selects and configures the catalog backend.
type Store struct {
	Backend    string `toml:"backend"`
	DSN        string `toml:"dsn"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications configures ntfy delivery of run events. An empty topic
// disables notifications.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	OnStart               bool   `toml:"on_start"`
}

// Config encapsulates all configuration values for animesync.
//
// Configuration sections by subsystem:
//   - Paths: catalog and log directories
//   - Server: HTTP bind address, bearer token, log stream cadence
//   - Shikimori: remote metadata service endpoint and client tuning
//   - Sync: delays between remote calls
//   - Store: catalog backend (sqlite, postgres, mongo)
//   - Logging: log format and level
//   - Notifications: ntfy topic for run events
type Config struct {
	Paths     Paths     `toml:"paths"`
	Server    Server    `toml:"server"`
	Shikimori Shikimori `toml:"shikimori"`
	Sync      Sync      `toml:"sync"`
	Store     Store     `toml:"store"`
	Logging   Logging   `toml:"logging"`

	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/animesync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("animesync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SQLitePath is the catalog database file used by the sqlite backend.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.Paths.DataDir, "catalog.db")
}

// LockPath is the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "animesync.lock")
}

// LogFilePath is the daemon log file.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "animesync.log")
}

// TitleDelay returns the pause between candidate title searches.
func (c *Config) TitleDelay() time.Duration {
	return time.Duration(c.Sync.TitleDelayMillis) * time.Millisecond
}

// RecordDelay returns the pause between records.
func (c *Config) RecordDelay() time.Duration {
	return time.Duration(c.Sync.RecordDelayMillis) * time.Millisecond
}

// StreamInterval returns the log stream push cadence.
func (c *Config) StreamInterval() time.Duration {
	return time.Duration(c.Server.StreamIntervalMillis) * time.Millisecond
}

// RequestTimeout returns the Shikimori HTTP client timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Shikimori.RequestTimeoutSeconds) * time.Second
}

// CacheTTL returns the lifetime of cached search responses.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Shikimori.CacheTTLSeconds) * time.Second
}

// NotifyTimeout returns the ntfy request timeout.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
