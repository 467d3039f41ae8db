package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeShikimori()
	c.normalizeSync()
	c.normalizeStore()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	c.Server.Token = strings.TrimSpace(c.Server.Token)
	if c.Server.Token == "" {
		if value, ok := os.LookupEnv("ANIMESYNC_API_TOKEN"); ok {
			c.Server.Token = strings.TrimSpace(value)
		}
	}
	if c.Server.StreamIntervalMillis <= 0 {
		c.Server.StreamIntervalMillis = defaultStreamIntervalMillis
	}
}

func (c *Config) normalizeShikimori() {
	c.Shikimori.BaseURL = strings.TrimSpace(c.Shikimori.BaseURL)
	if c.Shikimori.BaseURL == "" {
		c.Shikimori.BaseURL = defaultShikimoriBaseURL
	}
	c.Shikimori.UserAgent = strings.TrimSpace(c.Shikimori.UserAgent)
	if value, ok := os.LookupEnv("SHIKIMORI_USER_AGENT"); ok && strings.TrimSpace(value) != "" {
		c.Shikimori.UserAgent = strings.TrimSpace(value)
	}
	if c.Shikimori.SearchLimit <= 0 {
		c.Shikimori.SearchLimit = defaultSearchLimit
	}
	if c.Shikimori.RequestTimeoutSeconds <= 0 {
		c.Shikimori.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
	if c.Shikimori.CacheSize < 0 {
		c.Shikimori.CacheSize = 0
	}
	if c.Shikimori.CacheTTLSeconds < 0 {
		c.Shikimori.CacheTTLSeconds = 0
	}
}

func (c *Config) normalizeSync() {
	if c.Sync.TitleDelayMillis < 0 {
		c.Sync.TitleDelayMillis = 0
	}
	if c.Sync.RecordDelayMillis < 0 {
		c.Sync.RecordDelayMillis = 0
	}
}

func (c *Config) normalizeStore() {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	switch c.Store.Backend {
	case "":
		c.Store.Backend = defaultStoreBackend
	case "sqlite3":
		c.Store.Backend = BackendSQLite
	case "postgresql", "pgx":
		c.Store.Backend = BackendPostgres
	case "mongodb":
		c.Store.Backend = BackendMongo
	}
	c.Store.DSN = strings.TrimSpace(c.Store.DSN)
	if c.Store.DSN == "" {
		if value, ok := os.LookupEnv("ANIMESYNC_DATABASE_URL"); ok {
			c.Store.DSN = strings.TrimSpace(value)
		}
	}
	c.Store.Database = strings.TrimSpace(c.Store.Database)
	if c.Store.Database == "" {
		c.Store.Database = defaultMongoDatabase
	}
	c.Store.Collection = strings.TrimSpace(c.Store.Collection)
	if c.Store.Collection == "" {
		c.Store.Collection = defaultMongoCollection
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("ANIMESYNC_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeoutSeconds
	}
}
