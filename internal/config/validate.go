package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateShikimori(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be a full topic URL, got %q", c.Notifications.NtfyTopic)
	}
	return nil
}

func (c *Config) validateShikimori() error {
	parsed, err := url.Parse(c.Shikimori.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("shikimori.base_url must be an absolute URL, got %q", c.Shikimori.BaseURL)
	}
	if c.Shikimori.UserAgent == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/animesync/config.toml"
		}
		return fmt.Errorf("shikimori.user_agent is required. Set SHIKIMORI_USER_AGENT env var or edit %s (create with 'animesync config init')", defaultPath)
	}
	if c.Shikimori.SearchLimit > 50 {
		return errors.New("shikimori.search_limit must be at most 50")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case BackendSQLite:
		return nil
	case BackendPostgres, BackendMongo:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set when store.backend is %q (or set ANIMESYNC_DATABASE_URL)", c.Store.Backend)
		}
		return nil
	default:
		return fmt.Errorf("store.backend: unsupported value %q (want sqlite, postgres, or mongo)", c.Store.Backend)
	}
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
