package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"animesync/internal/config"
	"animesync/internal/daemon"
	"animesync/internal/logging"
	"animesync/internal/server"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Ready, when set, is called with the daemon once it is serving.
	Ready func(*daemon.Daemon)
}

// Run starts the animesync daemon and blocks until ctx ends or the process
// receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", cfg.LogFilePath()},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logConfigSnapshot(logger, cfg)
	pidPath := filepath.Join(cfg.Paths.DataDir, "animesync.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	components, err := Build(signalCtx, cfg, logger)
	if err != nil {
		logger.Error("build services", logging.Error(err))
		return err
	}

	srv, err := server.New(components.Controller, components.Store, server.Options{
		Bind:           cfg.Server.Bind,
		Token:          cfg.Server.Token,
		StreamInterval: cfg.StreamInterval(),
		Metrics:        components.Metrics.Handler(),
		Logger:         logger,
	})
	if err != nil {
		_ = components.Close()
		return fmt.Errorf("create api server: %w", err)
	}

	d, err := daemon.New(cfg, logger, components.Store, components.Controller, srv)
	if err != nil {
		_ = components.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the lock file, bind address and store dsn"),
			logging.String(logging.FieldImpact, "no reconciliation can be triggered"),
		)
		return err
	}
	if opts.Ready != nil {
		opts.Ready(d)
	}

	<-signalCtx.Done()
	logger.Info("animesync daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("store_backend", cfg.Store.Backend),
		logging.String("shikimori_url", cfg.Shikimori.BaseURL),
		logging.Int("search_limit", cfg.Shikimori.SearchLimit),
		logging.Int("search_cache_size", cfg.Shikimori.CacheSize),
		logging.Duration("title_delay", cfg.TitleDelay()),
		logging.Duration("record_delay", cfg.RecordDelay()),
		logging.Bool("token_present", strings.TrimSpace(cfg.Server.Token) != ""),
	)
}
