package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"animesync/internal/catalog"
	"animesync/internal/config"
	"animesync/internal/metrics"
	"animesync/internal/notifications"
	"animesync/internal/ratelimit"
	"animesync/internal/reconcile"
	"animesync/internal/shikimori"
)

// Components are the wired services shared by the daemon and one-shot runs.
type Components struct {
	Store      catalog.Store
	Client     *shikimori.Client
	Metrics    *metrics.Metrics
	Notifier   notifications.Service
	Controller *reconcile.Controller
}

// Build opens the configured store and wires the remote client, metrics,
// notifications and the controller around it. Callers own Close.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	store, err := catalog.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog store: %w", err)
	}

	m := metrics.New()
	client, err := shikimori.New(cfg.Shikimori.BaseURL, cfg.Shikimori.UserAgent,
		shikimori.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
		shikimori.WithSearchLimit(cfg.Shikimori.SearchLimit),
		shikimori.WithSearchCache(cfg.Shikimori.CacheSize, cfg.CacheTTL()),
		shikimori.WithObserver(m.ObserveRequest),
	)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create shikimori client: %w", err)
	}

	opts := []reconcile.Option{
		reconcile.WithDelay(ratelimit.New(cfg.TitleDelay(), cfg.RecordDelay())),
		reconcile.WithLogger(logger),
		reconcile.WithRecorder(m),
	}
	notifier := notifications.NewService(cfg)
	if notifications.Enabled(notifier) {
		opts = append(opts, reconcile.WithRecorder(notifications.NewRecorder(notifier, logger, cfg.Notifications.OnStart)))
	}

	controller := reconcile.New(store, client, client, opts...)
	return &Components{Store: store, Client: client, Metrics: m, Notifier: notifier, Controller: controller}, nil
}

// Close stops any active run and closes the store.
func (c *Components) Close() error {
	if c == nil {
		return nil
	}
	if c.Controller != nil {
		c.Controller.Close()
	}
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}
