package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"animesync/internal/catalog"
	"animesync/internal/config"
	"animesync/internal/logging"
	"animesync/internal/reconcile"
	"animesync/internal/server"
)

// Daemon owns the store, controller and HTTP server for one process.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      catalog.Store
	controller *reconcile.Controller
	server     *server.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Address      string
	StoreBackend string
	LockFilePath string
	Sync         reconcile.Status
}

// New constructs a daemon around initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, store catalog.Store, controller *reconcile.Controller, srv *server.Server) (*Daemon, error) {
	if cfg == nil || store == nil || controller == nil || srv == nil {
		return nil, errors.New("daemon requires config, store, controller, and server")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      store,
		controller: controller,
		server:     srv,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock, checks the store and starts serving.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another animesync daemon instance is already running")
	}

	if err := d.store.Ping(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("%w: %w", reconcile.ErrStoreUnreachable, err)
	}

	serveCtx, cancel := context.WithCancel(ctx)
	if err := d.server.Start(serveCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("animesync daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.server.Addr()),
		logging.String("store_backend", d.cfg.Store.Backend),
	)
	return nil
}

// Stop stops any active run, shuts down the server and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.controller.Close()
	d.server.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("animesync daemon stopped")
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Address:      d.server.Addr(),
		StoreBackend: d.cfg.Store.Backend,
		LockFilePath: d.lockPath,
		Sync:         d.controller.Status(),
	}
}
