package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"photoscan/internal/config"
	"photoscan/internal/identity"
	"photoscan/internal/logging"
	"photoscan/internal/scanner"
	"photoscan/internal/store"
)

// Daemon coordinates the scan controller and API server and enforces
// single-instance execution through a lock file.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *store.Store
	controller *scanner.Controller
	registry   *identity.Registry
	hub        *logging.StreamHub

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	runCtx  context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	Scan         scanner.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, s *store.Store, controller *scanner.Controller, registry *identity.Registry, hub *logging.StreamHub, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || s == nil || controller == nil || registry == nil {
		return nil, errors.New("daemon requires config, store, controller, and registry")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockFilePath()
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      s,
		controller: controller,
		registry:   registry,
		hub:        hub,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and brings up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another photoscan daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.runCtx = runCtx
	d.cancel = cancel
	if err := d.api.start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.runCtx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("photoscan daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API server, waits for any in-flight scan to reach
// its checkpoint, and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.controller.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("photoscan daemon stopped")
}

// Close releases resources held by the daemon.
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
		PID:          os.Getpid(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		Scan:         d.controller.Status(),
	}
}

// LogStream exposes the bounded log buffer for API tailing.
func (d *Daemon) LogStream() *logging.StreamHub {
	return d.hub
}

// APIAddr returns the listener address the HTTP API is serving on, or
// empty before Start. Useful when the configured bind uses port 0.
func (d *Daemon) APIAddr() string {
	if d.api == nil || d.api.listener == nil {
		return ""
	}
	return d.api.listener.Addr().String()
}

// scanContext returns the context scan jobs run under, so an HTTP request
// ending never tears down a scan but daemon shutdown does.
func (d *Daemon) scanContext() context.Context {
	if d.runCtx != nil {
		return d.runCtx
	}
	return context.Background()
}
