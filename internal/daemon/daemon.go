// Package daemon composes the store, workflow manager, and API server into
// a single-instance background service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"appforge/internal/config"
	"appforge/internal/logging"
	"appforge/internal/queue"
	"appforge/internal/server"
	"appforge/internal/workflow"
)

// abandonedJobReason is recorded on non-terminal jobs found at startup.
const abandonedJobReason = "interrupted by daemon restart"

// Daemon coordinates the background services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	api      *server.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	QueueDBPath  string
	LockFilePath string
	Workflow     workflow.StatusSummary
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	manager := workflow.NewManager(cfg, store, logger)
	apiServer, err := server.New(cfg, store, manager, logger)
	if err != nil {
		return nil, fmt.Errorf("create api server: %w", err)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "appforged.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: manager,
		api:      apiServer,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, recovers abandoned jobs, and launches the
// workflow manager and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another appforge daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	if failed, err := d.store.FailAbandonedJobs(d.ctx, abandonedJobReason); err != nil {
		d.logger.Warn("abandoned job recovery failed", logging.Error(err))
	} else if failed > 0 {
		d.logger.Info("failed abandoned jobs from previous run", logging.Int64("count", failed))
	}

	if err := d.workflow.Start(d.ctx); err != nil {
		d.releaseOnStartFailure()
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.api.Start(d.ctx); err != nil {
		d.workflow.Stop()
		d.releaseOnStartFailure()
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("appforge daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.Addr()),
	)
	return nil
}

func (d *Daemon) releaseOnStartFailure() {
	_ = d.lock.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx = nil
	d.cancel = nil
}

// Stop shuts down the API server and workflow manager and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.Stop()
	d.workflow.Stop()
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx = nil
	d.cancel = nil

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("appforge daemon stopped")
}

// Close releases daemon resources. Safe to call after Stop.
func (d *Daemon) Close() {
	if d.running.Load() {
		d.Stop()
	}
}

// Addr returns the bound API address once started.
func (d *Daemon) Addr() string {
	return d.api.Addr()
}

// Status reports daemon runtime state.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		Workflow:     d.workflow.Status(ctx),
	}
}
