// Package workflow drives queued conversion jobs to a terminal state.
//
// The manager owns the background processing loop: it claims the oldest
// queued job (the queued -> processing transition), hands it to the
// converter, and persists done or error. Job creation never blocks on
// processing; the HTTP layer enqueues and returns, and Kick wakes the loop
// so dispatch is prompt without busy polling.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"appforge/internal/config"
	"appforge/internal/convert"
	"appforge/internal/logging"
	"appforge/internal/queue"
)

// Manager coordinates background job processing.
type Manager struct {
	cfg       *config.Config
	store     *queue.Store
	logger    *slog.Logger
	converter *convert.Converter

	pollInterval  time.Duration
	errorInterval time.Duration
	kick          chan struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// StatusSummary describes manager state for health and status surfaces.
type StatusSummary struct {
	Running   bool
	JobStats  map[string]int
	LastError string
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:           cfg,
		store:         store,
		logger:        logging.NewComponentLogger(logger, "workflow-manager"),
		converter:     convert.NewConverter(cfg, store, logger),
		pollInterval:  time.Duration(cfg.Workflow.QueuePollIntervalMS) * time.Millisecond,
		errorInterval: time.Duration(cfg.Workflow.ErrorRetryIntervalMS) * time.Millisecond,
		kick:          make(chan struct{}, 1),
	}
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Kick wakes the processing loop immediately. Called after job creation so
// a freshly queued job does not wait out the poll interval.
func (m *Manager) Kick() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Running reports whether the background loop is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Status summarizes manager and queue state.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	summary := StatusSummary{Running: m.Running()}
	if err := m.lastError(); err != nil {
		summary.LastError = err.Error()
	}
	stats, err := m.store.JobStats(ctx)
	if err != nil {
		m.logger.Warn("failed to read job stats", logging.Error(err))
		return summary
	}
	summary.JobStats = make(map[string]int, len(stats))
	for status, count := range stats {
		summary.JobStats[string(status)] = count
	}
	return summary
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := m.store.ClaimQueued(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.setLastError(err)
			m.logger.Error("failed to claim next queued job", logging.Error(err))
			m.waitOrShutdown(ctx, m.errorInterval)
			continue
		}
		if job == nil {
			m.waitOrShutdown(ctx, m.pollInterval)
			continue
		}

		m.processJob(ctx, job)
	}
}

func (m *Manager) processJob(ctx context.Context, job *queue.Job) {
	m.logger.Info("job started",
		logging.String("job_id", job.ID),
		logging.String("file_id", job.FileID),
		logging.String("target", string(job.Target)),
	)
	start := time.Now()

	if err := m.converter.Execute(ctx, job); err != nil {
		m.handleJobFailure(ctx, job, err)
		return
	}

	if err := m.store.UpdateJob(ctx, job); err != nil {
		m.setLastError(err)
		m.logger.Error("failed to persist completed job", logging.String("job_id", job.ID), logging.Error(err))
		return
	}

	m.logger.Info("job completed",
		logging.String("job_id", job.ID),
		logging.String("output_name", job.OutputName),
		logging.Duration("elapsed", time.Since(start)),
	)
}

// handleJobFailure records a terminal error state on the job. Failures are
// observable only through subsequent polling, never propagated upward.
func (m *Manager) handleJobFailure(ctx context.Context, job *queue.Job, convErr error) {
	message := strings.TrimSpace(convErr.Error())
	if message == "" {
		message = "conversion failed without error detail"
	}
	job.SetFailed(message)
	m.setLastError(convErr)

	m.logger.Error("job failed",
		logging.String("job_id", job.ID),
		logging.String("target", string(job.Target)),
		logging.Error(convErr),
	)

	// Persist with a background context so shutdown still records the failure.
	persistCtx := ctx
	if persistCtx.Err() != nil {
		var cancel context.CancelFunc
		persistCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := m.store.UpdateJob(persistCtx, job); err != nil {
		m.logger.Error("failed to persist job failure", logging.String("job_id", job.ID), logging.Error(err))
	}
}

func (m *Manager) waitOrShutdown(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-m.kick:
	case <-time.After(d):
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err
}

func (m *Manager) lastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}
