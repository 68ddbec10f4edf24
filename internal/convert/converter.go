// Package convert executes the conversion step for claimed jobs.
//
// The current engine is a placeholder: it waits the configured build delay
// and duplicates the input archive byte for byte to the output location.
// Execute is the seam a real conversion engine plugs into; its contract is
// to consume the job's source file plus target and either fill the job's
// output fields or return a descriptive error.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"appforge/internal/config"
	"appforge/internal/fileutil"
	"appforge/internal/logging"
	"appforge/internal/queue"
)

// Converter transforms an uploaded archive into the requested target format.
type Converter struct {
	cfg    *config.Config
	store  *queue.Store
	logger *slog.Logger
	delay  time.Duration
}

// NewConverter constructs a converter using the configured build delay.
func NewConverter(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Converter {
	return &Converter{
		cfg:    cfg,
		store:  store,
		logger: logging.NewComponentLogger(logger, "converter"),
		delay:  time.Duration(cfg.Workflow.BuildDelayMS) * time.Millisecond,
	}
}

// Execute resolves the job's source file, performs the transformation, and
// fills the job's output fields on success. The job must already be in the
// processing state; persistence is the caller's responsibility.
func (c *Converter) Execute(ctx context.Context, job *queue.Job) error {
	file, err := c.store.FileByID(ctx, job.FileID)
	if err != nil {
		return fmt.Errorf("resolve source file: %w", err)
	}
	if file == nil {
		return fmt.Errorf("source file %s not found in registry", job.FileID)
	}
	if _, err := os.Stat(file.StoragePath); err != nil {
		return fmt.Errorf("source archive missing on disk: %w", err)
	}

	// Simulated build latency. A real engine replaces this wait and the
	// copy below with the actual packaging work.
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.delay):
	}

	outputPath := filepath.Join(c.cfg.OutputDir(), job.ID+job.Target.Extension())
	if err := fileutil.CopyFileVerified(file.StoragePath, outputPath); err != nil {
		return fmt.Errorf("write output artifact: %w", err)
	}

	outputName := DisplayName(file.OriginalName, job.Target)
	job.SetDone(outputPath, outputName)

	c.logger.Info("conversion finished",
		logging.String("job_id", job.ID),
		logging.String("target", string(job.Target)),
		logging.String("output_name", outputName),
		logging.Int64("size_bytes", file.SizeBytes),
	)
	return nil
}

// DisplayName derives the user-facing output filename from the original
// upload name and the target's conventional extension. The client-supplied
// name is sanitized and never used for storage paths.
func DisplayName(originalName string, target queue.Target) string {
	base := fileutil.SafeBaseName(originalName)
	if base == "" {
		base = "app"
	}
	return base + target.Extension()
}
