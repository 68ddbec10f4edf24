package testsupport

import (
	"path/filepath"
	"testing"

	"appforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Server.Bind = "127.0.0.1:0"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Workflow.QueuePollIntervalMS = 20
	cfg.Workflow.ErrorRetryIntervalMS = 20
	cfg.Workflow.BuildDelayMS = 10

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithMaxUploadMB overrides the upload size ceiling on the test config.
func WithMaxUploadMB(mb int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Server.MaxUploadMB = mb
	}
}

// WithAllowedOrigins sets the CORS allow-list on the test config.
func WithAllowedOrigins(origins ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Server.AllowedOrigins = origins
	}
}

// WithBuildDelayMS overrides the placeholder conversion delay.
func WithBuildDelayMS(ms int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.BuildDelayMS = ms
	}
}
