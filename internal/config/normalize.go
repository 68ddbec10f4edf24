package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.Server.Bind = strings.TrimSpace(c.Server.Bind)

	origins := make([]string, 0, len(c.Server.AllowedOrigins))
	for _, origin := range c.Server.AllowedOrigins {
		trimmed := strings.TrimRight(strings.TrimSpace(origin), "/")
		if trimmed == "" {
			continue
		}
		origins = append(origins, trimmed)
	}
	c.Server.AllowedOrigins = origins

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// Validate checks configuration invariants after normalization.
func (c *Config) Validate() error {
	if c.Server.Bind == "" {
		return fmt.Errorf("server.bind must not be empty")
	}
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind: %w", err)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Paths.DataDir == "" {
		return fmt.Errorf("paths.data_dir must not be empty")
	}
	if c.Workflow.QueuePollIntervalMS <= 0 {
		return fmt.Errorf("workflow.queue_poll_interval_ms must be positive, got %d", c.Workflow.QueuePollIntervalMS)
	}
	if c.Workflow.ErrorRetryIntervalMS <= 0 {
		return fmt.Errorf("workflow.error_retry_interval_ms must be positive, got %d", c.Workflow.ErrorRetryIntervalMS)
	}
	if c.Workflow.BuildDelayMS < 0 {
		return fmt.Errorf("workflow.build_delay_ms must not be negative, got %d", c.Workflow.BuildDelayMS)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// applyEnvOverrides layers process environment settings over file values.
// PORT mirrors the hosting-platform convention of injecting only a port.
func (c *Config) applyEnvOverrides() error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		host, _, err := net.SplitHostPort(c.Server.Bind)
		if err != nil || host == "" {
			host = "0.0.0.0"
		}
		c.Server.Bind = net.JoinHostPort(host, port)
	}
	if origin := strings.TrimSpace(os.Getenv("APPFORGE_ALLOWED_ORIGIN")); origin != "" {
		c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, origin)
	}
	if raw := strings.TrimSpace(os.Getenv("APPFORGE_MAX_UPLOAD_MB")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("APPFORGE_MAX_UPLOAD_MB: %w", err)
		}
		c.Server.MaxUploadMB = value
	}
	if dir := strings.TrimSpace(os.Getenv("APPFORGE_DATA_DIR")); dir != "" {
		c.Paths.DataDir = dir
	}
	return nil
}
