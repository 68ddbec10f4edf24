package config

const (
	defaultBind                 = "0.0.0.0:8090"
	defaultMaxUploadMB          = 50
	defaultDataDir              = "~/.local/share/appforge"
	defaultLogDir               = "~/.local/share/appforge/logs"
	defaultQueuePollIntervalMS  = 500
	defaultErrorRetryIntervalMS = 2000
	defaultBuildDelayMS         = 800
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:        defaultBind,
			MaxUploadMB: defaultMaxUploadMB,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Workflow: Workflow{
			QueuePollIntervalMS:  defaultQueuePollIntervalMS,
			ErrorRetryIntervalMS: defaultErrorRetryIntervalMS,
			BuildDelayMS:         defaultBuildDelayMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
