package config

// Default configuration values.
const (
	DefaultHost                    = "0.0.0.0"
	DefaultPort                    = 8000
	DefaultMaxUploadMiB            = 512
	DefaultShutdownTimeoutSeconds  = 10
	DefaultScratchDir              = "/tmp/clarion"
	DefaultScratchMaxAgeHours      = 24
	DefaultLogDir                  = "~/.local/share/clarion/logs"
	DefaultFFmpegBinary            = "ffmpeg"
	DefaultFFprobeBinary           = "ffprobe"
	DefaultProbeTimeoutSeconds     = 30
	DefaultTransformTimeoutSeconds = 600
	DefaultHistoryMaxEntries       = 500
	DefaultNotifyRequestTimeout    = 10
	DefaultLogFormat               = "console"
	DefaultLogLevel                = "info"
)

// Default returns the baseline configuration before file and
// environment overrides are applied.
func Default() Config {
	return Config{
		Server: Server{
			Host:            DefaultHost,
			Port:            DefaultPort,
			MaxUploadMiB:    DefaultMaxUploadMiB,
			ShutdownTimeout: DefaultShutdownTimeoutSeconds,
		},
		Paths: Paths{
			ScratchDir:         DefaultScratchDir,
			ScratchMaxAgeHours: DefaultScratchMaxAgeHours,
			LogDir:             DefaultLogDir,
		},
		Tools: Tools{
			FFmpegBinary:     DefaultFFmpegBinary,
			FFprobeBinary:    DefaultFFprobeBinary,
			ProbeTimeout:     DefaultProbeTimeoutSeconds,
			TransformTimeout: DefaultTransformTimeoutSeconds,
		},
		History: History{
			Enabled:    true,
			MaxEntries: DefaultHistoryMaxEntries,
		},
		Notifications: Notifications{
			RequestTimeout: DefaultNotifyRequestTimeout,
			Failures:       true,
		},
		Logging: Logging{
			Format: DefaultLogFormat,
			Level:  DefaultLogLevel,
		},
	}
}
