package config

import (
	"fmt"
	"sort"
	"strings"
)

// Validate checks the configuration for values the daemon cannot run
// with. It returns the first problem found, with positive-number checks
// reported in a stable order.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server host must not be empty")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if err := ensurePositive(map[string]int{
		"server max_upload_mib":   c.Server.MaxUploadMiB,
		"server shutdown_timeout": c.Server.ShutdownTimeout,
		"tools probe_timeout":     c.Tools.ProbeTimeout,
		"tools transform_timeout": c.Tools.TransformTimeout,
	}); err != nil {
		return err
	}
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		return fmt.Errorf("scratch directory must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("log directory must not be empty")
	}
	if c.Paths.ScratchMaxAgeHours < 0 {
		return fmt.Errorf("scratch max age hours must not be negative, got %d", c.Paths.ScratchMaxAgeHours)
	}
	if strings.TrimSpace(c.Tools.FFmpegBinary) == "" {
		return fmt.Errorf("ffmpeg binary must not be empty")
	}
	if strings.TrimSpace(c.Tools.FFprobeBinary) == "" {
		return fmt.Errorf("ffprobe binary must not be empty")
	}
	if c.History.Enabled {
		if strings.TrimSpace(c.History.Path) == "" {
			return fmt.Errorf("history path must not be empty when history is enabled")
		}
		if c.History.MaxEntries < 1 {
			return fmt.Errorf("history max entries must be positive, got %d", c.History.MaxEntries)
		}
	}
	if c.Notifications.NtfyTopic != "" && c.Notifications.RequestTimeout < 1 {
		return fmt.Errorf("notification request timeout must be positive, got %d", c.Notifications.RequestTimeout)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositive(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] < 1 {
			return fmt.Errorf("%s must be positive, got %d", key, values[key])
		}
	}
	return nil
}
