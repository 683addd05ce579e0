package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// normalize applies environment overrides, fills derived defaults, and
// expands user paths. It runs after the config file is decoded and
// before validation.
func (c *Config) normalize() error {
	if err := c.normalizeServer(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeServer() error {
	if host, ok := os.LookupEnv("HOST"); ok && strings.TrimSpace(host) != "" {
		c.Server.Host = strings.TrimSpace(host)
	}
	if port, ok := os.LookupEnv("PORT"); ok && strings.TrimSpace(port) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(port))
		if err != nil {
			return fmt.Errorf("parse PORT environment variable: %w", err)
		}
		c.Server.Port = parsed
	}
	return nil
}

func (c *Config) normalizePaths() error {
	if dir, ok := os.LookupEnv("CLARION_SCRATCH_DIR"); ok && strings.TrimSpace(dir) != "" {
		c.Paths.ScratchDir = strings.TrimSpace(dir)
	}
	scratch, err := expandPath(c.Paths.ScratchDir)
	if err != nil {
		return fmt.Errorf("expand scratch directory: %w", err)
	}
	c.Paths.ScratchDir = scratch

	logDir, err := expandPath(c.Paths.LogDir)
	if err != nil {
		return fmt.Errorf("expand log directory: %w", err)
	}
	c.Paths.LogDir = logDir
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpegBinary = strings.TrimSpace(c.Tools.FFmpegBinary)
	if c.Tools.FFmpegBinary == "" {
		c.Tools.FFmpegBinary = DefaultFFmpegBinary
	}
	c.Tools.FFprobeBinary = strings.TrimSpace(c.Tools.FFprobeBinary)
	if c.Tools.FFprobeBinary == "" {
		c.Tools.FFprobeBinary = DefaultFFprobeBinary
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = filepath.Join(c.Paths.LogDir, "history.db")
		return nil
	}
	path, err := expandPath(c.History.Path)
	if err != nil {
		return fmt.Errorf("expand history path: %w", err)
	}
	c.History.Path = path
	return nil
}

func (c *Config) normalizeNotifications() {
	if topic, ok := os.LookupEnv("CLARION_NTFY_TOPIC"); ok && strings.TrimSpace(topic) != "" {
		c.Notifications.NtfyTopic = strings.TrimSpace(topic)
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}
