package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"clarion/internal/config"
)

func TestLoadDefaultsExpandPathsAndEnvScratch(t *testing.T) {
	tempHome := t.TempDir()
	scratch := filepath.Join(tempHome, "scratch")
	t.Setenv("HOME", tempHome)
	t.Setenv("HOST", "")
	t.Setenv("PORT", "")
	t.Setenv("CLARION_SCRATCH_DIR", scratch)
	t.Setenv("CLARION_NTFY_TOPIC", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Fatalf("unexpected host: %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 8000 {
		t.Fatalf("unexpected port: %d", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadMiB != config.DefaultMaxUploadMiB {
		t.Fatalf("unexpected upload limit: %d", cfg.Server.MaxUploadMiB)
	}
	if cfg.Paths.ScratchDir != scratch {
		t.Fatalf("expected scratch dir from env, got %q", cfg.Paths.ScratchDir)
	}
	wantLogDir := filepath.Join(tempHome, ".local", "share", "clarion", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	if cfg.History.Path != filepath.Join(wantLogDir, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.History.Path)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if cfg.Notifications.Completions {
		t.Fatal("expected completion notifications disabled by default")
	}
	if !cfg.Notifications.Failures {
		t.Fatal("expected failure notifications enabled by default")
	}
	if cfg.Tools.FFmpegBinary != "ffmpeg" || cfg.Tools.FFprobeBinary != "ffprobe" {
		t.Fatalf("unexpected tool binaries: %q %q", cfg.Tools.FFmpegBinary, cfg.Tools.FFprobeBinary)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %q %q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if cfg.ListenAddr() != "0.0.0.0:8000" {
		t.Fatalf("unexpected listen addr: %q", cfg.ListenAddr())
	}
	if cfg.MaxUploadBytes() != int64(config.DefaultMaxUploadMiB)<<20 {
		t.Fatalf("unexpected upload byte limit: %d", cfg.MaxUploadBytes())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.ScratchDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "clarion.toml")
	t.Setenv("HOST", "")
	t.Setenv("PORT", "")
	t.Setenv("CLARION_SCRATCH_DIR", "")
	t.Setenv("CLARION_NTFY_TOPIC", "")

	type payload struct {
		Server struct {
			Host string `toml:"host"`
			Port int    `toml:"port"`
		} `toml:"server"`
		Tools struct {
			TransformTimeout int `toml:"transform_timeout"`
		} `toml:"tools"`
		Notifications struct {
			NtfyTopic string `toml:"ntfy_topic"`
		} `toml:"notifications"`
	}
	custom := payload{}
	custom.Server.Host = "127.0.0.1"
	custom.Server.Port = 9100
	custom.Tools.TransformTimeout = 120
	custom.Notifications.NtfyTopic = "clarion-jobs"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Fatalf("expected host from file, got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 9100 {
		t.Fatalf("expected port from file, got %d", cfg.Server.Port)
	}
	if cfg.Tools.TransformTimeout != 120 {
		t.Fatalf("expected transform timeout from file, got %d", cfg.Tools.TransformTimeout)
	}
	if cfg.Notifications.NtfyTopic != "clarion-jobs" {
		t.Fatalf("expected ntfy topic from file, got %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Tools.ProbeTimeout != config.DefaultProbeTimeoutSeconds {
		t.Fatalf("expected probe timeout default, got %d", cfg.Tools.ProbeTimeout)
	}
}

func TestEnvVarsOverrideConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "clarion.toml")

	type payload struct {
		Server struct {
			Host string `toml:"host"`
			Port int    `toml:"port"`
		} `toml:"server"`
		Paths struct {
			ScratchDir string `toml:"scratch_dir"`
		} `toml:"paths"`
		Notifications struct {
			NtfyTopic string `toml:"ntfy_topic"`
		} `toml:"notifications"`
	}
	custom := payload{}
	custom.Server.Host = "10.0.0.5"
	custom.Server.Port = 9000
	custom.Paths.ScratchDir = filepath.Join(tempDir, "file-scratch")
	custom.Notifications.NtfyTopic = "file-topic"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	envScratch := filepath.Join(tempDir, "env-scratch")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8080")
	t.Setenv("CLARION_SCRATCH_DIR", envScratch)
	t.Setenv("CLARION_NTFY_TOPIC", "env-topic")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("expected host from env, got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port from env, got %d", cfg.Server.Port)
	}
	if cfg.Paths.ScratchDir != envScratch {
		t.Errorf("expected scratch dir from env, got %q", cfg.Paths.ScratchDir)
	}
	if cfg.Notifications.NtfyTopic != "env-topic" {
		t.Errorf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestLoadRejectsMalformedPortEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PORT", "not-a-number")

	if _, _, _, err := config.Load(""); err == nil {
		t.Fatal("expected error for malformed PORT")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	for _, want := range []string{"[server]", "[tools]", "scratch_dir", "ntfy_topic"} {
		if !strings.Contains(string(contents), want) {
			t.Fatalf("sample config missing %q: %s", want, contents)
		}
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	valid := func() config.Config {
		cfg := config.Default()
		cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
		return cfg
	}

	cfg := valid()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}

	cfg = valid()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for port 0")
	}

	cfg = valid()
	cfg.Server.MaxUploadMiB = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive upload limit")
	}

	cfg = valid()
	cfg.Tools.TransformTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive transform timeout")
	}

	cfg = valid()
	cfg.Paths.ScratchDir = "  "
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for blank scratch dir")
	}

	cfg = valid()
	cfg.Paths.ScratchMaxAgeHours = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative scratch max age")
	}

	cfg = valid()
	cfg.History.MaxEntries = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive history max entries")
	}

	cfg = valid()
	cfg.Notifications.NtfyTopic = "jobs"
	cfg.Notifications.RequestTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive notification timeout")
	}

	cfg = valid()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown logging format")
	}

	cfg = valid()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown logging level")
	}
}
