package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clarion/internal/config"
	"clarion/internal/logging"
	"clarion/internal/media/ffmpeg"
	"clarion/internal/media/ffprobe"
	"clarion/internal/notifications"
	"clarion/internal/pipeline"
	"clarion/internal/preset"
	"clarion/internal/testsupport"
)

const probeJSON = `{
	"streams": [
		{"index": 0, "codec_type": "audio", "codec_name": "aac", "channels": 2}
	],
	"format": {"format_name": "mov,mp4,m4a", "duration": "12.5", "size": "2048"}
}`

const probeJSONNoAudio = `{
	"streams": [
		{"index": 0, "codec_type": "video", "codec_name": "h264"}
	],
	"format": {"format_name": "mov,mp4,m4a", "duration": "12.5"}
}`

const probeJSONNoDuration = `{
	"streams": [
		{"index": 0, "codec_type": "audio", "codec_name": "aac"}
	],
	"format": {"format_name": "wav"}
}`

var fakeWAV = []byte("RIFF0000WAVEfmt fake-payload")

type probeStub struct {
	calls  int
	output []byte
	err    error
}

func (s *probeStub) Run(_ context.Context, _ string, _ []string) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.output, nil
}

type transformStub struct {
	calls  int
	err    error
	stderr string
}

func (s *transformStub) Run(_ context.Context, _ string, args []string) (string, string, error) {
	if len(args) == 1 && args[0] == "-version" {
		return "ffmpeg version 7.1\n", "", nil
	}
	s.calls++
	if s.err != nil {
		return "", s.stderr, s.err
	}
	if err := os.WriteFile(args[len(args)-1], fakeWAV, 0o644); err != nil {
		return "", "", err
	}
	return "", "", nil
}

type notifierStub struct {
	events   []notifications.Event
	payloads []notifications.Payload
}

func (n *notifierStub) Publish(_ context.Context, event notifications.Event, data notifications.Payload) error {
	n.events = append(n.events, event)
	n.payloads = append(n.payloads, data)
	return nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("stream interrupted") }

func newProcessor(t *testing.T, opts ...pipeline.Option) (*pipeline.Processor, *config.Config, *probeStub, *transformStub) {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	probe := &probeStub{output: []byte(probeJSON)}
	transform := &transformStub{}
	base := []pipeline.Option{
		pipeline.WithProbeClient(ffprobe.New(cfg.Tools.FFprobeBinary, cfg.Tools.ProbeTimeout, ffprobe.WithExecutor(probe))),
		pipeline.WithTransformClient(ffmpeg.New(cfg.Tools.FFmpegBinary, cfg.Tools.TransformTimeout, ffmpeg.WithExecutor(transform))),
	}
	proc := pipeline.New(cfg, logging.NewNop(), append(base, opts...)...)
	return proc, cfg, probe, transform
}

func scratchEntries(t *testing.T, cfg *config.Config) []string {
	t.Helper()
	entries, err := os.ReadDir(cfg.Paths.ScratchDir)
	if err != nil {
		t.Fatalf("read scratch dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestProcessTransformsUpload(t *testing.T) {
	proc, cfg, probe, transform := newProcessor(t)

	res, err := proc.Process(context.Background(), pipeline.Request{
		Source:       strings.NewReader("fake media payload"),
		OriginalName: "night recording.mp4",
		PresetKey:    "whisper",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	defer res.Cleanup()

	if probe.calls != 1 || transform.calls != 1 {
		t.Fatalf("expected one probe and one transform call, got %d/%d", probe.calls, transform.calls)
	}
	if res.JobID == "" {
		t.Fatal("expected job id")
	}
	if res.PresetKey != "whisper" || res.PresetLabel != "Whisper Mode" {
		t.Fatalf("unexpected preset metadata %q/%q", res.PresetKey, res.PresetLabel)
	}
	if res.OriginalName != "night recording.mp4" {
		t.Fatalf("unexpected original name %q", res.OriginalName)
	}
	if res.DurationSeconds != 12.5 {
		t.Fatalf("unexpected duration %v", res.DurationSeconds)
	}
	if !strings.HasPrefix(res.FilterChain, "highpass=f=30,") || !strings.HasSuffix(res.FilterChain, "volume=1.2") {
		t.Fatalf("unexpected filter chain %q", res.FilterChain)
	}
	if res.OutputBytes != int64(len(fakeWAV)) {
		t.Fatalf("unexpected output size %d", res.OutputBytes)
	}

	payload, err := os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(payload) != string(fakeWAV) {
		t.Fatalf("unexpected output payload %q", payload)
	}

	// The input scratch file is removed as soon as the job finishes.
	names := scratchEntries(t, cfg)
	if len(names) != 1 || !strings.HasPrefix(names[0], "output_") {
		t.Fatalf("expected only the output scratch file, got %v", names)
	}

	res.Cleanup()
	res.Cleanup()
	if names := scratchEntries(t, cfg); len(names) != 0 {
		t.Fatalf("expected empty scratch dir after cleanup, got %v", names)
	}
}

func TestProcessUsesDefaultPreset(t *testing.T) {
	proc, _, _, _ := newProcessor(t)

	res, err := proc.Process(context.Background(), pipeline.Request{
		Source:       strings.NewReader("fake media"),
		OriginalName: "clip.mp4",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	defer res.Cleanup()

	if res.PresetKey != preset.DefaultKey {
		t.Fatalf("expected default preset %q, got %q", preset.DefaultKey, res.PresetKey)
	}
}

func TestProcessAppliesOverrides(t *testing.T) {
	proc, _, _, _ := newProcessor(t)

	res, err := proc.Process(context.Background(), pipeline.Request{
		Source:       strings.NewReader("fake media"),
		OriginalName: "clip.mp4",
		PresetKey:    "whisper",
		Overrides: preset.Overrides{
			HighPassHz:     intPtr(150),
			NoiseReduction: floatPtr(0),
		},
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	defer res.Cleanup()

	if !strings.HasPrefix(res.FilterChain, "highpass=f=150,") {
		t.Fatalf("expected overridden highpass, got %q", res.FilterChain)
	}
	if strings.Contains(res.FilterChain, "afftdn") {
		t.Fatalf("expected zero noise reduction to drop afftdn, got %q", res.FilterChain)
	}
}

func TestProcessRejectsUnknownPreset(t *testing.T) {
	proc, cfg, probe, transform := newProcessor(t)

	_, err := proc.Process(context.Background(), pipeline.Request{
		Source:       strings.NewReader("fake media"),
		OriginalName: "clip.mp4",
		PresetKey:    "bogus",
	})
	if !errors.Is(err, pipeline.ErrUnknownPreset) {
		t.Fatalf("expected unknown preset error, got %v", err)
	}
	if kind := pipeline.KindOf(err); kind != pipeline.KindUnknownPreset {
		t.Fatalf("unexpected kind %s", kind)
	}
	if probe.calls != 1 {
		t.Fatalf("expected the probe to run before preset lookup, got %d calls", probe.calls)
	}
	if transform.calls != 0 {
		t.Fatalf("expected no transform call, got %d", transform.calls)
	}
	if names := scratchEntries(t, cfg); len(names) != 0 {
		t.Fatalf("expected clean scratch dir, got %v", names)
	}
}

func TestProcessWrapsProbeFailure(t *testing.T) {
	proc, cfg, probe, transform := newProcessor(t)
	probe.err = errors.New("ffprobe exploded")

	_, err := proc.Process(context.Background(), pipeline.Request{
		Source:       strings.NewReader("fake media"),
		OriginalName: "clip.mp4",
	})
	if !errors.Is(err, pipeline.ErrProbe) {
		t.Fatalf("expected probe error, got %v", err)
	}
	if transform.calls != 0 {
		t.Fatalf("expected no transform call, got %d", transform.calls)
	}
	if names := scratchEntries(t, cfg); len(names) != 0 {
		t.Fatalf("expected clean scratch dir, got %v", names)
	}
}

func TestProcessRejectsMediaWithoutAudio(t *testing.T) {
	proc, _, probe, _ := newProcessor(t)
	probe.output = []byte(probeJSONNoAudio)

	_, err := proc.Process(context.Background(), pipeline.Request{
		Source:       strings.NewReader("fake media"),
		OriginalName: "mute.mp4",
	})
	if !errors.Is(err, pipeline.ErrProbe) {
		t.Fatalf("expected probe error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no audio stream") {
		t.Fatalf("expected audio stream detail, got %v", err)
	}
}

func TestProcessRejectsMissingDuration(t *testing.T) {
	proc, _, probe, _ := newProcessor(t)
	probe.output = []byte(probeJSONNoDuration)

	_, err := proc.Process(context.Background(), pipeline.Request{
		Source:       strings.NewReader("fake media"),
		OriginalName: "clip.wav",
	})
	if !errors.Is(err, pipeline.ErrProbe) {
		t.Fatalf("expected probe error, got %v", err)
	}
	if !strings.Contains(err.Error(), "media duration missing") {
		t.Fatalf("expected duration detail, got %v", err)
	}
}

func TestProcessWrapsTransformFailure(t *testing.T) {
	proc, cfg, _, transform := newProcessor(t)
	transform.err = errors.New("exit status 1")
	transform.stderr = "Error reinitializing filters!\nFilter parse error"

	_, err := proc.Process(context.Background(), pipeline.Request{
		Source:       strings.NewReader("fake media"),
		OriginalName: "clip.mp4",
	})
	if !errors.Is(err, pipeline.ErrTransform) {
		t.Fatalf("expected transform error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Filter parse error") {
		t.Fatalf("expected stderr detail in error, got %v", err)
	}
	if names := scratchEntries(t, cfg); len(names) != 0 {
		t.Fatalf("expected clean scratch dir, got %v", names)
	}
}

func TestProcessReportsMissingTools(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Tools.FFmpegBinary = filepath.Join(testsupport.BaseDir(cfg), "missing-ffmpeg")
	cfg.Tools.FFprobeBinary = filepath.Join(testsupport.BaseDir(cfg), "missing-ffprobe")

	probe := &probeStub{output: []byte(probeJSON)}
	transform := &transformStub{}
	proc := pipeline.New(cfg, logging.NewNop(),
		pipeline.WithProbeClient(ffprobe.New(cfg.Tools.FFprobeBinary, cfg.Tools.ProbeTimeout, ffprobe.WithExecutor(probe))),
		pipeline.WithTransformClient(ffmpeg.New(cfg.Tools.FFmpegBinary, cfg.Tools.TransformTimeout, ffmpeg.WithExecutor(transform))),
	)

	_, err := proc.Process(context.Background(), pipeline.Request{
		Source:       strings.NewReader("fake media"),
		OriginalName: "clip.mp4",
	})
	if !errors.Is(err, pipeline.ErrToolUnavailable) {
		t.Fatalf("expected tool unavailable error, got %v", err)
	}
	for _, name := range []string{"FFmpeg", "FFprobe"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("expected %s in error, got %v", name, err)
		}
	}
	if probe.calls != 0 {
		t.Fatalf("expected no probe call, got %d", probe.calls)
	}
	if names := scratchEntries(t, cfg); len(names) != 0 {
		t.Fatalf("expected clean scratch dir, got %v", names)
	}
}

func TestProcessWrapsUploadFailure(t *testing.T) {
	proc, cfg, probe, _ := newProcessor(t)

	_, err := proc.Process(context.Background(), pipeline.Request{
		Source:       failingReader{},
		OriginalName: "clip.mp4",
	})
	if !errors.Is(err, pipeline.ErrUpload) {
		t.Fatalf("expected upload error, got %v", err)
	}
	if probe.calls != 0 {
		t.Fatalf("expected no probe call, got %d", probe.calls)
	}
	if names := scratchEntries(t, cfg); len(names) != 0 {
		t.Fatalf("expected partial upload to be removed, got %v", names)
	}
}

func TestProcessRecordsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	store := testsupport.MustOpenHistory(t, cfg)

	probe := &probeStub{output: []byte(probeJSON)}
	transform := &transformStub{}
	proc := pipeline.New(cfg, logging.NewNop(),
		pipeline.WithProbeClient(ffprobe.New(cfg.Tools.FFprobeBinary, cfg.Tools.ProbeTimeout, ffprobe.WithExecutor(probe))),
		pipeline.WithTransformClient(ffmpeg.New(cfg.Tools.FFmpegBinary, cfg.Tools.TransformTimeout, ffmpeg.WithExecutor(transform))),
		pipeline.WithHistory(store),
	)

	ctx := logging.WithRequestID(context.Background(), "req-42")

	res, err := proc.Process(ctx, pipeline.Request{
		Source:       strings.NewReader("fake media"),
		OriginalName: "lecture.mp4",
		PresetKey:    "vocal",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	res.Cleanup()

	if _, err := proc.Process(ctx, pipeline.Request{
		Source:       strings.NewReader("fake media"),
		OriginalName: "lecture.mp4",
		PresetKey:    "bogus",
	}); !errors.Is(err, pipeline.ErrUnknownPreset) {
		t.Fatalf("expected unknown preset error, got %v", err)
	}

	records, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	failed := records[0]
	if failed.State != "failed" || failed.ErrorKind != "unknown_preset" {
		t.Fatalf("unexpected failed record %+v", failed)
	}
	if failed.Preset != "bogus" || failed.RequestID != "req-42" {
		t.Fatalf("unexpected failed record metadata %+v", failed)
	}
	if !strings.Contains(failed.ErrorDetail, "unknown preset") {
		t.Fatalf("expected error detail, got %q", failed.ErrorDetail)
	}

	completed := records[1]
	if completed.State != "completed" || completed.Preset != "vocal" {
		t.Fatalf("unexpected completed record %+v", completed)
	}
	if completed.OutputBytes != int64(len(fakeWAV)) || completed.DurationSeconds != 12.5 {
		t.Fatalf("unexpected completed record metrics %+v", completed)
	}
	if !strings.Contains(completed.FilterChain, "highpass=f=80") {
		t.Fatalf("expected vocal filter chain, got %q", completed.FilterChain)
	}
	if completed.JobID == "" || completed.CreatedAt.IsZero() {
		t.Fatalf("expected job id and timestamp, got %+v", completed)
	}
}

func TestProcessPublishesNotifications(t *testing.T) {
	notifier := &notifierStub{}
	proc, _, _, _ := newProcessor(t, pipeline.WithNotifier(notifier))

	res, err := proc.Process(context.Background(), pipeline.Request{
		Source:       strings.NewReader("fake media"),
		OriginalName: "night.mp4",
		PresetKey:    "breath",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	res.Cleanup()

	if _, err := proc.Process(context.Background(), pipeline.Request{
		Source:       strings.NewReader("fake media"),
		OriginalName: "night.mp4",
		PresetKey:    "bogus",
	}); err == nil {
		t.Fatal("expected error for unknown preset")
	}

	if len(notifier.events) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifier.events))
	}
	if notifier.events[0] != notifications.EventJobCompleted {
		t.Fatalf("expected completion event first, got %s", notifier.events[0])
	}
	if notifier.payloads[0]["preset"] != "Breath Detection" {
		t.Fatalf("unexpected completion payload %v", notifier.payloads[0])
	}
	if notifier.events[1] != notifications.EventJobFailed {
		t.Fatalf("expected failure event, got %s", notifier.events[1])
	}
	if notifier.payloads[1]["kind"] != "unknown_preset" {
		t.Fatalf("unexpected failure payload %v", notifier.payloads[1])
	}
}

func TestToolStatusesReportsAvailability(t *testing.T) {
	proc, _, _, _ := newProcessor(t)

	statuses := proc.ToolStatuses()
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	for _, status := range statuses {
		if !status.Available {
			t.Fatalf("expected %s to be available, got %+v", status.Name, status)
		}
	}
}
