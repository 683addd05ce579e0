package pipeline

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clarion/internal/config"
	"clarion/internal/deps"
	"clarion/internal/fileutil"
	"clarion/internal/filterchain"
	"clarion/internal/history"
	"clarion/internal/logging"
	"clarion/internal/media/ffmpeg"
	"clarion/internal/media/ffprobe"
	"clarion/internal/notifications"
	"clarion/internal/preset"
)

// Request describes one transform job.
type Request struct {
	// Source streams the uploaded media. It is consumed exactly once.
	Source io.Reader
	// OriginalName is the client-supplied file name, used for scratch
	// naming and the response disposition. May be empty.
	OriginalName string
	// PresetKey selects the filter preset. Empty selects the default.
	PresetKey string
	// Overrides adjusts individual preset parameters. The zero value
	// leaves the preset untouched.
	Overrides preset.Overrides
}

// Result describes a finished transform job. Callers must invoke Cleanup once
// the output file has been consumed.
type Result struct {
	JobID           string
	PresetKey       string
	PresetLabel     string
	OriginalName    string
	OutputPath      string
	OutputBytes     int64
	DurationSeconds float64
	FilterChain     string
	Elapsed         time.Duration

	cleanupOnce sync.Once
	cleanup     func()
}

// Cleanup removes the scratch output file. Safe to call more than once.
func (r *Result) Cleanup() {
	if r == nil || r.cleanup == nil {
		return
	}
	r.cleanupOnce.Do(r.cleanup)
}

// Processor runs uploads through the probe and transform steps.
type Processor struct {
	cfg      *config.Config
	logger   *slog.Logger
	probe    *ffprobe.Client
	ffmpeg   *ffmpeg.Client
	store    *history.Store
	notifier notifications.Service
}

// Option adjusts Processor construction.
type Option func(*Processor)

// WithProbeClient overrides the ffprobe client.
func WithProbeClient(client *ffprobe.Client) Option {
	return func(p *Processor) {
		if client != nil {
			p.probe = client
		}
	}
}

// WithTransformClient overrides the ffmpeg client.
func WithTransformClient(client *ffmpeg.Client) Option {
	return func(p *Processor) {
		if client != nil {
			p.ffmpeg = client
		}
	}
}

// WithHistory attaches a store that records finished jobs.
func WithHistory(store *history.Store) Option {
	return func(p *Processor) {
		p.store = store
	}
}

// WithNotifier overrides the notification service.
func WithNotifier(svc notifications.Service) Option {
	return func(p *Processor) {
		if svc != nil {
			p.notifier = svc
		}
	}
}

// New builds a Processor wired from the configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Processor{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		probe:    ffprobe.New(cfg.Tools.FFprobeBinary, cfg.Tools.ProbeTimeout),
		ffmpeg:   ffmpeg.New(cfg.Tools.FFmpegBinary, cfg.Tools.TransformTimeout),
		notifier: notifications.NewService(cfg),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TransformClient exposes the ffmpeg client for status surfaces.
func (p *Processor) TransformClient() *ffmpeg.Client {
	return p.ffmpeg
}

// ToolStatuses reports availability of the external binaries the pipeline
// shells out to.
func (p *Processor) ToolStatuses() []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{Name: "FFmpeg", Command: p.ffmpeg.Binary(), Description: "Required for audio transformation"},
		{Name: "FFprobe", Command: p.probe.Binary(), Description: "Required for media inspection"},
	})
}

// Process runs one job end to end. The returned error is tagged with one of
// the package sentinels so callers can classify the failure with KindOf.
func (p *Processor) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	jobID := uuid.NewString()
	token := jobID[:8]
	key := resolvePresetKey(req.PresetKey)
	log := p.jobLogger(ctx, jobID)

	log.Info("job received",
		logging.String("original_name", req.OriginalName),
		logging.String(logging.FieldPreset, key),
		logging.String(logging.FieldState, StateReceived.String()))

	if err := p.checkTools(); err != nil {
		return nil, p.fail(ctx, log, jobID, key, req.OriginalName, err)
	}

	inputPath := filepath.Join(p.cfg.Paths.ScratchDir, inputScratchName(start, token, req.OriginalName))
	size, err := fileutil.WriteStream(inputPath, req.Source)
	if err != nil {
		return nil, p.fail(ctx, log, jobID, key, req.OriginalName, Wrap(ErrUpload, "upload", "persist", "write upload to scratch", err))
	}
	defer removeQuietly(log, inputPath)
	log.Info("upload persisted",
		logging.String("path", inputPath),
		logging.String("size", fileutil.FormatBytes(size)),
		logging.String(logging.FieldState, StatePersisted.String()))

	probed, err := p.probe.Inspect(ctx, inputPath)
	if err != nil {
		return nil, p.fail(ctx, log, jobID, key, req.OriginalName, Wrap(ErrProbe, "probe", "inspect", "", err))
	}
	if probed.AudioStreamCount() == 0 {
		return nil, p.fail(ctx, log, jobID, key, req.OriginalName, Wrap(ErrProbe, "probe", "inspect", "no audio stream", nil))
	}
	duration := probed.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return nil, p.fail(ctx, log, jobID, key, req.OriginalName, Wrap(ErrProbe, "probe", "inspect", "media duration missing", nil))
	}
	log.Info("media probed",
		logging.Float64("duration_seconds", duration),
		logging.Int("audio_streams", probed.AudioStreamCount()),
		logging.Int("video_streams", probed.VideoStreamCount()),
		logging.String(logging.FieldState, StateProbed.String()))

	chosen, err := preset.Get(key)
	if err != nil {
		return nil, p.fail(ctx, log, jobID, key, req.OriginalName, Wrap(ErrUnknownPreset, "preset", "lookup", "", err))
	}
	chosen = req.Overrides.Apply(chosen)
	stages := filterchain.Build(chosen)
	graph := ffmpeg.EncodeChain(stages)

	outputPath := filepath.Join(p.cfg.Paths.ScratchDir, outputScratchName(start, token))
	if err := p.ffmpeg.Transform(ctx, inputPath, stages, outputPath); err != nil {
		removeQuietly(log, outputPath)
		return nil, p.fail(ctx, log, jobID, key, req.OriginalName, Wrap(ErrTransform, "transform", "run ffmpeg", "", err))
	}
	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, p.fail(ctx, log, jobID, key, req.OriginalName, Wrap(ErrTransform, "transform", "verify output", "output file missing", err))
	}
	if info.Size() == 0 {
		removeQuietly(log, outputPath)
		return nil, p.fail(ctx, log, jobID, key, req.OriginalName, Wrap(ErrTransform, "transform", "verify output", "output file empty", nil))
	}
	log.Info("media transformed",
		logging.String("path", outputPath),
		logging.String("size", fileutil.FormatBytes(info.Size())),
		logging.String("filter_chain", graph),
		logging.String(logging.FieldState, StateTransformed.String()))

	elapsed := time.Since(start)
	result := &Result{
		JobID:           jobID,
		PresetKey:       chosen.Key,
		PresetLabel:     chosen.Label,
		OriginalName:    fileutil.SanitizeName(req.OriginalName),
		OutputPath:      outputPath,
		OutputBytes:     info.Size(),
		DurationSeconds: duration,
		FilterChain:     graph,
		Elapsed:         elapsed,
	}
	result.cleanup = func() { removeQuietly(log, outputPath) }

	p.record(history.Record{
		JobID:           jobID,
		RequestID:       requestIDFrom(ctx),
		OriginalName:    result.OriginalName,
		Preset:          chosen.Key,
		State:           StateCompleted.String(),
		DurationSeconds: duration,
		ProcessingMS:    elapsed.Milliseconds(),
		OutputBytes:     info.Size(),
		FilterChain:     graph,
	})
	p.notify(notifications.EventJobCompleted, notifications.Payload{
		"name":   result.OriginalName,
		"preset": chosen.Label,
	})
	log.Info("job completed",
		logging.Duration("elapsed", elapsed),
		logging.String(logging.FieldState, StateCompleted.String()))
	return result, nil
}

func (p *Processor) checkTools() error {
	missing := deps.Missing(p.ToolStatuses())
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(missing))
	for _, status := range missing {
		names = append(names, status.Name)
	}
	return Wrap(ErrToolUnavailable, "preflight", "check tools", strings.Join(names, ", ")+" not available", nil)
}

// fail records and announces the failure, then passes the error through.
func (p *Processor) fail(ctx context.Context, log *slog.Logger, jobID, presetKey, originalName string, err error) error {
	kind := KindOf(err)
	name := fileutil.SanitizeName(originalName)
	log.Error("job failed",
		logging.String("kind", string(kind)),
		logging.String(logging.FieldState, StateFailed.String()),
		logging.Error(err))
	p.record(history.Record{
		JobID:        jobID,
		RequestID:    requestIDFrom(ctx),
		OriginalName: name,
		Preset:       presetKey,
		State:        StateFailed.String(),
		ErrorKind:    string(kind),
		ErrorDetail:  err.Error(),
	})
	p.notify(notifications.EventJobFailed, notifications.Payload{
		"name":  name,
		"kind":  string(kind),
		"error": err.Error(),
	})
	return err
}

// record persists the job outcome. History writes outlive request
// cancellation, so the store is driven off a fresh context.
func (p *Processor) record(rec history.Record) {
	if p.store == nil {
		return
	}
	storeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.store.Add(storeCtx, rec); err != nil {
		p.logger.Warn("record job history",
			logging.String(logging.FieldJobID, rec.JobID),
			logging.Error(err))
	}
}

func (p *Processor) notify(event notifications.Event, data notifications.Payload) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Publish(context.Background(), event, data); err != nil {
		p.logger.Warn("publish notification",
			logging.String("event", string(event)),
			logging.Error(err))
	}
}

func (p *Processor) jobLogger(ctx context.Context, jobID string) *slog.Logger {
	log := p.logger.With(logging.String(logging.FieldJobID, jobID))
	if requestID, ok := logging.RequestIDFrom(ctx); ok {
		log = log.With(logging.String(logging.FieldRequestID, requestID))
	}
	return log
}

func resolvePresetKey(requested string) string {
	key := strings.TrimSpace(requested)
	if key == "" {
		return preset.DefaultKey
	}
	return key
}

func requestIDFrom(ctx context.Context) string {
	id, _ := logging.RequestIDFrom(ctx)
	return id
}
