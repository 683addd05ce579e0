package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"clarion/internal/config"
	"clarion/internal/history"
	"clarion/internal/logging"
	"clarion/internal/pipeline"
	"clarion/internal/preflight"
)

const (
	readHeaderTimeout = 10 * time.Second
	uploadReadTimeout = 15 * time.Minute
	idleTimeout       = 120 * time.Second
	// writeTimeoutSlack covers response streaming after the transform
	// itself has finished.
	writeTimeoutSlack = 2 * time.Minute
)

// Server hosts the HTTP surface in front of the transform pipeline.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	processor *pipeline.Processor
	store     *history.Store
	startedAt time.Time

	lockPath string
	lock     *flock.Flock
}

// Option adjusts Server construction.
type Option func(*Server)

// WithProcessor overrides the pipeline processor.
func WithProcessor(p *pipeline.Processor) Option {
	return func(s *Server) {
		if p != nil {
			s.processor = p
		}
	}
}

// WithHistory attaches the job history store surfaced on /debug and
// passed to the default processor.
func WithHistory(store *history.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// New builds a Server wired from the configuration. When no processor is
// injected, one is constructed from the same configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "clariond.lock")
	s := &Server{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "server"),
		startedAt: time.Now(),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.processor == nil {
		var pipeOpts []pipeline.Option
		if s.store != nil {
			pipeOpts = append(pipeOpts, pipeline.WithHistory(s.store))
		}
		s.processor = pipeline.New(cfg, logger, pipeOpts...)
	}
	return s, nil
}

// Handler returns the full route table wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/process", s.handleProcess)
	mux.HandleFunc("/debug", s.handleDebug)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.withRequestLogging(mux)
}

// Run serves HTTP until the context is cancelled, enforcing
// single-instance execution via the lock file.
func (s *Server) Run(ctx context.Context) error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another clarion instance is already running (lock %s)", s.lockPath)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("release lock", logging.Error(err))
		}
	}()

	s.reportPreflight()
	maxAge := time.Duration(s.cfg.Paths.ScratchMaxAgeHours) * time.Hour
	pipeline.SweepScratch(s.cfg.Paths.ScratchDir, maxAge, s.logger)

	listener, err := net.Listen("tcp", s.cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       uploadReadTimeout,
		WriteTimeout:      time.Duration(s.cfg.Tools.TransformTimeout)*time.Second + writeTimeoutSlack,
		IdleTimeout:       idleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()
	s.logger.Info("server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("scratch_dir", s.cfg.Paths.ScratchDir))

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-serveErr
}

// reportPreflight logs startup checks. Failures are reported but do not
// abort startup: missing tools surface per request as 503 responses.
func (s *Server) reportPreflight() {
	results := preflight.RunAll(s.cfg)
	for _, result := range results {
		if result.Passed {
			s.logger.Info("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		s.logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
	}
	if failed := preflight.Failed(results); len(failed) > 0 {
		s.logger.Warn("startup checks reported problems", logging.Int("failed", len(failed)))
	}
}
