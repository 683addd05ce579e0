// Package ffmpeg drives the ffmpeg binary: it renders filter chains
// into filtergraph syntax and runs the transform that produces the
// normalized WAV output.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"clarion/internal/filterchain"
)

// Output normalization applied to every transform.
const (
	OutputCodec      = "pcm_s16le"
	OutputSampleRate = "44100"
	OutputChannels   = "2"
)

// stderrTailLines bounds how much ffmpeg stderr is folded into errors.
const stderrTailLines = 5

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (string, string, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps ffmpeg invocations.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// New constructs an ffmpeg client. timeoutSeconds bounds each transform
// run; zero or negative disables the bound.
func New(binary string, timeoutSeconds int, opts ...Option) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	client := &Client{
		binary: binary,
		exec:   commandExecutor{},
	}
	if timeoutSeconds > 0 {
		client.timeout = time.Duration(timeoutSeconds) * time.Second
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Binary returns the configured ffmpeg binary.
func (c *Client) Binary() string {
	return c.binary
}

// EncodeChain renders filter stages into ffmpeg filtergraph syntax.
func EncodeChain(stages []filterchain.Stage) string {
	parts := make([]string, 0, len(stages))
	for _, stage := range stages {
		parts = append(parts, encodeStage(stage))
	}
	return strings.Join(parts, ",")
}

func encodeStage(stage filterchain.Stage) string {
	if len(stage.Args) == 0 {
		return stage.Name
	}
	args := make([]string, 0, len(stage.Args))
	for _, arg := range stage.Args {
		if arg.Key == "" {
			args = append(args, arg.Value)
			continue
		}
		args = append(args, arg.Key+"="+arg.Value)
	}
	return stage.Name + "=" + strings.Join(args, ":")
}

// TransformArgs builds the argument list for one transform run.
func TransformArgs(inputPath, filterGraph, outputPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-i", inputPath,
		"-af", filterGraph,
		"-ar", OutputSampleRate,
		"-ac", OutputChannels,
		"-c:a", OutputCodec,
		"-y", outputPath,
	}
}

// Transform runs ffmpeg over inputPath with the given filter stages and
// writes the normalized WAV result to outputPath.
func (c *Client) Transform(ctx context.Context, inputPath string, stages []filterchain.Stage, outputPath string) error {
	if strings.TrimSpace(inputPath) == "" {
		return errors.New("ffmpeg transform: empty input path")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("ffmpeg transform: empty output path")
	}
	if len(stages) == 0 {
		return errors.New("ffmpeg transform: empty filter chain")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := TransformArgs(inputPath, EncodeChain(stages), outputPath)
	_, stderr, err := c.exec.Run(ctx, c.binary, args)
	if err != nil {
		return fmt.Errorf("ffmpeg transform: %w: %s", err, tail(stderr, stderrTailLines))
	}
	return nil
}

// Version reports the first line of ffmpeg -version output.
func (c *Client) Version(ctx context.Context) (string, error) {
	stdout, stderr, err := c.exec.Run(ctx, c.binary, []string{"-version"})
	if err != nil {
		return "", fmt.Errorf("ffmpeg version: %w: %s", err, tail(stderr, 1))
	}
	line := stdout
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line), nil
}

// tail returns the last n non-empty lines of s joined for log display.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		kept = append([]string{line}, kept...)
	}
	return strings.Join(kept, " | ")
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
