package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"clarion/internal/media/ffmpeg"
	"clarion/internal/preflight"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

const doctorVersionTimeout = 10 * time.Second

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, tools, and notification delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			results := preflight.RunAll(cfg)
			results = append(results, preflight.CheckNtfyFromConfig(cfg))
			for _, result := range results {
				fmt.Fprintln(stdout, checkLine(result, colorize))
			}

			versionCtx, cancel := context.WithTimeout(cmd.Context(), doctorVersionTimeout)
			defer cancel()
			client := ffmpeg.New(cfg.Tools.FFmpegBinary, cfg.Tools.TransformTimeout)
			if version, err := client.Version(versionCtx); err == nil {
				fmt.Fprintf(stdout, "\n%s\n", version)
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			fmt.Fprintln(stdout, "\nAll checks passed")
			return nil
		},
	}
}

func checkLine(result preflight.Result, colorize bool) string {
	status := "OK"
	color := ansiGreen
	if !result.Passed {
		status = "FAIL"
		color = ansiRed
	}
	line := fmt.Sprintf("  %-20s [%s] %s", result.Name+":", status, result.Detail)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
