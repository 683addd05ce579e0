package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clarion/internal/fileutil"
	"clarion/internal/logging"
)

const scratchTimestampLayout = "20060102_150405"

// inputScratchName builds the scratch file name for a persisted upload. The
// sanitized original name is kept as a suffix so operators can recognize
// stranded files.
func inputScratchName(at time.Time, token, originalName string) string {
	return fmt.Sprintf("input_%s_%s_%s", at.Format(scratchTimestampLayout), token, fileutil.SanitizeName(originalName))
}

// outputScratchName builds the scratch file name for a transform result.
func outputScratchName(at time.Time, token string) string {
	return fmt.Sprintf("output_%s_%s.wav", at.Format(scratchTimestampLayout), token)
}

// SweepScratch removes input_/output_ scratch files whose modification time is
// older than maxAge and returns the number of files removed. A zero or
// negative maxAge disables the sweep. Files that are still in use by running
// jobs are younger than any sane maxAge and survive untouched.
func SweepScratch(dir string, maxAge time.Duration, logger *slog.Logger) int {
	if maxAge <= 0 || strings.TrimSpace(dir) == "" {
		return 0
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("read scratch directory", logging.String("path", dir), logging.Error(err))
		}
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "input_") && !strings.HasPrefix(name, "output_") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			logger.Warn("remove stale scratch file", logging.String("path", path), logging.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info("scratch sweep complete", logging.Int("removed", removed), logging.String("path", dir))
	}
	return removed
}

func removeQuietly(logger *slog.Logger, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) && logger != nil {
		logger.Warn("remove scratch file", logging.String("path", path), logging.Error(err))
	}
}
