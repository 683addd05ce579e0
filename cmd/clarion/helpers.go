package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clarion/internal/preset"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseOverrides decodes the --overrides flag payload. An empty flag
// yields zero overrides.
func parseOverrides(raw string) (preset.Overrides, error) {
	var overrides preset.Overrides
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return overrides, nil
	}
	if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
		return overrides, fmt.Errorf("parse overrides: %w", err)
	}
	return overrides, nil
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	d := time.Duration(seconds * float64(time.Second))
	return d.Round(10 * time.Millisecond).String()
}
