package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clarion/internal/config"
	"clarion/internal/fileutil"
	"clarion/internal/logging"
	"clarion/internal/pipeline"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var presetKey string
	var overridesJSON string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "process INPUT",
		Short: "Transform a local media file without going through HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			inputPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			file, err := os.Open(inputPath)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer file.Close()

			overrides, err := parseOverrides(overridesJSON)
			if err != nil {
				return err
			}

			proc := pipeline.New(cfg, logging.NewNop())
			result, err := proc.Process(cmd.Context(), pipeline.Request{
				Source:       file,
				OriginalName: filepath.Base(inputPath),
				PresetKey:    presetKey,
				Overrides:    overrides,
			})
			if err != nil {
				return err
			}
			defer result.Cleanup()

			target := strings.TrimSpace(outputPath)
			if target == "" {
				target = defaultOutputPath(inputPath)
			} else if target, err = config.ExpandPath(target); err != nil {
				return err
			}
			if err := fileutil.MoveFile(result.OutputPath, target); err != nil {
				return fmt.Errorf("move output: %w", err)
			}

			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Processed %s with %s\n", result.OriginalName, result.PresetLabel)
			fmt.Fprintf(stdout, "Filter chain: %s\n", result.FilterChain)
			fmt.Fprintf(stdout, "Wrote %s (%s) in %s\n",
				target, fileutil.FormatBytes(result.OutputBytes), result.Elapsed.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVarP(&presetKey, "preset", "p", "", "Preset key (defaults to whisper)")
	cmd.Flags().StringVar(&overridesJSON, "overrides", "", "JSON overrides applied on top of the preset")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination for the transformed WAV")
	return cmd
}

// defaultOutputPath places the result next to the input with a
// processed_ prefix and a .wav suffix matching the actual payload.
func defaultOutputPath(inputPath string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = "audio"
	}
	return filepath.Join(filepath.Dir(inputPath), "processed_"+stem+".wav")
}
