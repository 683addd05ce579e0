package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clarion/internal/filterchain"
	"clarion/internal/media/ffmpeg"
	"clarion/internal/preset"
)

func newRenderCommand() *cobra.Command {
	var overridesJSON string

	cmd := &cobra.Command{
		Use:         "render [PRESET]",
		Short:       "Print the ffmpeg filter chain for a preset",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			key := preset.DefaultKey
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				key = strings.TrimSpace(args[0])
			}
			chosen, err := preset.Get(key)
			if err != nil {
				return fmt.Errorf("%w (known presets: %s)", err, strings.Join(preset.Keys(), ", "))
			}
			overrides, err := parseOverrides(overridesJSON)
			if err != nil {
				return err
			}
			chosen = overrides.Apply(chosen)

			stages := filterchain.Build(chosen)
			stdout := cmd.OutOrStdout()
			fmt.Fprintf(stdout, "Preset: %s (%s)\n", chosen.Key, chosen.Label)
			fmt.Fprintf(stdout, "Stages: %s\n", strings.Join(filterchain.Names(stages), ", "))
			fmt.Fprintln(stdout, ffmpeg.EncodeChain(stages))
			return nil
		},
	}

	cmd.Flags().StringVar(&overridesJSON, "overrides", "", "JSON overrides applied on top of the preset")
	return cmd
}
