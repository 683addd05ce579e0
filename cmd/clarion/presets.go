package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clarion/internal/preset"
)

func newPresetsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "presets",
		Short:       "List the audio enhancement presets",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := preset.All()
			if asJSON {
				return writeJSON(cmd, entries)
			}

			rows := make([][]string, 0, len(entries))
			for _, p := range entries {
				rows = append(rows, []string{
					p.Key,
					p.Label,
					fmt.Sprintf("%d-%d Hz", p.HighPassHz, p.LowPassHz),
					strconv.FormatFloat(p.NoiseReduction, 'g', -1, 64),
					strconv.Itoa(p.DynamicBoost),
					p.Description,
				})
			}
			table := renderTable(
				[]string{"Key", "Name", "Passband", "NR", "Boost", "Description"},
				rows, 3, 4)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the catalog as JSON")
	return cmd
}
