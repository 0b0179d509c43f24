package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowatlas/flowmap-cli/internal/pipeline"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render SVGs from the cached dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(cfg, st)
		manifest, err := p.Render(ctx)
		if err != nil {
			return err
		}

		printManifest(manifest)
		return nil
	},
}

func printManifest(m *pipeline.Manifest) {
	fmt.Printf("run:       %s\n", m.RunID)
	fmt.Printf("pairs:     %d across %d zones (%d unmatched)\n",
		m.Stats.Pairs, m.Stats.Zones, m.Stats.Unmatched)
	for _, out := range m.Outputs {
		fmt.Printf("output:    %s\n", out)
	}
}

func init() {
	rootCmd.AddCommand(renderCmd)
}
