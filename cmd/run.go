package main

import (
	"github.com/spf13/cobra"

	"github.com/flowatlas/flowmap-cli/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, build, and render in one pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(cfg, st)
		manifest, err := p.Run(ctx)
		if err != nil {
			return err
		}

		printManifest(manifest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
