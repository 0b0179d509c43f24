package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowatlas/flowmap-cli/internal/pipeline"
)

var (
	buildODPath  string
	buildShpPath string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Parse sources into the zone and flow cache",
	Long:  "Loads zones from the boundary shapefile and ingests the OD file, aggregating flows per origin-destination pair. Uses previously fetched files unless --od/--shapefile point elsewhere.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(cfg, st)

		fetched := &pipeline.Fetched{ODPath: buildODPath, ShapefilePath: buildShpPath}
		if fetched.ODPath == "" || fetched.ShapefilePath == "" {
			cached, err := p.Fetch(ctx)
			if err != nil {
				return err
			}
			if fetched.ODPath == "" {
				fetched.ODPath = cached.ODPath
			}
			if fetched.ShapefilePath == "" {
				fetched.ShapefilePath = cached.ShapefilePath
			}
		}

		stats, err := p.BuildDataset(ctx, fetched)
		if err != nil {
			return err
		}

		fmt.Printf("zones:      %d\n", stats.Zones)
		fmt.Printf("rows:       %d (%d rejected)\n", stats.Rows, stats.Rejected)
		fmt.Printf("self flows: %d\n", stats.SelfFlows)
		fmt.Printf("pairs:      %d\n", stats.Pairs)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildODPath, "od", "", "local OD csv path (skips download)")
	buildCmd.Flags().StringVar(&buildShpPath, "shapefile", "", "local shapefile path (skips download)")
	rootCmd.AddCommand(buildCmd)
}
