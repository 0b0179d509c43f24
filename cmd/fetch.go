package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowatlas/flowmap-cli/internal/pipeline"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the OD file and boundary shapefile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(cfg, st)
		fetched, err := p.Fetch(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("od file:   %s\n", fetched.ODPath)
		fmt.Printf("shapefile: %s\n", fetched.ShapefilePath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
