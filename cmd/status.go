package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/flowatlas/flowmap-cli/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Show run history, or one run's manifest",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx)
		if err != nil {
			return eris.Wrap(err, "list runs")
		}

		if len(args) == 1 {
			for _, run := range runs {
				if run.ID == args[0] {
					if run.Manifest == "" {
						fmt.Fprintf(os.Stderr, "Run %s has no manifest (status %s).\n", run.ID, run.Status)
						return nil
					}
					fmt.Print(run.Manifest)
					return nil
				}
			}
			return eris.Errorf("run %s not found", args[0])
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs yet.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

func formatRunsList(w io.Writer, runs []store.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTATUS\tCREATED\tUPDATED")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			run.ID,
			run.Status,
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			run.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
		)
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
