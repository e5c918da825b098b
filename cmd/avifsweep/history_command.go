package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"avifsweep/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent conversion runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := journal.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run journal: %w", err)
			}
			defer store.Close()

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				started := ""
				if !run.StartedAt.IsZero() {
					started = run.StartedAt.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{
					started,
					run.Root,
					fmt.Sprintf("%d", run.Discovered),
					fmt.Sprintf("%d", run.Converted),
					fmt.Sprintf("%d", run.Sidecars),
					fmt.Sprintf("%d", run.Failed),
					yesNo(run.DryRun),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Started", "Root", "Found", "Converted", "Sidecars", "Failed", "Dry run"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to display")

	return cmd
}
