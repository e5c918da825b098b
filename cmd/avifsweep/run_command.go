package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"avifsweep/internal/journal"
	"avifsweep/internal/logging"
	"avifsweep/internal/services/exiftool"
	"avifsweep/internal/services/magick"
	"avifsweep/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		reviewDir string
		workers   int
		quality   int
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "run <source-dir>",
		Short: "Convert every PNG under a directory to AVIF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}

			store, err := journal.Open(cfg)
			if err != nil {
				logger.Warn("run journal unavailable; history will not be recorded", logging.Error(err))
				store = nil
			}
			if store != nil {
				defer store.Close()
			}

			var extractor exiftool.Client
			if !cfg.Metadata.Disabled {
				extractor = exiftool.NewCLI(exiftool.WithBinary(cfg.Metadata.Binary))
			}
			converter := magick.NewCLI(magick.WithBinary(cfg.Conversion.Binary))

			runner, err := workflow.NewRunner(cfg, logger, extractor, converter, store)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := runner.Run(runCtx, workflow.Options{
				Root:      args[0],
				ReviewDir: reviewDir,
				Workers:   workers,
				Quality:   quality,
				DryRun:    dryRun,
			})
			if err != nil {
				return err
			}

			printSummary(cmd, summary)
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Discovered)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reviewDir, "review-dir", "", "Review folder for originals (default <source-dir>/Review)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of files converted concurrently (default from config)")
	cmd.Flags().IntVar(&quality, "quality", 0, "AVIF encode quality 1-100 (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Discover and report without converting or moving files")

	return cmd
}

const timeRounding = 10 * time.Millisecond

func printSummary(cmd *cobra.Command, summary *workflow.Summary) {
	out := cmd.OutOrStdout()

	mode := ""
	if summary.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(out, "Run %s%s\n", summary.RunID, mode)

	rows := [][]string{
		{"Discovered", fmt.Sprintf("%d", summary.Discovered)},
		{"Converted", fmt.Sprintf("%d", summary.Converted)},
		{"Sidecars", fmt.Sprintf("%d", summary.Sidecars)},
		{"Failed", fmt.Sprintf("%d", summary.Failed)},
		{"Elapsed", summary.Elapsed.Round(timeRounding).String()},
	}
	if stdoutIsTerminal() {
		fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
	} else {
		for _, row := range rows {
			fmt.Fprintf(out, "%s: %s\n", strings.ToLower(row[0]), row[1])
		}
	}

	if len(summary.Failures) > 0 {
		fmt.Fprintln(out, "Failures:")
		for _, failure := range summary.Failures {
			fmt.Fprintf(out, "  %s [%s]: %v\n", failure.Entry.Rel, failure.Outcome, failure.Err)
		}
		fmt.Fprintf(out, "Failed originals remain under %s for retry.\n", summary.Root)
	}
	if summary.Converted > 0 && !summary.DryRun {
		fmt.Fprintf(out, "Originals moved to %s\n", summary.ReviewDir)
	}
}
