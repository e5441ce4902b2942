package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyFlags struct {
	limit  int
	offset int
	runID  string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded prune runs",
	Long: `Show prune runs recorded in the history database (PRUNE_HISTORY_DSN).

Examples:
  lazy-prune history --limit 10
  lazy-prune history --run 0b7e5c1a-6f0e-4d8e-9f55-0d3c2a1b4e77`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 20, "maximum number of runs to show")
	historyCmd.Flags().IntVar(&historyFlags.offset, "offset", 0, "number of runs to skip")
	historyCmd.Flags().StringVar(&historyFlags.runID, "run", "", "show the files handled by one run")
}

func runHistory(cmd *cobra.Command, args []string) error {
	manager, err := newManager(cmd)
	if err != nil {
		return err
	}
	defer manager.Close()

	out := cmd.OutOrStdout()

	if historyFlags.runID != "" {
		records, err := manager.GetDeletedBackups(historyFlags.runID)
		if err != nil {
			return err
		}
		for _, r := range records {
			status := "deleted"
			switch {
			case r.ErrorMsg != "":
				status = "failed: " + r.ErrorMsg
			case r.DryRun:
				status = "dry-run"
			}
			fmt.Fprintf(out, "%-40s %-25s %s\n", r.FileName, r.FileCreatedAt.Format(time.RFC3339), status)
		}
		return nil
	}

	runs, err := manager.GetPruneHistory(historyFlags.limit, historyFlags.offset)
	if err != nil {
		return err
	}
	for _, run := range runs {
		fmt.Fprintf(out, "%s  %-25s %-8s listed=%d kept=%d deleted=%d failed=%d  %s\n",
			run.RunID, run.StartedAt.Format(time.RFC3339), run.Status,
			run.Listed, run.Retained, run.Deleted, run.Failed, run.Location)
	}
	return nil
}
