package cli

import (
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the most recent ingestion run from the run ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, closeFn, err := state.deps.OpenLedger(state.cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			run, err := ledger.LatestRun(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printf(out, "Run:      %s\n", run.Report.RunID)
			printf(out, "Status:   %s\n", run.Status)
			printf(out, "Data dir: %s\n", run.Report.DataDir)
			printf(out, "Started:  %s\n", run.StartedAt.Format(time.RFC3339))
			if run.FinishedAt != nil {
				printf(out, "Finished: %s (%s)\n", run.FinishedAt.Format(time.RFC3339), run.Report.Duration.Round(time.Millisecond))
			}
			printf(out, "Records:  %d (files %d, chunks %d, facts %d)\n",
				run.Report.Records, run.Report.Files, run.Report.Chunks, run.Report.Facts)
			if run.Error != "" {
				printf(out, "Error:    %s\n", run.Error)
			}
			return nil
		},
	}
}
