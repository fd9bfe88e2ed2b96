package cli

import (
	"github.com/spf13/cobra"
)

func newRefreshCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [data-dir]",
		Short: "Ask the ingestion worker to re-index the data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir := state.cfg.DataDir
			if len(args) > 0 {
				dataDir = args[0]
			}

			publisher, err := state.deps.NewPublisher(state.cfg)
			if err != nil {
				return err
			}
			defer publisher.Close()

			if err := publisher.PublishRefresh(cmd.Context(), dataDir); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Refresh requested for %s\n", dataDir)
			return nil
		},
	}
}
