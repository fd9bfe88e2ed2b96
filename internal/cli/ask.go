package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/config"
)

func newAskCmd(state *rootState) *cobra.Command {
	var showSources bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a medical question from the indexed reference",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))

			app, err := state.deps.BuildApp(cmd.Context(), state.cfg, config.ScopeQuery)
			if err != nil {
				return err
			}
			defer app.Close()

			answer, err := app.Answerer.Answer(cmd.Context(), question)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printf(out, "%s\n", answer.Text)
			if showSources {
				for i, src := range answer.Sources {
					label := src.Metadata.Source
					if label == "" {
						label = src.Metadata.Region
					}
					printf(out, "[%d] %.3f %s\n", i+1, src.Score, label)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showSources, "sources", "s", false, "print the retrieved sources")
	return cmd
}
