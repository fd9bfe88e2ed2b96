package cli

import (
	"github.com/spf13/cobra"

	mcpadapter "github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/adapters/mcp"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/config"
)

func newMCPCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ask_medical tool over MCP stdio",
		Long: `Start an MCP server on stdin/stdout exposing the ask_medical tool.
Logs go to stderr so the protocol stream stays clean.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := state.deps.BuildApp(cmd.Context(), state.cfg, config.ScopeQuery)
			if err != nil {
				return err
			}
			defer app.Close()

			return mcpadapter.NewServer(app.Answerer).Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
