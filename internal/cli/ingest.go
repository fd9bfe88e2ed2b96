package cli

import (
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/config"
	"github.com/vidhya-th/Medical-Chatbot-End-to-End/internal/core/domain"
)

func newIngestCmd(state *rootState) *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "ingest [data-dir]",
		Short: "Load, chunk, embed and index the medical reference",
		Long: `Ingest reads every supported file under the data directory, adds the static
emergency-number facts, and upserts the embedded chunks into the vector index.
Re-running ingest replaces records with the same content instead of duplicating them.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir := state.cfg.DataDir
			if len(args) > 0 {
				dataDir = args[0]
			}

			app, err := state.deps.BuildApp(cmd.Context(), state.cfg, config.ScopeIngest)
			if err != nil {
				return err
			}
			defer app.Close()

			printf(cmd.ErrOrStderr(), "Scanning %s...\n", dataDir)

			var bar *progressbar.ProgressBar
			progress := func(p domain.IngestProgress) {
				if noProgress {
					return
				}
				if bar == nil {
					bar = progressbar.NewOptions(p.Total,
						progressbar.OptionSetWriter(cmd.ErrOrStderr()),
						progressbar.OptionSetWidth(40),
						progressbar.OptionShowCount(),
						progressbar.OptionSetDescription("Indexing"),
						progressbar.OptionSetTheme(progressbar.Theme{
							Saucer:        "=",
							SaucerHead:    ">",
							SaucerPadding: " ",
							BarStart:      "[",
							BarEnd:        "]",
						}),
						progressbar.OptionOnCompletion(func() {
							printf(cmd.ErrOrStderr(), "\n")
						}),
					)
				}
				_ = bar.Set(p.Processed)
			}

			report, err := app.Ingestor.Ingest(cmd.Context(), dataDir, progress)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printf(out, "Ingestion complete (run %s)\n", report.RunID)
			printf(out, "  Files:   %d\n", report.Files)
			printf(out, "  Pages:   %d\n", report.Pages)
			printf(out, "  Chunks:  %d\n", report.Chunks)
			printf(out, "  Facts:   %d\n", report.Facts)
			printf(out, "  Records: %d in %d batches\n", report.Records, report.Batches)
			printf(out, "  Time:    %s\n", report.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}
