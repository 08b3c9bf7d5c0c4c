package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"amiqc/internal/config"
	"amiqc/internal/domain"
	"amiqc/internal/engine"
	"amiqc/internal/history"
	"amiqc/internal/qc"
	"amiqc/internal/sink"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		duckdbPath string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the QC sequence for one tenant and execution date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			}))

			db, err := engine.Open(duckdbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			catalog, err := engine.NewCatalog(ctx, db, cfg.Sources, logger)
			if err != nil {
				return err
			}

			var writer domain.RowWriter
			if cfg.S3.Enabled() {
				writer, err = sink.NewS3Writer(cfg.S3, cfg.SaveFormat, logger)
			} else {
				writer, err = sink.NewLocalWriter(cfg.SaveFormat, logger)
			}
			if err != nil {
				return err
			}

			archiver := qc.NewArchiver(writer,
				cfg.Paths.SaveErrorsBase, cfg.Paths.SaveAmiSummary, cfg.Paths.SaveQcOutput, logger)
			runner := qc.NewRunner(cfg, catalog, archiver, logger)

			if cfg.HistoryDBPath != "" {
				store, err := history.Open(cfg.HistoryDBPath, logger)
				if err != nil {
					return err
				}
				defer store.Close()
				runner.SetHistory(store)
			}

			artifacts, err := runner.Run(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "qc run complete: %d steps, report at %s\n",
				len(artifacts.Records), artifacts.ReportLocation)
			for _, rec := range artifacts.Records {
				fmt.Fprintf(out, "  step %s (%s): %s\n", rec.ID, rec.Name, rec.Metrics)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "tenant configuration file (required)")
	_ = cmd.MarkFlagRequired("config")
	cmd.Flags().StringVar(&duckdbPath, "duckdb", "", "DuckDB database path (default: in-memory)")
	return cmd
}
