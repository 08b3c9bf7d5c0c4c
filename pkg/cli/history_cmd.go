package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"amiqc/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect archived QC runs",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "history database path (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newHistoryListCmd(&dbPath))
	cmd.AddCommand(newHistoryShowCmd(&dbPath))
	return cmd
}

func openHistory(dbPath string) (*history.Store, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return history.Open(dbPath, logger)
}

func newHistoryListCmd(dbPath *string) *cobra.Command {
	var (
		tenantID string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived QC runs for a tenant, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistory(*dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), tenantID, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, run := range runs {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n",
					run.ID, run.TenantID, run.ExecutionDate, run.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&tenantID, "tenant", "t", "", "tenant id (required)")
	_ = cmd.MarkFlagRequired("tenant")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list")
	return cmd
}

func newHistoryShowCmd(dbPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one archived QC run with its step records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(*dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s tenant %s execution_date %s created %s\n",
				run.ID, run.TenantID, run.ExecutionDate, run.CreatedAt.Format(time.RFC3339))
			for _, rec := range run.Records {
				fmt.Fprintf(out, "step %s (%s)\n  metrics: %s\n  reference: %s\n  misc: %s\n",
					rec.ID, rec.Name, rec.Metrics, rec.QcReference, rec.Misc)
			}
			return nil
		},
	}
	return cmd
}
