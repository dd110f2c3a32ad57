package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/caremart/caremart-etl/internal/db"
	"github.com/caremart/caremart-etl/internal/etl"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ETL runs",
	Long: `List recent ETL runs from the run log, newest first, with their
status, duration, last completed phase and processed row counts.`,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20,
		"maximum number of runs to list")
}

func runRuns(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	records, err := etl.NewTracker(pool).Recent(ctx, runsLimit)
	if err != nil {
		return fmt.Errorf("failed to read run log: %w", err)
	}
	if len(records) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tDURATION\tSTATUS\tLAST PHASE\tROWS\tERROR")
	for _, r := range records {
		duration := "-"
		if r.EndedAt != nil {
			duration = r.EndedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		lastPhase := "-"
		if r.LastPhase != nil {
			lastPhase = *r.LastPhase
		}
		errDetail := ""
		if r.ErrorDetail != nil {
			errDetail = *r.ErrorDetail
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.RunID,
			r.StartedAt.Format(time.RFC3339),
			duration,
			r.Status,
			lastPhase,
			r.RowsProcessed,
			errDetail)
	}
	return w.Flush()
}
