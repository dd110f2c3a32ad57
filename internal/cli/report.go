package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/caremart/caremart-etl/internal/db"
	"github.com/caremart/caremart-etl/internal/warehouse"
)

var reportCmd = &cobra.Command{
	Use:   "report [name]",
	Short: "Run an analytical report against the live mart",
	Long: `Run one of the canned analytical reports against the published mart.
Without arguments, lists the available reports.

Example:
  caremart-etl report readmission_rate --connection "postgres://..."`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		cmd.Println("Available reports:")
		cmd.Println()
		for _, r := range warehouse.Reports {
			cmd.Printf("  %-24s %s\n", r.Name, r.Description)
		}
		return nil
	}

	report := warehouse.FindReport(args[0])
	if report == nil {
		names := make([]string, len(warehouse.Reports))
		for i, r := range warehouse.Reports {
			names[i] = r.Name
		}
		return fmt.Errorf("unknown report %q (available: %s)",
			args[0], strings.Join(names, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, report.SQL)
	if err != nil {
		return fmt.Errorf("report %s failed: %w", report.Name, err)
	}
	defer rows.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fields := rows.FieldDescriptions()
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = strings.ToUpper(f.Name)
	}
	fmt.Fprintln(w, strings.Join(headers, "\t"))

	count := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return fmt.Errorf("report %s failed: %w", report.Name, err)
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = formatValue(v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("report %s failed: %w", report.Name, err)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	cmd.Printf("\n(%d rows)\n", count)
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case time.Time:
		return val.Format("2006-01-02")
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
