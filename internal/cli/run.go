package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/caremart/caremart-etl/internal/db"
	"github.com/caremart/caremart-etl/internal/etl"
	"github.com/caremart/caremart-etl/internal/logging"
)

var runKeepPrevious bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ETL and publish a new mart generation",
	Long: `Run the full ETL pipeline: rebuild all dimensions, aggregate encounter
metrics, load the fact table, classify 30-day readmissions, load the
bridge tables, and atomically publish the result as the live mart.

The previous mart generation is dropped after a successful publish
unless --keep-previous is given. Only one run can execute at a time;
a second concurrent run fails immediately.

Example:
  caremart-etl run --connection "postgres://..."`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runKeepPrevious, "keep-previous", false,
		"retain the displaced mart generation as mart_prev after publish")
}

func runRun(cmd *cobra.Command, args []string) error {
	if runKeepPrevious {
		cfg.Run.KeepPrevious = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logging.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	}()

	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	started := time.Now()
	pipeline := etl.NewPipeline(pool, etl.Options{
		KeepPrevious: cfg.Run.KeepPrevious,
	})

	runID, err := pipeline.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			logging.Info().Msg("Run cancelled")
		}
		return err
	}

	logging.Info().
		Int64("run_id", runID).
		Dur("elapsed", time.Since(started)).
		Msg("Mart published")

	return nil
}
