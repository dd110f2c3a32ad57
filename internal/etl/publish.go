package etl

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caremart/caremart-etl/internal/logging"
	"github.com/caremart/caremart-etl/internal/warehouse"
)

// publishMart swaps the staged mart into place. The renames happen in one
// transaction, so readers see either the old generation or the new one,
// never a partially rebuilt mart. The displaced generation is dropped
// afterwards unless keepPrevious is set.
func publishMart(ctx context.Context, pool *pgxpool.Pool, keepPrevious bool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin publish transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", warehouse.PreviousSchema)); err != nil {
		return fmt.Errorf("failed to drop previous mart: %w", err)
	}

	var liveExists bool
	if err := tx.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.schemata WHERE schema_name = $1
        )
    `, warehouse.LiveSchema).Scan(&liveExists); err != nil {
		return fmt.Errorf("failed to check live mart: %w", err)
	}

	if liveExists {
		if _, err := tx.Exec(ctx, fmt.Sprintf("ALTER SCHEMA %s RENAME TO %s",
			warehouse.LiveSchema, warehouse.PreviousSchema)); err != nil {
			return fmt.Errorf("failed to retire live mart: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf("ALTER SCHEMA %s RENAME TO %s",
		warehouse.StagingSchema, warehouse.LiveSchema)); err != nil {
		return fmt.Errorf("failed to promote staged mart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit publish: %w", err)
	}

	logging.Info().Bool("replaced_previous", liveExists).Msg("Mart published")

	if !keepPrevious {
		// Best effort; a leftover mart_prev is cleaned up by the next run.
		if _, err := pool.Exec(ctx,
			fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", warehouse.PreviousSchema)); err != nil {
			logging.Warn().Err(err).Msg("Failed to drop previous mart generation")
		}
	}

	return nil
}
