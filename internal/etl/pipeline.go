//-------------------------------------------------------------------------
//
// CareMart ETL
//
// Copyright (c) 2025 - 2026, CareMart Analytics
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package etl

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/caremart/caremart-etl/internal/logging"
	"github.com/caremart/caremart-etl/internal/warehouse"
)

// Phase tags recorded in the run log, in execution order.
const (
	PhaseStaging     = "staging"
	PhaseDimensions  = "dimensions"
	PhaseAggregate   = "aggregate"
	PhaseFacts       = "facts"
	PhaseReadmission = "readmission"
	PhaseBridges     = "bridges"
	PhasePublish     = "publish"
)

// Options control a pipeline run.
type Options struct {
	// KeepPrevious retains the displaced mart generation after publish.
	KeepPrevious bool
}

// Pipeline executes one full-refresh ETL run: stage a complete new mart
// generation, load dimensions, aggregate, load facts, classify
// readmissions, load bridges, publish. A failed phase halts the run and
// marks it FAILED; recovery is a re-run, not resumption.
type Pipeline struct {
	pool    *pgxpool.Pool
	tracker *Tracker
	opts    Options
}

// NewPipeline creates a pipeline bound to the given pool.
func NewPipeline(pool *pgxpool.Pool, opts Options) *Pipeline {
	return &Pipeline{
		pool:    pool,
		tracker: NewTracker(pool),
		opts:    opts,
	}
}

// Run executes the full pipeline once and returns the run identifier.
func (p *Pipeline) Run(ctx context.Context) (runID int64, err error) {
	started := time.Now()

	runID, err = p.tracker.Start(ctx)
	if err != nil {
		return 0, err
	}

	defer func() {
		status := StatusSuccess
		if err != nil {
			status = StatusFailed
			err = fmt.Errorf("run %d failed: %w", runID, err)
		}
		// The run record must be finalized even when ctx was cancelled.
		if cerr := p.tracker.Complete(context.WithoutCancel(ctx), runID, status, err); cerr != nil {
			logging.Error().Err(cerr).Msg("Failed to finalize run record")
		}
	}()

	// loadTime anchors age computation for the whole run.
	loadTime := started.UTC()

	if err = warehouse.CreateStagingSchema(ctx, p.pool); err != nil {
		return runID, err
	}
	if err = p.tracker.Advance(ctx, runID, PhaseStaging, 0); err != nil {
		return runID, err
	}

	dimRows, err := p.loadDimensions(ctx, loadTime)
	if err != nil {
		return runID, err
	}
	if err = p.tracker.Advance(ctx, runID, PhaseDimensions, dimRows); err != nil {
		return runID, err
	}

	aggregates, err := loadEncounterAggregates(ctx, p.pool)
	if err != nil {
		return runID, fmt.Errorf("aggregation failed: %w", err)
	}
	if err = p.tracker.Advance(ctx, runID, PhaseAggregate, int64(len(aggregates))); err != nil {
		return runID, err
	}

	keys, err := loadDimensionKeys(ctx, p.pool)
	if err != nil {
		return runID, err
	}
	facts, dropped := buildFactRows(aggregates, keys)
	factRows, err := loadFacts(ctx, p.pool, facts, dropped)
	if err != nil {
		return runID, fmt.Errorf("fact load failed: %w", err)
	}
	if err = p.tracker.Advance(ctx, runID, PhaseFacts, factRows); err != nil {
		return runID, err
	}

	flagged, err := classifyReadmissions(ctx, p.pool)
	if err != nil {
		return runID, fmt.Errorf("readmission classification failed: %w", err)
	}
	if err = p.tracker.Advance(ctx, runID, PhaseReadmission, flagged); err != nil {
		return runID, err
	}

	bridgeRows, err := loadBridges(ctx, p.pool)
	if err != nil {
		return runID, err
	}
	if err = p.tracker.Advance(ctx, runID, PhaseBridges, bridgeRows); err != nil {
		return runID, err
	}

	if err = publishMart(ctx, p.pool, p.opts.KeepPrevious); err != nil {
		return runID, err
	}
	if err = p.tracker.Advance(ctx, runID, PhasePublish, 0); err != nil {
		return runID, err
	}

	logging.Info().
		Int64("run_id", runID).
		Int64("facts", factRows).
		Int64("readmissions", flagged).
		Dur("elapsed", time.Since(started)).
		Msg("ETL run complete")

	return runID, nil
}

// loadDimensions runs all dimension loads concurrently; they have no
// dependencies on one another, only on the source snapshot.
func (p *Pipeline) loadDimensions(ctx context.Context, loadTime time.Time) (int64, error) {
	var total atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	for _, loader := range dimensionLoaders(loadTime) {
		loader := loader
		g.Go(func() error {
			rows, err := loader.load(gctx, p.pool)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", loader.name, err)
			}
			logDimensionLoaded(loader.name, rows)
			total.Add(rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	return total.Load(), nil
}
