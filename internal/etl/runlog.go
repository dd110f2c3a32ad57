package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caremart/caremart-etl/internal/logging"
)

// Run statuses recorded in etl_run_log.
const (
	StatusRunning = "RUNNING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// runLockKey is the advisory lock key guarding against concurrent runs.
// A second run against the same database fails fast instead of corrupting
// the staging schema of the run already in flight.
const runLockKey int64 = 227_414_001

const createRunLogSQL = `
CREATE TABLE IF NOT EXISTS etl_run_log (
    run_id         BIGSERIAL PRIMARY KEY,
    started_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    ended_at       TIMESTAMPTZ,
    status         VARCHAR(10) NOT NULL,
    last_phase     VARCHAR(30),
    rows_processed BIGINT NOT NULL DEFAULT 0,
    error_detail   TEXT
)`

// Tracker records pipeline executions in the append-only etl_run_log
// table. One row per run, updated at phase boundaries, never deleted.
type Tracker struct {
	pool *pgxpool.Pool

	// lockConn pins the session holding the run advisory lock.
	lockConn *pgxpool.Conn
}

// RunRecord is one row of etl_run_log.
type RunRecord struct {
	RunID         int64
	StartedAt     time.Time
	EndedAt       *time.Time
	Status        string
	LastPhase     *string
	RowsProcessed int64
	ErrorDetail   *string
}

// NewTracker creates a run tracker backed by the given pool.
func NewTracker(pool *pgxpool.Pool) *Tracker {
	return &Tracker{pool: pool}
}

// Start acquires the run lock, inserts a RUNNING run record and returns
// its identifier. Fails if another run holds the lock.
func (t *Tracker) Start(ctx context.Context) (int64, error) {
	if _, err := t.pool.Exec(ctx, createRunLogSQL); err != nil {
		return 0, fmt.Errorf("failed to create run log table: %w", err)
	}

	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire lock connection: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx,
		`SELECT pg_try_advisory_lock($1)`, runLockKey).Scan(&locked); err != nil {
		conn.Release()
		return 0, fmt.Errorf("failed to take run lock: %w", err)
	}
	if !locked {
		conn.Release()
		return 0, fmt.Errorf("another ETL run is already in progress")
	}
	t.lockConn = conn

	var runID int64
	err = t.pool.QueryRow(ctx, `
        INSERT INTO etl_run_log (status) VALUES ($1) RETURNING run_id
    `, StatusRunning).Scan(&runID)
	if err != nil {
		t.releaseLock(ctx)
		return 0, fmt.Errorf("failed to insert run record: %w", err)
	}

	logging.Info().Int64("run_id", runID).Msg("Run started")
	return runID, nil
}

// Advance records a completed phase and adds its row count to the run's
// cumulative total.
func (t *Tracker) Advance(ctx context.Context, runID int64, phase string, rows int64) error {
	_, err := t.pool.Exec(ctx, `
        UPDATE etl_run_log
        SET last_phase = $2, rows_processed = rows_processed + $3
        WHERE run_id = $1
    `, runID, phase, rows)
	if err != nil {
		return fmt.Errorf("failed to advance run %d to phase %s: %w", runID, phase, err)
	}

	logging.Info().
		Int64("run_id", runID).
		Str("phase", phase).
		Int64("rows", rows).
		Msg("Phase complete")
	return nil
}

// Complete finalizes the run record with a terminal status and releases
// the run lock.
func (t *Tracker) Complete(ctx context.Context, runID int64, status string, runErr error) error {
	defer t.releaseLock(ctx)

	var detail any
	if runErr != nil {
		detail = runErr.Error()
	}

	_, err := t.pool.Exec(ctx, `
        UPDATE etl_run_log
        SET ended_at = now(), status = $2, error_detail = $3
        WHERE run_id = $1
    `, runID, status, detail)
	if err != nil {
		return fmt.Errorf("failed to complete run %d: %w", runID, err)
	}

	logging.Info().
		Int64("run_id", runID).
		Str("status", status).
		Msg("Run finished")
	return nil
}

// Recent returns the most recent run records, newest first.
func (t *Tracker) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := t.pool.Query(ctx, `
        SELECT run_id, started_at, ended_at, status, last_phase, rows_processed, error_detail
        FROM etl_run_log
        ORDER BY run_id DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.EndedAt, &r.Status,
			&r.LastPhase, &r.RowsProcessed, &r.ErrorDetail); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (t *Tracker) releaseLock(ctx context.Context) {
	if t.lockConn == nil {
		return
	}
	if _, err := t.lockConn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, runLockKey); err != nil {
		logging.Warn().Err(err).Msg("Failed to release run lock")
	}
	t.lockConn.Release()
	t.lockConn = nil
}
