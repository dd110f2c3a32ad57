package etl

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The bridge loads join source link rows to the staged fact and dimension
// surrogate keys. Inner joins silently skip links whose encounter has no
// fact row (excluded for a null date or an unresolvable dimension key).

const loadDiagnosisBridgeSQL = `
INSERT INTO mart_next.bridge_encounter_diagnosis (encounter_key, diagnosis_key, diagnosis_sequence)
SELECT f.encounter_key, dd.diagnosis_key, ed.diagnosis_sequence
FROM clinical.encounter_diagnoses ed
JOIN mart_next.fact_encounters f ON f.encounter_id = ed.encounter_id
JOIN mart_next.dim_diagnosis dd ON dd.diagnosis_id = ed.diagnosis_id
`

const loadProcedureBridgeSQL = `
INSERT INTO mart_next.bridge_encounter_procedure (encounter_key, procedure_key, procedure_date)
SELECT f.encounter_key, dp.procedure_key, ep.procedure_date
FROM clinical.encounter_procedures ep
JOIN mart_next.fact_encounters f ON f.encounter_id = ep.encounter_id
JOIN mart_next.dim_procedure dp ON dp.procedure_id = ep.procedure_id
`

// loadBridges populates both many-to-many bridge tables and returns the
// total number of bridge rows created.
func loadBridges(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	diagTag, err := pool.Exec(ctx, loadDiagnosisBridgeSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to load diagnosis bridge: %w", err)
	}

	procTag, err := pool.Exec(ctx, loadProcedureBridgeSQL)
	if err != nil {
		return diagTag.RowsAffected(), fmt.Errorf("failed to load procedure bridge: %w", err)
	}

	return diagTag.RowsAffected() + procTag.RowsAffected(), nil
}
