package etl

import (
	"context"
	"time"
)

// EncounterAggregate is the intermediate per-encounter aggregate joining
// an encounter to its provider (for specialty attribution) and to the
// grouped detail tables. Billing sums stay nullable here; the fact
// projection substitutes zero.
type EncounterAggregate struct {
	EncounterID    int64
	PatientID      int64
	ProviderID     int64
	SpecialtyID    int64
	DepartmentID   int64
	EncounterType  string
	EncounterDate  time.Time
	DischargeDate  *time.Time
	DiagnosisCount int
	ProcedureCount int
	TotalClaim     *float64
	TotalAllowed   *float64
}

// Diagnosis links, procedure links and billing lines all fan out from an
// encounter, so each detail table is grouped on its own before joining.
// Joining them raw and aggregating afterwards would double-count the
// billing sums across the Cartesian intermediate.
const aggregateSQL = `
SELECT e.encounter_id,
       e.patient_id,
       e.provider_id,
       p.specialty_id,
       e.department_id,
       COALESCE(e.encounter_type, ''),
       e.encounter_date,
       e.discharge_date,
       COALESCE(ed.diagnosis_count, 0),
       COALESCE(ep.procedure_count, 0),
       b.total_claim::float8,
       b.total_allowed::float8
FROM clinical.encounters e
JOIN clinical.providers p ON p.provider_id = e.provider_id
LEFT JOIN (
    SELECT encounter_id, COUNT(DISTINCT diagnosis_id) AS diagnosis_count
    FROM clinical.encounter_diagnoses
    GROUP BY encounter_id
) ed ON ed.encounter_id = e.encounter_id
LEFT JOIN (
    SELECT encounter_id, COUNT(DISTINCT procedure_id) AS procedure_count
    FROM clinical.encounter_procedures
    GROUP BY encounter_id
) ep ON ep.encounter_id = e.encounter_id
LEFT JOIN (
    SELECT encounter_id,
           SUM(claim_amount) AS total_claim,
           SUM(allowed_amount) AS total_allowed
    FROM clinical.billing
    GROUP BY encounter_id
) b ON b.encounter_id = e.encounter_id
WHERE e.encounter_date IS NOT NULL
ORDER BY e.encounter_id
`

// loadEncounterAggregates produces one aggregate row per source encounter
// with a non-null encounter date.
func loadEncounterAggregates(ctx context.Context, db DB) ([]EncounterAggregate, error) {
	rows, err := db.Query(ctx, aggregateSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aggregates []EncounterAggregate
	for rows.Next() {
		var a EncounterAggregate
		if err := rows.Scan(
			&a.EncounterID, &a.PatientID, &a.ProviderID, &a.SpecialtyID,
			&a.DepartmentID, &a.EncounterType, &a.EncounterDate, &a.DischargeDate,
			&a.DiagnosisCount, &a.ProcedureCount, &a.TotalClaim, &a.TotalAllowed,
		); err != nil {
			return nil, err
		}
		aggregates = append(aggregates, a)
	}
	return aggregates, rows.Err()
}
