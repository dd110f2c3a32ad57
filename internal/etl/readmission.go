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
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// readmissionWindowDays is the look-back window for the readmission
// indicator: a prior inpatient encounter for the same patient within the
// preceding 30 days (inclusive) and strictly before the current date.
const readmissionWindowDays = 30

// Visit is one encounter in a patient's chronological history.
type Visit struct {
	EncounterID int64
	PatientID   int64
	Date        time.Time
	Inpatient   bool
}

// markReadmissions scans visits sorted by patient then date and returns
// the encounter IDs that qualify as 30-day readmissions. Each visit is
// evaluated independently against the patient's prior inpatient history;
// the current visit's own type is not constrained. A single pass with a
// sliding window replaces the quadratic temporal self-join a SQL
// formulation would need.
func markReadmissions(visits []Visit) []int64 {
	var readmitted []int64

	// window holds prior inpatient dates for the current patient,
	// ascending; head indexes the oldest date still within range.
	var window []time.Time
	head := 0
	currentPatient := int64(-1)

	for _, v := range visits {
		if v.PatientID != currentPatient {
			currentPatient = v.PatientID
			window = window[:0]
			head = 0
		}

		cutoff := v.Date.AddDate(0, 0, -readmissionWindowDays)
		for head < len(window) && window[head].Before(cutoff) {
			head++
		}

		// Any remaining windowed date is >= cutoff; it counts only if
		// strictly before the current date (same-day encounters are not
		// readmissions).
		if head < len(window) && window[head].Before(v.Date) {
			readmitted = append(readmitted, v.EncounterID)
		}

		if v.Inpatient {
			window = append(window, v.Date)
		}
	}

	return readmitted
}

// classifyReadmissions re-derives each patient's encounter history from
// the source, marks the qualifying encounters and flips their fact rows.
// It runs after the fact load and returns the number of rows flagged.
func classifyReadmissions(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	rows, err := pool.Query(ctx, `
        SELECT encounter_id, patient_id, encounter_date, COALESCE(encounter_type, '')
        FROM clinical.encounters
        WHERE encounter_date IS NOT NULL
        ORDER BY patient_id, encounter_date, encounter_id
    `)
	if err != nil {
		return 0, err
	}

	var visits []Visit
	for rows.Next() {
		var (
			v       Visit
			rawType string
		)
		if err := rows.Scan(&v.EncounterID, &v.PatientID, &v.Date, &rawType); err != nil {
			rows.Close()
			return 0, err
		}
		v.Inpatient = NormalizeEncounterType(rawType) == InpatientType
		visits = append(visits, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	readmitted := markReadmissions(visits)
	if len(readmitted) == 0 {
		return 0, nil
	}

	// Readmitted encounters without a fact row were excluded at fact load
	// time; the ANY filter simply skips them.
	tag, err := pool.Exec(ctx, `
        UPDATE mart_next.fact_encounters
        SET readmitted_30d = TRUE
        WHERE encounter_id = ANY($1)
    `, readmitted)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
