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
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caremart/caremart-etl/internal/logging"
)

// The dimension loads are mutually independent; each produces exactly one
// row per distinct natural key observed in its source entity. Source rows
// are read in natural-key order so surrogate assignment is deterministic
// across runs of an unchanged source.

// loadDateDimension builds dim_date from every distinct encounter or
// discharge date among encounters that have an encounter date.
func loadDateDimension(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	rows, err := pool.Query(ctx, `
        SELECT DISTINCT encounter_date
        FROM clinical.encounters
        WHERE encounter_date IS NOT NULL
        UNION
        SELECT DISTINCT discharge_date
        FROM clinical.encounters
        WHERE encounter_date IS NOT NULL AND discharge_date IS NOT NULL
    `)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var dates []CalendarDate
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return 0, err
		}
		dates = append(dates, NewCalendarDate(d))
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Key < dates[j].Key })

	copyRows := make([][]any, 0, len(dates))
	for _, d := range dates {
		copyRows = append(copyRows, []any{
			d.Key, d.Date, d.Year, d.Quarter, d.Month,
			d.MonthName, d.WeekOfYear, d.DayName, d.IsWeekend,
		})
	}

	return pool.CopyFrom(ctx,
		pgx.Identifier{"mart_next", "dim_date"},
		[]string{"date_key", "full_date", "year", "quarter", "month",
			"month_name", "week_of_year", "day_name", "is_weekend"},
		pgx.CopyFromRows(copyRows))
}

// loadPatientDimension builds dim_patient. Patients without a recorded
// date of birth are excluded; this is a documented data-quality exclusion,
// and any encounters for such patients are in turn dropped by the fact
// loader when their patient key fails to resolve.
func loadPatientDimension(ctx context.Context, pool *pgxpool.Pool, loadTime time.Time) (int64, error) {
	rows, err := pool.Query(ctx, `
        SELECT patient_id, mrn, first_name, last_name, date_of_birth, gender
        FROM clinical.patients
        WHERE date_of_birth IS NOT NULL
        ORDER BY patient_id
    `)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var copyRows [][]any
	for rows.Next() {
		var (
			patientID   int64
			mrn         string
			first, last string
			dob         time.Time
			gender      *string
		)
		if err := rows.Scan(&patientID, &mrn, &first, &last, &dob, &gender); err != nil {
			return 0, err
		}

		rawGender := ""
		if gender != nil {
			rawGender = *gender
		}
		age := AgeAt(dob, loadTime)

		copyRows = append(copyRows, []any{
			patientID, mrn, PatientDisplayName(first, last),
			NormalizeGender(rawGender), dob, age, AgeGroup(age),
		})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	return pool.CopyFrom(ctx,
		pgx.Identifier{"mart_next", "dim_patient"},
		[]string{"patient_id", "mrn", "patient_name", "gender",
			"date_of_birth", "age", "age_group"},
		pgx.CopyFromRows(copyRows))
}

// loadProviderDimension builds dim_provider with a trimmed display name
// and a normalized credential.
func loadProviderDimension(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	rows, err := pool.Query(ctx, `
        SELECT provider_id, first_name, last_name, credential
        FROM clinical.providers
        ORDER BY provider_id
    `)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var copyRows [][]any
	for rows.Next() {
		var (
			providerID  int64
			first, last string
			credential  *string
		)
		if err := rows.Scan(&providerID, &first, &last, &credential); err != nil {
			return 0, err
		}

		rawCredential := ""
		if credential != nil {
			rawCredential = *credential
		}

		copyRows = append(copyRows, []any{
			providerID,
			ProviderDisplayName(first, last),
			NormalizeCredential(rawCredential),
		})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	return pool.CopyFrom(ctx,
		pgx.Identifier{"mart_next", "dim_provider"},
		[]string{"provider_id", "provider_name", "credential"},
		pgx.CopyFromRows(copyRows))
}

// loadEncounterTypeDimension derives dim_encounter_type from the distinct
// normalized encounter type strings observed in source encounters. It is
// a lookup dimension built from observed values, not a source table.
func loadEncounterTypeDimension(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	rows, err := pool.Query(ctx, `
        SELECT DISTINCT encounter_type
        FROM clinical.encounters
        WHERE encounter_type IS NOT NULL
    `)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return 0, err
		}
		if name := NormalizeEncounterType(raw); name != "" {
			seen[name] = true
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := pool.Exec(ctx, `
            INSERT INTO mart_next.dim_encounter_type (encounter_type_name) VALUES ($1)
        `, name); err != nil {
			return 0, err
		}
	}
	return int64(len(names)), nil
}

// Lookup dimensions copied straight from the source reference tables.
var lookupDimensionSQL = map[string]string{
	"dim_specialty": `
        INSERT INTO mart_next.dim_specialty (specialty_id, specialty_name)
        SELECT specialty_id, specialty_name
        FROM clinical.specialties
        ORDER BY specialty_id`,
	"dim_department": `
        INSERT INTO mart_next.dim_department (department_id, department_name, building)
        SELECT department_id, department_name, building
        FROM clinical.departments
        ORDER BY department_id`,
	"dim_diagnosis": `
        INSERT INTO mart_next.dim_diagnosis (diagnosis_id, icd10_code, description)
        SELECT diagnosis_id, icd10_code, description
        FROM clinical.diagnoses
        ORDER BY diagnosis_id`,
	"dim_procedure": `
        INSERT INTO mart_next.dim_procedure (procedure_id, cpt_code, description)
        SELECT procedure_id, cpt_code, description
        FROM clinical.procedures
        ORDER BY procedure_id`,
}

func loadLookupDimension(ctx context.Context, pool *pgxpool.Pool, table string) (int64, error) {
	sql, ok := lookupDimensionSQL[table]
	if !ok {
		return 0, fmt.Errorf("unknown lookup dimension: %s", table)
	}
	tag, err := pool.Exec(ctx, sql)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// dimensionLoader pairs a dimension name with its load function.
type dimensionLoader struct {
	name string
	load func(ctx context.Context, pool *pgxpool.Pool) (int64, error)
}

// dimensionLoaders returns all dimension loads for one run. loadTime fixes
// the reference time for age computation so a run is internally consistent.
func dimensionLoaders(loadTime time.Time) []dimensionLoader {
	loaders := []dimensionLoader{
		{"dim_date", loadDateDimension},
		{"dim_provider", loadProviderDimension},
		{"dim_encounter_type", loadEncounterTypeDimension},
		{"dim_patient", func(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
			return loadPatientDimension(ctx, pool, loadTime)
		}},
	}
	for _, table := range []string{"dim_specialty", "dim_department", "dim_diagnosis", "dim_procedure"} {
		table := table
		loaders = append(loaders, dimensionLoader{table,
			func(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
				return loadLookupDimension(ctx, pool, table)
			}})
	}
	return loaders
}

func logDimensionLoaded(name string, rows int64) {
	logging.Debug().
		Str("dimension", name).
		Int64("rows", rows).
		Msg("Dimension loaded")
}
