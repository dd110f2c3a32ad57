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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caremart/caremart-etl/internal/logging"
)

// factRow is one projected fact_encounters row ready for bulk load.
type factRow struct {
	encounterID      int64
	patientKey       int64
	providerKey      int64
	specialtyKey     int64
	departmentKey    int64
	encounterTypeKey int64
	dateKey          int
	dischargeDateKey *int
	lengthOfStay     int
	diagnosisCount   int
	procedureCount   int
	totalClaim       float64
	totalAllowed     float64
}

// buildFactRows resolves every required dimension key for each aggregate
// and projects the computed fact columns. An aggregate whose patient,
// provider, specialty, department or encounter-type key does not resolve
// is dropped, mirroring inner-join semantics; the count of dropped rows is
// returned for logging. The readmission indicator starts false and is set
// by the classifier pass after load.
func buildFactRows(aggregates []EncounterAggregate, keys *dimensionKeys) (facts []factRow, dropped int) {
	facts = make([]factRow, 0, len(aggregates))

	for _, a := range aggregates {
		patientKey, ok := keys.patients.Resolve(a.PatientID)
		if !ok {
			dropped++
			continue
		}
		providerKey, ok := keys.providers.Resolve(a.ProviderID)
		if !ok {
			dropped++
			continue
		}
		specialtyKey, ok := keys.specialties.Resolve(a.SpecialtyID)
		if !ok {
			dropped++
			continue
		}
		departmentKey, ok := keys.departments.Resolve(a.DepartmentID)
		if !ok {
			dropped++
			continue
		}
		typeKey, ok := keys.encounterTypes.Resolve(NormalizeEncounterType(a.EncounterType))
		if !ok {
			dropped++
			continue
		}

		f := factRow{
			encounterID:      a.EncounterID,
			patientKey:       patientKey,
			providerKey:      providerKey,
			specialtyKey:     specialtyKey,
			departmentKey:    departmentKey,
			encounterTypeKey: typeKey,
			dateKey:          DateKey(a.EncounterDate),
			lengthOfStay:     LengthOfStayDays(a.EncounterDate, a.DischargeDate),
			diagnosisCount:   a.DiagnosisCount,
			procedureCount:   a.ProcedureCount,
		}
		if a.DischargeDate != nil {
			key := DateKey(*a.DischargeDate)
			f.dischargeDateKey = &key
		}
		if a.TotalClaim != nil {
			f.totalClaim = *a.TotalClaim
		}
		if a.TotalAllowed != nil {
			f.totalAllowed = *a.TotalAllowed
		}

		facts = append(facts, f)
	}

	return facts, dropped
}

// loadFacts bulk-loads the projected fact rows into the staging schema.
// This is the point where fact surrogate keys come into existence.
func loadFacts(ctx context.Context, pool *pgxpool.Pool, facts []factRow, dropped int) (int64, error) {
	copyRows := make([][]any, 0, len(facts))
	for _, f := range facts {
		var dischargeKey any
		if f.dischargeDateKey != nil {
			dischargeKey = *f.dischargeDateKey
		}
		copyRows = append(copyRows, []any{
			f.encounterID, f.patientKey, f.providerKey, f.specialtyKey,
			f.departmentKey, f.encounterTypeKey, f.dateKey, dischargeKey,
			f.lengthOfStay, f.diagnosisCount, f.procedureCount,
			f.totalClaim, f.totalAllowed, false,
		})
	}

	n, err := pool.CopyFrom(ctx,
		pgx.Identifier{"mart_next", "fact_encounters"},
		[]string{"encounter_id", "patient_key", "provider_key", "specialty_key",
			"department_key", "encounter_type_key", "date_key", "discharge_date_key",
			"length_of_stay_days", "diagnosis_count", "procedure_count",
			"total_claim_amount", "total_allowed_amount", "readmitted_30d"},
		pgx.CopyFromRows(copyRows))
	if err != nil {
		return 0, err
	}

	if dropped > 0 {
		logging.Warn().
			Int("dropped", dropped).
			Int64("loaded", n).
			Msg("Excluded encounters with unresolvable dimension keys")
	}

	return n, nil
}
