//-------------------------------------------------------------------------
//
// CareMart ETL
//
// Copyright (c) 2025 - 2026, CareMart Analytics
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

// ReportQuery is a named read-only query over the published mart.
type ReportQuery struct {
	// Name is the query identifier.
	Name string

	// Description describes what the query reports.
	Description string

	// SQL is the query text.
	SQL string
}

// Reports are the illustrative report queries shipped with the mart.
//
// Note that readmission_rate filters to inpatient encounters while the
// readmitted_30d indicator itself is computed for every encounter type;
// the indicator and the rate are two separate policies.
var Reports = []ReportQuery{
	{
		Name:        "readmission_rate",
		Description: "Monthly 30-day readmission rate for inpatient encounters",
		SQL: `
SELECT d.year,
       d.month,
       COUNT(*) AS inpatient_encounters,
       COUNT(*) FILTER (WHERE f.readmitted_30d) AS readmissions,
       ROUND(100.0 * COUNT(*) FILTER (WHERE f.readmitted_30d) / COUNT(*), 2)::float8 AS readmission_rate_pct
FROM mart.fact_encounters f
JOIN mart.dim_date d ON d.date_key = f.date_key
JOIN mart.dim_encounter_type t ON t.encounter_type_key = f.encounter_type_key
WHERE t.encounter_type_name = 'Inpatient'
GROUP BY d.year, d.month
ORDER BY d.year, d.month`,
	},
	{
		Name:        "avg_los_by_specialty",
		Description: "Average length of stay by provider specialty",
		SQL: `
SELECT s.specialty_name,
       COUNT(*) AS encounters,
       ROUND(AVG(f.length_of_stay_days), 2)::float8 AS avg_length_of_stay
FROM mart.fact_encounters f
JOIN mart.dim_specialty s ON s.specialty_key = f.specialty_key
GROUP BY s.specialty_name
ORDER BY avg_length_of_stay DESC`,
	},
	{
		Name:        "revenue_by_department",
		Description: "Billed vs allowed revenue by department",
		SQL: `
SELECT dep.department_name,
       COUNT(*) AS encounters,
       SUM(f.total_claim_amount)::float8 AS total_billed,
       SUM(f.total_allowed_amount)::float8 AS total_allowed,
       ROUND(100.0 * SUM(f.total_allowed_amount) / NULLIF(SUM(f.total_claim_amount), 0), 2)::float8
           AS allowed_pct
FROM mart.fact_encounters f
JOIN mart.dim_department dep ON dep.department_key = f.department_key
GROUP BY dep.department_name
ORDER BY total_billed DESC`,
	},
	{
		Name:        "top_diagnoses",
		Description: "Most frequent diagnoses across encounters",
		SQL: `
SELECT dd.icd10_code,
       dd.description,
       COUNT(*) AS encounters,
       COUNT(*) FILTER (WHERE b.diagnosis_sequence = 1) AS primary_diagnosis_count
FROM mart.bridge_encounter_diagnosis b
JOIN mart.dim_diagnosis dd ON dd.diagnosis_key = b.diagnosis_key
GROUP BY dd.icd10_code, dd.description
ORDER BY encounters DESC
LIMIT 15`,
	},
	{
		Name:        "volume_by_age_group",
		Description: "Encounter volume by patient age group and encounter type",
		SQL: `
SELECT p.age_group,
       t.encounter_type_name,
       COUNT(*) AS encounters,
       ROUND(AVG(f.diagnosis_count), 2)::float8 AS avg_diagnoses,
       ROUND(AVG(f.procedure_count), 2)::float8 AS avg_procedures
FROM mart.fact_encounters f
JOIN mart.dim_patient p ON p.patient_key = f.patient_key
JOIN mart.dim_encounter_type t ON t.encounter_type_key = f.encounter_type_key
GROUP BY p.age_group, t.encounter_type_name
ORDER BY p.age_group, encounters DESC`,
	},
}

// FindReport returns the report query with the given name, or nil.
func FindReport(name string) *ReportQuery {
	for i := range Reports {
		if Reports[i].Name == name {
			return &Reports[i]
		}
	}
	return nil
}
