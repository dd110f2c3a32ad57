//-------------------------------------------------------------------------
//
// CareMart ETL
//
// Copyright (c) 2025 - 2026, CareMart Analytics
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caremart/caremart-etl/internal/datagen"
	"github.com/caremart/caremart-etl/internal/logging"
)

// Reference data for the clinical schema. Encounter types, genders and
// credentials are intentionally inconsistent in casing and whitespace;
// the warehouse load is responsible for normalizing observed values.
var specialtyNames = []string{
	"Cardiology", "Internal Medicine", "Orthopedics", "Pediatrics",
	"Oncology", "Neurology", "Emergency Medicine", "General Surgery",
	"Pulmonology", "Nephrology", "Gastroenterology", "Family Medicine",
}

var departments = []struct {
	name     string
	building string
}{
	{"Emergency", "Main"}, {"Intensive Care", "Main"}, {"Medical Surgical", "East"},
	{"Cardiac Care", "East"}, {"Pediatrics", "West"}, {"Oncology", "West"},
	{"Labor and Delivery", "West"}, {"Radiology", "Main"},
	{"Outpatient Clinic", "Annex"}, {"Telemetry", "East"},
}

var diagnosisCodes = []struct {
	code string
	desc string
}{
	{"I10", "Essential primary hypertension"},
	{"E11.9", "Type 2 diabetes mellitus without complications"},
	{"J18.9", "Pneumonia, unspecified organism"},
	{"I50.9", "Heart failure, unspecified"},
	{"N39.0", "Urinary tract infection, site not specified"},
	{"J44.1", "COPD with acute exacerbation"},
	{"A41.9", "Sepsis, unspecified organism"},
	{"I21.4", "Non-ST elevation myocardial infarction"},
	{"K92.2", "Gastrointestinal hemorrhage, unspecified"},
	{"I63.9", "Cerebral infarction, unspecified"},
	{"E87.1", "Hypo-osmolality and hyponatremia"},
	{"N17.9", "Acute kidney failure, unspecified"},
	{"J96.01", "Acute respiratory failure with hypoxia"},
	{"R07.9", "Chest pain, unspecified"},
	{"M54.5", "Low back pain"},
	{"F32.9", "Major depressive disorder, single episode"},
	{"D64.9", "Anemia, unspecified"},
	{"E78.5", "Hyperlipidemia, unspecified"},
	{"Z51.11", "Encounter for antineoplastic chemotherapy"},
	{"S72.001A", "Fracture of unspecified part of neck of right femur"},
}

var procedureCodes = []struct {
	code string
	desc string
}{
	{"99213", "Office outpatient visit, established patient"},
	{"99223", "Initial hospital care, high complexity"},
	{"99232", "Subsequent hospital care, moderate complexity"},
	{"71046", "Radiologic examination, chest, 2 views"},
	{"80053", "Comprehensive metabolic panel"},
	{"85025", "Complete blood count with differential"},
	{"93000", "Electrocardiogram, routine, with interpretation"},
	{"36415", "Collection of venous blood by venipuncture"},
	{"45378", "Colonoscopy, flexible, diagnostic"},
	{"93306", "Echocardiography, transthoracic, complete"},
	{"70450", "CT head or brain without contrast"},
	{"72148", "MRI lumbar spine without contrast"},
	{"29881", "Arthroscopy, knee, surgical, with meniscectomy"},
	{"47562", "Laparoscopy, surgical, cholecystectomy"},
	{"31500", "Intubation, endotracheal, emergency"},
	{"96413", "Chemotherapy administration, intravenous infusion"},
}

var encounterTypes = []string{
	"INPATIENT", "Inpatient", "inpatient",
	"OUTPATIENT", "Outpatient", "outpatient ",
	"Emergency", " EMERGENCY",
	"Observation", "Telehealth",
}

// Relative frequency per entry above.
var encounterTypeWeights = []int{8, 8, 6, 14, 14, 12, 10, 8, 6, 6}

var genders = []string{"MALE", "male", "Male", "FEMALE", "female", "Female", "Other"}

var credentials = []string{"MD", "md", "DO", "NP", "PA", "MD, PhD", ""}

// Config controls how much synthetic source data is generated.
type Config struct {
	Patients   int
	Encounters int
	RandomSeed uint64
}

// Generator populates the clinical schema with synthetic data.
type Generator struct {
	faker *datagen.Faker
	cfg   datagen.BatchInsertConfig
}

// NewGenerator creates a new clinical data generator. A non-zero seed makes
// the output reproducible.
func NewGenerator(seed uint64) *Generator {
	faker := datagen.NewFaker()
	if seed != 0 {
		faker = datagen.NewFakerWithSeed(seed)
	}
	return &Generator{
		faker: faker,
		cfg:   datagen.DefaultBatchConfig(),
	}
}

// GenerateData populates the clinical schema.
func (g *Generator) GenerateData(ctx context.Context, pool *pgxpool.Pool, cfg Config) error {
	logging.Info().
		Int("patients", cfg.Patients).
		Int("encounters", cfg.Encounters).
		Msg("Generating clinical data")

	specialtyIDs, err := g.generateSpecialties(ctx, pool)
	if err != nil {
		return fmt.Errorf("failed to generate specialties: %w", err)
	}

	departmentIDs, err := g.generateDepartments(ctx, pool)
	if err != nil {
		return fmt.Errorf("failed to generate departments: %w", err)
	}

	diagnosisIDs, err := g.generateDiagnoses(ctx, pool)
	if err != nil {
		return fmt.Errorf("failed to generate diagnoses: %w", err)
	}

	procedureIDs, err := g.generateProcedures(ctx, pool)
	if err != nil {
		return fmt.Errorf("failed to generate procedures: %w", err)
	}

	numProviders := max(10, cfg.Patients/25)
	providerIDs, err := g.generateProviders(ctx, pool, numProviders, specialtyIDs)
	if err != nil {
		return fmt.Errorf("failed to generate providers: %w", err)
	}

	patientIDs, err := g.generatePatients(ctx, pool, cfg.Patients)
	if err != nil {
		return fmt.Errorf("failed to generate patients: %w", err)
	}

	if err := g.generateEncounters(ctx, pool, cfg.Encounters,
		patientIDs, providerIDs, departmentIDs); err != nil {
		return fmt.Errorf("failed to generate encounters: %w", err)
	}

	if err := g.generateEncounterDetails(ctx, pool, diagnosisIDs, procedureIDs); err != nil {
		return fmt.Errorf("failed to generate encounter details: %w", err)
	}

	return nil
}

func (g *Generator) generateSpecialties(ctx context.Context, pool *pgxpool.Pool) ([]int32, error) {
	logging.Info().Msg("Generating specialties")
	ids := make([]int32, 0, len(specialtyNames))
	for _, name := range specialtyNames {
		var id int32
		err := pool.QueryRow(ctx, `
			INSERT INTO clinical.specialties (specialty_name) VALUES ($1)
			RETURNING specialty_id
		`, name).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (g *Generator) generateDepartments(ctx context.Context, pool *pgxpool.Pool) ([]int32, error) {
	logging.Info().Msg("Generating departments")
	ids := make([]int32, 0, len(departments))
	for _, d := range departments {
		var id int32
		err := pool.QueryRow(ctx, `
			INSERT INTO clinical.departments (department_name, building) VALUES ($1, $2)
			RETURNING department_id
		`, d.name, d.building).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (g *Generator) generateDiagnoses(ctx context.Context, pool *pgxpool.Pool) ([]int32, error) {
	logging.Info().Msg("Generating diagnoses")
	ids := make([]int32, 0, len(diagnosisCodes))
	for _, d := range diagnosisCodes {
		var id int32
		err := pool.QueryRow(ctx, `
			INSERT INTO clinical.diagnoses (icd10_code, description) VALUES ($1, $2)
			RETURNING diagnosis_id
		`, d.code, d.desc).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (g *Generator) generateProcedures(ctx context.Context, pool *pgxpool.Pool) ([]int32, error) {
	logging.Info().Msg("Generating procedures")
	ids := make([]int32, 0, len(procedureCodes))
	for _, p := range procedureCodes {
		var id int32
		err := pool.QueryRow(ctx, `
			INSERT INTO clinical.procedures (cpt_code, description) VALUES ($1, $2)
			RETURNING procedure_id
		`, p.code, p.desc).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (g *Generator) generateProviders(ctx context.Context, pool *pgxpool.Pool,
	count int, specialtyIDs []int32) ([]int32, error) {

	logging.Info().Int("count", count).Msg("Generating providers")
	ids := make([]int32, 0, count)
	for i := 0; i < count; i++ {
		// Some credentials missing, some with stray whitespace
		credential := any(nil)
		if c := datagen.Choose(g.faker, credentials); c != "" {
			credential = " " + c
		}

		var id int32
		err := pool.QueryRow(ctx, `
			INSERT INTO clinical.providers (first_name, last_name, credential, specialty_id)
			VALUES ($1, $2, $3, $4)
			RETURNING provider_id
		`, g.faker.FirstName(), g.faker.LastName()+" ", credential,
			datagen.Choose(g.faker, specialtyIDs)).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (g *Generator) generatePatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]int64, error) {
	logging.Info().Int("count", count).Msg("Generating patients")

	now := time.Now().UTC()
	rows := make([][]any, 0, count)
	for i := 0; i < count; i++ {
		// ~5% of patients have no recorded date of birth
		var dob any
		if g.faker.Int(1, 100) > 5 {
			dob = g.faker.DateRange(now.AddDate(-95, 0, 0), now.AddDate(-1, 0, 0))
		}

		rows = append(rows, []any{
			fmt.Sprintf("MRN%08d%s", i+1, g.faker.Digits(4)),
			g.faker.FirstName(),
			g.faker.LastName(),
			dob,
			datagen.Choose(g.faker, genders),
		})
	}

	_, err := pool.CopyFrom(ctx,
		pgx.Identifier{"clinical", "patients"},
		[]string{"mrn", "first_name", "last_name", "date_of_birth", "gender"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return nil, err
	}

	return collectIDs(ctx, pool, `SELECT patient_id FROM clinical.patients ORDER BY patient_id`)
}

func (g *Generator) generateEncounters(ctx context.Context, pool *pgxpool.Pool,
	count int, patientIDs []int64, providerIDs, departmentIDs []int32) error {

	logging.Info().Int("count", count).Msg("Generating encounters")

	now := time.Now().UTC()
	progress := datagen.NewProgressReporter("encounters", int64(count), g.cfg.ProgressInterval)

	rows := make([][]any, 0, count)
	for i := 0; i < count; i++ {
		encType := datagen.ChooseWeighted(g.faker, encounterTypes, encounterTypeWeights)

		// ~3% of encounters never had a date recorded; these are excluded
		// from the warehouse entirely.
		var encDate, dischargeDate any
		if g.faker.Int(1, 100) > 3 {
			d := truncateToDay(g.faker.DateRange(now.AddDate(-2, 0, 0), now))
			encDate = d
			if isInpatientType(encType) {
				dischargeDate = d.AddDate(0, 0, g.faker.Int(0, 14))
			} else if g.faker.Int(1, 100) <= 15 {
				dischargeDate = d
			}
		}

		rows = append(rows, []any{
			datagen.Choose(g.faker, patientIDs),
			datagen.Choose(g.faker, providerIDs),
			datagen.Choose(g.faker, departmentIDs),
			encType,
			encDate,
			dischargeDate,
		})
		progress.Update(1)
	}

	_, err := pool.CopyFrom(ctx,
		pgx.Identifier{"clinical", "encounters"},
		[]string{"patient_id", "provider_id", "department_id",
			"encounter_type", "encounter_date", "discharge_date"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return err
	}
	progress.Done()
	return nil
}

// generateEncounterDetails attaches diagnosis links, procedure links and
// billing lines to the generated encounters.
func (g *Generator) generateEncounterDetails(ctx context.Context, pool *pgxpool.Pool,
	diagnosisIDs, procedureIDs []int32) error {

	logging.Info().Msg("Generating encounter diagnoses, procedures and billing")

	encRows, err := pool.Query(ctx, `
		SELECT encounter_id, encounter_date FROM clinical.encounters ORDER BY encounter_id
	`)
	if err != nil {
		return err
	}

	type encounter struct {
		id   int64
		date *time.Time
	}
	var encounters []encounter
	for encRows.Next() {
		var e encounter
		if err := encRows.Scan(&e.id, &e.date); err != nil {
			encRows.Close()
			return err
		}
		encounters = append(encounters, e)
	}
	encRows.Close()
	if err := encRows.Err(); err != nil {
		return err
	}

	var diagRows, procRows, billRows [][]any
	for _, e := range encounters {
		for seq, diagID := range pickDistinct(g.faker, diagnosisIDs, g.faker.Int(0, 4)) {
			diagRows = append(diagRows, []any{e.id, diagID, seq + 1})
		}

		var procDate any
		if e.date != nil {
			procDate = *e.date
		}
		for _, procID := range pickDistinct(g.faker, procedureIDs, g.faker.Int(0, 3)) {
			procRows = append(procRows, []any{e.id, procID, procDate})
		}

		for i := 0; i < g.faker.Int(0, 3); i++ {
			claim := g.faker.Float64(100, 25000)
			// Allowed amount is a payer-reduced claim; occasionally absent
			var allowed any
			if g.faker.Int(1, 100) > 10 {
				allowed = claim * g.faker.Float64(0.4, 0.95)
			}
			billRows = append(billRows, []any{e.id, claim, allowed})
		}
	}

	if _, err := pool.CopyFrom(ctx,
		pgx.Identifier{"clinical", "encounter_diagnoses"},
		[]string{"encounter_id", "diagnosis_id", "diagnosis_sequence"},
		pgx.CopyFromRows(diagRows)); err != nil {
		return fmt.Errorf("failed to load encounter diagnoses: %w", err)
	}

	if _, err := pool.CopyFrom(ctx,
		pgx.Identifier{"clinical", "encounter_procedures"},
		[]string{"encounter_id", "procedure_id", "procedure_date"},
		pgx.CopyFromRows(procRows)); err != nil {
		return fmt.Errorf("failed to load encounter procedures: %w", err)
	}

	if _, err := pool.CopyFrom(ctx,
		pgx.Identifier{"clinical", "billing"},
		[]string{"encounter_id", "claim_amount", "allowed_amount"},
		pgx.CopyFromRows(billRows)); err != nil {
		return fmt.Errorf("failed to load billing: %w", err)
	}

	logging.Info().
		Int("diagnosis_links", len(diagRows)).
		Int("procedure_links", len(procRows)).
		Int("billing_lines", len(billRows)).
		Msg("Encounter details complete")

	return nil
}

func collectIDs(ctx context.Context, pool *pgxpool.Pool, query string) ([]int64, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// pickDistinct returns up to n distinct random elements of items.
func pickDistinct(f *datagen.Faker, items []int32, n int) []int32 {
	if n >= len(items) {
		n = len(items)
	}
	seen := make(map[int32]bool, n)
	out := make([]int32, 0, n)
	for len(out) < n {
		v := datagen.Choose(f, items)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func isInpatientType(encType string) bool {
	switch encType {
	case "INPATIENT", "Inpatient", "inpatient":
		return true
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
