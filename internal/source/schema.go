// Package source owns the normalized clinical (OLTP) schema that the ETL
// pipeline reads from, and can populate it with synthetic data for
// development and testing. The pipeline itself never mutates this schema.
package source

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema SQL for the normalized clinical source schema.
const createSchemaSQL = `
CREATE SCHEMA IF NOT EXISTS clinical;

-- Specialties: provider specialties
CREATE TABLE IF NOT EXISTS clinical.specialties (
    specialty_id   SERIAL PRIMARY KEY,
    specialty_name VARCHAR(100) NOT NULL
);

-- Departments: hospital departments
CREATE TABLE IF NOT EXISTS clinical.departments (
    department_id   SERIAL PRIMARY KEY,
    department_name VARCHAR(100) NOT NULL,
    building        VARCHAR(50)
);

-- Providers: attending providers
CREATE TABLE IF NOT EXISTS clinical.providers (
    provider_id  SERIAL PRIMARY KEY,
    first_name   VARCHAR(50) NOT NULL,
    last_name    VARCHAR(50) NOT NULL,
    credential   VARCHAR(20),
    specialty_id INTEGER NOT NULL REFERENCES clinical.specialties(specialty_id)
);

-- Patients: registered patients
CREATE TABLE IF NOT EXISTS clinical.patients (
    patient_id    SERIAL PRIMARY KEY,
    mrn           VARCHAR(20) NOT NULL UNIQUE,
    first_name    VARCHAR(50) NOT NULL,
    last_name     VARCHAR(50) NOT NULL,
    date_of_birth DATE,
    gender        VARCHAR(20)
);

-- Diagnoses: ICD-10 reference
CREATE TABLE IF NOT EXISTS clinical.diagnoses (
    diagnosis_id SERIAL PRIMARY KEY,
    icd10_code   VARCHAR(10) NOT NULL,
    description  VARCHAR(200) NOT NULL
);

-- Procedures: CPT reference
CREATE TABLE IF NOT EXISTS clinical.procedures (
    procedure_id SERIAL PRIMARY KEY,
    cpt_code     VARCHAR(10) NOT NULL,
    description  VARCHAR(200) NOT NULL
);

-- Encounters: patient visits
CREATE TABLE IF NOT EXISTS clinical.encounters (
    encounter_id   BIGSERIAL PRIMARY KEY,
    patient_id     INTEGER NOT NULL REFERENCES clinical.patients(patient_id),
    provider_id    INTEGER NOT NULL REFERENCES clinical.providers(provider_id),
    department_id  INTEGER NOT NULL REFERENCES clinical.departments(department_id),
    encounter_type VARCHAR(50),
    encounter_date DATE,
    discharge_date DATE
);

-- EncounterDiagnoses: many-to-many encounter/diagnosis links
CREATE TABLE IF NOT EXISTS clinical.encounter_diagnoses (
    encounter_id       BIGINT NOT NULL REFERENCES clinical.encounters(encounter_id),
    diagnosis_id       INTEGER NOT NULL REFERENCES clinical.diagnoses(diagnosis_id),
    diagnosis_sequence INTEGER NOT NULL,
    PRIMARY KEY (encounter_id, diagnosis_id)
);

-- EncounterProcedures: many-to-many encounter/procedure links
CREATE TABLE IF NOT EXISTS clinical.encounter_procedures (
    encounter_id   BIGINT NOT NULL REFERENCES clinical.encounters(encounter_id),
    procedure_id   INTEGER NOT NULL REFERENCES clinical.procedures(procedure_id),
    procedure_date DATE,
    PRIMARY KEY (encounter_id, procedure_id)
);

-- Billing: claim lines per encounter
CREATE TABLE IF NOT EXISTS clinical.billing (
    billing_id     BIGSERIAL PRIMARY KEY,
    encounter_id   BIGINT NOT NULL REFERENCES clinical.encounters(encounter_id),
    claim_amount   NUMERIC(12,2),
    allowed_amount NUMERIC(12,2)
);

CREATE INDEX IF NOT EXISTS idx_encounters_patient_date
    ON clinical.encounters(patient_id, encounter_date);
CREATE INDEX IF NOT EXISTS idx_encounter_diagnoses_encounter
    ON clinical.encounter_diagnoses(encounter_id);
CREATE INDEX IF NOT EXISTS idx_encounter_procedures_encounter
    ON clinical.encounter_procedures(encounter_id);
CREATE INDEX IF NOT EXISTS idx_billing_encounter
    ON clinical.billing(encounter_id);
`

const dropSchemaSQL = `
DROP SCHEMA IF EXISTS clinical CASCADE;
`

// CreateSchema creates the clinical source schema.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createSchemaSQL)
	return err
}

// DropSchema drops the clinical source schema.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, dropSchemaSQL)
	return err
}
