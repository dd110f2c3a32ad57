// Package warehouse owns the denormalized star schema (the "mart") and the
// illustrative report queries that consume it.
//
// The mart is rebuilt from scratch on every ETL run: the pipeline stages a
// complete new generation into the mart_next schema and publishes it by
// renaming schemas in a single transaction, so readers never observe a
// partially rebuilt mart. The run log lives outside the swapped schemas.
package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema names used by the double-buffered publish cycle.
const (
	LiveSchema     = "mart"
	StagingSchema  = "mart_next"
	PreviousSchema = "mart_prev"
)

// Star schema DDL, created in the staging schema each run. Facts reference
// dimensions by surrogate key; the two bridge tables resolve the
// many-to-many encounter/diagnosis and encounter/procedure relationships.
const createStagingSQL = `
CREATE SCHEMA mart_next;

-- Date dimension: key is yyyymmdd
CREATE TABLE mart_next.dim_date (
    date_key     INTEGER PRIMARY KEY,
    full_date    DATE NOT NULL,
    year         INTEGER NOT NULL,
    quarter      INTEGER NOT NULL,
    month        INTEGER NOT NULL,
    month_name   VARCHAR(10) NOT NULL,
    week_of_year INTEGER NOT NULL,
    day_name     VARCHAR(10) NOT NULL,
    is_weekend   BOOLEAN NOT NULL
);

CREATE TABLE mart_next.dim_patient (
    patient_key   BIGSERIAL PRIMARY KEY,
    patient_id    BIGINT NOT NULL UNIQUE,
    mrn           VARCHAR(20) NOT NULL,
    patient_name  VARCHAR(120) NOT NULL,
    gender        VARCHAR(20) NOT NULL,
    date_of_birth DATE NOT NULL,
    age           INTEGER NOT NULL,
    age_group     VARCHAR(10) NOT NULL
);

CREATE TABLE mart_next.dim_provider (
    provider_key  BIGSERIAL PRIMARY KEY,
    provider_id   BIGINT NOT NULL UNIQUE,
    provider_name VARCHAR(120) NOT NULL,
    credential    VARCHAR(20) NOT NULL
);

CREATE TABLE mart_next.dim_specialty (
    specialty_key  BIGSERIAL PRIMARY KEY,
    specialty_id   BIGINT NOT NULL UNIQUE,
    specialty_name VARCHAR(100) NOT NULL
);

CREATE TABLE mart_next.dim_department (
    department_key  BIGSERIAL PRIMARY KEY,
    department_id   BIGINT NOT NULL UNIQUE,
    department_name VARCHAR(100) NOT NULL,
    building        VARCHAR(50)
);

CREATE TABLE mart_next.dim_diagnosis (
    diagnosis_key BIGSERIAL PRIMARY KEY,
    diagnosis_id  BIGINT NOT NULL UNIQUE,
    icd10_code    VARCHAR(10) NOT NULL,
    description   VARCHAR(200) NOT NULL
);

CREATE TABLE mart_next.dim_procedure (
    procedure_key BIGSERIAL PRIMARY KEY,
    procedure_id  BIGINT NOT NULL UNIQUE,
    cpt_code      VARCHAR(10) NOT NULL,
    description   VARCHAR(200) NOT NULL
);

-- Lookup dimension derived from observed encounter_type values
CREATE TABLE mart_next.dim_encounter_type (
    encounter_type_key  BIGSERIAL PRIMARY KEY,
    encounter_type_name VARCHAR(50) NOT NULL UNIQUE
);

CREATE TABLE mart_next.fact_encounters (
    encounter_key        BIGSERIAL PRIMARY KEY,
    encounter_id         BIGINT NOT NULL UNIQUE,
    patient_key          BIGINT NOT NULL REFERENCES mart_next.dim_patient(patient_key),
    provider_key         BIGINT NOT NULL REFERENCES mart_next.dim_provider(provider_key),
    specialty_key        BIGINT NOT NULL REFERENCES mart_next.dim_specialty(specialty_key),
    department_key       BIGINT NOT NULL REFERENCES mart_next.dim_department(department_key),
    encounter_type_key   BIGINT NOT NULL REFERENCES mart_next.dim_encounter_type(encounter_type_key),
    date_key             INTEGER NOT NULL REFERENCES mart_next.dim_date(date_key),
    discharge_date_key   INTEGER REFERENCES mart_next.dim_date(date_key),
    length_of_stay_days  INTEGER NOT NULL DEFAULT 0,
    diagnosis_count      INTEGER NOT NULL DEFAULT 0,
    procedure_count      INTEGER NOT NULL DEFAULT 0,
    total_claim_amount   NUMERIC(14,2) NOT NULL DEFAULT 0,
    total_allowed_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
    readmitted_30d       BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE mart_next.bridge_encounter_diagnosis (
    encounter_key      BIGINT NOT NULL REFERENCES mart_next.fact_encounters(encounter_key),
    diagnosis_key      BIGINT NOT NULL REFERENCES mart_next.dim_diagnosis(diagnosis_key),
    diagnosis_sequence INTEGER NOT NULL,
    PRIMARY KEY (encounter_key, diagnosis_key)
);

CREATE TABLE mart_next.bridge_encounter_procedure (
    encounter_key  BIGINT NOT NULL REFERENCES mart_next.fact_encounters(encounter_key),
    procedure_key  BIGINT NOT NULL REFERENCES mart_next.dim_procedure(procedure_key),
    procedure_date DATE,
    PRIMARY KEY (encounter_key, procedure_key)
);

CREATE INDEX idx_fact_encounters_date ON mart_next.fact_encounters(date_key);
CREATE INDEX idx_fact_encounters_patient ON mart_next.fact_encounters(patient_key);
CREATE INDEX idx_fact_encounters_type ON mart_next.fact_encounters(encounter_type_key);
`

// CreateStagingSchema drops any leftover staging schema from a failed run
// and creates a fresh one with the full star schema DDL.
func CreateStagingSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx,
		fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", StagingSchema)); err != nil {
		return fmt.Errorf("failed to drop stale staging schema: %w", err)
	}
	if _, err := pool.Exec(ctx, createStagingSQL); err != nil {
		return fmt.Errorf("failed to create staging schema: %w", err)
	}
	return nil
}

// DropSchemas removes all mart generations. Used by tests and teardown.
func DropSchemas(ctx context.Context, pool *pgxpool.Pool) error {
	for _, schema := range []string{StagingSchema, LiveSchema, PreviousSchema} {
		if _, err := pool.Exec(ctx,
			fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
			return err
		}
	}
	return nil
}

// SchemaExists reports whether the named schema exists.
func SchemaExists(ctx context.Context, pool *pgxpool.Pool, schema string) (bool, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.schemata WHERE schema_name = $1
        )
    `, schema).Scan(&exists)
	return exists, err
}
