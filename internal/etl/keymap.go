package etl

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is an interface that both *pgxpool.Pool and pgx.Tx satisfy, so load
// steps can run against the pool or inside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// KeyMap maps a dimension's natural key to its surrogate key. Within one
// run the mapping is injective: loading detects duplicate natural keys.
type KeyMap map[int64]int64

// Resolve looks up the surrogate key for a natural key.
func (m KeyMap) Resolve(naturalKey int64) (int64, bool) {
	key, ok := m[naturalKey]
	return key, ok
}

// StringKeyMap maps a string-valued natural key (normalized encounter
// type) to its surrogate key.
type StringKeyMap map[string]int64

// Resolve looks up the surrogate key for a natural key.
func (m StringKeyMap) Resolve(naturalKey string) (int64, bool) {
	key, ok := m[naturalKey]
	return key, ok
}

// loadKeyMap reads (natural_key, surrogate_key) pairs from a staged
// dimension. A repeated natural key is a hard error: the dimension load
// produced a non-injective mapping.
func loadKeyMap(ctx context.Context, db DB, query string) (KeyMap, error) {
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := make(KeyMap)
	for rows.Next() {
		var natural, surrogate int64
		if err := rows.Scan(&natural, &surrogate); err != nil {
			return nil, err
		}
		if _, dup := m[natural]; dup {
			return nil, fmt.Errorf("duplicate natural key %d in dimension", natural)
		}
		m[natural] = surrogate
	}
	return m, rows.Err()
}

// loadStringKeyMap is loadKeyMap for string-keyed dimensions.
func loadStringKeyMap(ctx context.Context, db DB, query string) (StringKeyMap, error) {
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := make(StringKeyMap)
	for rows.Next() {
		var natural string
		var surrogate int64
		if err := rows.Scan(&natural, &surrogate); err != nil {
			return nil, err
		}
		if _, dup := m[natural]; dup {
			return nil, fmt.Errorf("duplicate natural key %q in dimension", natural)
		}
		m[natural] = surrogate
	}
	return m, rows.Err()
}

// dimensionKeys bundles the resolved key maps the fact loader needs.
type dimensionKeys struct {
	patients       KeyMap
	providers      KeyMap
	specialties    KeyMap
	departments    KeyMap
	encounterTypes StringKeyMap
}

// loadDimensionKeys loads all key maps from the staged dimensions.
func loadDimensionKeys(ctx context.Context, db DB) (*dimensionKeys, error) {
	var (
		keys dimensionKeys
		err  error
	)

	if keys.patients, err = loadKeyMap(ctx, db,
		`SELECT patient_id, patient_key FROM mart_next.dim_patient`); err != nil {
		return nil, fmt.Errorf("failed to load patient keys: %w", err)
	}
	if keys.providers, err = loadKeyMap(ctx, db,
		`SELECT provider_id, provider_key FROM mart_next.dim_provider`); err != nil {
		return nil, fmt.Errorf("failed to load provider keys: %w", err)
	}
	if keys.specialties, err = loadKeyMap(ctx, db,
		`SELECT specialty_id, specialty_key FROM mart_next.dim_specialty`); err != nil {
		return nil, fmt.Errorf("failed to load specialty keys: %w", err)
	}
	if keys.departments, err = loadKeyMap(ctx, db,
		`SELECT department_id, department_key FROM mart_next.dim_department`); err != nil {
		return nil, fmt.Errorf("failed to load department keys: %w", err)
	}
	if keys.encounterTypes, err = loadStringKeyMap(ctx, db,
		`SELECT encounter_type_name, encounter_type_key FROM mart_next.dim_encounter_type`); err != nil {
		return nil, fmt.Errorf("failed to load encounter type keys: %w", err)
	}

	return &keys, nil
}
