//-------------------------------------------------------------------------
//
// CareMart ETL
//
// Copyright (c) 2025 - 2026, CareMart Analytics
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caremart/caremart-etl/internal/logging"
	"github.com/caremart/caremart-etl/pkg/version"
)

const metadataTable = "caremart_metadata"

const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS caremart_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// SaveSeedMetadata records how the clinical source schema was seeded.
func SaveSeedMetadata(ctx context.Context, pool *pgxpool.Pool, patients, encounters int) error {
	_, err := pool.Exec(ctx, createMetadataTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	metadata := map[string]string{
		"version":    version.Short(),
		"seeded_at":  time.Now().UTC().Format(time.RFC3339),
		"patients":   strconv.Itoa(patients),
		"encounters": strconv.Itoa(encounters),
	}

	for key, value := range metadata {
		_, err := pool.Exec(ctx, `
            INSERT INTO caremart_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `, key, value)
		if err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().
		Int("patients", patients).
		Int("encounters", encounters).
		Msg("Saved seed metadata")

	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, pool *pgxpool.Pool, key string) (string, error) {
	var value string
	err := pool.QueryRow(ctx, `
        SELECT value FROM caremart_metadata WHERE key = $1
    `, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetAllMetadata retrieves all metadata as a map.
func GetAllMetadata(ctx context.Context, pool *pgxpool.Pool) (map[string]string, error) {
	rows, err := pool.Query(ctx, `SELECT key, value FROM caremart_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metadataTable))
	return err
}
