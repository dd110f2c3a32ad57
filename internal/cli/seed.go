package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caremart/caremart-etl/internal/db"
	"github.com/caremart/caremart-etl/internal/logging"
	"github.com/caremart/caremart-etl/internal/source"
)

var (
	seedPatients     int
	seedEncounters   int
	seedRandomSeed   uint64
	seedDropExisting bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create and populate a synthetic clinical source database",
	Long: `Create the clinical source schema and populate it with synthetic but
realistic healthcare data: patients, providers, encounters, diagnosis and
procedure links, and billing lines. The generated data deliberately
includes the messiness the ETL has to handle, such as inconsistent
casing in encounter types and missing dates.

Example:
  caremart-etl seed --patients 1000 --encounters 20000 --connection "postgres://..."`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedPatients, "patients", 0,
		"number of patients to generate")
	seedCmd.Flags().IntVar(&seedEncounters, "encounters", 0,
		"number of encounters to generate")
	seedCmd.Flags().Uint64Var(&seedRandomSeed, "seed", 0,
		"random seed for reproducible data (0 = time-based)")
	seedCmd.Flags().BoolVar(&seedDropExisting, "drop-existing", false,
		"drop an existing clinical schema before seeding")
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if seedPatients > 0 {
		cfg.Seed.Patients = seedPatients
	}
	if seedEncounters > 0 {
		cfg.Seed.Encounters = seedEncounters
	}
	if seedRandomSeed > 0 {
		cfg.Seed.RandomSeed = seedRandomSeed
	}
	if seedDropExisting {
		cfg.Seed.DropExisting = true
	}

	// Validate configuration
	if err := cfg.ValidateSeed(); err != nil {
		return err
	}

	logging.Info().
		Int("patients", cfg.Seed.Patients).
		Int("encounters", cfg.Seed.Encounters).
		Msg("Seeding clinical database")

	// Connect to database
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Drop existing schema if requested
	if cfg.Seed.DropExisting {
		logging.Info().Msg("Dropping existing clinical schema")
		if err := source.DropSchema(ctx, pool); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
		if err := db.DropMetadata(ctx, pool); err != nil {
			logging.Debug().Err(err).Msg("No metadata table to drop")
		}
	}

	// Create schema
	logging.Info().Msg("Creating clinical schema")
	if err := source.CreateSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Generate data
	gen := source.NewGenerator(cfg.Seed.RandomSeed)
	if err := gen.GenerateData(ctx, pool, source.Config{
		Patients:   cfg.Seed.Patients,
		Encounters: cfg.Seed.Encounters,
		RandomSeed: cfg.Seed.RandomSeed,
	}); err != nil {
		return fmt.Errorf("failed to generate data: %w", err)
	}

	// Save metadata
	if err := db.SaveSeedMetadata(ctx, pool, cfg.Seed.Patients, cfg.Seed.Encounters); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().
		Int("patients", cfg.Seed.Patients).
		Int("encounters", cfg.Seed.Encounters).
		Msg("Clinical database seeded")

	return nil
}
