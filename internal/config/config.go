//-------------------------------------------------------------------------
//
// CareMart ETL
//
// Copyright (c) 2025 - 2026, CareMart Analytics
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for caremart-etl.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for caremart-etl.
type Config struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Seed holds configuration for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`

	// Run holds configuration for the run subcommand.
	Run RunConfig `mapstructure:"run"`
}

// SeedConfig holds configuration for synthetic source data generation.
type SeedConfig struct {
	// Patients is the number of patients to generate.
	Patients int `mapstructure:"patients"`

	// Encounters is the number of encounters to generate.
	Encounters int `mapstructure:"encounters"`

	// RandomSeed seeds the data generator for reproducible output.
	// Zero means a time-based seed.
	RandomSeed uint64 `mapstructure:"random_seed"`

	// DropExisting drops an existing clinical schema before seeding.
	DropExisting bool `mapstructure:"drop_existing"`
}

// RunConfig holds configuration for an ETL run.
type RunConfig struct {
	// KeepPrevious retains the previous mart generation (mart_prev)
	// after a successful publish instead of dropping it.
	KeepPrevious bool `mapstructure:"keep_previous"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Seed: SeedConfig{
			Patients:   500,
			Encounters: 5000,
		},
		Run: RunConfig{
			KeepPrevious: false,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./caremart-etl.yaml
// 3. ~/.config/caremart-etl/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("caremart-etl")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "caremart-etl"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Seed.Patients < 1 {
		return fmt.Errorf("seed patients must be at least 1")
	}
	if c.Seed.Encounters < 1 {
		return fmt.Errorf("seed encounters must be at least 1")
	}
	return nil
}
