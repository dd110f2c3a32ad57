//-------------------------------------------------------------------------
//
// CareMart ETL
//
// Copyright (c) 2025 - 2026, CareMart Analytics
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for caremart-etl.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/caremart/caremart-etl/internal/config"
	"github.com/caremart/caremart-etl/internal/logging"
	"github.com/caremart/caremart-etl/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "caremart-etl",
		Short: "Batch ETL that builds the CareMart analytics mart from clinical data",
		Long: `caremart-etl transforms CareMart's normalized clinical database into
a dimensional star schema for analytics. Each run rebuilds the mart from
scratch in a staging schema and publishes it atomically, so readers always
see either the previous complete mart or the new one.

The tool can also seed a synthetic clinical database for development and
testing, inspect the history of past runs, and execute the canned
analytical reports that the mart is designed to answer.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./caremart-etl.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(reportCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
