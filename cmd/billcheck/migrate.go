package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/billcheck/internal/db"
	"github.com/gyeh/billcheck/internal/exitcode"
	"github.com/gyeh/billcheck/internal/logging"
	"github.com/gyeh/billcheck/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if cfg.DSN == "" {
		log.Error().Msg("--dsn or BILLCHECK_DB_URL is required")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN, cfg.StatementTimeout)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		log.Error().Err(err).Msg("migration failed")
		os.Exit(exitcode.DBConnError)
	}

	log.Info().Msg("all migrations applied successfully")

	if err := store.New(pool, log).Analyze(ctx); err != nil {
		log.Warn().Err(err).Msg("analyze failed")
	}
	return nil
}
