package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/billcheck/internal/config"
)

var (
	cfg        = config.Default()
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "billcheck",
	Short: "Medical bill savings estimator and duplicate detector",
	Long: "Estimates recoverable overcharges on an extracted medical bill, detects duplicate charges, " +
		"and caches validated results in Postgres keyed by file content and engine versions.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath == "" {
			return nil
		}
		return cfg.LoadFromFile(configPath)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("BILLCHECK_DB_URL"), "Postgres connection string (or set BILLCHECK_DB_URL)")
	pf.StringVar(&cfg.StatementTimeout, "statement-timeout", cfg.StatementTimeout, "Postgres statement_timeout for this session")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	pf.StringVar(&configPath, "config", "", "YAML file with versions, tuning and citation lists")
}
