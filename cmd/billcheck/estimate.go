package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/billcheck/internal/analyze"
	"github.com/gyeh/billcheck/internal/cache"
	"github.com/gyeh/billcheck/internal/db"
	"github.com/gyeh/billcheck/internal/engine"
	"github.com/gyeh/billcheck/internal/exitcode"
	"github.com/gyeh/billcheck/internal/logging"
	"github.com/gyeh/billcheck/internal/store"
	"github.com/gyeh/billcheck/internal/validate"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate savings for an extracted bill",
	RunE:  runEstimate,
}

func init() {
	f := estimateCmd.Flags()
	f.StringVar(&cfg.BillPath, "bill", "", "Path to extracted bill JSON, or - for stdin (required)")
	f.StringVar(&cfg.FlagsPath, "flags", "", "Path to violation classifier output JSON")
	f.StringVar(&cfg.BaselinesPath, "baselines", "", "Path to per-line pricing JSON")
	f.StringVar(&cfg.FeeSchedulePath, "fee-schedule", "", "Path to fee schedule Parquet file")
	f.StringVar(&cfg.State, "state", "", "Prefer fee schedule rows for this state")
	f.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "Where to write the result JSON (- for stdout)")
	f.BoolVar(&cfg.Bypass, "bypass-cache", false, "Recompute and replace any stored analysis for this file")
	f.BoolVar(&cfg.DryRun, "dry-run", false, "Compute without persisting")
	_ = estimateCmd.MarkFlagRequired("bill")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	raw, err := readInput(cfg.BillPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to read bill")
		os.Exit(exitcode.InputError)
	}
	flags, err := loadFlags(cfg.FlagsPath)
	if err != nil {
		log.Error().Err(err).Msg("invalid violation flags")
		os.Exit(exitcode.InputError)
	}
	baselines, err := loadBaselines(cfg.BaselinesPath)
	if err != nil {
		log.Error().Err(err).Msg("invalid baselines")
		os.Exit(exitcode.InputError)
	}

	var st cache.Store
	if cfg.DSN != "" {
		pool, err := db.NewPool(ctx, cfg.DSN, cfg.StatementTimeout)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		st = store.New(pool, log)
	} else {
		log.Warn().Msg("no database configured, caching disabled")
	}

	deps := &analyze.Deps{
		Engine:        engine.New(cfg.EngineConfig()),
		Cache:         cache.NewLayer(st, cfg.Versions, cfg.Tuning.CacheTTL, log),
		SafetyCeiling: cfg.Tuning.SafetyCeiling,
	}
	schedule, err := loadSchedule(ctx, log)
	if err != nil {
		log.Error().Err(err).Msg("fee schedule load failed")
		os.Exit(exitcode.PricingError)
	}
	if schedule != nil {
		deps.Pricing = schedule
	}

	res, err := analyze.Run(ctx, deps, log, &analyze.Request{
		FilePath:  cfg.BillPath,
		Raw:       raw,
		Flags:     flags,
		Baselines: baselines,
		Bypass:    cfg.Bypass,
		DryRun:    cfg.DryRun,
	})
	if err != nil {
		var pe *analyze.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("analysis failed")
		} else {
			log.Error().Err(err).Msg("analysis failed")
		}
		os.Exit(exitCodeFor(err))
	}

	if err := writeResult(res); err != nil {
		log.Error().Err(err).Msg("failed to write result")
		os.Exit(exitcode.UsageError)
	}

	fmt.Fprintf(os.Stderr, "Estimate complete: %d lines, %d issues, gross %s, likely %s (%s, cache %s, %.2fs)\n",
		res.Summary.LinesParsed, res.Totals.IssueCount,
		res.Totals.GrossSavings, res.Totals.LikelySavings, res.Totals.Color,
		res.Summary.CacheOutcome, res.Summary.DurationTotal.Seconds())

	if st != nil && !cfg.DryRun && !res.Summary.Persisted {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}

func exitCodeFor(err error) int {
	var iv *validate.InvariantViolation
	switch {
	case errors.As(err, &iv), errors.Is(err, engine.ErrNonPositiveTotal):
		return exitcode.InvariantError
	case errors.Is(err, context.Canceled):
		return exitcode.UsageError
	default:
		return exitcode.InputError
	}
}

func writeResult(res *analyze.Result) error {
	body, err := json.MarshalIndent(res.Totals, "", "  ")
	if err != nil {
		return err
	}
	body = append(body, '\n')
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		_, err = os.Stdout.Write(body)
		return err
	}
	return os.WriteFile(cfg.OutputPath, body, 0o644)
}
