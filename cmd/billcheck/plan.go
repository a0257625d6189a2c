package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/billcheck/internal/billparse"
	"github.com/gyeh/billcheck/internal/cache"
	"github.com/gyeh/billcheck/internal/duplicate"
	"github.com/gyeh/billcheck/internal/exitcode"
	"github.com/gyeh/billcheck/internal/logging"
	"github.com/gyeh/billcheck/internal/normalize"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run validation of a bill and its cache key (no writes)",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&cfg.BillPath, "bill", "", "Path to extracted bill JSON (required)")
	_ = planCmd.MarkFlagRequired("bill")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	sha, err := normalize.FileHash(cfg.BillPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash file")
		os.Exit(exitcode.InputError)
	}
	raw, err := os.ReadFile(cfg.BillPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to read bill")
		os.Exit(exitcode.InputError)
	}

	bill, err := billparse.ParseBill(bytes.NewReader(raw))
	if err != nil {
		log.Error().Err(err).Msg("bill validation failed")
		os.Exit(exitcode.InputError)
	}

	pairs := duplicate.Detect(bill.Lines)
	totalSource := "total_billed"
	if bill.TotalFromText {
		totalSource = "raw_text"
	}

	fmt.Println("=== billcheck plan ===")
	fmt.Printf("File:        %s\n", cfg.BillPath)
	fmt.Printf("SHA-256:     %s\n", sha)
	fmt.Printf("Size:        %d bytes\n", len(raw))
	fmt.Printf("Cache key:   %s\n", cache.Key(raw, cfg.Versions))
	fmt.Printf("Versions:    engine=%s prompt=%s model=%s schema=%s\n",
		cfg.Versions.Engine, cfg.Versions.Prompt, cfg.Versions.Model, cfg.Versions.Schema)
	fmt.Printf("Line items:  %d\n", len(bill.Lines))
	fmt.Printf("Total:       %s (from %s)\n", bill.TotalBilled, totalSource)
	fmt.Printf("Warnings:    %d\n", len(bill.Warnings))
	for _, w := range bill.Warnings {
		fmt.Printf("  %s\n", w)
	}
	fmt.Printf("Duplicates:  %d candidate pairs\n", len(pairs))
	for _, p := range pairs {
		fmt.Printf("  %-12s %-12s %-8s sim=%.2f savings=%s\n", p.A, p.B, p.Kind, p.Similarity, p.Savings)
	}
	return nil
}
