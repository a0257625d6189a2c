package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/gyeh/billcheck/internal/billparse"
	"github.com/gyeh/billcheck/internal/feeschedule"
	"github.com/gyeh/billcheck/internal/model"
)

// readInput reads a file, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func loadFlags(path string) (map[string]model.RegulatoryFlag, error) {
	if path == "" {
		return nil, nil
	}
	data, err := readInput(path)
	if err != nil {
		return nil, fmt.Errorf("read flags: %w", err)
	}
	return billparse.ParseFlags(bytes.NewReader(data))
}

func loadBaselines(path string) (map[string]model.BaselineSource, error) {
	if path == "" {
		return nil, nil
	}
	data, err := readInput(path)
	if err != nil {
		return nil, fmt.Errorf("read baselines: %w", err)
	}
	return billparse.ParseBaselines(bytes.NewReader(data))
}

// loadSchedule loads the fee schedule when one is configured.
func loadSchedule(ctx context.Context, log zerolog.Logger) (*feeschedule.Schedule, error) {
	if cfg.FeeSchedulePath == "" {
		return nil, nil
	}
	s, stats, err := feeschedule.Load(ctx, cfg.FeeSchedulePath, feeschedule.Options{
		State:     cfg.State,
		CodeTypes: cfg.CodeTypes,
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("file", cfg.FeeSchedulePath).
		Int64("rows", stats.Rows).
		Int64("indexed", stats.Indexed).
		Int64("skipped", stats.Skipped).
		Msg("fee schedule loaded")
	return s, nil
}
