// Package analyze runs one uploaded bill through cache lookup, parsing,
// pricing enrichment, estimation and persistence.
package analyze

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/billcheck/internal/billparse"
	"github.com/gyeh/billcheck/internal/cache"
	"github.com/gyeh/billcheck/internal/engine"
	"github.com/gyeh/billcheck/internal/model"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Deps are the long-lived collaborators shared across runs.
type Deps struct {
	Engine *engine.Engine
	Cache  *cache.Layer
	// Pricing is optional; without it only explicit baselines are used.
	Pricing       PricingSource
	SafetyCeiling float64
	// PricingWorkers bounds concurrent pricing lookups; 0 means 8.
	PricingWorkers int
}

// Request is one uploaded bill plus its independently sourced inputs.
type Request struct {
	FilePath string
	Raw      []byte
	// Flags come from the violation classifier, keyed by line ID.
	Flags map[string]model.RegulatoryFlag
	// Baselines override pricing lookups for the lines they name.
	Baselines map[string]model.BaselineSource
	Bypass    bool
	DryRun    bool
}

// Result is the validated estimate and the run's metrics.
type Result struct {
	Totals  *model.SavingsTotals
	Summary *model.AnalysisSummary
}

// Run executes the pipeline: preflight → parse → enrich → estimate →
// persist. Persist failures are logged and do not fail the run.
func Run(ctx context.Context, deps *Deps, log zerolog.Logger, req *Request) (*Result, error) {
	totalStart := time.Now()

	// Phase 1: Preflight
	pf, err := Preflight(ctx, deps.Cache, log, req)
	if err != nil {
		return nil, &PipelineError{Phase: "preflight", Err: err}
	}
	summary := &model.AnalysisSummary{
		FilePath:     req.FilePath,
		ContentHash:  pf.ContentHash,
		CacheKey:     pf.CacheKey,
		CacheOutcome: pf.Outcome,
		MissReason:   pf.MissReason,
	}
	if pf.Hit != nil {
		summary.AnalysisID = pf.AnalysisID
		summary.LinesParsed = pf.Hit.LineCount
		summary.IssueCount = pf.Hit.IssueCount
		summary.Persisted = true
		summary.DurationTotal = time.Since(totalStart)
		log.Info().
			Str("analysis_id", summary.AnalysisID).
			Str("cache_key", pf.CacheKey).
			Msg("serving cached analysis")
		return &Result{Totals: pf.Hit, Summary: summary}, nil
	}

	// Phase 2: Parse
	parseStart := time.Now()
	bill, err := billparse.ParseBill(bytes.NewReader(req.Raw))
	if err != nil {
		return nil, &PipelineError{Phase: "parse", Err: err}
	}
	summary.LinesParsed = len(bill.Lines)
	summary.DurationParse = time.Since(parseStart)
	for _, w := range bill.Warnings {
		log.Warn().Str("field", w).Msg("amount coerced to zero")
	}
	if bill.TotalFromText {
		log.Info().Int64("total_billed_cents", int64(bill.TotalBilled)).Msg("bill total taken from raw text")
	}

	// Phase 3: Enrich
	enriched, err := Enrich(ctx, deps.Pricing, deps.PricingWorkers, log, bill.Lines, req.Baselines)
	if err != nil {
		return nil, &PipelineError{Phase: "enrich", Err: err}
	}
	summary.LinesPriced = enriched.Priced
	summary.PricingFailures = enriched.Failures

	// Phase 4+5: Estimate, clamp and persist, once per cache key at a time.
	// Dry runs never share a flight with a persisting run.
	flight := pf.CacheKey
	if req.DryRun {
		flight += ":dry"
	}
	estimateStart := time.Now()
	out, shared, err := deps.Cache.Do(flight, func() (*cache.Computed, error) {
		t, err := Estimate(deps.Engine, deps.SafetyCeiling, engine.Input{
			Lines:       bill.Lines,
			Baselines:   enriched.Baselines,
			Flags:       req.Flags,
			TotalBilled: bill.TotalBilled,
		})
		if err != nil {
			return nil, err
		}
		summary.DurationEstimate = time.Since(estimateStart)

		if req.DryRun {
			log.Info().Msg("dry run, skipping persist")
			return &cache.Computed{Totals: t}, nil
		}
		persistStart := time.Now()
		id, ok := Persist(ctx, deps.Cache, log, req.Raw, t)
		summary.DurationPersist = time.Since(persistStart)
		return &cache.Computed{Totals: t, AnalysisID: id, Persisted: ok}, nil
	})
	if err != nil {
		return nil, &PipelineError{Phase: "estimate", Err: err}
	}
	totals := out.Totals

	summary.AnalysisID = out.AnalysisID
	summary.Persisted = out.Persisted
	summary.Coalesced = shared
	summary.IssueCount = totals.IssueCount
	summary.DurationTotal = time.Since(totalStart)

	log.Info().
		Int("lines", summary.LinesParsed).
		Int("lines_priced", summary.LinesPriced).
		Int("issues", summary.IssueCount).
		Int64("gross_savings_cents", int64(totals.GrossSavings)).
		Int64("likely_savings_cents", int64(totals.LikelySavings)).
		Str("color", string(totals.Color)).
		Bool("validation_applied", totals.ValidationApplied).
		Bool("safety_clamp_applied", totals.SafetyClampApplied).
		Bool("persisted", summary.Persisted).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("analysis complete")

	return &Result{Totals: totals, Summary: summary}, nil
}
