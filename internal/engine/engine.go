// Package engine turns parsed bill lines plus pricing and regulatory inputs
// into a validated savings estimate. Estimate is pure: it does no I/O, starts
// no goroutines and never logs.
package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gyeh/billcheck/internal/aggregate"
	"github.com/gyeh/billcheck/internal/baseline"
	"github.com/gyeh/billcheck/internal/confidence"
	"github.com/gyeh/billcheck/internal/duplicate"
	"github.com/gyeh/billcheck/internal/model"
	"github.com/gyeh/billcheck/internal/nsa"
	"github.com/gyeh/billcheck/internal/validate"
)

// Defaults applied by New to zero-valued Config fields.
const (
	DefaultMedicareMultiplier = 1.5
	DefaultCoinsurance        = 0.20
)

var (
	// ErrNonPositiveTotal rejects a bill whose total is zero or negative.
	ErrNonPositiveTotal = errors.New("total billed must be positive")
	// ErrDuplicateLineID rejects input with two lines sharing an ID.
	ErrDuplicateLineID = errors.New("duplicate line id")
)

// Config is fixed at construction. Two engines with different configs can
// run side by side.
type Config struct {
	Versions           model.Versions
	MedicareMultiplier float64
	DefaultCoinsurance float64
	// HardCitations and SoftCitations override the regulatory citation
	// lists; nil keeps the defaults.
	HardCitations []string
	SoftCitations []string
}

// Engine computes savings estimates.
type Engine struct {
	cfg      Config
	resolver *baseline.Resolver
	nsa      *nsa.Calculator
	scorer   *confidence.Scorer
}

// New builds an Engine from cfg.
func New(cfg Config) *Engine {
	if cfg.MedicareMultiplier <= 0 {
		cfg.MedicareMultiplier = DefaultMedicareMultiplier
	}
	if cfg.DefaultCoinsurance <= 0 || cfg.DefaultCoinsurance > 1 {
		cfg.DefaultCoinsurance = DefaultCoinsurance
	}
	return &Engine{
		cfg:      cfg,
		resolver: baseline.New(cfg.MedicareMultiplier),
		nsa:      nsa.New(cfg.DefaultCoinsurance),
		scorer:   confidence.New(cfg.HardCitations, cfg.SoftCitations),
	}
}

// Versions returns the version set this engine was built with.
func (e *Engine) Versions() model.Versions { return e.cfg.Versions }

// Input is one bill's worth of engine input. Baselines and Flags are keyed
// by line ID; missing entries mean no pricing data and no violation.
type Input struct {
	Lines       []model.BillLine
	Baselines   map[string]model.BaselineSource
	Flags       map[string]model.RegulatoryFlag
	TotalBilled model.Cents
}

// Estimate computes and validates savings for in. Lines in the result are
// ordered by line ID regardless of input order. A failed invariant returns a
// *validate.InvariantViolation and no result.
func (e *Engine) Estimate(in Input) (*model.SavingsTotals, error) {
	if in.TotalBilled <= 0 {
		return nil, fmt.Errorf("%w: got %d cents", ErrNonPositiveTotal, in.TotalBilled)
	}

	lines := make([]model.BillLine, len(in.Lines))
	copy(lines, in.Lines)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].LineID < lines[j].LineID })
	for i := 1; i < len(lines); i++ {
		if lines[i].LineID == lines[i-1].LineID {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLineID, lines[i].LineID)
		}
	}

	pairs := duplicate.Detect(lines)
	dupAlloc := duplicate.Allocate(pairs)

	results := make([]model.LineSavings, len(lines))
	for i := range lines {
		line := &lines[i]
		src := lookupBaseline(in.Baselines, line.LineID)
		flag := lookupFlag(in.Flags, line.LineID)

		res := e.resolver.Resolve(line, src)
		score := e.scorer.Score(line, src, flag, res.ConfidenceAdjustment)
		results[i] = aggregate.Line(aggregate.LineInput{
			Line:           line,
			Baseline:       res.Baseline,
			BaselineSource: res.Label(),
			NSA:            e.nsa.Savings(line, flag, res.Baseline),
			Duplicate:      dupAlloc[line.LineID],
			Confidence:     score.Final,
		})
	}

	totals := aggregate.Rollup(results, in.TotalBilled)
	totals.DuplicateMatches = duplicate.Tag(lines, pairs)
	if err := validate.Finalize(&totals); err != nil {
		return nil, err
	}
	return &totals, nil
}

func lookupBaseline(m map[string]model.BaselineSource, id string) *model.BaselineSource {
	src, ok := m[id]
	if !ok {
		return nil
	}
	return &src
}

func lookupFlag(m map[string]model.RegulatoryFlag, id string) *model.RegulatoryFlag {
	f, ok := m[id]
	if !ok {
		return nil
	}
	return &f
}
