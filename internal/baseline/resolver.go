// Package baseline picks the conservative reference price a line's charge is
// compared against.
package baseline

import (
	"strings"

	"github.com/gyeh/billcheck/internal/model"
	"github.com/gyeh/billcheck/internal/normalize"
)

// DefaultMedicareMultiplier scales the Medicare allowed amount to a
// commercial-equivalent reference.
const DefaultMedicareMultiplier = 1.5

// Source labels.
const (
	SourcePlanAllowed        = "plan_allowed"
	SourceMedicare           = "medicare_allowed"
	SourceRegional           = "regional_benchmark"
	SourceChargemaster       = "chargemaster_median"
	SourceCategoryBenchmark  = "category_benchmark"
	SourceCategoryHeuristic  = "category_heuristic"
	SourceBilledNoOvercharge = "billed_amount"
)

// Result is the resolved baseline for one line.
type Result struct {
	Baseline model.Cents
	// Source is the candidate that supplied Baseline.
	Source string
	// Available lists every candidate that existed, in fixed order.
	Available            []string
	ConfidenceAdjustment float64
	// Category is set when the keyword heuristic was used.
	Category string
}

// Label is the audit string stored on LineSavings, e.g.
// "regional_benchmark[plan_allowed,medicare_allowed,regional_benchmark]".
func (r Result) Label() string {
	if len(r.Available) == 0 {
		if r.Category != "" {
			return r.Source + ":" + r.Category
		}
		return r.Source
	}
	return r.Source + "[" + strings.Join(r.Available, ",") + "]"
}

// Resolver selects baselines. The zero value is not usable; use New.
type Resolver struct {
	medicareMultiplier float64
}

// New returns a Resolver. A non-positive multiplier falls back to the default.
func New(medicareMultiplier float64) *Resolver {
	if medicareMultiplier <= 0 {
		medicareMultiplier = DefaultMedicareMultiplier
	}
	return &Resolver{medicareMultiplier: medicareMultiplier}
}

type candidate struct {
	name   string
	amount model.Cents
}

// Resolve returns the minimum of all available pricing candidates. With no
// candidates it falls back to a keyword heuristic on the description, and
// with no usable description it assumes no overcharge.
func (r *Resolver) Resolve(line *model.BillLine, src *model.BaselineSource) Result {
	cands := r.candidates(src)
	if len(cands) == 0 {
		return fallback(line)
	}

	best := cands[0]
	avail := make([]string, len(cands))
	for i, c := range cands {
		avail[i] = c.name
		if c.amount < best.amount {
			best = c
		}
	}

	adj := -0.2
	switch {
	case len(cands) >= 3:
		adj = 0.2
	case len(cands) == 2:
		adj = 0.1
	}

	return Result{
		Baseline:             best.amount,
		Source:               best.name,
		Available:            avail,
		ConfidenceAdjustment: adj,
	}
}

func (r *Resolver) candidates(src *model.BaselineSource) []candidate {
	if src == nil {
		return nil
	}
	var out []candidate
	add := func(name string, v *model.Cents) {
		if v != nil && *v >= 0 {
			out = append(out, candidate{name: name, amount: *v})
		}
	}
	add(SourcePlanAllowed, src.PlanAllowed)
	if src.MedicareAllowed != nil {
		m := src.MedicareAllowed.MulRatio(r.medicareMultiplier)
		add(SourceMedicare, &m)
	}
	add(SourceRegional, src.RegionalBenchmark)
	add(SourceChargemaster, src.ChargemasterMedian)
	add(SourceCategoryBenchmark, src.CategoryBenchmark)
	return out
}

func fallback(line *model.BillLine) Result {
	if strings.TrimSpace(line.Description) == "" {
		return Result{
			Baseline:             line.BilledCents,
			Source:               SourceBilledNoOvercharge,
			ConfidenceAdjustment: -0.5,
		}
	}
	cat, ratio := Categorize(line.Description)
	return Result{
		Baseline:             line.BilledCents.MulRatio(ratio),
		Source:               SourceCategoryHeuristic,
		ConfidenceAdjustment: -0.3,
		Category:             cat,
	}
}

// category rules are checked in order; the first keyword hit wins. A
// keyword is a single token or two adjacent tokens ("x ray").
// Emergency precedes room/board so "emergency room" is priced as an ED charge.
var categories = []struct {
	name     string
	ratio    float64
	keywords []string
}{
	{"pharmacy", 0.35, []string{"pharmacy", "drug", "drugs", "medication", "rx", "injection", "ndc", "tablet", "capsule"}},
	{"lab", 0.40, []string{"lab", "labs", "laboratory", "panel", "cbc", "culture", "urinalysis", "assay", "specimen", "pathology"}},
	{"imaging", 0.35, []string{"imaging", "radiology", "xray", "x ray", "mri", "ct", "ultrasound", "scan", "mammogram", "echo"}},
	{"surgery", 0.45, []string{"surgery", "surgical", "operating", "anesthesia", "arthroscopy", "excision", "repair"}},
	{"emergency", 0.40, []string{"emergency", "er", "ed visit", "trauma"}},
	{"room_board", 0.50, []string{"room", "board", "bed", "semi", "private", "icu", "observation"}},
	{"supplies", 0.30, []string{"supply", "supplies", "sterile", "dressing", "kit"}},
}

// OtherRatio is the baseline share applied when no category keyword matches.
const OtherRatio = 0.60

// Categorize maps a description to a coarse service category and the share
// of the billed amount used as its baseline.
func Categorize(description string) (string, float64) {
	tokens := normalize.Tokens(description)
	words := make(map[string]struct{}, 2*len(tokens))
	for i, t := range tokens {
		words[t] = struct{}{}
		if i > 0 {
			words[tokens[i-1]+" "+t] = struct{}{}
		}
	}
	for _, c := range categories {
		for _, k := range c.keywords {
			if _, ok := words[k]; ok {
				return c.name, c.ratio
			}
		}
	}
	return "other", OtherRatio
}
