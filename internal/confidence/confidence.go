// Package confidence rates how much a line's savings estimate can be trusted.
package confidence

import (
	"math"

	"github.com/gyeh/billcheck/internal/model"
	"github.com/gyeh/billcheck/internal/normalize"
)

// Bounds on the final score.
const (
	Min = 0.5
	Max = 1.0
)

// Component weights.
const (
	weightData       = 0.3
	weightBenchmark  = 0.4
	weightRegulatory = 0.3
)

// DefaultHardCitations are violation types whose legal basis is unambiguous.
var DefaultHardCitations = []string{
	"NSA-EMERGENCY",
	"NSA-ANCILLARY",
	"NSA-AIR-AMBULANCE",
	"45 CFR 149.110",
	"45 CFR 149.120",
	"45 CFR 149.130",
}

// DefaultSoftCitations depend on facts the bill rarely shows, such as whether
// consent was obtained.
var DefaultSoftCitations = []string{
	"NSA-NOTICE-CONSENT",
	"NSA-GFE",
	"45 CFR 149.410",
	"45 CFR 149.420",
	"45 CFR 149.610",
}

// Breakdown is the scored result with its parts kept for auditing.
type Breakdown struct {
	DataQuality         float64 `json:"data_quality"`
	BenchmarkQuality    float64 `json:"benchmark_quality"`
	RegulatoryCertainty float64 `json:"regulatory_certainty"`
	Adjustment          float64 `json:"adjustment"`
	Final               float64 `json:"final"`
}

// Scorer combines data completeness, pricing-source quality and regulatory
// certainty into a line confidence.
type Scorer struct {
	hard map[string]struct{}
	soft map[string]struct{}
}

// New builds a Scorer from citation lists. Nil lists use the defaults.
func New(hard, soft []string) *Scorer {
	if hard == nil {
		hard = DefaultHardCitations
	}
	if soft == nil {
		soft = DefaultSoftCitations
	}
	return &Scorer{hard: citationSet(hard), soft: citationSet(soft)}
}

func citationSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, c := range list {
		m[normalize.NormalizeName(c)] = struct{}{}
	}
	return m
}

// Score rates one line. adjustment comes from the baseline resolver.
func (s *Scorer) Score(line *model.BillLine, src *model.BaselineSource, flag *model.RegulatoryFlag, adjustment float64) Breakdown {
	b := Breakdown{
		DataQuality:         DataQuality(line),
		BenchmarkQuality:    BenchmarkQuality(src),
		RegulatoryCertainty: s.RegulatoryCertainty(flag),
		Adjustment:          adjustment,
	}
	raw := b.DataQuality*weightData + b.BenchmarkQuality*weightBenchmark + b.RegulatoryCertainty*weightRegulatory + adjustment
	b.Final = Clamp(raw)
	return b
}

// Clamp bounds v to [Min, Max]. NaN maps to Min.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < Min {
		return Min
	}
	if v > Max {
		return Max
	}
	// Round to 4 places so scores are stable across platforms in cached JSON.
	return math.Round(v*10000) / 10000
}

// DataQuality starts at 0.6 and adds 0.1 for each of: code, quantity,
// positive billed amount, description longer than 10 characters.
func DataQuality(line *model.BillLine) float64 {
	tenths := 6
	if normalize.CodeKey(line.Code) != "" {
		tenths++
	}
	if line.Quantity > 0 {
		tenths++
	}
	if line.BilledCents > 0 {
		tenths++
	}
	if len([]rune(line.Description)) > 10 {
		tenths++
	}
	return float64(tenths) / 10
}

// BenchmarkQuality scores the pricing sources behind the baseline.
func BenchmarkQuality(src *model.BaselineSource) float64 {
	if src == nil {
		return 0
	}
	hundredths, n := 0, 0
	if src.PlanAllowed != nil {
		hundredths += 30
		n++
	}
	if src.MedicareAllowed != nil {
		hundredths += 20
		n++
	}
	if src.RegionalBenchmark != nil {
		hundredths += 25
		n++
	}
	if src.ChargemasterMedian != nil {
		hundredths += 15
		n++
	}
	if n >= 2 {
		hundredths += 10
	}
	return math.Min(float64(hundredths)/100, 1)
}

// RegulatoryCertainty is 1.0 for hard citations, 0.7 for soft ones and 0.5
// otherwise, including when no violation is flagged.
func (s *Scorer) RegulatoryCertainty(flag *model.RegulatoryFlag) float64 {
	if flag == nil || !flag.Violation {
		return 0.5
	}
	c := normalize.NormalizeName(flag.Citation)
	if _, ok := s.hard[c]; ok {
		return 1.0
	}
	if _, ok := s.soft[c]; ok {
		return 0.7
	}
	return 0.5
}
