// Package aggregate combines per-line savings components and rolls them up
// into bill-level totals.
package aggregate

import (
	"math"
	"sort"

	"github.com/gyeh/billcheck/internal/model"
)

// Color band thresholds on the issue ratio, in percent so comparisons are exact.
const (
	yellowMaxPct       = 25
	orangeMaxPct       = 50
	smallBillLines     = 6
	smallBillReliefPct = 10
	topDriverCount     = 3
)

// LineInput is everything the aggregator needs for one line.
type LineInput struct {
	Line           *model.BillLine
	Baseline       model.Cents
	BaselineSource string
	NSA            model.Cents
	// Duplicate is the raw accumulated allocation; it is capped here.
	Duplicate  model.Cents
	Confidence float64
}

// Line computes savings in strict priority order (NSA, then duplicate, then
// overcharge) so no dollar is counted twice.
func Line(in LineInput) model.LineSavings {
	billed := model.MaxCents(0, in.Line.BilledCents)

	nsa := clampRange(in.NSA, 0, billed)
	dup := clampRange(in.Duplicate, 0, billed-nsa)
	remaining := model.MaxCents(0, billed-nsa-dup)
	rawOvercharge := model.MaxCents(0, billed-in.Baseline)
	over := model.MinCents(rawOvercharge, remaining)

	total := nsa + dup + over
	return model.LineSavings{
		LineID:               in.Line.LineID,
		Description:          in.Line.Description,
		BilledCents:          in.Line.BilledCents,
		AllowedBaseline:      in.Baseline,
		BaselineSource:       in.BaselineSource,
		NSASavings:           nsa,
		DuplicateSavings:     dup,
		OverchargeSavings:    over,
		Confidence:           in.Confidence,
		WeightedContribution: total.MulRatio(in.Confidence),
		TotalLineSavings:     total,
	}
}

func clampRange(v, lo, hi model.Cents) model.Cents {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Rollup sums line results into totals. Gross and likely totals are capped at
// totalBilled. Lines are kept in the order given.
func Rollup(lines []model.LineSavings, totalBilled model.Cents) model.SavingsTotals {
	t := model.SavingsTotals{
		TotalBilled: totalBilled,
		LineCount:   len(lines),
		Lines:       lines,
	}
	var gross, likely model.Cents
	for i := range lines {
		l := &lines[i]
		gross += l.TotalLineSavings
		likely += l.WeightedContribution
		t.NSASubtotal += l.NSASavings
		t.DuplicateSubtotal += l.DuplicateSavings
		t.OverchargeSubtotal += l.OverchargeSavings
		if l.HasIssue() {
			t.IssueCount++
		}
	}
	ceiling := model.MaxCents(0, totalBilled)
	t.GrossSavings = model.MinCents(gross, ceiling)
	t.LikelySavings = model.MinCents(model.MinCents(likely, ceiling), t.GrossSavings)

	if t.LineCount > 0 {
		t.IssueRatio = math.Round(float64(t.IssueCount)/float64(t.LineCount)*10000) / 10000
	}
	t.Color = Classify(t.IssueCount, t.LineCount)
	t.TopDrivers = TopDrivers(lines)
	return t
}

// Classify maps issue density to a color band. Bills with fewer than six lines
// get 0.10 more headroom on the yellow and orange thresholds.
func Classify(issues, lines int) model.Color {
	if issues == 0 || lines == 0 {
		return model.ColorGreen
	}
	relief := 0
	if lines < smallBillLines {
		relief = smallBillReliefPct
	}
	pct := issues * 100 // compared against threshold × lines
	switch {
	case pct <= (yellowMaxPct+relief)*lines:
		return model.ColorYellow
	case pct <= (orangeMaxPct+relief)*lines:
		return model.ColorOrange
	default:
		return model.ColorRed
	}
}

// TopDrivers returns up to three lines with the largest single-category
// savings, tagged with the dominant category. Ties sort by line ID.
func TopDrivers(lines []model.LineSavings) []model.Driver {
	var ds []model.Driver
	for i := range lines {
		cat, amt := lines[i].Dominant()
		if amt <= 0 {
			continue
		}
		ds = append(ds, model.Driver{
			LineID:      lines[i].LineID,
			Description: lines[i].Description,
			Category:    cat,
			Amount:      amt,
		})
	}
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Amount != ds[j].Amount {
			return ds[i].Amount > ds[j].Amount
		}
		return ds[i].LineID < ds[j].LineID
	})
	if len(ds) > topDriverCount {
		ds = ds[:topDriverCount]
	}
	return ds
}
