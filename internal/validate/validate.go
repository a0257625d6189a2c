// Package validate enforces the hard invariants on an engine result before it
// may leave the engine or be persisted.
package validate

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/gyeh/billcheck/internal/aggregate"
	"github.com/gyeh/billcheck/internal/model"
)

// DefaultSafetyCeiling is the share of the bill total that reported savings
// may never exceed at persistence time.
const DefaultSafetyCeiling = 0.90

// Invariant rule names.
const (
	RulePositiveTotal     = "positive_total"
	RuleNonNegative       = "non_negative_component"
	RuleComponentInBilled = "component_within_billed"
	RuleLineSum           = "line_total_matches_components"
	RuleLineWithinBilled  = "line_total_within_billed"
	RuleConfidenceRange   = "confidence_in_range"
	RuleWeighted          = "weighted_within_line_total"
	RuleSumWithinTotal    = "sum_within_total_billed"
	RuleLikelyWithinGross = "likely_within_gross"
)

// InvariantViolation is a self-contradictory result. It is a programming or
// extraction error and must never be shown to a user.
type InvariantViolation struct {
	Rule   string
	LineID string
	Detail string
}

func (e *InvariantViolation) Error() string {
	if e.LineID != "" {
		return fmt.Sprintf("invariant %s violated on line %s: %s", e.Rule, e.LineID, e.Detail)
	}
	return fmt.Sprintf("invariant %s violated: %s", e.Rule, e.Detail)
}

// Finalize runs the proportional clamp and then asserts every invariant.
func Finalize(t *model.SavingsTotals) error {
	if t.TotalBilled <= 0 {
		return &InvariantViolation{Rule: RulePositiveTotal, Detail: fmt.Sprintf("total billed %d", t.TotalBilled)}
	}
	FinalizeTotals(t)
	return Assert(t)
}

// FinalizeTotals scales every line down by total_billed / sum when the sum of
// line savings exceeds the bill total, and marks ValidationApplied.
func FinalizeTotals(t *model.SavingsTotals) {
	if scaleTo(t, t.TotalBilled) {
		t.ValidationApplied = true
	}
}

// SafetyClamp caps total savings at ceiling × total billed, scaling lines the
// same way FinalizeTotals does. Run immediately before persistence.
func SafetyClamp(t *model.SavingsTotals, ceiling float64) {
	if ceiling <= 0 || ceiling > 1 {
		ceiling = DefaultSafetyCeiling
	}
	limit := model.Cents(decimal.NewFromInt(int64(t.TotalBilled)).
		Mul(decimal.NewFromFloat(ceiling)).Floor().IntPart())
	if scaleTo(t, limit) {
		t.SafetyClampApplied = true
	}
}

// scaleTo rescales lines so their savings sum is at most limit, then
// recomputes the rollup. Scaling floors every component so the scaled sum
// can never exceed limit.
func scaleTo(t *model.SavingsTotals, limit model.Cents) bool {
	var sum model.Cents
	for i := range t.Lines {
		sum += t.Lines[i].TotalLineSavings
	}
	if sum <= limit || sum <= 0 {
		return false
	}
	limit = model.MaxCents(0, limit)

	lines := make([]model.LineSavings, len(t.Lines))
	for i, l := range t.Lines {
		l.NSASavings = scale(l.NSASavings, limit, sum)
		l.DuplicateSavings = scale(l.DuplicateSavings, limit, sum)
		l.OverchargeSavings = scale(l.OverchargeSavings, limit, sum)
		l.TotalLineSavings = l.NSASavings + l.DuplicateSavings + l.OverchargeSavings
		l.WeightedContribution = model.MinCents(scale(l.WeightedContribution, limit, sum), l.TotalLineSavings)
		lines[i] = l
	}

	matches := t.DuplicateMatches
	validated, clamped := t.ValidationApplied, t.SafetyClampApplied
	*t = aggregate.Rollup(lines, t.TotalBilled)
	t.DuplicateMatches = matches
	t.ValidationApplied, t.SafetyClampApplied = validated, clamped
	return true
}

// scale returns floor(v × num / den) exactly.
func scale(v, num, den model.Cents) model.Cents {
	if v <= 0 {
		return 0
	}
	q, _ := decimal.NewFromInt(int64(v)).Mul(decimal.NewFromInt(int64(num))).
		QuoRem(decimal.NewFromInt(int64(den)), 0)
	return model.Cents(q.IntPart())
}

// Assert checks every invariant and returns the first violation. It never
// corrects anything.
func Assert(t *model.SavingsTotals) error {
	if t.TotalBilled <= 0 {
		return &InvariantViolation{Rule: RulePositiveTotal, Detail: fmt.Sprintf("total billed %d", t.TotalBilled)}
	}
	var sum model.Cents
	for i := range t.Lines {
		l := &t.Lines[i]
		if err := assertLine(l); err != nil {
			return err
		}
		sum += l.TotalLineSavings
	}
	if sum > t.TotalBilled {
		return &InvariantViolation{Rule: RuleSumWithinTotal, Detail: fmt.Sprintf("sum %d > total billed %d", sum, t.TotalBilled)}
	}
	if t.GrossSavings > t.TotalBilled || t.GrossSavings < 0 {
		return &InvariantViolation{Rule: RuleSumWithinTotal, Detail: fmt.Sprintf("gross %d outside [0, %d]", t.GrossSavings, t.TotalBilled)}
	}
	if t.LikelySavings > t.GrossSavings || t.LikelySavings < 0 {
		return &InvariantViolation{Rule: RuleLikelyWithinGross, Detail: fmt.Sprintf("likely %d, gross %d", t.LikelySavings, t.GrossSavings)}
	}
	return nil
}

func assertLine(l *model.LineSavings) error {
	billed := l.BilledCents
	components := []struct {
		name string
		v    model.Cents
	}{
		{"nsa", l.NSASavings},
		{"duplicate", l.DuplicateSavings},
		{"overcharge", l.OverchargeSavings},
	}
	for _, c := range components {
		name, v := c.name, c.v
		if v < 0 {
			return &InvariantViolation{Rule: RuleNonNegative, LineID: l.LineID, Detail: fmt.Sprintf("%s savings %d", name, v)}
		}
		if v > billed {
			return &InvariantViolation{Rule: RuleComponentInBilled, LineID: l.LineID, Detail: fmt.Sprintf("%s savings %d > billed %d", name, v, billed)}
		}
	}
	if l.TotalLineSavings != l.NSASavings+l.DuplicateSavings+l.OverchargeSavings {
		return &InvariantViolation{Rule: RuleLineSum, LineID: l.LineID, Detail: fmt.Sprintf("total %d", l.TotalLineSavings)}
	}
	if l.TotalLineSavings > billed {
		return &InvariantViolation{Rule: RuleLineWithinBilled, LineID: l.LineID, Detail: fmt.Sprintf("total %d > billed %d", l.TotalLineSavings, billed)}
	}
	if math.IsNaN(l.Confidence) || l.Confidence < 0.5 || l.Confidence > 1.0 {
		return &InvariantViolation{Rule: RuleConfidenceRange, LineID: l.LineID, Detail: fmt.Sprintf("confidence %v", l.Confidence)}
	}
	if l.WeightedContribution < 0 || l.WeightedContribution > l.TotalLineSavings {
		return &InvariantViolation{Rule: RuleWeighted, LineID: l.LineID, Detail: fmt.Sprintf("weighted %d, total %d", l.WeightedContribution, l.TotalLineSavings)}
	}
	return nil
}
