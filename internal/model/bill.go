package model

import "time"

// BillLine is one extracted charge line. Optional fields are nil when the
// extraction step did not report them. Lines are read-only to the engine.
type BillLine struct {
	LineID        string     `json:"line_id"`
	Code          *string    `json:"code,omitempty"`
	RevenueCode   *string    `json:"revenue_code,omitempty"`
	Description   string     `json:"description"`
	BilledCents   Cents      `json:"billed_cents"`
	Quantity      float64    `json:"quantity,omitempty"` // 0 = not reported
	DateOfService *time.Time `json:"date_of_service,omitempty"`
	ProviderRef   *string    `json:"provider,omitempty"`

	PatientCostShareCharged    *Cents `json:"patient_cost_share_charged_cents,omitempty"`
	ExpectedInNetworkCostShare *Cents `json:"expected_in_network_cost_share_cents,omitempty"`

	Modifier *string `json:"modifier,omitempty"`
}

// Units returns the quantity used for unit-price math. Unreported or
// non-positive quantities count as a single unit.
func (l *BillLine) Units() float64 {
	if l.Quantity <= 0 {
		return 1
	}
	return l.Quantity
}

// UnitPrice returns billed cents per unit as a float for ratio comparisons.
func (l *BillLine) UnitPrice() float64 {
	return float64(l.BilledCents) / l.Units()
}

// Bill is the parsed extraction output for one uploaded document.
type Bill struct {
	TotalBilled Cents
	// TotalFromText is true when TotalBilled came from the raw-text fallback.
	TotalFromText bool
	Lines         []BillLine
	// Warnings lists numeric fields that were coerced to zero.
	Warnings []string
}

// BaselineSource holds the pricing references available for a line. Each
// amount is already scaled to the line's quantity.
type BaselineSource struct {
	PlanAllowed        *Cents  `json:"plan_allowed_cents,omitempty"`
	MedicareAllowed    *Cents  `json:"medicare_allowed_cents,omitempty"`
	RegionalBenchmark  *Cents  `json:"regional_benchmark_cents,omitempty"`
	ChargemasterMedian *Cents  `json:"chargemaster_median_cents,omitempty"`
	CategoryBenchmark  *Cents  `json:"category_benchmark_cents,omitempty"`
	State              *string `json:"state,omitempty"`
}

// IsEmpty reports whether no pricing reference is present.
func (b *BaselineSource) IsEmpty() bool {
	return b == nil || (b.PlanAllowed == nil && b.MedicareAllowed == nil &&
		b.RegionalBenchmark == nil && b.ChargemasterMedian == nil && b.CategoryBenchmark == nil)
}

// RegulatoryFlag is the violation classifier's verdict for one line.
type RegulatoryFlag struct {
	Violation           bool   `json:"violation"`
	Citation            string `json:"citation"`
	ExplicitBalanceBill *Cents `json:"explicit_balance_bill_cents,omitempty"`
}
