// Package nsa computes the patient cost-share gap attributable to a flagged
// balance-billing violation.
package nsa

import "github.com/gyeh/billcheck/internal/model"

// DefaultCoinsurance is the in-network cost share assumed when the bill does
// not state one.
const DefaultCoinsurance = 0.20

// Calculator computes No Surprises Act savings for a line.
type Calculator struct {
	coinsurance float64
}

// New returns a Calculator. A coinsurance outside (0, 1] uses the default.
func New(coinsurance float64) *Calculator {
	if coinsurance <= 0 || coinsurance > 1 {
		coinsurance = DefaultCoinsurance
	}
	return &Calculator{coinsurance: coinsurance}
}

// ExpectedCostShare returns the stated in-network cost share, or the
// coinsurance share of the resolved baseline.
func (c *Calculator) ExpectedCostShare(line *model.BillLine, baseline model.Cents) model.Cents {
	if line.ExpectedInNetworkCostShare != nil {
		return *line.ExpectedInNetworkCostShare
	}
	return baseline.MulRatio(c.coinsurance)
}

// Savings returns min(billed, max(0, charged − expected) + explicit balance
// bill) for a flagged line and 0 otherwise.
func (c *Calculator) Savings(line *model.BillLine, flag *model.RegulatoryFlag, baseline model.Cents) model.Cents {
	if flag == nil || !flag.Violation {
		return 0
	}
	var charged model.Cents
	if line.PatientCostShareCharged != nil {
		charged = *line.PatientCostShareCharged
	}
	balance := model.MaxCents(0, charged-c.ExpectedCostShare(line, baseline))

	var explicit model.Cents
	if flag.ExplicitBalanceBill != nil && *flag.ExplicitBalanceBill > 0 {
		explicit = *flag.ExplicitBalanceBill
	}
	return model.MaxCents(0, model.MinCents(line.BilledCents, balance+explicit))
}
