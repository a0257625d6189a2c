package nsa

import (
	"testing"

	"github.com/gyeh/billcheck/internal/model"
)

func TestSavings(t *testing.T) {
	c := New(0)

	t.Run("explicit_balance_bill", func(t *testing.T) {
		line := &model.BillLine{
			LineID:                     "1",
			BilledCents:                90000,
			PatientCostShareCharged:    model.CentsPtr(50000),
			ExpectedInNetworkCostShare: model.CentsPtr(10000),
		}
		flag := &model.RegulatoryFlag{Violation: true, Citation: "NSA-EMERGENCY", ExplicitBalanceBill: model.CentsPtr(40000)}
		if got := c.Savings(line, flag, 0); got != 80000 {
			t.Errorf("Savings = %d, want 80000", got)
		}
	})

	t.Run("capped_at_billed", func(t *testing.T) {
		line := &model.BillLine{LineID: "1", BilledCents: 30000, PatientCostShareCharged: model.CentsPtr(50000)}
		flag := &model.RegulatoryFlag{Violation: true, ExplicitBalanceBill: model.CentsPtr(40000)}
		if got := c.Savings(line, flag, 10000); got != 30000 {
			t.Errorf("Savings = %d, want 30000", got)
		}
	})

	t.Run("default_coinsurance", func(t *testing.T) {
		line := &model.BillLine{LineID: "1", BilledCents: 100000, PatientCostShareCharged: model.CentsPtr(30000)}
		flag := &model.RegulatoryFlag{Violation: true}
		// expected = 20% of 50000 baseline = 10000
		if got := c.Savings(line, flag, 50000); got != 20000 {
			t.Errorf("Savings = %d, want 20000", got)
		}
	})

	t.Run("no_flag_or_no_violation", func(t *testing.T) {
		line := &model.BillLine{LineID: "1", BilledCents: 100000, PatientCostShareCharged: model.CentsPtr(30000)}
		if got := c.Savings(line, nil, 0); got != 0 {
			t.Errorf("nil flag: Savings = %d", got)
		}
		if got := c.Savings(line, &model.RegulatoryFlag{Violation: false, ExplicitBalanceBill: model.CentsPtr(500)}, 0); got != 0 {
			t.Errorf("no violation: Savings = %d", got)
		}
	})

	t.Run("charged_below_expected", func(t *testing.T) {
		line := &model.BillLine{
			LineID:                     "1",
			BilledCents:                100000,
			PatientCostShareCharged:    model.CentsPtr(5000),
			ExpectedInNetworkCostShare: model.CentsPtr(10000),
		}
		if got := c.Savings(line, &model.RegulatoryFlag{Violation: true}, 0); got != 0 {
			t.Errorf("Savings = %d, want 0", got)
		}
	})
}
