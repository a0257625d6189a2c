package aggregate

import (
	"testing"

	"github.com/gyeh/billcheck/internal/model"
)

func TestLine_PriorityOrder(t *testing.T) {
	l := &model.BillLine{LineID: "1", BilledCents: 100000}

	t.Run("overcharge_only", func(t *testing.T) {
		got := Line(LineInput{Line: l, Baseline: 45000, Confidence: 0.5})
		if got.OverchargeSavings != 55000 || got.TotalLineSavings != 55000 {
			t.Errorf("got %+v", got)
		}
		if got.WeightedContribution != 27500 {
			t.Errorf("WeightedContribution = %d, want 27500", got.WeightedContribution)
		}
	})

	t.Run("nsa_then_duplicate_then_overcharge", func(t *testing.T) {
		got := Line(LineInput{Line: l, Baseline: 10000, NSA: 60000, Duplicate: 30000, Confidence: 1})
		if got.NSASavings != 60000 || got.DuplicateSavings != 30000 {
			t.Errorf("components = %+v", got)
		}
		// remaining = 10000, raw overcharge = 90000
		if got.OverchargeSavings != 10000 {
			t.Errorf("OverchargeSavings = %d, want 10000", got.OverchargeSavings)
		}
		if got.TotalLineSavings != 100000 {
			t.Errorf("TotalLineSavings = %d, want billed", got.TotalLineSavings)
		}
	})

	t.Run("duplicate_capped", func(t *testing.T) {
		got := Line(LineInput{Line: l, Baseline: 100000, NSA: 80000, Duplicate: 50000, Confidence: 1})
		if got.DuplicateSavings != 20000 {
			t.Errorf("DuplicateSavings = %d, want 20000", got.DuplicateSavings)
		}
		if got.TotalLineSavings > l.BilledCents {
			t.Errorf("total %d exceeds billed", got.TotalLineSavings)
		}
	})

	t.Run("baseline_above_billed", func(t *testing.T) {
		got := Line(LineInput{Line: l, Baseline: 200000, Confidence: 1})
		if got.OverchargeSavings != 0 {
			t.Errorf("OverchargeSavings = %d, want 0", got.OverchargeSavings)
		}
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		issues, lines int
		want          model.Color
	}{
		{0, 10, model.ColorGreen},
		{2, 10, model.ColorYellow},
		{3, 10, model.ColorOrange},
		{5, 10, model.ColorOrange},
		{6, 10, model.ColorRed},
		{1, 3, model.ColorYellow}, // 0.33 within relaxed 0.35
		{3, 5, model.ColorOrange}, // 0.60 within relaxed 0.60
		{4, 5, model.ColorRed},
		{1, 4, model.ColorYellow},
		{2, 4, model.ColorOrange},
	}
	for _, tt := range tests {
		if got := Classify(tt.issues, tt.lines); got != tt.want {
			t.Errorf("Classify(%d,%d) = %s, want %s", tt.issues, tt.lines, got, tt.want)
		}
	}
}

func TestRollup(t *testing.T) {
	lines := []model.LineSavings{
		{LineID: "a", NSASavings: 500, TotalLineSavings: 500, WeightedContribution: 400, Description: "A"},
		{LineID: "b", DuplicateSavings: 700, OverchargeSavings: 100, TotalLineSavings: 800, WeightedContribution: 800},
		{LineID: "c", OverchargeSavings: 700, TotalLineSavings: 700, WeightedContribution: 350},
		{LineID: "d", OverchargeSavings: 50, TotalLineSavings: 50, WeightedContribution: 25},
		{LineID: "e"},
	}
	tot := Rollup(lines, 10000)

	if tot.GrossSavings != 2050 || tot.LikelySavings != 1575 {
		t.Errorf("gross=%d likely=%d", tot.GrossSavings, tot.LikelySavings)
	}
	if tot.NSASubtotal != 500 || tot.DuplicateSubtotal != 700 || tot.OverchargeSubtotal != 850 {
		t.Errorf("subtotals = %d/%d/%d", tot.NSASubtotal, tot.DuplicateSubtotal, tot.OverchargeSubtotal)
	}
	if tot.IssueCount != 4 || tot.IssueRatio != 0.8 {
		t.Errorf("issues=%d ratio=%v", tot.IssueCount, tot.IssueRatio)
	}
	if len(tot.TopDrivers) != 3 {
		t.Fatalf("expected 3 drivers, got %d", len(tot.TopDrivers))
	}
	// b (700 duplicate) and c (700 overcharge) tie; b sorts first.
	if tot.TopDrivers[0].LineID != "b" || tot.TopDrivers[0].Category != model.CategoryDuplicate {
		t.Errorf("driver[0] = %+v", tot.TopDrivers[0])
	}
	if tot.TopDrivers[1].LineID != "c" || tot.TopDrivers[2].LineID != "a" {
		t.Errorf("drivers = %+v", tot.TopDrivers)
	}
}

func TestRollup_CapsAtTotalBilled(t *testing.T) {
	lines := []model.LineSavings{
		{LineID: "a", OverchargeSavings: 900, TotalLineSavings: 900, WeightedContribution: 900},
		{LineID: "b", OverchargeSavings: 900, TotalLineSavings: 900, WeightedContribution: 450},
	}
	tot := Rollup(lines, 1000)
	if tot.GrossSavings != 1000 {
		t.Errorf("GrossSavings = %d, want 1000", tot.GrossSavings)
	}
	if tot.LikelySavings > tot.GrossSavings {
		t.Errorf("likely %d > gross %d", tot.LikelySavings, tot.GrossSavings)
	}
}
