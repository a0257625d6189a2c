package confidence

import (
	"math"
	"testing"

	"github.com/gyeh/billcheck/internal/model"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func strPtr(s string) *string { return &s }

func TestDataQuality(t *testing.T) {
	full := &model.BillLine{LineID: "1", Code: strPtr("99213"), Quantity: 1, BilledCents: 100, Description: "Office visit level 3"}
	if got := DataQuality(full); !approx(got, 1.0) {
		t.Errorf("full line = %v, want 1.0", got)
	}
	bare := &model.BillLine{LineID: "1", Description: "visit"}
	if got := DataQuality(bare); !approx(got, 0.6) {
		t.Errorf("bare line = %v, want 0.6", got)
	}
}

func TestBenchmarkQuality(t *testing.T) {
	c := model.CentsPtr(100)
	tests := []struct {
		name string
		src  *model.BaselineSource
		want float64
	}{
		{"none", nil, 0},
		{"medicare", &model.BaselineSource{MedicareAllowed: c}, 0.2},
		{"plan_regional", &model.BaselineSource{PlanAllowed: c, RegionalBenchmark: c}, 0.65},
		{"all", &model.BaselineSource{PlanAllowed: c, MedicareAllowed: c, RegionalBenchmark: c, ChargemasterMedian: c}, 1.0},
		{"category_only", &model.BaselineSource{CategoryBenchmark: c}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BenchmarkQuality(tt.src); !approx(got, tt.want) {
				t.Errorf("BenchmarkQuality = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegulatoryCertainty(t *testing.T) {
	s := New(nil, nil)
	if got := s.RegulatoryCertainty(nil); got != 0.5 {
		t.Errorf("nil flag = %v", got)
	}
	if got := s.RegulatoryCertainty(&model.RegulatoryFlag{Violation: true, Citation: " nsa-emergency "}); got != 1.0 {
		t.Errorf("hard citation = %v", got)
	}
	if got := s.RegulatoryCertainty(&model.RegulatoryFlag{Violation: true, Citation: "45 CFR 149.420"}); got != 0.7 {
		t.Errorf("soft citation = %v", got)
	}
	if got := s.RegulatoryCertainty(&model.RegulatoryFlag{Violation: true, Citation: "state law"}); got != 0.5 {
		t.Errorf("unknown citation = %v", got)
	}
}

func TestScore_ClampedRange(t *testing.T) {
	s := New(nil, nil)
	c := model.CentsPtr(100)
	line := &model.BillLine{LineID: "1", Code: strPtr("99213"), Quantity: 1, BilledCents: 100, Description: "Office visit level 3"}

	high := s.Score(line,
		&model.BaselineSource{PlanAllowed: c, MedicareAllowed: c, RegionalBenchmark: c},
		&model.RegulatoryFlag{Violation: true, Citation: "NSA-EMERGENCY"}, 0.2)
	if high.Final != Max {
		t.Errorf("high Final = %v, want %v", high.Final, Max)
	}

	low := s.Score(line, nil, nil, -0.5)
	if low.Final != Min {
		t.Errorf("low Final = %v, want %v", low.Final, Min)
	}

	// 1.0*0.3 + 0.65*0.4 + 0.5*0.3 + 0.1 = 0.81
	mid := s.Score(line, &model.BaselineSource{PlanAllowed: c, RegionalBenchmark: c}, nil, 0.1)
	if !approx(mid.Final, 0.81) {
		t.Errorf("mid Final = %v, want 0.81", mid.Final)
	}
}

func TestClamp_NaN(t *testing.T) {
	if got := Clamp(math.NaN()); got != Min {
		t.Errorf("Clamp(NaN) = %v", got)
	}
}
