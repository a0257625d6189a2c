package normalize

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gyeh/billcheck/internal/model"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in     string
		want   model.Cents
		wantOK bool
	}{
		{"1234.56", 123456, true},
		{"$1,234.56", 123456, true},
		{"  $ 200 ", 20000, true},
		{"USD 45.5", 4550, true},
		{"(12.00)", -1200, true},
		{"0.005", 1, true},
		{"19.999", 2000, true},
		{"", 0, false},
		{"$", 0, false},
		{"N/A", 0, false},
		{"12abc", 0, false},
		{"1000000000000.00", 100_000_000_000_000, true},
		{"1000000000000.01", 0, false},
		{"92233720368547758.08", 0, false},
		{"1e999999999", 0, false},
		{"1e-999999999", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseAmount(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCentsFit(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"999999999999.99", true},
		{"1000000000000", true},
		{"1000000000000.005", false},
		{"-1000000000000.01", false},
		{"1e400", false},
		{"1e-400", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d := decimal.RequireFromString(tt.in)
			if got := CentsFit(d); got != tt.want {
				t.Errorf("CentsFit(%s) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
