package model

import (
	"fmt"
	"math"
)

// Cents is a money amount in integer cents. All engine arithmetic runs on
// Cents; float dollars only appear at the presentation boundary.
type Cents int64

// Dollars returns the amount as float64 dollars for display.
func (c Cents) Dollars() float64 {
	return float64(c) / 100
}

func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}

// MulRatio multiplies c by r and rounds half away from zero to the cent.
func (c Cents) MulRatio(r float64) Cents {
	return Cents(math.Round(float64(c) * r))
}

// MinCents returns the smaller of a and b.
func MinCents(a, b Cents) Cents {
	if a < b {
		return a
	}
	return b
}

// MaxCents returns the larger of a and b.
func MaxCents(a, b Cents) Cents {
	if a > b {
		return a
	}
	return b
}

// CentsPtr is a convenience for optional amounts.
func CentsPtr(c Cents) *Cents { return &c }
