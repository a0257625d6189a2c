package normalize

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gyeh/billcheck/internal/model"
)

var (
	amountNoise   = regexp.MustCompile(`[\s,$€£¥]|USD`)
	parenNegative = regexp.MustCompile(`^\((.*)\)$`)
)

// ParseAmount strips currency symbols, thousands separators and whitespace
// and converts the remainder to cents, rounding half away from zero.
// ok is false when the text is not a number; the amount is then 0.
func ParseAmount(s string) (model.Cents, bool) {
	d, ok := ParseDecimal(s)
	if !ok {
		return 0, false
	}
	if !CentsFit(d) {
		return 0, false
	}
	return DecimalToCents(d), true
}

// ParseDecimal is ParseAmount without the conversion to cents. It also
// serves quantities, which share the same formatting noise.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	neg := false
	if m := parenNegative.FindStringSubmatch(s); m != nil {
		s, neg = m[1], true
	}
	s = amountNoise.ReplaceAllString(s, "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

// MaxCents is the largest amount accepted from input: one trillion dollars.
// Sums of many such amounts still fit in int64.
const MaxCents model.Cents = 100_000_000_000_000

var maxCentsDecimal = decimal.NewFromInt(int64(MaxCents))

// Magnitude returns the decimal exponent just above |d|: |d| < 10^Magnitude.
// It is computed from the representation, so it is cheap for any exponent.
func Magnitude(d decimal.Decimal) int64 {
	if d.IsZero() {
		return math.MinInt32
	}
	return int64(d.Exponent()) + int64(d.NumDigits())
}

// CentsFit reports whether d dollars is within MaxCents once rounded to the cent.
func CentsFit(d decimal.Decimal) bool {
	if Magnitude(d) > 16 {
		return false
	}
	if Magnitude(d) < -3 {
		return true
	}
	return d.Shift(2).Round(0).Abs().LessThanOrEqual(maxCentsDecimal)
}

// DecimalToCents converts a dollar amount to cents, rounding half away from
// zero. Callers check CentsFit first; amounts below a hundredth of a cent
// are 0.
func DecimalToCents(d decimal.Decimal) model.Cents {
	if Magnitude(d) < -3 {
		return 0
	}
	return model.Cents(d.Shift(2).Round(0).IntPart())
}
