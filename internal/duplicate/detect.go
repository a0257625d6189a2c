// Package duplicate finds line items that bill the same event twice.
//
// Detect is the only source of numeric duplicate savings. Tag produces the
// categorical findings shown to the user and never feeds the totals.
package duplicate

import (
	"math"
	"sort"

	"github.com/gyeh/billcheck/internal/model"
	"github.com/gyeh/billcheck/internal/normalize"
)

const (
	// JaccardThreshold is the minimum token-set similarity for a fuzzy match.
	JaccardThreshold = 0.75
	// MarkerSimilarity is assigned when a description carries a duplicate marker.
	MarkerSimilarity = 0.85
	// PriceParityTolerance bounds the relative unit-price gap of a fuzzy match.
	PriceParityTolerance = 0.20
)

// Match kinds.
const (
	KindExact  = "exact"
	KindMarker = "marker"
	KindFuzzy  = "jaccard"
)

var markerTokens = map[string]struct{}{
	"duplicate":  {},
	"duplicated": {},
	"dup":        {},
	"repeat":     {},
}

// distinctService modifiers mark a second line as a separately
// identifiable service, which is not a duplicate.
var distinctService = map[string]struct{}{
	"59": {}, "XE": {}, "XS": {}, "XP": {}, "XU": {}, "76": {}, "77": {}, "91": {},
}

var laterality = map[string]struct{}{
	"LT": {}, "RT": {}, "50": {},
}

// Pair is an accepted duplicate pair. A is always the lexically smaller line ID.
type Pair struct {
	A, B       string
	Kind       string
	Similarity float64
	Confidence float64
	Savings    model.Cents
}

// BucketKey groups lines that can be compared.
func BucketKey(l *model.BillLine) string {
	return normalize.CodeKey(l.Code) + "|" + normalize.CodeKey(l.RevenueCode) + "|" + normalize.DateKey(l.DateOfService)
}

// Detect compares every pair of lines sharing a (code, revenue code, date)
// bucket. The result is independent of input order.
func Detect(lines []model.BillLine) []Pair {
	buckets := make(map[string][]*model.BillLine)
	var keys []string
	for i := range lines {
		l := &lines[i]
		k := BucketKey(l)
		if _, ok := buckets[k]; !ok {
			keys = append(keys, k)
		}
		buckets[k] = append(buckets[k], l)
	}
	sort.Strings(keys)

	var pairs []Pair
	for _, k := range keys {
		members := buckets[k]
		sort.SliceStable(members, func(i, j int) bool { return members[i].LineID < members[j].LineID })
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				if p, ok := Compare(members[i], members[j]); ok {
					pairs = append(pairs, p)
				}
			}
		}
	}
	return pairs
}

// Compare decides whether two lines in the same bucket are duplicates.
// Argument order does not affect the outcome.
func Compare(x, y *model.BillLine) (Pair, bool) {
	a, b := x, y
	if b.LineID < a.LineID {
		a, b = b, a
	}
	if SeparatedByModifier(a, b) {
		return Pair{}, false
	}

	p := Pair{A: a.LineID, B: b.LineID}
	da, db := normalize.Description(a.Description), normalize.Description(b.Description)
	switch {
	case da != "" && da == db:
		p.Kind = KindExact
		p.Similarity = 1.0
		p.Confidence = 0.9
		if a.BilledCents == b.BilledCents {
			p.Confidence = 0.95
		}
	case hasMarker(a.Description) || hasMarker(b.Description):
		p.Kind = KindMarker
		p.Similarity = MarkerSimilarity
		p.Confidence = MarkerSimilarity
	default:
		sim := normalize.Jaccard(normalize.TokenSet(a.Description), normalize.TokenSet(b.Description))
		if sim < JaccardThreshold {
			return Pair{}, false
		}
		gap, ok := priceGap(a, b)
		if !ok || gap > PriceParityTolerance {
			return Pair{}, false
		}
		p.Kind = KindFuzzy
		p.Similarity = sim
		p.Confidence = sim * (1 - gap)
	}
	p.Savings = pairSavings(a, b)
	return p, true
}

// SeparatedByModifier reports whether modifiers say the two lines are
// distinct services: a distinct-service modifier on either line, or
// different laterality.
func SeparatedByModifier(a, b *model.BillLine) bool {
	ma, mb := normalize.Modifiers(a.Modifier), normalize.Modifiers(b.Modifier)
	for _, m := range append(append([]string{}, ma...), mb...) {
		if _, ok := distinctService[m]; ok {
			return true
		}
	}
	return lateralityOf(ma) != lateralityOf(mb)
}

func lateralityOf(mods []string) string {
	for _, m := range mods {
		if _, ok := laterality[m]; ok {
			return m
		}
	}
	return ""
}

func hasMarker(desc string) bool {
	for _, t := range normalize.Tokens(desc) {
		if _, ok := markerTokens[t]; ok {
			return true
		}
	}
	return false
}

// priceGap is |ua-ub| / max(ua, ub). ok is false when neither line has a price.
func priceGap(a, b *model.BillLine) (float64, bool) {
	ua, ub := a.UnitPrice(), b.UnitPrice()
	hi := math.Max(ua, ub)
	if hi <= 0 {
		return 0, false
	}
	return math.Abs(ua-ub) / hi, true
}

func pairSavings(a, b *model.BillLine) model.Cents {
	if a.Units() == b.Units() {
		return model.MinCents(a.BilledCents, b.BilledCents)
	}
	avg := (a.UnitPrice() + b.UnitPrice()) / 2
	return model.Cents(math.Round(avg * math.Min(a.Units(), b.Units())))
}

// Allocate splits each pair's savings evenly between its two lines. The odd
// cent goes to A. A line in several pairs accumulates every half-share; the
// aggregator caps the sum at the line's billed amount.
func Allocate(pairs []Pair) map[string]model.Cents {
	out := make(map[string]model.Cents)
	for _, p := range pairs {
		half := p.Savings / 2
		out[p.A] += p.Savings - half
		out[p.B] += half
	}
	return out
}
