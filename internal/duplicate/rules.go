package duplicate

import (
	"sort"

	"github.com/gyeh/billcheck/internal/model"
	"github.com/gyeh/billcheck/internal/normalize"
)

// Rule names attached to tagged matches.
const (
	RuleIdentical        = "identical_code_date_amount_description"
	RuleSimilar          = "similar_description_same_code_date"
	RuleMarker           = "duplicate_marker"
	RuleDifferentDate    = "same_service_different_date"
	RuleDistinctModifier = "distinct_service_modifier"
)

var priorityRank = map[model.DuplicatePriority]int{
	model.PriorityDefinite:      0,
	model.PriorityLikely:        1,
	model.PriorityNeedsReview:   2,
	model.PriorityFalsePositive: 3,
}

// Tag assigns explanation tiers to candidate duplicates. Numeric pairs become
// definite or likely findings carrying the pair's savings. Needs-review and
// false-positive findings carry zero savings.
func Tag(lines []model.BillLine, pairs []Pair) []model.DuplicateMatch {
	byID := make(map[string]*model.BillLine, len(lines))
	sorted := make([]*model.BillLine, 0, len(lines))
	for i := range lines {
		byID[lines[i].LineID] = &lines[i]
		sorted = append(sorted, &lines[i])
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].LineID < sorted[j].LineID })

	paired := make(map[[2]string]bool, len(pairs))
	var out []model.DuplicateMatch
	for _, p := range pairs {
		a, b := byID[p.A], byID[p.B]
		if a == nil || b == nil {
			continue
		}
		paired[[2]string{p.A, p.B}] = true
		m := newMatch(a, b)
		m.Confidence = p.Confidence
		m.PotentialSavings = p.Savings
		switch {
		case p.Kind == KindExact && a.BilledCents == b.BilledCents && a.Units() == b.Units():
			m.Priority, m.Rule = model.PriorityDefinite, RuleIdentical
		case p.Kind == KindMarker:
			m.Priority, m.Rule = model.PriorityLikely, RuleMarker
		default:
			m.Priority, m.Rule = model.PriorityLikely, RuleSimilar
		}
		out = append(out, m)
	}

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			if paired[[2]string{a.LineID, b.LineID}] {
				continue
			}
			if !sameService(a, b) {
				continue
			}
			m := newMatch(a, b)
			switch {
			case BucketKey(a) == BucketKey(b) && SeparatedByModifier(a, b):
				m.Priority, m.Rule, m.Confidence = model.PriorityFalsePositive, RuleDistinctModifier, 0.2
			case normalize.CodeKey(a.Code) != "" && normalize.DateKey(a.DateOfService) != normalize.DateKey(b.DateOfService):
				m.Priority, m.Rule, m.Confidence = model.PriorityNeedsReview, RuleDifferentDate, 0.5
			default:
				continue
			}
			out = append(out, m)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := priorityRank[out[i].Priority], priorityRank[out[j].Priority]
		if ri != rj {
			return ri < rj
		}
		if out[i].LineIDs[0] != out[j].LineIDs[0] {
			return out[i].LineIDs[0] < out[j].LineIDs[0]
		}
		return out[i].LineIDs[1] < out[j].LineIDs[1]
	})
	return out
}

// sameService reports matching code and revenue code with equal or similar
// descriptions.
func sameService(a, b *model.BillLine) bool {
	if normalize.CodeKey(a.Code) != normalize.CodeKey(b.Code) ||
		normalize.CodeKey(a.RevenueCode) != normalize.CodeKey(b.RevenueCode) {
		return false
	}
	da, db := normalize.Description(a.Description), normalize.Description(b.Description)
	if da == "" || db == "" {
		return false
	}
	if da == db {
		return true
	}
	return normalize.Jaccard(normalize.TokenSet(a.Description), normalize.TokenSet(b.Description)) >= JaccardThreshold
}

func newMatch(a, b *model.BillLine) model.DuplicateMatch {
	if b.LineID < a.LineID {
		a, b = b, a
	}
	return model.DuplicateMatch{
		LineIDs: []string{a.LineID, b.LineID},
		Evidence: model.DuplicateEvidence{
			Dates:        []string{normalize.DateKey(a.DateOfService), normalize.DateKey(b.DateOfService)},
			Descriptions: []string{a.Description, b.Description},
			Amounts:      []model.Cents{a.BilledCents, b.BilledCents},
		},
	}
}
