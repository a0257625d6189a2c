// Package billparse turns the extraction step's JSON output into validated
// bill lines, regulatory flags and pricing references.
package billparse

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/gyeh/billcheck/internal/model"
)

// ParseBill decodes an extracted bill. Structural problems anywhere in the
// document reject it with a *ParseError listing each one.
func ParseBill(r io.Reader) (*model.Bill, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read bill: %w", err)
	}
	c := &collector{}
	doc, ok := decodeObject(data, "$", c)
	if !ok {
		return nil, c.err()
	}

	var items []json.RawMessage
	if v := doc.raw("line_items"); v == nil {
		c.fail("$.line_items", "required")
	} else if err := json.Unmarshal(v, &items); err != nil {
		c.fail("$.line_items", "expected an array")
	}

	bill := &model.Bill{Lines: make([]model.BillLine, 0, len(items))}
	seen := make(map[string]bool, len(items))
	for i, raw := range items {
		obj, ok := decodeObject(raw, fmt.Sprintf("$.line_items[%d]", i), c)
		if !ok {
			continue
		}
		line, ok := parseLine(obj)
		if !ok {
			continue
		}
		if seen[line.LineID] {
			c.fail(obj.at("line_id"), "duplicate line_id %q", line.LineID)
			continue
		}
		seen[line.LineID] = true
		bill.Lines = append(bill.Lines, line)
	}

	total := doc.amount("total_billed", false)
	rawText := doc.str("raw_text")
	if err := c.err(); err != nil {
		return nil, err
	}
	bill.Warnings = c.warnings

	switch {
	case total != nil && *total > 0:
		bill.TotalBilled = *total
	case rawText != nil:
		if t, ok := ExtractTotal(*rawText); ok {
			bill.TotalBilled = t
			bill.TotalFromText = true
		}
	}
	if bill.TotalBilled <= 0 {
		return nil, ErrMissingTotal
	}
	return bill, nil
}

func parseLine(o *object) (model.BillLine, bool) {
	id := o.str("line_id")
	if id == nil || strings.TrimSpace(*id) == "" {
		o.c.fail(o.at("line_id"), "required")
		return model.BillLine{}, false
	}
	line := model.BillLine{
		LineID:                     strings.TrimSpace(*id),
		Code:                       nonEmpty(o.str("code")),
		RevenueCode:                nonEmpty(o.str("revenue_code")),
		Quantity:                   o.quantity("quantity"),
		DateOfService:              o.date("date_of_service"),
		ProviderRef:                nonEmpty(o.str("provider")),
		PatientCostShareCharged:    o.amount("patient_cost_share_charged", false),
		ExpectedInNetworkCostShare: o.amount("expected_in_network_cost_share", false),
		Modifier:                   nonEmpty(o.str("modifier")),
	}
	if d := o.str("description"); d != nil {
		line.Description = *d
	}
	billed := o.amount("billed_amount", true)
	if billed == nil {
		return model.BillLine{}, false
	}
	line.BilledCents = *billed
	return line, true
}

// ParseFlags decodes the violation classifier's output: an array of
// {line_id, violation, citation, explicit_balance_bill}.
func ParseFlags(r io.Reader) (map[string]model.RegulatoryFlag, error) {
	var items []json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, &ParseError{Issues: []FieldIssue{{Path: "$", Reason: "expected an array"}}}
	}
	c := &collector{}
	flags := make(map[string]model.RegulatoryFlag, len(items))
	for i, raw := range items {
		obj, ok := decodeObject(raw, fmt.Sprintf("$[%d]", i), c)
		if !ok {
			continue
		}
		id := obj.str("line_id")
		if id == nil || *id == "" {
			c.fail(obj.at("line_id"), "required")
			continue
		}
		if _, dup := flags[*id]; dup {
			c.fail(obj.at("line_id"), "duplicate line_id %q", *id)
			continue
		}
		f := model.RegulatoryFlag{
			Violation:           obj.boolean("violation"),
			ExplicitBalanceBill: obj.amount("explicit_balance_bill", false),
		}
		if cit := obj.str("citation"); cit != nil {
			f.Citation = *cit
		}
		flags[*id] = f
	}
	if err := c.err(); err != nil {
		return nil, err
	}
	return flags, nil
}

// ParseBaselines decodes an object mapping line_id to pricing references in
// dollars. Each amount is taken as already scaled to the line's quantity.
func ParseBaselines(r io.Reader) (map[string]model.BaselineSource, error) {
	var byLine map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&byLine); err != nil || byLine == nil {
		return nil, &ParseError{Issues: []FieldIssue{{Path: "$", Reason: "expected an object"}}}
	}
	c := &collector{}
	out := make(map[string]model.BaselineSource, len(byLine))
	for _, id := range slices.Sorted(maps.Keys(byLine)) {
		obj, ok := decodeObject(byLine[id], "$."+id, c)
		if !ok {
			continue
		}
		out[id] = model.BaselineSource{
			PlanAllowed:        obj.amount("plan_allowed", false),
			MedicareAllowed:    obj.amount("medicare_allowed", false),
			RegionalBenchmark:  obj.amount("regional_benchmark", false),
			ChargemasterMedian: obj.amount("chargemaster_median", false),
			CategoryBenchmark:  obj.amount("category_benchmark", false),
			State:              nonEmpty(obj.str("state")),
		}
	}
	if err := c.err(); err != nil {
		return nil, err
	}
	return out, nil
}
