package feeschedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gyeh/billcheck/internal/model"
	"github.com/gyeh/billcheck/internal/normalize"
)

const readBatch = 1024

// Options filter what Load indexes.
type Options struct {
	// State prefers rows for this state; rows for other states are skipped.
	State string
	// CodeTypes limits indexing to these code type names; empty means all.
	CodeTypes []string
}

// LoadStats reports what Load did with the file's rows.
type LoadStats struct {
	Rows    int64
	Indexed int64
	Skipped int64
}

type rate struct {
	order    int
	codeType int
	modifier string
	state    string
	amounts  [5]*decimal.Decimal
}

// Schedule is an in-memory index over a fee schedule, safe for concurrent
// lookups once loaded.
type Schedule struct {
	state  string
	byCode map[string][]rate
	byRev  map[string][]rate
}

// Load reads and indexes a fee-schedule Parquet file.
func Load(ctx context.Context, path string, opts Options) (*Schedule, LoadStats, error) {
	var stats LoadStats
	r, err := Open(path)
	if err != nil {
		return nil, stats, err
	}
	defer r.Close()

	if err := ValidateSchema(r.Schema()); err != nil {
		return nil, stats, fmt.Errorf("validate fee schedule %s: %w", path, err)
	}

	allowed, err := codeTypeFilter(opts.CodeTypes)
	if err != nil {
		return nil, stats, err
	}

	s := &Schedule{
		state:  strings.ToUpper(strings.TrimSpace(opts.State)),
		byCode: make(map[string][]rate),
		byRev:  make(map[string][]rate),
	}
	buf := make([]model.FeeScheduleRow, readBatch)
	for {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		n, readErr := r.Read(buf)
		for i := 0; i < n; i++ {
			stats.Rows++
			if s.add(&buf[i], int(stats.Rows), allowed) {
				stats.Indexed++
			} else {
				stats.Skipped++
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, stats, readErr
		}
	}
	return s, stats, nil
}

func codeTypeFilter(names []string) (map[string]int, error) {
	allowed := make(map[string]int)
	for i, ct := range model.AllCodeTypes {
		if len(names) == 0 || slices.Contains(names, ct.Name) {
			allowed[ct.Column] = i
		}
	}
	for _, n := range names {
		if _, ok := model.CodeTypeByName(n); !ok {
			return nil, fmt.Errorf("unknown code type %q (valid: %s)", n, strings.Join(model.CodeTypeNames(), ", "))
		}
	}
	return allowed, nil
}

func (s *Schedule) add(row *model.FeeScheduleRow, order int, allowed map[string]int) bool {
	ctIdx, ok := allowed[strings.ToLower(strings.TrimSpace(row.CodeType))]
	if !ok {
		return false
	}
	code := normalize.CodeKey(&row.Code)
	if code == "" || row.RateCount() == 0 {
		return false
	}
	state := normalize.CodeKey(row.State)
	if state != "" && s.state != "" && state != s.state {
		return false
	}

	rt := rate{order: order, codeType: ctIdx, state: state}
	if mods := normalize.Modifiers(row.Modifier); len(mods) > 0 {
		rt.modifier = mods[0]
	}
	for i, v := range []*float64{row.PlanAllowed, row.MedicareAllowed, row.RegionalBenchmark, row.ChargemasterMedian, row.CategoryBenchmark} {
		if v == nil {
			continue
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
			return false
		}
		d := decimal.NewFromFloat(*v)
		if !normalize.CentsFit(d) {
			return false
		}
		rt.amounts[i] = &d
	}

	if model.AllCodeTypes[ctIdx].Name == "REV" {
		s.byRev[code] = append(s.byRev[code], rt)
	} else {
		s.byCode[code] = append(s.byCode[code], rt)
	}
	return true
}

// Len returns the number of indexed rows.
func (s *Schedule) Len() int {
	n := 0
	for _, rs := range s.byCode {
		n += len(rs)
	}
	for _, rs := range s.byRev {
		n += len(rs)
	}
	return n
}

// Lookup finds pricing for a line by its procedure code, then by revenue
// code. Rates are per unit and are scaled by the line's quantity.
func (s *Schedule) Lookup(ctx context.Context, line *model.BillLine) (model.BaselineSource, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.BaselineSource{}, false, err
	}
	mods := normalize.Modifiers(line.Modifier)

	best, ok := s.pick(s.byCode[normalize.CodeKey(line.Code)], mods)
	if !ok {
		best, ok = s.pick(s.byRev[normalize.CodeKey(line.RevenueCode)], mods)
	}
	if !ok {
		return model.BaselineSource{}, false, nil
	}

	u := line.Units()
	if math.IsNaN(u) || math.IsInf(u, 0) {
		return model.BaselineSource{}, false, fmt.Errorf("line %s: quantity %v is not finite", line.LineID, u)
	}
	units := decimal.NewFromFloat(u)
	scaled := func(i int) *model.Cents {
		if best.amounts[i] == nil {
			return nil
		}
		total := best.amounts[i].Mul(units)
		if !normalize.CentsFit(total) {
			return nil
		}
		c := normalize.DecimalToCents(total)
		return &c
	}
	src := model.BaselineSource{
		PlanAllowed:        scaled(0),
		MedicareAllowed:    scaled(1),
		RegionalBenchmark:  scaled(2),
		ChargemasterMedian: scaled(3),
		CategoryBenchmark:  scaled(4),
	}
	if best.state != "" {
		st := best.state
		src.State = &st
	}
	return src, true, nil
}

// pick chooses the most specific candidate: a modifier-specific row over
// the generic one, a state row over a national one, then code type order,
// then file order. Rows for a modifier the line does not carry never match.
func (s *Schedule) pick(cands []rate, mods []string) (rate, bool) {
	var best rate
	bestScore := -1
	for _, c := range cands {
		score := 0
		if c.modifier != "" {
			if !slices.Contains(mods, c.modifier) {
				continue
			}
			score += 2
		}
		if c.state != "" {
			score++
		}
		if score > bestScore || (score == bestScore && less(c, best)) {
			best, bestScore = c, score
		}
	}
	return best, bestScore >= 0
}

func less(a, b rate) bool {
	if a.codeType != b.codeType {
		return a.codeType < b.codeType
	}
	return a.order < b.order
}
