package billparse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gyeh/billcheck/internal/model"
	"github.com/gyeh/billcheck/internal/normalize"
)

// collector accumulates structural issues and coercion warnings while a
// document is walked.
type collector struct {
	issues   []FieldIssue
	warnings []string
}

func (c *collector) fail(path, format string, args ...any) {
	c.issues = append(c.issues, FieldIssue{Path: path, Reason: fmt.Sprintf(format, args...)})
}

func (c *collector) warn(path, format string, args ...any) {
	c.warnings = append(c.warnings, path+": "+fmt.Sprintf(format, args...))
}

func (c *collector) err() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ParseError{Issues: c.issues}
}

// object reads typed fields out of one decoded JSON object.
type object struct {
	path   string
	fields map[string]json.RawMessage
	c      *collector
}

func decodeObject(raw json.RawMessage, path string, c *collector) (*object, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		c.fail(path, "expected an object")
		return nil, false
	}
	return &object{path: path, fields: fields, c: c}, true
}

func (o *object) at(name string) string { return o.path + "." + name }

// raw returns the field's bytes, or nil when it is absent or null.
func (o *object) raw(name string) json.RawMessage {
	v, ok := o.fields[name]
	if !ok {
		return nil
	}
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil
	}
	return v
}

func (o *object) has(name string) bool { return o.raw(name) != nil }

// str reads a string field. Numbers are accepted verbatim since codes such
// as 99213 are often emitted unquoted.
func (o *object) str(name string) *string {
	v := o.raw(name)
	if v == nil {
		return nil
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			o.c.fail(o.at(name), "invalid string")
			return nil
		}
		return &s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		s := string(v)
		return &s
	}
	o.c.fail(o.at(name), "expected a string")
	return nil
}

func (o *object) boolean(name string) bool {
	v := o.raw(name)
	if v == nil {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		o.c.fail(o.at(name), "expected a boolean")
	}
	return b
}

// number reads a JSON number or a numeric string. Garbage strings become
// zero with a warning; objects, arrays and booleans are structural errors.
func (o *object) number(name string) (decimal.Decimal, bool) {
	v := o.raw(name)
	if v == nil {
		return decimal.Zero, false
	}
	switch {
	case v[0] == '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			o.c.fail(o.at(name), "invalid string")
			return decimal.Zero, false
		}
		d, ok := normalize.ParseDecimal(s)
		if !ok {
			o.c.warn(o.at(name), "unparseable amount %q treated as 0", s)
			return decimal.Zero, true
		}
		return d, true
	case v[0] == '-' || (v[0] >= '0' && v[0] <= '9'):
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			o.c.fail(o.at(name), "invalid number")
			return decimal.Zero, false
		}
		return d, true
	}
	o.c.fail(o.at(name), "expected a number or numeric string")
	return decimal.Zero, false
}

// amount reads a non-negative dollar amount as cents, at most
// normalize.MaxCents.
func (o *object) amount(name string, required bool) *model.Cents {
	d, ok := o.number(name)
	if !ok {
		if required && !o.has(name) {
			o.c.fail(o.at(name), "required")
		}
		return nil
	}
	if d.IsNegative() {
		o.c.fail(o.at(name), "must not be negative")
		return nil
	}
	if !normalize.CentsFit(d) {
		o.c.fail(o.at(name), "exceeds the largest accepted amount %s", normalize.MaxCents)
		return nil
	}
	c := normalize.DecimalToCents(d)
	return &c
}

// MaxQuantity is the largest unit count accepted on a line.
const MaxQuantity = 1_000_000

var maxQuantity = decimal.NewFromInt(MaxQuantity)

func (o *object) quantity(name string) float64 {
	d, ok := o.number(name)
	if !ok {
		return 0
	}
	if d.IsNegative() {
		o.c.fail(o.at(name), "must not be negative")
		return 0
	}
	if normalize.Magnitude(d) > 7 || d.GreaterThan(maxQuantity) {
		o.c.fail(o.at(name), "exceeds %d units", MaxQuantity)
		return 0
	}
	if normalize.Magnitude(d) < -9 {
		return 0
	}
	q := d.InexactFloat64()
	if math.IsNaN(q) || math.IsInf(q, 0) {
		o.c.fail(o.at(name), "not a finite number")
		return 0
	}
	return q
}

func (o *object) date(name string) *time.Time {
	s := o.str(name)
	if s == nil || *s == "" {
		return nil
	}
	t := normalize.ParseDate(*s)
	if t == nil {
		o.c.fail(o.at(name), "unrecognized date %q", *s)
	}
	return t
}

// nonEmpty drops blank optional strings.
func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
