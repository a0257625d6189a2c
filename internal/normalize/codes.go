package normalize

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// NormalizeCode trims whitespace, uppercases, and strips non-alphanumeric characters.
// Returns nil if the input is nil or the result is empty.
func NormalizeCode(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	s = strings.ToUpper(s)
	s = nonAlphanumeric.ReplaceAllString(s, "")
	if s == "" {
		return nil
	}
	return &s
}

// CodeKey returns the normalized code, or "" when absent. Used where a
// missing code must still participate in a composite key.
func CodeKey(v *string) string {
	if n := NormalizeCode(v); n != nil {
		return *n
	}
	return ""
}

// Modifiers splits a modifier field such as "59, RT" or "25-59" into
// normalized modifier codes.
func Modifiers(v *string) []string {
	if v == nil {
		return nil
	}
	parts := strings.FieldsFunc(*v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '-' || r == '/' || r == ';'
	})
	var out []string
	for _, p := range parts {
		if n := NormalizeCode(&p); n != nil {
			out = append(out, *n)
		}
	}
	return out
}
