package normalize

import (
	"regexp"
	"strings"
)

var multiSpace = regexp.MustCompile(`\s+`)

// NormalizeName lowercases, collapses whitespace, and trims the input.
// Returns "" for blank input.
func NormalizeName(v string) string {
	s := strings.TrimSpace(v)
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	return multiSpace.ReplaceAllString(s, " ")
}
