package normalize

import (
	"regexp"
	"sort"
	"strings"
)

var punctuation = regexp.MustCompile(`[^a-z0-9\s]+`)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "of": {}, "for": {}, "to": {},
	"in": {}, "on": {}, "at": {}, "with": {}, "w": {}, "by": {}, "per": {},
	"or": {}, "each": {}, "ea": {},
}

// Description lowercases, strips punctuation, drops stopwords and collapses
// whitespace. Two descriptions that normalize equal are treated as the same
// service text.
func Description(s string) string {
	return strings.Join(Tokens(s), " ")
}

// Tokens returns the normalized description tokens in original order.
func Tokens(s string) []string {
	s = strings.ToLower(s)
	s = punctuation.ReplaceAllString(s, " ")
	var out []string
	for _, f := range strings.Fields(s) {
		if _, stop := stopwords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// TokenSet returns the distinct normalized tokens, sorted.
func TokenSet(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range Tokens(s) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Jaccard returns |A∩B| / |A∪B| over two token sets. Two empty sets score 0.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	in := make(map[string]struct{}, len(a))
	for _, t := range a {
		in[t] = struct{}{}
	}
	inter := 0
	union := len(in)
	seenB := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seenB[t]; dup {
			continue
		}
		seenB[t] = struct{}{}
		if _, ok := in[t]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}
