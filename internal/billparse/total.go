package billparse

import (
	"regexp"

	"github.com/gyeh/billcheck/internal/model"
	"github.com/gyeh/billcheck/internal/normalize"
)

const amountPattern = `\s*[:=\-]?\s*(\$?\s*\d[\d,]*(?:\.\d+)?)`

// totalPatterns are tried in order; the first label with a positive amount wins.
var totalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\btotal\s+charges?\b` + amountPattern),
	regexp.MustCompile(`(?i)\btotal\s+billed\b` + amountPattern),
	regexp.MustCompile(`(?i)\bamount\s+due\b` + amountPattern),
	regexp.MustCompile(`(?i)\bbalance\s+due\b` + amountPattern),
	regexp.MustCompile(`(?i)\btotal\b` + amountPattern),
}

// ExtractTotal finds the bill total in free text.
func ExtractTotal(text string) (model.Cents, bool) {
	for _, re := range totalPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if c, ok := normalize.ParseAmount(m[1]); ok && c > 0 {
				return c, true
			}
		}
	}
	return 0, false
}
