package billparse

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingTotal is returned when neither the structured total nor the raw
// text yields a positive bill total.
var ErrMissingTotal = errors.New("bill total is missing or not positive")

// FieldIssue is one structural problem in the input document.
type FieldIssue struct {
	Path   string
	Reason string
}

func (f FieldIssue) String() string {
	return fmt.Sprintf("%s: %s", f.Path, f.Reason)
}

// ParseError rejects a whole document and lists every problem found.
type ParseError struct {
	Issues []FieldIssue
}

func (e *ParseError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return fmt.Sprintf("invalid input (%d issues): %s", len(e.Issues), strings.Join(parts, "; "))
}
