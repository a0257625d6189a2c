// Package exitcode lists the process exit codes of the billcheck CLI.
package exitcode

const (
	Success        = 0
	UsageError     = 1
	InputError     = 2 // malformed bill, flags or baselines, or no usable total
	DBConnError    = 3
	InvariantError = 4 // the engine refused to produce an inconsistent result
	PricingError   = 5 // fee schedule unreadable or invalid
	PartialSuccess = 6 // result produced but not persisted
)
