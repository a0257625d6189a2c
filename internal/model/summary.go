package model

import "time"

// AnalysisSummary captures metrics from a single analyze run.
type AnalysisSummary struct {
	FilePath         string
	ContentHash      string
	CacheKey         string
	AnalysisID       string
	CacheOutcome     string // "hit", "miss", "bypass", "disabled"
	MissReason       string
	LinesParsed      int
	LinesPriced      int
	PricingFailures  int
	IssueCount       int
	Persisted        bool
	Coalesced        bool // result shared with a concurrent run of the same key
	DurationParse    time.Duration
	DurationEstimate time.Duration
	DurationPersist  time.Duration
	DurationTotal    time.Duration
}
