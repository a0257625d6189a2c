package model

// SavingsCategory names the bucket a dollar of savings was attributed to.
type SavingsCategory string

const (
	CategoryNSA        SavingsCategory = "nsa"
	CategoryDuplicate  SavingsCategory = "duplicate"
	CategoryOvercharge SavingsCategory = "overcharge"
)

// Color is the issue-density band shown to the user.
type Color string

const (
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorOrange Color = "orange"
	ColorRed    Color = "red"
)

// DuplicatePriority is the categorical tier used for explanation text.
type DuplicatePriority string

const (
	PriorityDefinite      DuplicatePriority = "definite"
	PriorityLikely        DuplicatePriority = "likely"
	PriorityNeedsReview   DuplicatePriority = "needs_review"
	PriorityFalsePositive DuplicatePriority = "false_positive"
)

// DuplicateEvidence is what the user sees next to a tagged duplicate.
type DuplicateEvidence struct {
	Dates        []string `json:"dates"`
	Descriptions []string `json:"descriptions"`
	Amounts      []Cents  `json:"amounts_cents"`
}

// DuplicateMatch is a tagged duplicate finding. PotentialSavings is
// informational; the numeric allocation lives on LineSavings.
type DuplicateMatch struct {
	Priority         DuplicatePriority `json:"priority"`
	Rule             string            `json:"rule"`
	LineIDs          []string          `json:"line_ids"`
	Evidence         DuplicateEvidence `json:"evidence"`
	Confidence       float64           `json:"confidence"`
	PotentialSavings Cents             `json:"potential_savings_cents"`
}

// LineSavings is the computed result for one line. Never mutated after the
// validation pipeline hands it out.
type LineSavings struct {
	LineID               string  `json:"line_id"`
	Description          string  `json:"description"`
	BilledCents          Cents   `json:"billed_cents"`
	AllowedBaseline      Cents   `json:"allowed_baseline_cents"`
	BaselineSource       string  `json:"baseline_source"`
	NSASavings           Cents   `json:"nsa_savings_cents"`
	DuplicateSavings     Cents   `json:"duplicate_savings_cents"`
	OverchargeSavings    Cents   `json:"overcharge_savings_cents"`
	Confidence           float64 `json:"confidence"`
	WeightedContribution Cents   `json:"weighted_contribution_cents"`
	TotalLineSavings     Cents   `json:"total_line_savings_cents"`
}

// HasIssue reports whether any savings component is nonzero.
func (l *LineSavings) HasIssue() bool {
	return l.NSASavings > 0 || l.DuplicateSavings > 0 || l.OverchargeSavings > 0
}

// Dominant returns the largest single component and its category.
// Ties prefer NSA, then duplicate, then overcharge.
func (l *LineSavings) Dominant() (SavingsCategory, Cents) {
	cat, amt := CategoryNSA, l.NSASavings
	if l.DuplicateSavings > amt {
		cat, amt = CategoryDuplicate, l.DuplicateSavings
	}
	if l.OverchargeSavings > amt {
		cat, amt = CategoryOvercharge, l.OverchargeSavings
	}
	return cat, amt
}

// Driver is one of the top savings lines.
type Driver struct {
	LineID      string          `json:"line_id"`
	Description string          `json:"description"`
	Category    SavingsCategory `json:"category"`
	Amount      Cents           `json:"amount_cents"`
}

// SavingsTotals is the complete engine result for one bill.
type SavingsTotals struct {
	TotalBilled        Cents            `json:"total_billed_cents"`
	GrossSavings       Cents            `json:"total_potential_savings_gross_cents"`
	LikelySavings      Cents            `json:"total_potential_savings_likely_cents"`
	NSASubtotal        Cents            `json:"nsa_subtotal_cents"`
	DuplicateSubtotal  Cents            `json:"duplicate_subtotal_cents"`
	OverchargeSubtotal Cents            `json:"overcharge_subtotal_cents"`
	IssueCount         int              `json:"issue_count"`
	LineCount          int              `json:"line_count"`
	IssueRatio         float64          `json:"issue_ratio"`
	Color              Color            `json:"color"`
	TopDrivers         []Driver         `json:"top_drivers"`
	Lines              []LineSavings    `json:"lines"`
	DuplicateMatches   []DuplicateMatch `json:"duplicate_matches"`
	ValidationApplied  bool             `json:"validation_applied"`
	SafetyClampApplied bool             `json:"safety_clamp_applied"`
}

// Versions identifies the logic and model that produced a result. Any change
// invalidates cached results.
type Versions struct {
	Engine string `json:"engine_version" yaml:"engine"`
	Prompt string `json:"prompt_version" yaml:"prompt"`
	Model  string `json:"model_id" yaml:"model"`
	Schema string `json:"schema_version" yaml:"schema"`
}
