package model

import (
	"github.com/google/uuid"
)

// LineRow is the DB-ready representation of one LineSavings, COPY-loaded
// into billcheck.analysis_lines.
type LineRow struct {
	AnalysisID uuid.UUID
	Position   int32
	Line       LineSavings
}

// LineColumns returns the ordered column names for COPY into billcheck.analysis_lines.
func LineColumns() []string {
	return []string{
		"analysis_id",
		"position",
		"line_id",
		"description",
		"billed_cents",
		"allowed_baseline_cents",
		"baseline_source",
		"nsa_savings_cents",
		"duplicate_savings_cents",
		"overcharge_savings_cents",
		"confidence",
		"weighted_contribution_cents",
		"total_line_savings_cents",
	}
}

// CopyValues returns the row values in the same order as LineColumns(),
// suitable for pgx CopyFromSource.
func (r *LineRow) CopyValues() []any {
	return []any{
		r.AnalysisID,
		r.Position,
		r.Line.LineID,
		r.Line.Description,
		int64(r.Line.BilledCents),
		int64(r.Line.AllowedBaseline),
		r.Line.BaselineSource,
		int64(r.Line.NSASavings),
		int64(r.Line.DuplicateSavings),
		int64(r.Line.OverchargeSavings),
		r.Line.Confidence,
		int64(r.Line.WeightedContribution),
		int64(r.Line.TotalLineSavings),
	}
}
