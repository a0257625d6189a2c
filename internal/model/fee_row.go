package model

// FeeScheduleRow mirrors the Parquet schema of the static pricing table.
// Rates are per unit in float64 dollars, matching the Parquet
// representation; they are converted to cents on load.
type FeeScheduleRow struct {
	CodeType    string  `parquet:"code_type"`
	Code        string  `parquet:"code"`
	Description string  `parquet:"description"`
	Modifier    *string `parquet:"modifier,optional"`
	State       *string `parquet:"state,optional"`

	PlanAllowed        *float64 `parquet:"plan_allowed,optional"`
	MedicareAllowed    *float64 `parquet:"medicare_allowed,optional"`
	RegionalBenchmark  *float64 `parquet:"regional_benchmark,optional"`
	ChargemasterMedian *float64 `parquet:"chargemaster_median,optional"`
	CategoryBenchmark  *float64 `parquet:"category_benchmark,optional"`

	EffectiveDate string `parquet:"effective_date"`
	Source        string `parquet:"source"`
}

// RateCount returns how many rate columns are populated.
func (r *FeeScheduleRow) RateCount() int {
	n := 0
	for _, v := range []*float64{r.PlanAllowed, r.MedicareAllowed, r.RegionalBenchmark, r.ChargemasterMedian, r.CategoryBenchmark} {
		if v != nil {
			n++
		}
	}
	return n
}
