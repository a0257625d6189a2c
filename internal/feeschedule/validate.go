package feeschedule

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// RateColumns are the per-unit rate columns a fee schedule may carry.
var RateColumns = []string{
	"plan_allowed",
	"medicare_allowed",
	"regional_benchmark",
	"chargemaster_median",
	"category_benchmark",
}

// ValidateSchema checks that the Parquet schema has the key columns and at
// least one rate column.
func ValidateSchema(schema *parquet.Schema) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}

	for _, col := range []string{"code_type", "code"} {
		if !columns[col] {
			return fmt.Errorf("missing required column: %s", col)
		}
	}

	for _, col := range RateColumns {
		if columns[col] {
			return nil
		}
	}
	return fmt.Errorf("no rate columns found; need at least one of: %s",
		strings.Join(RateColumns, ", "))
}
