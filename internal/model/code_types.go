package model

// CodeType represents one of the billing code systems a fee schedule can be
// keyed by.
type CodeType struct {
	Name   string // e.g. "CPT"
	Column string // fee-schedule parquet value for code_type
}

// AllCodeTypes lists the supported code types in canonical lookup order.
var AllCodeTypes = []CodeType{
	{Name: "CPT", Column: "cpt"},
	{Name: "HCPCS", Column: "hcpcs"},
	{Name: "REV", Column: "rev"},
	{Name: "NDC", Column: "ndc"},
	{Name: "CDT", Column: "cdt"},
}

// CodeTypeNames returns just the names for all code types.
func CodeTypeNames() []string {
	names := make([]string, len(AllCodeTypes))
	for i, ct := range AllCodeTypes {
		names[i] = ct.Name
	}
	return names
}

// CodeTypeByName returns the CodeType for the given name, or ok=false.
func CodeTypeByName(name string) (CodeType, bool) {
	for _, ct := range AllCodeTypes {
		if ct.Name == name {
			return ct, true
		}
	}
	return CodeType{}, false
}
