// Package sql embeds the schema migrations and the hand-written queries
// used by the store.
package sql

import (
	"embed"
)

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/lookup_analysis.sql
var LookupAnalysis string

//go:embed queries/insert_analysis.sql
var InsertAnalysis string

//go:embed queries/delete_by_content.sql
var DeleteByContent string

//go:embed queries/analyze_tables.sql
var AnalyzeTables string
