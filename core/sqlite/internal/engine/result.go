package engine

import (
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/parser"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/record"
)

// DBInfo describes the database as reported by .dbinfo.
type DBInfo struct {
	PageSize   int    `json:"page_size"`
	TableCount int    `json:"table_count"` // Cell count of the catalog root page
	PageCount  uint32 `json:"page_count"`
	Encoding   string `json:"encoding"`
}

// Fingerprint identifies the exact bytes of a database file.
type Fingerprint struct {
	Digest    string `json:"blake3"`
	PageSize  int    `json:"page_size"`
	PageCount uint32 `json:"page_count"`
}

// Result represents the outcome of one command. Which fields are set
// depends on Kind.
type Result struct {
	Kind parser.Kind

	// Info is set for .dbinfo
	Info *DBInfo

	// Tables is set for .tables
	Tables []string

	// Fingerprint is set for .fingerprint
	Fingerprint *Fingerprint

	// Count is set for select count(*)
	Count int

	// Columns and Rows are set for select
	Columns []string
	Rows    [][]record.Value
}

// RowCount returns the number of result rows a command produced, counting
// one row for scalar results.
func (r *Result) RowCount() int {
	switch r.Kind {
	case parser.KindSelect:
		return len(r.Rows)
	case parser.KindTables:
		return len(r.Tables)
	case parser.KindInvalid:
		return 0
	default:
		return 1
	}
}

// ColumnCount returns the number of columns in a select result.
func (r *Result) ColumnCount() int {
	return len(r.Columns)
}

// Strings returns the rows of a select result with every value rendered as
// text.
func (r *Result) Strings() [][]string {
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = v.String()
		}
	}
	return out
}
