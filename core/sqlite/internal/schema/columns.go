package schema

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
)

// ColumnExtractor derives a table's column list from its CREATE statement.
type ColumnExtractor interface {
	Columns(sql string) ([]Column, error)
}

// ColumnExtractorFunc adapts a function to ColumnExtractor.
type ColumnExtractorFunc func(sql string) ([]Column, error)

// Columns calls f(sql).
func (f ColumnExtractorFunc) Columns(sql string) ([]Column, error) {
	return f(sql)
}

// NaiveExtractor takes the text between the first "(" and the last ")",
// splits it on commas, and uses the first whitespace-delimited token of each
// segment as the column name.
//
// It does not understand quoted identifiers, commas nested in parentheses
// such as DECIMAL(10,2) or CHECK(...), or table constraints, each of which
// produces a wrong or extra column.
type NaiveExtractor struct{}

// constraintWords end the declared type of a column definition.
var constraintWords = map[string]bool{
	"CONSTRAINT": true, "PRIMARY": true, "NOT": true, "NULL": true,
	"UNIQUE": true, "CHECK": true, "DEFAULT": true, "COLLATE": true,
	"REFERENCES": true, "GENERATED": true, "AS": true,
}

// Columns implements ColumnExtractor.
func (NaiveExtractor) Columns(sql string) ([]Column, error) {
	open := strings.Index(sql, "(")
	end := strings.LastIndex(sql, ")")
	if open < 0 || end < open {
		return nil, errors.NewParse("schema sql", sql, "no parenthesized column list")
	}

	segments := strings.Split(sql[open+1:end], ",")
	cols := make([]Column, 0, len(segments))
	for i, seg := range segments {
		fields := strings.Fields(seg)
		if len(fields) == 0 {
			return nil, errors.NewParse("schema sql", sql, "empty column definition at position "+strconv.Itoa(i))
		}
		var typeWords []string
		for _, f := range fields[1:] {
			if constraintWords[strings.ToUpper(f)] {
				break
			}
			typeWords = append(typeWords, f)
		}
		typ := strings.Join(typeWords, " ")
		cols = append(cols, Column{
			Name:     fields[0],
			Type:     typ,
			Decl:     strings.Join(fields[1:], " "),
			Affinity: DetermineAffinity(typ),
		})
	}
	return cols, nil
}

// rowIDAlias returns the position of the column that aliases the rowid: a
// column declared exactly INTEGER PRIMARY KEY in a rowid table. It returns -1
// when there is none.
func rowIDAlias(sql string, cols []Column) int {
	if strings.Contains(normalizeSpace(sql), "WITHOUT ROWID") {
		return -1
	}
	for i, c := range cols {
		if strings.EqualFold(c.Type, "INTEGER") && strings.Contains(normalizeSpace(c.Decl), "PRIMARY KEY") {
			return i
		}
	}
	return -1
}

func normalizeSpace(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
