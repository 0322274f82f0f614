package engine

import (
	"fmt"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/parser"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/record"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/schema"
)

// Predicate filters decoded records during a scan.
type Predicate interface {
	Evaluate(rec *record.Record) bool
}

// PredicateFunc adapts a function to the Predicate interface.
type PredicateFunc func(rec *record.Record) bool

// Evaluate calls f(rec).
func (f PredicateFunc) Evaluate(rec *record.Record) bool {
	return f(rec)
}

// Comparison matches records whose column, rendered as text, equals (or,
// when Negate is set, differs from) Literal. A NULL column never matches.
type Comparison struct {
	Position int // Column position, or schema.RowIDPosition
	Literal  string
	Negate   bool
}

// Evaluate reports whether rec satisfies the comparison.
func (c *Comparison) Evaluate(rec *record.Record) bool {
	v := columnValue(rec, c.Position)
	if v.IsNull() {
		return false
	}
	return (v.String() == c.Literal) != c.Negate
}

func (c *Comparison) String() string {
	op := "="
	if c.Negate {
		op = "!="
	}
	return fmt.Sprintf("column %d %s %q", c.Position, op, c.Literal)
}

// NewPredicate resolves cond against table. Only equality and inequality
// are supported; any other operator is rejected with an UnsupportedError.
func NewPredicate(table *schema.Object, cond *parser.Condition) (Predicate, error) {
	var negate bool
	switch cond.Op {
	case "=", "==":
	case "!=", "<>":
		negate = true
	default:
		return nil, errors.NewUnsupported("predicate operator "+cond.Op, "only = and != are supported")
	}

	pos, err := table.ColumnPosition(cond.Column)
	if err != nil {
		return nil, err
	}
	return &Comparison{Position: pos, Literal: cond.Value, Negate: negate}, nil
}

// columnValue returns the value at pos, reading the rowid for
// schema.RowIDPosition.
func columnValue(rec *record.Record, pos int) record.Value {
	if pos == schema.RowIDPosition {
		return record.Integer(rec.RowID)
	}
	return rec.Column(pos)
}
