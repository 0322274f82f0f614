// Package parser recognizes the command lines the query engine accepts:
// dot commands (.dbinfo, .tables, .fingerprint), "select count(*) from t",
// and "select cols from t [where col op literal]".
package parser

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
)

// Kind identifies the command type.
type Kind int

const (
	KindInvalid Kind = iota
	KindDBInfo
	KindTables
	KindFingerprint
	KindCount
	KindSelect
)

var kindNames = map[Kind]string{
	KindInvalid:     "invalid",
	KindDBInfo:      "dbinfo",
	KindTables:      "tables",
	KindFingerprint: "fingerprint",
	KindCount:       "count",
	KindSelect:      "select",
}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var dotCommands = map[string]Kind{
	".dbinfo":      KindDBInfo,
	".tables":      KindTables,
	".fingerprint": KindFingerprint,
}

// Condition is a single "column op literal" filter.
type Condition struct {
	Column string // Unquoted column name
	Op     string // Operator as written, e.g. "=", "!=", "<>", "LIKE"
	Value  string // Unquoted literal text
}

func (c *Condition) String() string {
	return fmt.Sprintf("%s %s %q", c.Column, c.Op, c.Value)
}

// Command is a parsed command line.
type Command struct {
	Kind    Kind
	Text    string     // Trimmed input
	Table   string     // Target table for count and select
	Columns []string   // Projected columns for select, in order
	Star    bool       // select *
	Where   *Condition // Optional filter
}

// Parse parses one command line. Input that matches none of the accepted
// forms yields a ParseError that reports "invalid command".
func Parse(input string) (*Command, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return nil, invalid(text, "empty command")
	}

	g, err := commandParser.ParseString("", text)
	if err != nil {
		return nil, invalid(text, err.Error())
	}

	cmd := &Command{Text: text}
	if g.Dot != nil {
		kind, ok := dotCommands[strings.ToLower(*g.Dot)]
		if !ok {
			return nil, invalid(text, "unknown dot command "+*g.Dot)
		}
		cmd.Kind = kind
		return cmd, nil
	}

	s := g.Select
	cmd.Table = unquoteIdent(s.Table)
	switch {
	case s.Count:
		cmd.Kind = KindCount
	case s.Star:
		cmd.Kind = KindSelect
		cmd.Star = true
	default:
		cmd.Kind = KindSelect
		cmd.Columns = make([]string, len(s.Columns))
		for i, c := range s.Columns {
			cmd.Columns[i] = unquoteIdent(c)
		}
	}

	if s.Where != nil {
		cmd.Where = &Condition{
			Column: unquoteIdent(s.Where.Column),
			Op:     strings.ToUpper(s.Where.Op),
			Value:  unquoteLiteral(s.Where.Value),
		}
	}
	return cmd, nil
}

func invalid(text, detail string) error {
	return errors.NewParse("command", text, "invalid command: "+detail)
}

// unquoteIdent strips "..." `...` or [...] quoting from an identifier.
func unquoteIdent(s string) string {
	if len(s) < 2 {
		return s
	}
	switch s[0] {
	case '"':
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	case '`':
		return s[1 : len(s)-1]
	case '[':
		return s[1 : len(s)-1]
	}
	return s
}

// unquoteLiteral strips '...' quoting from a string literal; identifiers and
// numbers are returned as written.
func unquoteLiteral(s string) string {
	if len(s) >= 2 && s[0] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], `''`, `'`)
	}
	return unquoteIdent(s)
}
