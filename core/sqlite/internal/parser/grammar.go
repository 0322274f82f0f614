package parser

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// commandGrammar is the participle grammar for one command line.
// Examples: ".dbinfo", ".tables", "select count(*) from apples",
// "select name, color from apples where color = 'Red'"
//
//nolint:govet // participle grammar tags are not standard struct tags
type commandGrammar struct {
	Dot    *string        `(  @Dot`
	Select *selectGrammar ` | @@ )`
	Semi   bool           `@";"?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type selectGrammar struct {
	Count   bool          `"SELECT" ( @"COUNT" "(" "*" ")"`
	Star    bool          `         | @"*"`
	Columns []string      `         | @(Ident | QuotedIdent) ( "," @(Ident | QuotedIdent) )* )`
	Table   string        `"FROM" @(Ident | QuotedIdent)`
	Where   *whereGrammar `( "WHERE" @@ )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type whereGrammar struct {
	Column string `@(Ident | QuotedIdent)`
	Op     string `@(Operator | "LIKE" | "GLOB" | "IS")`
	Value  string `@(String | Number | QuotedIdent | Ident)`
}

// commandLexer tokenizes command lines. Dot commands are a single token.
var commandLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Dot", Pattern: `\.[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "QuotedIdent", Pattern: "\"(?:[^\"]|\"\")*\"|`[^`]*`|\\[[^\\]]*\\]"},
	{Name: "Number", Pattern: `[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_$]*`},
	{Name: "Operator", Pattern: `!=|<>|==|<=|>=|=|<|>`},
	{Name: "Punct", Pattern: `[(),*;]`},
})

// commandParser is the participle parser for command lines.
var commandParser = participle.MustBuild[commandGrammar](
	participle.Lexer(commandLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(3),
)
