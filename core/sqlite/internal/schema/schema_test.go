package schema

import (
	"errors"
	"testing"

	sqerrors "github.com/FocuswithJustin/sqlitescan/core/errors"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat := newCatalog()
	for _, obj := range []*Object{
		{Type: TypeTable, Name: "Users", TableName: "Users", RootPage: 2, SQL: "CREATE TABLE Users (id INTEGER PRIMARY KEY, Name TEXT, email)"},
		{Type: TypeIndex, Name: "users_email", TableName: "Users", RootPage: 3},
		{Type: TypeTable, Name: "users", TableName: "users", RootPage: 4, SQL: "CREATE TABLE users (x)"},
	} {
		obj.RowIDColumn = -1
		if obj.IsTable() {
			obj.resolveColumns(NaiveExtractor{})
		}
		if err := cat.add(obj); err != nil {
			t.Fatal(err)
		}
	}
	return cat
}

func TestCatalogLookup(t *testing.T) {
	cat := testCatalog(t)

	tests := []struct {
		name     string
		wantRoot uint32
		wantErr  bool
	}{
		{"Users", 2, false},
		{"users", 4, false}, // exact match wins over case folding
		{"USERS", 2, false}, // first case-insensitive match in catalog order
		{"users_email", 3, false},
		{"missing", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := cat.Lookup(tt.name)
			if tt.wantErr {
				if !errors.Is(err, sqerrors.ErrNotFound) {
					t.Errorf("Lookup(%q) error = %v, want ErrNotFound", tt.name, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q) error = %v", tt.name, err)
			}
			if obj.RootPage != tt.wantRoot {
				t.Errorf("Lookup(%q).RootPage = %d, want %d", tt.name, obj.RootPage, tt.wantRoot)
			}
		})
	}
}

func TestCatalogTable(t *testing.T) {
	cat := testCatalog(t)

	if _, err := cat.Table("users_email"); !errors.Is(err, sqerrors.ErrNotFound) {
		t.Errorf("Table(index) error = %v, want ErrNotFound", err)
	}

	var nf *sqerrors.NotFoundError
	_, err := cat.Table("nope")
	if !errors.As(err, &nf) || nf.Resource != "table" || nf.ID != "nope" {
		t.Errorf("Table(nope) error = %v, want NotFoundError{table, nope}", err)
	}

	names := cat.TableNames()
	if len(names) != 2 || names[0] != "Users" || names[1] != "users" {
		t.Errorf("TableNames() = %v, want [Users users]", names)
	}
}

func TestColumnPosition(t *testing.T) {
	cat := testCatalog(t)
	users, err := cat.Table("Users")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		column  string
		want    int
		wantErr bool
	}{
		{"id", 0, false},
		{"Name", 1, false},
		{"name", 1, false},
		{"EMAIL", 2, false},
		{"rowid", RowIDPosition, false},
		{"_ROWID_", RowIDPosition, false},
		{"oid", RowIDPosition, false},
		{"age", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			got, err := users.ColumnPosition(tt.column)
			if tt.wantErr {
				if !errors.Is(err, sqerrors.ErrNotFound) {
					t.Errorf("ColumnPosition(%q) error = %v, want ErrNotFound", tt.column, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ColumnPosition(%q) = (%d, %v), want (%d, nil)", tt.column, got, err, tt.want)
			}
		})
	}

	if users.RowIDColumn != 0 {
		t.Errorf("RowIDColumn = %d, want 0", users.RowIDColumn)
	}
	if got := users.ColumnNames(); len(got) != 3 || got[2] != "email" {
		t.Errorf("ColumnNames() = %v", got)
	}
}

func TestDeclaredRowidColumnShadowsAlias(t *testing.T) {
	obj := &Object{Type: TypeTable, Name: "t", SQL: "CREATE TABLE t (a, rowid)"}
	obj.resolveColumns(NaiveExtractor{})
	if pos, err := obj.ColumnPosition("rowid"); err != nil || pos != 1 {
		t.Errorf("ColumnPosition(rowid) = (%d, %v), want (1, nil)", pos, err)
	}
}

func TestNaiveExtractor(t *testing.T) {
	tests := []struct {
		name      string
		sql       string
		wantNames []string
		wantTypes []string
		wantErr   bool
	}{
		{
			name:      "simple",
			sql:       "CREATE TABLE fruits (id, name, color)",
			wantNames: []string{"id", "name", "color"},
			wantTypes: []string{"", "", ""},
		},
		{
			name:      "typed with constraints",
			sql:       "CREATE TABLE t (id integer primary key autoincrement, name text not null, price real default 0)",
			wantNames: []string{"id", "name", "price"},
			wantTypes: []string{"integer", "text", "real"},
		},
		{
			name:      "multi-line",
			sql:       "CREATE TABLE t\n(\n\tid INTEGER,\n\tlabel VARCHAR(20)\n)",
			wantNames: []string{"id", "label"},
			wantTypes: []string{"INTEGER", "VARCHAR(20)"},
		},
		{
			name:      "nested parentheses split wrongly",
			sql:       "CREATE TABLE t (amount DECIMAL(10,2), note)",
			wantNames: []string{"amount", "2)", "note"},
			wantTypes: []string{"DECIMAL(10", "", ""},
		},
		{
			name:    "no parentheses",
			sql:     "CREATE TABLE t AS SELECT 1",
			wantErr: true,
		},
		{
			name:    "empty definition",
			sql:     "CREATE TABLE t (a, , b)",
			wantErr: true,
		},
		{
			name:    "closing before opening",
			sql:     "CREATE TABLE t ) a (",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, err := NaiveExtractor{}.Columns(tt.sql)
			if tt.wantErr {
				var pe *sqerrors.ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("Columns() error = %v, want ParseError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Columns() error = %v", err)
			}
			if len(cols) != len(tt.wantNames) {
				t.Fatalf("got %d columns, want %d", len(cols), len(tt.wantNames))
			}
			for i := range cols {
				if cols[i].Name != tt.wantNames[i] {
					t.Errorf("column %d name = %q, want %q", i, cols[i].Name, tt.wantNames[i])
				}
				if cols[i].Type != tt.wantTypes[i] {
					t.Errorf("column %d type = %q, want %q", i, cols[i].Type, tt.wantTypes[i])
				}
			}
		})
	}
}

func TestRowIDAlias(t *testing.T) {
	tests := []struct {
		sql  string
		want int
	}{
		{"CREATE TABLE t (id INTEGER PRIMARY KEY, name)", 0},
		{"CREATE TABLE t (name, id integer   primary key)", 1},
		{"CREATE TABLE t (id INT PRIMARY KEY, name)", -1},
		{"CREATE TABLE t (id INTEGER, name)", -1},
		{"CREATE TABLE t (id INTEGER PRIMARY KEY, name) WITHOUT ROWID", -1},
	}
	for _, tt := range tests {
		cols, err := NaiveExtractor{}.Columns(tt.sql)
		if err != nil {
			t.Fatal(err)
		}
		if got := rowIDAlias(tt.sql, cols); got != tt.want {
			t.Errorf("rowIDAlias(%q) = %d, want %d", tt.sql, got, tt.want)
		}
	}
}
