// Package schema loads the catalog stored on page 1 of a database file and
// resolves table and column names against it.
package schema

import (
	"strings"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
)

// Object types found in the catalog.
const (
	TypeTable   = "table"
	TypeIndex   = "index"
	TypeView    = "view"
	TypeTrigger = "trigger"
)

// RowIDPosition is the position reported for the implicit rowid column.
const RowIDPosition = -1

// Column is one column of a table as extracted from its CREATE statement.
type Column struct {
	Name     string   // Column name
	Type     string   // Declared type, empty when none
	Decl     string   // Full column definition text after the name
	Affinity Affinity // Type affinity of the declared type
}

// Object is one row of the catalog.
type Object struct {
	Type      string // "table", "index", "view", "trigger"
	Name      string // Object name
	TableName string // Associated table name
	RootPage  uint32 // Root b-tree page, 0 for views and triggers
	SQL       string // CREATE statement, empty for automatic indexes

	Columns     []Column       // Declared columns, tables only
	ColumnIndex map[string]int // Column name to 0-based position
	RowIDColumn int            // Position of the INTEGER PRIMARY KEY column, or -1

	columnsErr error
}

// IsTable reports whether the object is a table.
func (o *Object) IsTable() bool {
	return o.Type == TypeTable
}

// ColumnsErr returns the error, if any, raised while extracting the column
// list from the object's SQL.
func (o *Object) ColumnsErr() error {
	return o.columnsErr
}

// ColumnNames returns the declared column names in order.
func (o *Object) ColumnNames() []string {
	names := make([]string, len(o.Columns))
	for i, c := range o.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnPosition returns the 0-based position of the named column. Names are
// matched exactly first, then case-insensitively. The implicit rowid names
// (rowid, oid, _rowid_) resolve to RowIDPosition unless a declared column
// shadows them.
func (o *Object) ColumnPosition(name string) (int, error) {
	if o.columnsErr != nil {
		return 0, o.columnsErr
	}
	if pos, ok := o.ColumnIndex[name]; ok {
		return pos, nil
	}
	for i, c := range o.Columns {
		if strings.EqualFold(c.Name, name) {
			return i, nil
		}
	}
	switch strings.ToLower(name) {
	case "rowid", "oid", "_rowid_":
		return RowIDPosition, nil
	}
	return 0, errors.NewNotFound("column", o.Name+"."+name)
}

// Catalog is the set of schema objects of one database, in catalog order.
// It is immutable once loaded.
type Catalog struct {
	objects []*Object
	byName  map[string]*Object
}

func newCatalog() *Catalog {
	return &Catalog{byName: make(map[string]*Object)}
}

func (c *Catalog) add(obj *Object) error {
	if _, dup := c.byName[obj.Name]; dup {
		return errors.NewCorrupt(1, "duplicate schema object %q", obj.Name)
	}
	c.objects = append(c.objects, obj)
	c.byName[obj.Name] = obj
	return nil
}

// Objects returns every catalog entry in catalog order.
func (c *Catalog) Objects() []*Object {
	return c.objects
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.objects)
}

// Lookup finds an object by name. SQLite names are case-insensitive, so an
// exact match is tried first and then a case-folded one.
func (c *Catalog) Lookup(name string) (*Object, error) {
	if obj, ok := c.byName[name]; ok {
		return obj, nil
	}
	for _, obj := range c.objects {
		if strings.EqualFold(obj.Name, name) {
			return obj, nil
		}
	}
	return nil, errors.NewNotFound("schema object", name)
}

// Table finds a table by name.
func (c *Catalog) Table(name string) (*Object, error) {
	obj, err := c.Lookup(name)
	if err != nil || !obj.IsTable() {
		return nil, errors.NewNotFound("table", name)
	}
	return obj, nil
}

// TableNames returns the names of all table entries in catalog order.
func (c *Catalog) TableNames() []string {
	var names []string
	for _, obj := range c.objects {
		if obj.IsTable() {
			names = append(names, obj.Name)
		}
	}
	return names
}
