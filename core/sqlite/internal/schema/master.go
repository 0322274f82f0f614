package schema

import (
	"fmt"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/record"
)

// sqlite_master table schema:
//
// CREATE TABLE sqlite_master (
//   type TEXT,      -- "table", "index", "trigger", "view"
//   name TEXT,      -- object name
//   tbl_name TEXT,  -- table name (for indexes/triggers)
//   rootpage INT,   -- root B-tree page
//   sql TEXT        -- CREATE statement
// );
//
// The sqlite_master table is always rooted at page 1 of the database.

// MasterPage is the root page of the catalog.
const MasterPage = 1

// masterColumns is the number of columns in a catalog row.
const masterColumns = 5

// MasterRow represents a row in the sqlite_master table.
type MasterRow struct {
	Type     string // "table", "index", "trigger", "view"
	Name     string // Object name
	TblName  string // Associated table name
	RootPage uint32 // Root page number
	SQL      string // CREATE statement
}

// Options controls catalog loading.
type Options struct {
	// Extractor derives column lists from CREATE TABLE text. Nil selects
	// NaiveExtractor.
	Extractor ColumnExtractor

	// Encoding is the database text encoding from the file header.
	Encoding uint32
}

// Load walks the catalog b-tree rooted at page 1 and builds the catalog.
// A table whose column list cannot be extracted is still listed; the
// extraction error is reported when its columns are resolved.
func Load(w *btree.Walker, opts Options) (*Catalog, error) {
	extractor := opts.Extractor
	if extractor == nil {
		extractor = NaiveExtractor{}
	}

	decodeOpts := record.Options{RowIDColumn: record.NoRowIDColumn, Encoding: opts.Encoding}
	rows, err := btree.CollectLeafRecords(w, MasterPage, func(cell btree.LeafCell) (MasterRow, error) {
		rec, err := record.Decode(cell, decodeOpts)
		if err != nil {
			return MasterRow{}, err
		}
		return masterRowFromRecord(rec)
	})
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}

	cat := newCatalog()
	for _, row := range rows {
		obj := &Object{
			Type:        row.Type,
			Name:        row.Name,
			TableName:   row.TblName,
			RootPage:    row.RootPage,
			SQL:         row.SQL,
			RowIDColumn: -1,
		}
		if obj.IsTable() {
			obj.resolveColumns(extractor)
		}
		if err := cat.add(obj); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

func (o *Object) resolveColumns(extractor ColumnExtractor) {
	cols, err := extractor.Columns(o.SQL)
	if err != nil {
		o.columnsErr = errors.Wrapf(err, "table %s", o.Name)
		return
	}
	o.Columns = cols
	o.ColumnIndex = make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := o.ColumnIndex[c.Name]; !dup {
			o.ColumnIndex[c.Name] = i
		}
	}
	o.RowIDColumn = rowIDAlias(o.SQL, cols)
}

// masterRowFromRecord maps a decoded catalog record onto its five columns.
func masterRowFromRecord(rec *record.Record) (MasterRow, error) {
	if len(rec.Values) < masterColumns {
		return MasterRow{}, errors.NewParse("catalog row",
			fmt.Sprintf("rowid %d", rec.RowID),
			fmt.Sprintf("has %d columns, want %d", len(rec.Values), masterColumns))
	}

	v := rec.Values
	for i, name := range []string{"type", "name", "tbl_name"} {
		if v[i].Kind != record.KindText {
			return MasterRow{}, errors.NewParse("catalog row",
				fmt.Sprintf("rowid %d", rec.RowID),
				fmt.Sprintf("%s is %s, want text", name, v[i].Kind))
		}
	}

	var root uint32
	switch v[3].Kind {
	case record.KindInteger:
		if v[3].Int < 0 || v[3].Int > int64(^uint32(0)) {
			return MasterRow{}, errors.NewParse("catalog row",
				fmt.Sprintf("rowid %d", rec.RowID),
				fmt.Sprintf("rootpage %d out of range", v[3].Int))
		}
		root = uint32(v[3].Int)
	case record.KindNull:
	default:
		return MasterRow{}, errors.NewParse("catalog row",
			fmt.Sprintf("rowid %d", rec.RowID),
			fmt.Sprintf("rootpage is %s, want integer", v[3].Kind))
	}

	return MasterRow{
		Type:     v[0].Text,
		Name:     v[1].Text,
		TblName:  v[2].Text,
		RootPage: root,
		SQL:      v[4].Text,
	}, nil
}
