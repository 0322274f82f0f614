package engine

import (
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/record"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/schema"
)

// scanPlan is a select resolved against the catalog: the table root, the
// positions to project and the optional filter.
type scanPlan struct {
	table     *schema.Object
	columns   []string
	positions []int
	filter    Predicate
	decode    record.Options
}

// compileScan resolves table, columns and filter into a scanPlan. A nil or
// empty columns slice selects every declared column.
func (e *Executor) compileScan(tableName string, columns []string, filter Predicate) (*scanPlan, error) {
	table, err := e.catalog.Table(tableName)
	if err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		if err := table.ColumnsErr(); err != nil {
			return nil, err
		}
		columns = table.ColumnNames()
	}

	positions := make([]int, len(columns))
	for i, name := range columns {
		pos, err := table.ColumnPosition(name)
		if err != nil {
			return nil, err
		}
		positions[i] = pos
	}

	return &scanPlan{
		table:     table,
		columns:   columns,
		positions: positions,
		filter:    filter,
		decode: record.Options{
			RowIDColumn: table.RowIDColumn,
			Encoding:    e.encoding,
		},
	}, nil
}

// run walks the table b-tree and returns the projected rows that pass the
// filter, in rowid order.
func (p *scanPlan) run(e *Executor) ([][]record.Value, error) {
	var rows [][]record.Value
	decode := record.Decoder(p.decode)
	err := e.walker.Walk(p.table.RootPage, func(cell btree.LeafCell) error {
		rec, err := decode(cell)
		if err != nil {
			return err
		}
		if p.filter != nil && !p.filter.Evaluate(rec) {
			return nil
		}
		row := make([]record.Value, len(p.positions))
		for i, pos := range p.positions {
			row[i] = columnValue(rec, pos)
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
