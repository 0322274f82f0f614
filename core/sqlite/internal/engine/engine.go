// Package engine executes parsed commands against one database file.
// It ties together the pager, btree walker, record decoder and schema
// catalog; every operation is a read-only scan.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/format"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/pager"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/parser"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/record"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/schema"
	"github.com/FocuswithJustin/sqlitescan/internal/logging"
)

// Options configures an Executor.
type Options struct {
	// MaxPages bounds the pages a single traversal may visit.
	// Zero selects btree.DefaultMaxPages.
	MaxPages int

	// Extractor overrides the column-name extractor used for table SQL.
	Extractor schema.ColumnExtractor
}

// Executor runs commands against a loaded catalog. It holds no per-command
// state; the underlying pager serializes its own cache.
type Executor struct {
	pager    *pager.Pager
	walker   *btree.Walker
	catalog  *schema.Catalog
	encoding uint32
}

// New loads the catalog from page 1 of p and returns an Executor over it.
func New(p *pager.Pager, opts Options) (*Executor, error) {
	walker := btree.NewWalker(p, p.UsableSize(), opts.MaxPages)
	encoding := p.Header().Encoding()

	catalog, err := schema.Load(walker, schema.Options{
		Extractor: opts.Extractor,
		Encoding:  encoding,
	})
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}

	return &Executor{
		pager:    p,
		walker:   walker,
		catalog:  catalog,
		encoding: encoding,
	}, nil
}

// Catalog returns the loaded schema catalog.
func (e *Executor) Catalog() *schema.Catalog {
	return e.catalog
}

// DBInfo returns the page size and the cell count of the catalog root page.
func (e *Executor) DBInfo() (*DBInfo, error) {
	h, err := e.walker.RootHeader(schema.MasterPage)
	if err != nil {
		return nil, err
	}
	return &DBInfo{
		PageSize:   e.pager.PageSize(),
		TableCount: int(h.NumCells),
		PageCount:  e.pager.PageCount(),
		Encoding:   encodingName(e.encoding),
	}, nil
}

// TableNames lists every table in catalog order.
func (e *Executor) TableNames() []string {
	return e.catalog.TableNames()
}

// TableRowCount returns the number of rows stored in the named table.
func (e *Executor) TableRowCount(tableName string) (int, error) {
	table, err := e.catalog.Table(tableName)
	if err != nil {
		return 0, err
	}
	n, err := e.walker.CountLeafCells(table.RootPage)
	if err != nil {
		return 0, errors.Wrapf(err, "count %s", table.Name)
	}
	return n, nil
}

// CountRows counts the rows of the named table that satisfy filter. A nil
// filter counts leaf cells without decoding any record.
func (e *Executor) CountRows(tableName string, filter Predicate) (int, error) {
	if filter == nil {
		return e.TableRowCount(tableName)
	}
	table, err := e.catalog.Table(tableName)
	if err != nil {
		return 0, err
	}
	decode := record.Decoder(record.Options{
		RowIDColumn: table.RowIDColumn,
		Encoding:    e.encoding,
	})
	n := 0
	err = e.walker.Walk(table.RootPage, func(cell btree.LeafCell) error {
		rec, err := decode(cell)
		if err != nil {
			return err
		}
		if filter.Evaluate(rec) {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "count %s", table.Name)
	}
	return n, nil
}

// SelectRows scans the named table and returns the requested columns of
// every row that satisfies filter. A nil filter matches every row; empty
// columns selects all declared columns.
func (e *Executor) SelectRows(tableName string, columns []string, filter Predicate) (*Result, error) {
	plan, err := e.compileScan(tableName, columns, filter)
	if err != nil {
		return nil, err
	}
	rows, err := plan.run(e)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", plan.table.Name)
	}
	return &Result{
		Kind:    parser.KindSelect,
		Columns: plan.columns,
		Rows:    rows,
	}, nil
}

// Fingerprint hashes the database file.
func (e *Executor) Fingerprint() (*Fingerprint, error) {
	digest, err := e.pager.Fingerprint()
	if err != nil {
		return nil, err
	}
	return &Fingerprint{
		Digest:    digest,
		PageSize:  e.pager.PageSize(),
		PageCount: e.pager.PageCount(),
	}, nil
}

// Execute runs a parsed command. The result is complete before it is
// returned; on error no partial result is produced.
func (e *Executor) Execute(ctx context.Context, cmd *parser.Command) (*Result, error) {
	start := time.Now()
	res, err := e.execute(ctx, cmd)

	rows := 0
	if res != nil {
		rows = res.RowCount()
	}
	logging.CommandExecuted(ctx, cmd.Kind.String(), rows, time.Since(start), err, "table", cmd.Table)
	return res, err
}

func (e *Executor) execute(ctx context.Context, cmd *parser.Command) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch cmd.Kind {
	case parser.KindDBInfo:
		info, err := e.DBInfo()
		if err != nil {
			return nil, err
		}
		return &Result{Kind: cmd.Kind, Info: info}, nil

	case parser.KindTables:
		return &Result{Kind: cmd.Kind, Tables: e.TableNames()}, nil

	case parser.KindFingerprint:
		fp, err := e.Fingerprint()
		if err != nil {
			return nil, err
		}
		return &Result{Kind: cmd.Kind, Fingerprint: fp}, nil

	case parser.KindCount:
		filter, err := e.predicate(cmd)
		if err != nil {
			return nil, err
		}
		n, err := e.CountRows(cmd.Table, filter)
		if err != nil {
			return nil, err
		}
		return &Result{Kind: cmd.Kind, Count: n}, nil

	case parser.KindSelect:
		filter, err := e.predicate(cmd)
		if err != nil {
			return nil, err
		}
		return e.SelectRows(cmd.Table, cmd.Columns, filter)

	default:
		return nil, errors.NewValidation("command", fmt.Sprintf("unsupported command kind %s", cmd.Kind))
	}
}

// predicate builds the filter for cmd's where clause, or nil without one.
func (e *Executor) predicate(cmd *parser.Command) (Predicate, error) {
	if cmd.Where == nil {
		return nil, nil
	}
	table, err := e.catalog.Table(cmd.Table)
	if err != nil {
		return nil, err
	}
	return NewPredicate(table, cmd.Where)
}

// Query parses and executes one command line.
func (e *Executor) Query(ctx context.Context, text string) (*Result, error) {
	cmd, err := parser.Parse(text)
	if err != nil {
		logging.CommandExecuted(ctx, parser.KindInvalid.String(), 0, 0, err)
		return nil, err
	}
	return e.Execute(ctx, cmd)
}

func encodingName(enc uint32) string {
	switch enc {
	case format.EncodingUTF16LE:
		return "UTF-16le"
	case format.EncodingUTF16BE:
		return "UTF-16be"
	default:
		return "UTF-8"
	}
}
