// Package sqlite reads SQLite database files directly from their on-disk
// page format, without a SQL engine.
//
// A DB answers a small command language:
//
//	.dbinfo
//	.tables
//	.fingerprint
//	select count(*) from <table>
//	select <col>[, <col>...] from <table> [where <col> (=|!=) <literal>]
//
// Files may be plain, memory-mapped where the platform allows it, or
// xz-compressed. Access is read-only.
package sqlite

import (
	"context"
	"sync"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/engine"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/pager"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/parser"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/record"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/schema"
	"github.com/FocuswithJustin/sqlitescan/internal/logging"
)

type (
	// Result is the outcome of one command.
	Result = engine.Result
	// DBInfo is the .dbinfo result.
	DBInfo = engine.DBInfo
	// Fingerprint is the .fingerprint result.
	Fingerprint = engine.Fingerprint
	// Value is one decoded column value.
	Value = record.Value
	// Kind identifies a command.
	Kind = parser.Kind
	// Column describes one declared table column.
	Column = schema.Column
	// ColumnExtractor derives column definitions from CREATE TABLE text.
	ColumnExtractor = schema.ColumnExtractor
	// ColumnExtractorFunc adapts a function to ColumnExtractor.
	ColumnExtractorFunc = schema.ColumnExtractorFunc
)

// Command kinds.
const (
	KindDBInfo      = parser.KindDBInfo
	KindTables      = parser.KindTables
	KindFingerprint = parser.KindFingerprint
	KindCount       = parser.KindCount
	KindSelect      = parser.KindSelect
)

// Value constructors.
var (
	Null    = record.Null
	Integer = record.Integer
	Float   = record.Float
	Text    = record.Text
	Blob    = record.Blob
)

// Options configures Open.
type Options struct {
	// MaxPages bounds the pages one traversal may visit; zero means 1<<20.
	MaxPages int

	// DisableMmap forces positional reads.
	DisableMmap bool

	// CacheSize is the page cache size for positional reads.
	CacheSize int

	// MaxDecompressedSize bounds the memory used by an xz-compressed
	// database; zero means 4 GiB.
	MaxDecompressedSize int64

	// Extractor replaces the default column-name extractor.
	Extractor ColumnExtractor
}

// DB is an open database file. Methods are safe for concurrent use; commands
// run one at a time.
type DB struct {
	mu    sync.Mutex
	path  string
	pager *pager.Pager
	exec  *engine.Executor
}

// Open opens the database at path and loads its catalog.
func Open(path string, opts Options) (*DB, error) {
	p, err := pager.Open(path, pager.Options{
		DisableMmap:         opts.DisableMmap,
		CacheSize:           opts.CacheSize,
		MaxDecompressedSize: opts.MaxDecompressedSize,
	})
	if err != nil {
		return nil, err
	}

	exec, err := engine.New(p, engine.Options{
		MaxPages:  opts.MaxPages,
		Extractor: opts.Extractor,
	})
	if err != nil {
		p.Close()
		return nil, errors.Wrapf(err, "open %s", path)
	}

	logging.Debug("database_opened",
		"path", path,
		"page_size", p.PageSize(),
		"pages", p.PageCount(),
		"objects", exec.Catalog().Len(),
	)
	return &DB{path: path, pager: p, exec: exec}, nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

// Exec parses and runs one command.
func (db *DB) Exec(ctx context.Context, command string) (*Result, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.exec == nil {
		return nil, errors.NewValidation("db", "database is closed")
	}
	return db.exec.Query(ctx, command)
}

// Tables lists the table names in catalog order.
func (db *DB) Tables() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.exec == nil {
		return nil
	}
	return db.exec.TableNames()
}

// Close releases the file.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.pager == nil {
		return nil
	}
	err := db.pager.Close()
	db.pager = nil
	db.exec = nil
	return err
}
