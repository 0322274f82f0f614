// Package refdb wraps a full SQLite engine used as a reference: it writes
// fixture databases for tests and answers the same queries as the scanner
// so results can be compared.
//
// Build modes:
//   - Default (CGO_ENABLED=0): uses pure Go modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): uses mattn/go-sqlite3
package refdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
)

// DriverName returns the database/sql driver name in use.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3, "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// Info describes the reference engine configuration.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	Package    string `json:"package"`
}

// GetInfo returns information about the reference engine.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		Package:    driverPackage,
	}
}

// Open opens an existing database read-only.
func Open(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	db, err := sql.Open(driverName, "file:"+path+"?mode=ro")
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	return db, nil
}

// Build creates a new database at path and runs stmts inside one
// transaction. Statements that must run outside a transaction, such as
// "PRAGMA page_size", are run first when they lead the list.
func Build(path string, stmts ...string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.NewValidation("path", fmt.Sprintf("%s already exists", path))
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for len(stmts) > 0 && isPragma(stmts[0]) {
		if _, err := db.ExecContext(ctx, stmts[0]); err != nil {
			return errors.Wrapf(err, "exec %q", stmts[0])
		}
		stmts = stmts[1:]
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "exec %q", stmt)
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

func isPragma(stmt string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(stmt)), "PRAGMA")
}

// Query runs query and returns every row rendered as text. NULL renders
// as the empty string, floats in shortest form, blobs as raw bytes.
func Query(ctx context.Context, db *sql.DB, query string) ([][]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "query %q", query)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := [][]string{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = FormatValue(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows")
	}
	return out, nil
}

// FormatValue renders a value scanned from the reference engine the way the
// scanner renders decoded values.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []byte:
		return string(x)
	case string:
		return x
	case bool:
		if x {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(x)
	}
}
