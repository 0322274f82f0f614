package sqlite

import (
	"context"
	"fmt"
	"strconv"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/parser"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/refdb"
	"github.com/FocuswithJustin/sqlitescan/internal/logging"
)

// tablesQuery lists tables the way .tables does.
const tablesQuery = "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY rowid"

// Divergence compares one command's answer against the reference engine.
type Divergence struct {
	Command   string     `json:"command"`
	SQL       string     `json:"sql"`
	Driver    string     `json:"driver"`
	Ours      [][]string `json:"ours"`
	Reference [][]string `json:"reference"`
	Match     bool       `json:"match"`
	FirstDiff int        `json:"first_diff"` // Row index of the first difference, -1 if none
}

func (d *Divergence) String() string {
	if d.Match {
		return fmt.Sprintf("match: %d rows", len(d.Ours))
	}
	return fmt.Sprintf("DIVERGENCE at row %d: ours %d rows, reference %d rows",
		d.FirstDiff, len(d.Ours), len(d.Reference))
}

// Verify runs command through both this reader and the reference SQLite
// engine and compares the rendered rows in order. Only .tables, count and
// select commands can be verified.
func (db *DB) Verify(ctx context.Context, command string) (*Divergence, error) {
	cmd, err := parser.Parse(command)
	if err != nil {
		return nil, err
	}

	var query string
	switch cmd.Kind {
	case parser.KindTables:
		query = tablesQuery
	case parser.KindCount, parser.KindSelect:
		query = cmd.Text
	default:
		return nil, errors.NewUnsupported("verify "+cmd.Kind.String(), "only .tables, count and select can be compared")
	}

	db.mu.Lock()
	compressed := db.pager != nil && db.pager.Compressed()
	db.mu.Unlock()
	if compressed {
		return nil, errors.NewUnsupported("verify", "the reference engine cannot read xz-compressed files")
	}

	res, err := db.Exec(ctx, command)
	if err != nil {
		return nil, err
	}
	ours := resultRows(res)

	ref, err := refdb.Open(db.path)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	theirs, err := refdb.Query(ctx, ref, query)
	if err != nil {
		return nil, err
	}

	d := &Divergence{
		Command:   cmd.Text,
		SQL:       query,
		Driver:    refdb.DriverType(),
		Ours:      ours,
		Reference: theirs,
		FirstDiff: firstDiff(ours, theirs),
	}
	d.Match = d.FirstDiff < 0

	logging.InfoContext(ctx, "verify_completed",
		"command", cmd.Text,
		"driver", d.Driver,
		"match", d.Match,
		"rows", len(ours),
	)
	return d, nil
}

func resultRows(res *Result) [][]string {
	switch res.Kind {
	case parser.KindTables:
		rows := make([][]string, len(res.Tables))
		for i, name := range res.Tables {
			rows[i] = []string{name}
		}
		return rows
	case parser.KindCount:
		return [][]string{{strconv.Itoa(res.Count)}}
	default:
		return res.Strings()
	}
}

func firstDiff(a, b [][]string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if len(a[i]) != len(b[i]) {
			return i
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return i
			}
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
