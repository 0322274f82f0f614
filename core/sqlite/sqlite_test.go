package sqlite_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"

	sqerrors "github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/refdb"
)

// buildFixture writes a database with the reference engine and returns its path.
func buildFixture(t *testing.T, name string, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := refdb.Build(path, stmts...); err != nil {
		t.Fatalf("refdb.Build() error = %v", err)
	}
	return path
}

func fruitsFixture(t *testing.T) string {
	return buildFixture(t, "fruits.db",
		"PRAGMA page_size = 4096",
		"CREATE TABLE apples (id integer primary key autoincrement, name text, color text)",
		"CREATE TABLE oranges (id integer primary key autoincrement, name text, description text)",
		"INSERT INTO apples (name, color) VALUES ('Granny Smith', 'Light Green'), ('Fuji', 'Red'), ('Honeycrisp', 'Blush Red'), ('Golden Delicious', 'Yellow')",
		"INSERT INTO oranges (name, description) VALUES ('Mandarin', 'great for snacking'), ('Tangelo', 'sweet and tart')",
	)
}

// largeFixture holds enough rows at a 512-byte page size to force interior
// pages at two levels.
func largeFixture(t *testing.T, rows int) string {
	stmts := []string{
		"PRAGMA page_size = 512",
		"CREATE TABLE events (id INTEGER PRIMARY KEY, kind TEXT, amount REAL, payload BLOB, note TEXT)",
		"CREATE INDEX events_kind ON events (kind)",
	}
	for i := 1; i <= rows; i++ {
		kind := []string{"open", "close", "move"}[i%3]
		note := "NULL"
		if i%7 != 0 {
			note = fmt.Sprintf("'note %d'", i)
		}
		stmts = append(stmts, fmt.Sprintf(
			"INSERT INTO events (kind, amount, payload, note) VALUES ('%s', %d.25, x'%04x', %s)",
			kind, i, i, note))
	}
	return buildFixture(t, "events.db", stmts...)
}

func openDB(t *testing.T, path string, opts sqlite.Options) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(path, opts)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestExecAgainstRealFile(t *testing.T) {
	db := openDB(t, fruitsFixture(t), sqlite.Options{})
	ctx := context.Background()

	res, err := db.Exec(ctx, ".dbinfo")
	if err != nil {
		t.Fatal(err)
	}
	if res.Info.PageSize != 4096 || res.Info.TableCount != 3 {
		t.Errorf("dbinfo = %+v, want page size 4096 and 3 catalog cells", res.Info)
	}

	// sqlite_sequence is created by autoincrement.
	want := []string{"apples", "sqlite_sequence", "oranges"}
	if got := db.Tables(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tables() = %v, want %v", got, want)
	}

	res, err = db.Exec(ctx, "SELECT COUNT(*) FROM apples")
	if err != nil || res.Count != 4 {
		t.Errorf("count = (%v, %v), want 4", res, err)
	}

	res, err = db.Exec(ctx, "SELECT id, name FROM apples WHERE color = 'Red'")
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Strings(); !reflect.DeepEqual(got, [][]string{{"2", "Fuji"}}) {
		t.Errorf("select = %v", got)
	}
}

func TestMultiLevelAgainstReference(t *testing.T) {
	path := largeFixture(t, 1500)
	ctx := context.Background()

	for _, mmap := range []bool{true, false} {
		t.Run(fmt.Sprintf("mmap=%v", mmap), func(t *testing.T) {
			db := openDB(t, path, sqlite.Options{DisableMmap: !mmap})

			commands := []string{
				".tables",
				"select count(*) from events",
				"select * from events",
				"select note, id from events where kind = 'move'",
				"select id from events where note != 'note 10'",
				"select id, amount from events where amount = 1000.25",
				"select rowid, kind from events where id = 1499",
			}
			for _, c := range commands {
				d, err := db.Verify(ctx, c)
				if err != nil {
					t.Fatalf("Verify(%q) error = %v", c, err)
				}
				if !d.Match {
					t.Errorf("Verify(%q): %s", c, d)
				}
			}
		})
	}
}

func TestCountAcrossInteriorPages(t *testing.T) {
	db := openDB(t, largeFixture(t, 1500), sqlite.Options{})

	res, err := db.Exec(context.Background(), "select count(*) from events")
	if err != nil {
		t.Fatal(err)
	}
	if res.Count != 1500 {
		t.Errorf("count = %d, want 1500", res.Count)
	}
}

func TestVerifyDetectsDifference(t *testing.T) {
	path := fruitsFixture(t)
	db := openDB(t, path, sqlite.Options{
		// A wrong extractor swaps the first two columns.
		Extractor: sqlite.ColumnExtractorFunc(func(string) ([]sqlite.Column, error) {
			return []sqlite.Column{{Name: "name"}, {Name: "id"}, {Name: "color"}, {Name: "description"}}, nil
		}),
	})

	d, err := db.Verify(context.Background(), "select name from apples")
	if err != nil {
		t.Fatal(err)
	}
	if d.Match || d.FirstDiff != 0 {
		t.Errorf("Verify() = %+v, want a divergence at row 0", d)
	}
	if !strings.Contains(d.String(), "DIVERGENCE") {
		t.Errorf("String() = %q", d.String())
	}
}

func TestVerifyUnsupported(t *testing.T) {
	db := openDB(t, fruitsFixture(t), sqlite.Options{})
	for _, c := range []string{".dbinfo", ".fingerprint"} {
		if _, err := db.Verify(context.Background(), c); !errors.Is(err, sqerrors.ErrUnsupported) {
			t.Errorf("Verify(%q) error = %v, want ErrUnsupported", c, err)
		}
	}
	if _, err := db.Verify(context.Background(), "bogus"); !errors.Is(err, sqerrors.ErrInvalidInput) {
		t.Errorf("Verify(bogus) error = %v, want ErrInvalidInput", err)
	}
}

func TestOverflowPayload(t *testing.T) {
	path := buildFixture(t, "long.db",
		"PRAGMA page_size = 512",
		"CREATE TABLE docs (id INTEGER PRIMARY KEY, body TEXT)",
		"INSERT INTO docs (body) VALUES ('short')",
		"INSERT INTO docs (body) VALUES ('"+strings.Repeat("x", 2000)+"')",
	)
	db := openDB(t, path, sqlite.Options{})

	res, err := db.Exec(context.Background(), "select count(*) from docs")
	if err != nil || res.Count != 2 {
		t.Errorf("count = (%v, %v), want 2", res, err)
	}
	if _, err := db.Exec(context.Background(), "select body from docs"); !errors.Is(err, sqerrors.ErrUnsupported) {
		t.Errorf("select error = %v, want ErrUnsupported", err)
	}
}

func TestOpenCompressed(t *testing.T) {
	plain := fruitsFixture(t)
	data, err := os.ReadFile(plain)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	packed := filepath.Join(t.TempDir(), "fruits.db.xz")
	if err := os.WriteFile(packed, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	db := openDB(t, packed, sqlite.Options{})
	res, err := db.Exec(context.Background(), "select name from oranges where name != 'Mandarin'")
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Strings(); !reflect.DeepEqual(got, [][]string{{"Tangelo"}}) {
		t.Errorf("select = %v", got)
	}

	orig := openDB(t, plain, sqlite.Options{})
	a, _ := db.Exec(context.Background(), ".fingerprint")
	b, _ := orig.Exec(context.Background(), ".fingerprint")
	if a.Fingerprint.Digest != b.Fingerprint.Digest {
		t.Error("compressed and plain fingerprints differ")
	}

	if _, err := db.Verify(context.Background(), ".tables"); !errors.Is(err, sqerrors.ErrUnsupported) {
		t.Errorf("Verify(xz) error = %v, want ErrUnsupported", err)
	}
}

func TestClosedDB(t *testing.T) {
	db, err := sqlite.Open(fruitsFixture(t), sqlite.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := db.Exec(context.Background(), ".tables"); !errors.Is(err, sqerrors.ErrInvalidInput) {
		t.Errorf("Exec after Close error = %v, want ErrInvalidInput", err)
	}
	if db.Tables() != nil {
		t.Error("Tables() after Close should be nil")
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := sqlite.Open(filepath.Join(dir, "missing.db"), sqlite.Options{}); err == nil {
		t.Error("Open(missing) succeeded")
	}

	junk := filepath.Join(dir, "junk.db")
	if err := os.WriteFile(junk, []byte("not a database"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := sqlite.Open(junk, sqlite.Options{}); err == nil {
		t.Error("Open(junk) succeeded")
	}
}
