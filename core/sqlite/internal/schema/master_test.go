package schema

import (
	"errors"
	"testing"

	sqerrors "github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/dbtest"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/pager"
)

func loadImage(t *testing.T, image []byte, opts Options) *Catalog {
	t.Helper()
	cat, err := loadImageErr(t, image, opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cat
}

func loadImageErr(t *testing.T, image []byte, opts Options) (*Catalog, error) {
	t.Helper()
	p, err := pager.NewMemory(image)
	if err != nil {
		t.Fatalf("pager.NewMemory() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return Load(btree.NewWalker(p, p.UsableSize(), 0), opts)
}

func TestLoadTwoTables(t *testing.T) {
	b := dbtest.NewBuilder(4096)
	b.AddTable(dbtest.Table{Name: "apples", SQL: "CREATE TABLE apples (id integer primary key, name text, color text)"})
	b.AddTable(dbtest.Table{Name: "oranges", SQL: "CREATE TABLE oranges (id integer primary key, description text)"})

	cat := loadImage(t, b.Bytes(), Options{})

	names := cat.TableNames()
	if len(names) != 2 || names[0] != "apples" || names[1] != "oranges" {
		t.Fatalf("TableNames() = %v, want [apples oranges]", names)
	}

	apples, err := cat.Table("apples")
	if err != nil {
		t.Fatal(err)
	}
	if apples.RootPage != 2 {
		t.Errorf("apples.RootPage = %d, want 2", apples.RootPage)
	}
	oranges, _ := cat.Table("oranges")
	if oranges.RootPage != 3 {
		t.Errorf("oranges.RootPage = %d, want 3", oranges.RootPage)
	}

	wantCols := map[string]int{"id": 0, "name": 1, "color": 2}
	for name, want := range wantCols {
		if got := apples.ColumnIndex[name]; got != want {
			t.Errorf("ColumnIndex[%q] = %d, want %d", name, got, want)
		}
	}
	if apples.RowIDColumn != 0 {
		t.Errorf("RowIDColumn = %d, want 0", apples.RowIDColumn)
	}
}

func TestLoadMixedObjects(t *testing.T) {
	b := dbtest.NewBuilder(1024)
	b.AddTable(dbtest.Table{Name: "fruits", SQL: "CREATE TABLE fruits (id integer primary key autoincrement, name text)"})
	b.AddTable(dbtest.Table{Name: "sqlite_sequence", SQL: "CREATE TABLE sqlite_sequence(name,seq)"})
	b.AddEntry(dbtest.Entry{Type: "index", Name: "idx_fruits_name", TableName: "fruits", RootPage: 4, SQL: "CREATE INDEX idx_fruits_name ON fruits (name)"})
	b.AddEntry(dbtest.Entry{Type: "index", Name: "sqlite_autoindex_fruits_1", TableName: "fruits", RootPage: 5, SQL: nil})
	b.AddEntry(dbtest.Entry{Type: "view", Name: "red_fruits", TableName: "red_fruits", SQL: "CREATE VIEW red_fruits AS SELECT * FROM fruits"})

	cat := loadImage(t, b.Bytes(), Options{})

	if cat.Len() != 5 {
		t.Errorf("Len() = %d, want 5", cat.Len())
	}
	names := cat.TableNames()
	if len(names) != 2 || names[0] != "fruits" || names[1] != "sqlite_sequence" {
		t.Errorf("TableNames() = %v, want [fruits sqlite_sequence]", names)
	}

	idx, err := cat.Lookup("idx_fruits_name")
	if err != nil {
		t.Fatal(err)
	}
	if idx.Type != TypeIndex || idx.TableName != "fruits" || idx.RootPage != 4 {
		t.Errorf("index entry = %+v", idx)
	}
	if idx.Columns != nil {
		t.Error("index entries should not carry columns")
	}

	auto, err := cat.Lookup("sqlite_autoindex_fruits_1")
	if err != nil {
		t.Fatal(err)
	}
	if auto.SQL != "" {
		t.Errorf("autoindex SQL = %q, want empty", auto.SQL)
	}

	if _, err := cat.Table("red_fruits"); !errors.Is(err, sqerrors.ErrNotFound) {
		t.Errorf("Table(view) error = %v, want ErrNotFound", err)
	}
}

func TestLoadInteriorCatalog(t *testing.T) {
	// Page 1 is an interior root with two leaf children holding one table each.
	header := dbtest.NewBuilder(512).Bytes()[:100]

	leafA := dbtest.Page(2, 512, btree.PageTypeLeafTable, 0, [][]byte{
		btree.EncodeTableLeafCell(1, dbtest.Record("table", "a", "a", 4, "CREATE TABLE a (x)")),
	})
	leafB := dbtest.Page(3, 512, btree.PageTypeLeafTable, 0, [][]byte{
		btree.EncodeTableLeafCell(2, dbtest.Record("table", "b", "b", 5, "CREATE TABLE b (y)")),
	})
	root := dbtest.Page(1, 512, btree.PageTypeInteriorTable, 3, [][]byte{
		btree.EncodeTableInteriorCell(2, 1),
	})
	copy(root, header)

	full := append(append(append([]byte{}, root...), leafA...), leafB...)
	cat := loadImage(t, full, Options{})

	names := cat.TableNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("TableNames() = %v, want [a b]", names)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("catalog row with too few columns", func(t *testing.T) {
		b := dbtest.NewBuilder(512)
		page1 := dbtest.Page(1, 512, btree.PageTypeLeafTable, 0, [][]byte{
			btree.EncodeTableLeafCell(1, dbtest.Record("table", "t", "t")),
		})
		copy(page1, b.Bytes()[:100])
		if _, err := loadImageErr(t, page1, Options{}); !errors.Is(err, sqerrors.ErrInvalidInput) {
			t.Errorf("Load() error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("rootpage stored as text", func(t *testing.T) {
		b := dbtest.NewBuilder(512)
		page1 := dbtest.Page(1, 512, btree.PageTypeLeafTable, 0, [][]byte{
			btree.EncodeTableLeafCell(1, dbtest.Record("table", "t", "t", "2", "CREATE TABLE t (x)")),
		})
		copy(page1, b.Bytes()[:100])
		if _, err := loadImageErr(t, page1, Options{}); !errors.Is(err, sqerrors.ErrInvalidInput) {
			t.Errorf("Load() error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("duplicate names", func(t *testing.T) {
		b := dbtest.NewBuilder(512)
		b.AddTable(dbtest.Table{Name: "t", SQL: "CREATE TABLE t (x)"})
		b.AddTable(dbtest.Table{Name: "t", SQL: "CREATE TABLE t (x)"})
		if _, err := loadImageErr(t, b.Bytes(), Options{}); !errors.Is(err, sqerrors.ErrCorrupt) {
			t.Errorf("Load() error = %v, want ErrCorrupt", err)
		}
	})

	t.Run("index page as catalog root", func(t *testing.T) {
		b := dbtest.NewBuilder(512)
		image := b.Bytes()
		image[100] = btree.PageTypeLeafIndex
		if _, err := loadImageErr(t, image, Options{}); !errors.Is(err, sqerrors.ErrUnsupportedPageKind) {
			t.Errorf("Load() error = %v, want ErrUnsupportedPageKind", err)
		}
	})
}

func TestMalformedTableSQL(t *testing.T) {
	b := dbtest.NewBuilder(512)
	b.AddTable(dbtest.Table{Name: "good", SQL: "CREATE TABLE good (a, b)"})
	b.AddTable(dbtest.Table{Name: "odd", SQL: "CREATE TABLE odd AS SELECT 1"})

	cat := loadImage(t, b.Bytes(), Options{})
	if len(cat.TableNames()) != 2 {
		t.Fatalf("TableNames() = %v, want both tables listed", cat.TableNames())
	}

	odd, err := cat.Table("odd")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := odd.ColumnPosition("a"); !errors.Is(err, sqerrors.ErrInvalidInput) {
		t.Errorf("ColumnPosition() error = %v, want ErrInvalidInput", err)
	}
	if odd.ColumnsErr() == nil {
		t.Error("ColumnsErr() should report the extraction failure")
	}
}

func TestCustomExtractor(t *testing.T) {
	b := dbtest.NewBuilder(512)
	b.AddTable(dbtest.Table{Name: "t", SQL: `CREATE TABLE t ("first name" TEXT, age)`})

	quoted := ColumnExtractorFunc(func(string) ([]Column, error) {
		return []Column{{Name: "first name", Type: "TEXT"}, {Name: "age"}}, nil
	})
	cat := loadImage(t, b.Bytes(), Options{Extractor: quoted})

	tbl, _ := cat.Table("t")
	pos, err := tbl.ColumnPosition("first name")
	if err != nil || pos != 0 {
		t.Errorf("ColumnPosition(first name) = (%d, %v), want (0, nil)", pos, err)
	}
}
