// Package dbtest builds synthetic database images byte by byte for tests.
package dbtest

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/format"
)

// Record encodes values (nil, int, int64, float64, string, []byte) as a
// record payload, choosing the narrowest integer serial type.
func Record(values ...any) []byte {
	var header, body []byte
	var tmp [btree.MaxVarintLen]byte

	for _, v := range values {
		var code uint64
		switch x := v.(type) {
		case nil:
			code = 0
		case int:
			code, body = appendInt(body, int64(x))
		case int64:
			code, body = appendInt(body, x)
		case float64:
			code = 7
			body = binary.BigEndian.AppendUint64(body, math.Float64bits(x))
		case string:
			code = uint64(13 + 2*len(x))
			body = append(body, x...)
		case []byte:
			code = uint64(12 + 2*len(x))
			body = append(body, x...)
		default:
			panic(fmt.Sprintf("dbtest: unsupported value %T", v))
		}
		n := btree.PutVarint(tmp[:], code)
		header = append(header, tmp[:n]...)
	}

	// The header length counts its own varint.
	hlen := len(header) + 1
	if btree.VarintLen(uint64(hlen)) > 1 {
		hlen++
	}
	n := btree.PutVarint(tmp[:], uint64(hlen))
	out := append(append([]byte{}, tmp[:n]...), header...)
	return append(out, body...)
}

func appendInt(body []byte, v int64) (uint64, []byte) {
	switch {
	case v == 0:
		return 8, body
	case v == 1:
		return 9, body
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return 1, append(body, byte(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return 2, binary.BigEndian.AppendUint16(body, uint16(v))
	case v >= -1<<23 && v < 1<<23:
		return 3, append(body, byte(v>>16), byte(v>>8), byte(v))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return 4, binary.BigEndian.AppendUint32(body, uint32(v))
	case v >= -1<<47 && v < 1<<47:
		return 5, append(body, byte(v>>40), byte(v>>32), byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	default:
		return 6, binary.BigEndian.AppendUint64(body, uint64(v))
	}
}

// Page lays out one b-tree page of the given kind: header, cell pointer
// array, and cells packed from the end of the page. Page 1 leaves room for
// the database header.
func Page(pgno uint32, pageSize int, kind byte, rightChild uint32, cells [][]byte) []byte {
	data := make([]byte, pageSize)
	hdr := btree.HeaderOffset(pgno)
	data[hdr] = kind
	binary.BigEndian.PutUint16(data[hdr+format.BtreeCellCount:], uint16(len(cells)))

	ptr := hdr + btree.PageHeaderSizeLeaf
	if kind == btree.PageTypeInteriorTable || kind == btree.PageTypeInteriorIndex {
		binary.BigEndian.PutUint32(data[hdr+format.BtreeRightmostPointer:], rightChild)
		ptr = hdr + btree.PageHeaderSizeInterior
	}

	content := pageSize
	for i, cell := range cells {
		content -= len(cell)
		if content < ptr+2*len(cells) {
			panic("dbtest: cells do not fit on page")
		}
		copy(data[content:], cell)
		binary.BigEndian.PutUint16(data[ptr+2*i:], uint16(content))
	}
	binary.BigEndian.PutUint16(data[hdr+format.BtreeCellContentStart:], uint16(content))
	return data
}

// Table describes one table to place in a synthetic database.
type Table struct {
	Name string
	SQL  string
	Rows [][]any // Row values; rowids are assigned 1..n

	// PerLeaf splits the rows across leaf pages of this many rows under an
	// interior root. Zero keeps every row on a single leaf root.
	PerLeaf int
}

// Entry is a non-table catalog row (index, view, trigger).
type Entry struct {
	Type, Name, TableName string
	RootPage              uint32
	SQL                   any // string or nil
}

// Builder assembles a database image.
type Builder struct {
	pageSize int
	pages    [][]byte // pages[0] is page 1
	catalog  [][]byte // catalog cells
}

// NewBuilder starts an image with the given page size.
func NewBuilder(pageSize int) *Builder {
	return &Builder{pageSize: pageSize, pages: [][]byte{nil}}
}

func (b *Builder) nextPage() uint32 {
	b.pages = append(b.pages, nil)
	return uint32(len(b.pages))
}

// AddTable appends a table and its rows, returning the root page number.
func (b *Builder) AddTable(t Table) uint32 {
	cells := make([][]byte, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = btree.EncodeTableLeafCell(int64(i+1), Record(row...))
	}

	root := b.nextPage()
	if t.PerLeaf <= 0 || len(cells) <= t.PerLeaf {
		b.pages[root-1] = Page(root, b.pageSize, btree.PageTypeLeafTable, 0, cells)
	} else {
		var leaves []uint32
		var lastKeys []int64
		for start := 0; start < len(cells); start += t.PerLeaf {
			end := min(start+t.PerLeaf, len(cells))
			pgno := b.nextPage()
			b.pages[pgno-1] = Page(pgno, b.pageSize, btree.PageTypeLeafTable, 0, cells[start:end])
			leaves = append(leaves, pgno)
			lastKeys = append(lastKeys, int64(end))
		}
		var interior [][]byte
		for i := 0; i < len(leaves)-1; i++ {
			interior = append(interior, btree.EncodeTableInteriorCell(leaves[i], lastKeys[i]))
		}
		b.pages[root-1] = Page(root, b.pageSize, btree.PageTypeInteriorTable, leaves[len(leaves)-1], interior)
	}

	b.catalog = append(b.catalog, Record("table", t.Name, t.Name, int64(root), t.SQL))
	return root
}

// AddEntry appends a raw catalog row.
func (b *Builder) AddEntry(e Entry) {
	b.catalog = append(b.catalog, Record(e.Type, e.Name, e.TableName, int64(e.RootPage), e.SQL))
}

// SetPage overwrites page pgno, growing the image if needed.
func (b *Builder) SetPage(pgno uint32, data []byte) {
	for uint32(len(b.pages)) < pgno {
		b.pages = append(b.pages, nil)
	}
	b.pages[pgno-1] = data
}

// Bytes returns the finished image.
func (b *Builder) Bytes() []byte {
	cells := make([][]byte, len(b.catalog))
	for i, rec := range b.catalog {
		cells[i] = btree.EncodeTableLeafCell(int64(i+1), rec)
	}
	page1 := Page(1, b.pageSize, btree.PageTypeLeafTable, 0, cells)
	copy(page1, format.NewHeader(b.pageSize).Serialize())
	b.pages[0] = page1

	out := make([]byte, 0, len(b.pages)*b.pageSize)
	for _, p := range b.pages {
		if p == nil {
			p = make([]byte, b.pageSize)
		}
		out = append(out, p...)
	}
	return out
}
