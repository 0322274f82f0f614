package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/format"
)

// Page type constants (first byte of page header)
const (
	PageTypeInteriorIndex = format.PageTypeInteriorIndex // Interior index b-tree page
	PageTypeInteriorTable = format.PageTypeInteriorTable // Interior table b-tree page
	PageTypeLeafIndex     = format.PageTypeLeafIndex     // Leaf index b-tree page
	PageTypeLeafTable     = format.PageTypeLeafTable     // Leaf table b-tree page
)

// Header sizes
const (
	PageHeaderSizeLeaf     = format.BtreeHeaderSizeLeaf     // Leaf pages: 8 bytes
	PageHeaderSizeInterior = format.BtreeHeaderSizeInterior // Interior pages: 12 bytes (includes right child pointer)
	FileHeaderSize         = format.HeaderSize              // Database file header on page 1
)

// PageHeader represents the parsed header of a B-tree page
type PageHeader struct {
	PageNum          uint32 // Page the header was read from
	PageType         byte   // Page type (0x02, 0x05, 0x0a, 0x0d)
	FirstFreeblock   uint16 // Offset to first freeblock (0 if none)
	NumCells         uint16 // Number of cells on this page
	CellContentStart uint16 // Start of cell content area
	FragmentedBytes  byte   // Number of fragmented free bytes
	RightChild       uint32 // Right-most child page number (interior pages only)

	// Derived properties
	IsLeaf        bool // True if this is a leaf page
	IsTable       bool // True if this is a table b-tree (intkey)
	HeaderSize    int  // Size of page header (8 or 12 bytes)
	CellPtrOffset int  // Offset where cell pointer array starts
}

// HeaderOffset returns where the b-tree page header begins within page pgno.
// Page 1 carries the database file header first.
func HeaderOffset(pgno uint32) int {
	if pgno == 1 {
		return FileHeaderSize
	}
	return 0
}

// ParsePageHeader parses the B-tree page header from raw page data.
// Unknown kind bytes are reported as a PageKindError.
func ParsePageHeader(data []byte, pageNum uint32) (*PageHeader, error) {
	offset := HeaderOffset(pageNum)
	if len(data) < offset+PageHeaderSizeLeaf {
		return nil, errors.NewTruncated("page header", offset, PageHeaderSizeLeaf, len(data)-offset)
	}

	h := &PageHeader{
		PageNum:          pageNum,
		PageType:         data[offset+format.BtreePageType],
		FirstFreeblock:   binary.BigEndian.Uint16(data[offset+format.BtreeFirstFreeblock:]),
		NumCells:         binary.BigEndian.Uint16(data[offset+format.BtreeCellCount:]),
		CellContentStart: binary.BigEndian.Uint16(data[offset+format.BtreeCellContentStart:]),
		FragmentedBytes:  data[offset+format.BtreeFragmentedBytes],
	}

	switch h.PageType {
	case PageTypeLeafTable:
		h.IsLeaf, h.IsTable = true, true
	case PageTypeInteriorTable:
		h.IsTable = true
	case PageTypeLeafIndex:
		h.IsLeaf = true
	case PageTypeInteriorIndex:
	default:
		return nil, errors.NewPageKind(pageNum, h.PageType, "")
	}

	if h.IsLeaf {
		h.HeaderSize = PageHeaderSizeLeaf
	} else {
		if len(data) < offset+PageHeaderSizeInterior {
			return nil, errors.NewTruncated("interior page header", offset, PageHeaderSizeInterior, len(data)-offset)
		}
		h.RightChild = binary.BigEndian.Uint32(data[offset+format.BtreeRightmostPointer:])
		h.HeaderSize = PageHeaderSizeInterior
	}

	h.CellPtrOffset = offset + h.HeaderSize
	return h, nil
}

// GetCellPointer returns the offset of the i-th cell in the page
func (h *PageHeader) GetCellPointer(data []byte, cellIndex int) (uint16, error) {
	if cellIndex < 0 || cellIndex >= int(h.NumCells) {
		return 0, errors.NewCorrupt(h.PageNum, "cell index %d out of range (cells=%d)", cellIndex, h.NumCells)
	}

	ptrOffset := h.CellPtrOffset + (cellIndex * 2)
	if ptrOffset+2 > len(data) {
		return 0, errors.NewTruncated("cell pointer", ptrOffset, 2, len(data)-ptrOffset)
	}

	ptr := binary.BigEndian.Uint16(data[ptrOffset:])
	if contentStart := h.CellPtrOffset + 2*int(h.NumCells); int(ptr) < contentStart || int(ptr) >= len(data) {
		return 0, errors.NewCorrupt(h.PageNum, "cell %d pointer %d outside page content", cellIndex, ptr)
	}
	return ptr, nil
}

// GetCellPointers returns all cell pointers in the page, in pointer-array order.
func (h *PageHeader) GetCellPointers(data []byte) ([]uint16, error) {
	if end := h.CellPtrOffset + 2*int(h.NumCells); end > len(data) {
		return nil, errors.NewTruncated("cell pointer array", h.CellPtrOffset, 2*int(h.NumCells), len(data)-h.CellPtrOffset)
	}
	pointers := make([]uint16, h.NumCells)
	for i := 0; i < int(h.NumCells); i++ {
		ptr, err := h.GetCellPointer(data, i)
		if err != nil {
			return nil, err
		}
		pointers[i] = ptr
	}
	return pointers, nil
}

// KindName returns the human-readable page kind.
func (h *PageHeader) KindName() string {
	return format.PageTypeName(h.PageType)
}

// String returns a string representation of the page header
func (h *PageHeader) String() string {
	return fmt.Sprintf("PageHeader{page=%d, type=%s, cells=%d, contentStart=%d, rightChild=%d}",
		h.PageNum, h.KindName(), h.NumCells, h.CellContentStart, h.RightChild)
}
