package btree

import (
	"encoding/binary"
	"fmt"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
)

// LeafCell is one table-leaf cell: a rowid and its record payload.
type LeafCell struct {
	RowID   int64  // Row identifier (key of the table b-tree)
	Payload []byte // Record bytes, sliced from the page
	Page    uint32 // Page the cell lives on
	Offset  int    // Offset of the cell within the page
}

// InteriorCell is one table-interior cell.
type InteriorCell struct {
	ChildPage uint32 // Left child page number
	Key       int64  // Largest rowid in the child subtree
}

// MaxLocalPayload returns the largest payload a table-leaf cell stores
// without spilling to overflow pages.
func MaxLocalPayload(usableSize int) int {
	return usableSize - 35
}

// ParseTableLeafCell parses the table-leaf cell at page[off].
// Format: varint(payload_size), varint(rowid), payload
func ParseTableLeafCell(page []byte, pgno uint32, off, usableSize int) (LeafCell, error) {
	payloadSize, n, err := ReadVarint(page, off)
	if err != nil {
		return LeafCell{}, errors.Wrapf(err, "page %d cell at %d: payload size", pgno, off)
	}
	pos := off + n

	rowid, n, err := ReadVarint(page, pos)
	if err != nil {
		return LeafCell{}, errors.Wrapf(err, "page %d cell at %d: rowid", pgno, off)
	}
	pos += n

	if maxLocal := MaxLocalPayload(usableSize); payloadSize > uint64(maxLocal) {
		return LeafCell{}, errors.NewUnsupported("overflow pages",
			fmt.Sprintf("page %d cell at %d: payload of %d bytes exceeds local limit %d", pgno, off, payloadSize, maxLocal))
	}

	end := pos + int(payloadSize)
	if end > len(page) {
		return LeafCell{}, errors.NewTruncated("cell payload", pos, int(payloadSize), len(page)-pos)
	}

	return LeafCell{
		RowID:   int64(rowid),
		Payload: page[pos:end:end],
		Page:    pgno,
		Offset:  off,
	}, nil
}

// ParseTableInteriorCell parses the table-interior cell at page[off].
// Format: 4-byte child page number, varint(rowid)
func ParseTableInteriorCell(page []byte, pgno uint32, off int) (InteriorCell, error) {
	if off+4 > len(page) {
		return InteriorCell{}, errors.NewTruncated("child pointer", off, 4, len(page)-off)
	}

	child := binary.BigEndian.Uint32(page[off:])
	if child == 0 {
		return InteriorCell{}, errors.NewCorrupt(pgno, "cell at %d has child page 0", off)
	}

	key, _, err := ReadVarint(page, off+4)
	if err != nil {
		return InteriorCell{}, errors.Wrapf(err, "page %d cell at %d: key", pgno, off)
	}
	return InteriorCell{ChildPage: child, Key: int64(key)}, nil
}

// EncodeTableLeafCell encodes a table leaf cell with the given rowid and payload
// Format: varint(payload_size), varint(rowid), payload
func EncodeTableLeafCell(rowid int64, payload []byte) []byte {
	buf := make([]byte, 2*MaxVarintLen+len(payload))
	offset := PutVarint(buf, uint64(len(payload)))
	offset += PutVarint(buf[offset:], uint64(rowid))
	offset += copy(buf[offset:], payload)
	return buf[:offset]
}

// EncodeTableInteriorCell encodes a table interior cell with the given child page and rowid
func EncodeTableInteriorCell(childPage uint32, rowid int64) []byte {
	buf := make([]byte, 4+MaxVarintLen)
	binary.BigEndian.PutUint32(buf, childPage)
	n := PutVarint(buf[4:], uint64(rowid))
	return buf[:4+n]
}
