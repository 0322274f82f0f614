// Package record decodes the row records stored in table b-tree leaf cells.
//
// A record is a header (its own length as a varint, then one serial type
// varint per column) followed by a body holding each column's bytes in
// order. Fixed-width integers are big-endian two's complement.
package record

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/btree"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/format"
)

// NoRowIDColumn marks a table without an INTEGER PRIMARY KEY column.
const NoRowIDColumn = -1

// Options controls record decoding.
type Options struct {
	// RowIDColumn is the 0-based column aliased to the rowid, or NoRowIDColumn.
	// A NULL stored in that column decodes as the cell's rowid.
	RowIDColumn int

	// Encoding is the database text encoding (format.EncodingUTF8 etc).
	// Zero means UTF-8.
	Encoding uint32
}

// DefaultOptions returns options for a UTF-8 table with no rowid alias.
func DefaultOptions() Options {
	return Options{RowIDColumn: NoRowIDColumn, Encoding: format.EncodingUTF8}
}

// Record is one decoded table row.
type Record struct {
	RowID        int64
	HeaderLength int
	Types        []Descriptor
	Values       []Value
}

// Column returns value i, or NULL when the record has fewer columns. Rows
// written before an ALTER TABLE ADD COLUMN are stored short.
func (r *Record) Column(i int) Value {
	if i < 0 || i >= len(r.Values) {
		return Null()
	}
	return r.Values[i]
}

// DecodeTableLeafCell decodes the table-leaf cell at page[off].
func DecodeTableLeafCell(page []byte, pgno uint32, off, usableSize int, opts Options) (*Record, error) {
	cell, err := btree.ParseTableLeafCell(page, pgno, off, usableSize)
	if err != nil {
		return nil, err
	}
	return Decode(cell, opts)
}

// Decode decodes the record carried by a leaf cell.
func Decode(cell btree.LeafCell, opts Options) (*Record, error) {
	rec, err := DecodePayload(cell.Payload, cell.RowID, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "page %d cell at %d (rowid %d)", cell.Page, cell.Offset, cell.RowID)
	}
	return rec, nil
}

// Decoder returns a decode function suitable for btree.CollectLeafRecords.
func Decoder(opts Options) func(btree.LeafCell) (*Record, error) {
	return func(cell btree.LeafCell) (*Record, error) {
		return Decode(cell, opts)
	}
}

// DecodePayload decodes a record payload. The column count is derived from
// the header: serial types are read until the declared header length is used.
func DecodePayload(payload []byte, rowid int64, opts Options) (*Record, error) {
	headerLen, n, err := btree.ReadVarint(payload, 0)
	if err != nil {
		return nil, errors.Wrap(err, "record header length")
	}
	if headerLen < uint64(n) {
		return nil, errors.NewParse("record", fmt.Sprintf("%x", payload[:n]), fmt.Sprintf("header length %d is shorter than its own varint", headerLen))
	}
	if headerLen > uint64(len(payload)) {
		return nil, errors.NewTruncated("record header", 0, int(min(headerLen, math.MaxInt32)), len(payload))
	}

	header := payload[:headerLen]
	rec := &Record{RowID: rowid, HeaderLength: int(headerLen)}

	for pos := n; pos < len(header); {
		code, m, err := btree.ReadVarint(header, pos)
		if err != nil {
			return nil, errors.Wrapf(err, "serial type %d", len(rec.Types))
		}
		d, err := Resolve(code)
		if err != nil {
			return nil, err
		}
		rec.Types = append(rec.Types, d)
		pos += m
	}

	body := payload[headerLen:]
	rec.Values = make([]Value, len(rec.Types))
	pos := 0
	for i, d := range rec.Types {
		if d.Length > len(body)-pos {
			return nil, errors.NewTruncated(fmt.Sprintf("column %d", i), int(headerLen)+pos, d.Length, len(body)-pos)
		}
		v, err := decodeValue(body[pos:pos+d.Length], d, opts.Encoding)
		if err != nil {
			return nil, errors.Wrapf(err, "column %d", i)
		}
		if v.IsNull() && i == opts.RowIDColumn {
			v = Integer(rowid)
		}
		rec.Values[i] = v
		pos += d.Length
	}
	return rec, nil
}

// decodeValue decodes one column from exactly d.Length bytes.
func decodeValue(b []byte, d Descriptor, enc uint32) (Value, error) {
	switch d.Code {
	case SerialNull:
		return Null(), nil
	case SerialZero:
		return Integer(0), nil
	case SerialOne:
		return Integer(1), nil
	case SerialFloat64:
		return Float(math.Float64frombits(binary.BigEndian.Uint64(b))), nil
	}

	switch d.Kind {
	case KindInteger:
		return Integer(signExtend(b)), nil
	case KindBlob:
		out := make([]byte, len(b))
		copy(out, b)
		return Blob(out), nil
	default:
		s, err := decodeText(b, enc)
		if err != nil {
			return Value{}, err
		}
		return Text(s), nil
	}
}

// signExtend interprets b (1 to 8 bytes) as a big-endian two's complement integer.
func signExtend(b []byte) int64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	shift := 64 - 8*uint(len(b))
	return int64(v<<shift) >> shift
}

func decodeText(b []byte, enc uint32) (string, error) {
	var dec *encoding.Decoder
	switch enc {
	case format.EncodingUTF16LE:
		dec = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	case format.EncodingUTF16BE:
		dec = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	default:
		return string(b), nil
	}
	out, err := dec.Bytes(b)
	if err != nil {
		return "", errors.NewParse("text", fmt.Sprintf("%x", b), err.Error())
	}
	return string(out), nil
}
