// Package format defines SQLite file format constants and the 100-byte
// database header.
//
// Only the page size is required to walk a database, but the whole header is
// decoded so callers can report the text encoding, page count and the rest of
// the metadata. Parsing is lenient about fields the reader never relies on:
// a file whose magic string is wrong still parses, and HasValidMagic reports
// the mismatch.
package format

import (
	"encoding/binary"
	"fmt"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
)

// SQLite file format constants
const (
	// HeaderSize is the database header size in bytes (first 100 bytes of the database file).
	HeaderSize = 100

	// MagicString is the magic header string for SQLite 3 database files.
	MagicString = "SQLite format 3\000"

	// DefaultPageSize is the page size used by NewHeader when none is given.
	DefaultPageSize = 4096

	// MinPageSize is the minimum allowed page size (512 bytes).
	MinPageSize = 512

	// MaxPageSize is the maximum allowed page size (65536 bytes).
	MaxPageSize = 65536
)

// Header offsets - byte positions in the 100-byte database header
const (
	OffsetMagic             = 0
	OffsetPageSize          = 16 // 2 bytes big-endian, 1 means 65536
	OffsetWriteVersion      = 18
	OffsetReadVersion       = 19
	OffsetReservedSpace     = 20
	OffsetMaxPayloadFrac    = 21
	OffsetMinPayloadFrac    = 22
	OffsetLeafPayloadFrac   = 23
	OffsetFileChangeCounter = 24
	OffsetDatabaseSize      = 28
	OffsetFirstFreelist     = 32
	OffsetFreelistCount     = 36
	OffsetSchemaCookie      = 40
	OffsetSchemaFormat      = 44
	OffsetDefaultCacheSize  = 48
	OffsetLargestRootPage   = 52
	OffsetTextEncoding      = 56
	OffsetUserVersion       = 60
	OffsetIncrVacuum        = 64
	OffsetAppID             = 68
	OffsetReserved          = 72
	OffsetVersionValidFor   = 92
	OffsetSQLiteVersion     = 96
)

// Text encodings - values for the OffsetTextEncoding field
const (
	// EncodingUTF8 indicates UTF-8 text encoding.
	EncodingUTF8 = 1

	// EncodingUTF16LE indicates UTF-16 little-endian text encoding.
	EncodingUTF16LE = 2

	// EncodingUTF16BE indicates UTF-16 big-endian text encoding.
	EncodingUTF16BE = 3
)

// Page types - first byte of B-tree page header
const (
	PageTypeInteriorIndex = 0x02
	PageTypeInteriorTable = 0x05
	PageTypeLeafIndex     = 0x0a
	PageTypeLeafTable     = 0x0d
)

// B-tree page header offsets
const (
	BtreePageType         = 0
	BtreeFirstFreeblock   = 1
	BtreeCellCount        = 3
	BtreeCellContentStart = 5
	BtreeFragmentedBytes  = 7
	BtreeRightmostPointer = 8 // interior pages only
)

// B-tree page header sizes
const (
	BtreeHeaderSizeLeaf     = 8
	BtreeHeaderSizeInterior = 12
)

// Header represents the 100-byte SQLite database file header.
type Header struct {
	Magic             [16]byte
	PageSize          uint16 // Raw field; 1 represents 65536. Use GetPageSize.
	WriteVersion      uint8
	ReadVersion       uint8
	ReservedSpace     uint8 // Unused bytes at the end of each page
	MaxPayloadFrac    uint8
	MinPayloadFrac    uint8
	LeafPayloadFrac   uint8
	FileChangeCounter uint32
	DatabaseSize      uint32 // Size in pages
	FirstFreelist     uint32
	FreelistCount     uint32
	SchemaCookie      uint32
	SchemaFormat      uint32
	DefaultCacheSize  uint32
	LargestRootPage   uint32
	TextEncoding      uint32 // 1=UTF-8, 2=UTF-16le, 3=UTF-16be (0 treated as UTF-8)
	UserVersion       uint32
	IncrVacuum        uint32
	AppID             uint32
	Reserved          [20]byte
	VersionValidFor   uint32
	SQLiteVersion     uint32
}

// ParseHeader decodes the database header at the start of data.
func ParseHeader(data []byte) (*Header, error) {
	h := &Header{}
	if err := h.Parse(data); err != nil {
		return nil, err
	}
	return h, nil
}

// ReadPageSize returns the page size stored at byte 16 of the file header.
func ReadPageSize(data []byte) (int, error) {
	if len(data) < OffsetPageSize+2 {
		return 0, errors.NewTruncated("page size field", OffsetPageSize, 2, len(data)-OffsetPageSize)
	}
	size := int(binary.BigEndian.Uint16(data[OffsetPageSize:]))
	if size == 1 {
		size = MaxPageSize
	}
	if !IsValidPageSize(size) {
		return 0, &errors.ValidationError{
			Field:   "page size",
			Value:   fmt.Sprint(size),
			Message: fmt.Sprintf("%d is not a power of two in [%d, %d]", size, MinPageSize, MaxPageSize),
		}
	}
	return size, nil
}

// Parse parses the 100-byte database header from raw bytes.
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return errors.NewTruncated("database header", 0, HeaderSize, len(data))
	}

	if _, err := ReadPageSize(data); err != nil {
		return err
	}

	copy(h.Magic[:], data[OffsetMagic:OffsetMagic+16])
	h.PageSize = binary.BigEndian.Uint16(data[OffsetPageSize:])

	h.WriteVersion = data[OffsetWriteVersion]
	h.ReadVersion = data[OffsetReadVersion]
	h.ReservedSpace = data[OffsetReservedSpace]
	h.MaxPayloadFrac = data[OffsetMaxPayloadFrac]
	h.MinPayloadFrac = data[OffsetMinPayloadFrac]
	h.LeafPayloadFrac = data[OffsetLeafPayloadFrac]

	h.FileChangeCounter = binary.BigEndian.Uint32(data[OffsetFileChangeCounter:])
	h.DatabaseSize = binary.BigEndian.Uint32(data[OffsetDatabaseSize:])
	h.FirstFreelist = binary.BigEndian.Uint32(data[OffsetFirstFreelist:])
	h.FreelistCount = binary.BigEndian.Uint32(data[OffsetFreelistCount:])
	h.SchemaCookie = binary.BigEndian.Uint32(data[OffsetSchemaCookie:])
	h.SchemaFormat = binary.BigEndian.Uint32(data[OffsetSchemaFormat:])
	h.DefaultCacheSize = binary.BigEndian.Uint32(data[OffsetDefaultCacheSize:])
	h.LargestRootPage = binary.BigEndian.Uint32(data[OffsetLargestRootPage:])
	h.TextEncoding = binary.BigEndian.Uint32(data[OffsetTextEncoding:])
	h.UserVersion = binary.BigEndian.Uint32(data[OffsetUserVersion:])
	h.IncrVacuum = binary.BigEndian.Uint32(data[OffsetIncrVacuum:])
	h.AppID = binary.BigEndian.Uint32(data[OffsetAppID:])
	h.VersionValidFor = binary.BigEndian.Uint32(data[OffsetVersionValidFor:])
	h.SQLiteVersion = binary.BigEndian.Uint32(data[OffsetSQLiteVersion:])

	copy(h.Reserved[:], data[OffsetReserved:OffsetReserved+20])

	if h.TextEncoding > EncodingUTF16BE {
		return &errors.ValidationError{
			Field:   "text encoding",
			Value:   fmt.Sprint(h.TextEncoding),
			Message: "must be 1 (UTF-8), 2 (UTF-16le) or 3 (UTF-16be)",
		}
	}

	return nil
}

// Serialize serializes the database header to 100 bytes.
func (h *Header) Serialize() []byte {
	data := make([]byte, HeaderSize)

	copy(data[OffsetMagic:], h.Magic[:])
	binary.BigEndian.PutUint16(data[OffsetPageSize:], h.PageSize)

	data[OffsetWriteVersion] = h.WriteVersion
	data[OffsetReadVersion] = h.ReadVersion
	data[OffsetReservedSpace] = h.ReservedSpace
	data[OffsetMaxPayloadFrac] = h.MaxPayloadFrac
	data[OffsetMinPayloadFrac] = h.MinPayloadFrac
	data[OffsetLeafPayloadFrac] = h.LeafPayloadFrac

	binary.BigEndian.PutUint32(data[OffsetFileChangeCounter:], h.FileChangeCounter)
	binary.BigEndian.PutUint32(data[OffsetDatabaseSize:], h.DatabaseSize)
	binary.BigEndian.PutUint32(data[OffsetFirstFreelist:], h.FirstFreelist)
	binary.BigEndian.PutUint32(data[OffsetFreelistCount:], h.FreelistCount)
	binary.BigEndian.PutUint32(data[OffsetSchemaCookie:], h.SchemaCookie)
	binary.BigEndian.PutUint32(data[OffsetSchemaFormat:], h.SchemaFormat)
	binary.BigEndian.PutUint32(data[OffsetDefaultCacheSize:], h.DefaultCacheSize)
	binary.BigEndian.PutUint32(data[OffsetLargestRootPage:], h.LargestRootPage)
	binary.BigEndian.PutUint32(data[OffsetTextEncoding:], h.TextEncoding)
	binary.BigEndian.PutUint32(data[OffsetUserVersion:], h.UserVersion)
	binary.BigEndian.PutUint32(data[OffsetIncrVacuum:], h.IncrVacuum)
	binary.BigEndian.PutUint32(data[OffsetAppID:], h.AppID)
	binary.BigEndian.PutUint32(data[OffsetVersionValidFor:], h.VersionValidFor)
	binary.BigEndian.PutUint32(data[OffsetSQLiteVersion:], h.SQLiteVersion)

	copy(data[OffsetReserved:], h.Reserved[:])

	return data
}

// NewHeader creates a header with default values for the given page size.
// It is used to build synthetic database images.
func NewHeader(pageSize int) *Header {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	var pageSizeVal uint16
	if pageSize == MaxPageSize {
		pageSizeVal = 1
	} else {
		pageSizeVal = uint16(pageSize)
	}

	h := &Header{
		PageSize:        pageSizeVal,
		WriteVersion:    1,
		ReadVersion:     1,
		MaxPayloadFrac:  64,
		MinPayloadFrac:  32,
		LeafPayloadFrac: 32,
		SchemaFormat:    4,
		TextEncoding:    EncodingUTF8,
	}
	copy(h.Magic[:], MagicString)
	return h
}

// HasValidMagic reports whether the header starts with the SQLite 3 magic string.
func (h *Header) HasValidMagic() bool {
	return string(h.Magic[:]) == MagicString
}

// GetPageSize returns the actual page size, handling the special case where
// a stored value of 1 means 65536.
func (h *Header) GetPageSize() int {
	if h.PageSize == 1 {
		return MaxPageSize
	}
	return int(h.PageSize)
}

// UsableSize is the page size minus the reserved bytes at the end of each page.
func (h *Header) UsableSize() int {
	return h.GetPageSize() - int(h.ReservedSpace)
}

// Encoding returns the text encoding, treating an unset field as UTF-8.
func (h *Header) Encoding() uint32 {
	if h.TextEncoding == 0 {
		return EncodingUTF8
	}
	return h.TextEncoding
}

// IsValidPageSize checks if a page size is valid.
// Valid page sizes are powers of 2 between 512 and 65536 inclusive.
func IsValidPageSize(size int) bool {
	if size < MinPageSize || size > MaxPageSize {
		return false
	}
	return size&(size-1) == 0
}

// PageTypeName returns a human-readable name for a page kind byte.
func PageTypeName(kind byte) string {
	switch kind {
	case PageTypeInteriorIndex:
		return "interior index"
	case PageTypeInteriorTable:
		return "interior table"
	case PageTypeLeafIndex:
		return "leaf index"
	case PageTypeLeafTable:
		return "leaf table"
	default:
		return "unknown"
	}
}
