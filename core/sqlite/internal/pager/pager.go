package pager

import (
	"encoding/hex"
	"io"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite/internal/format"
)

// Options controls how a database file is opened.
type Options struct {
	// DisableMmap forces positional reads even where mmap is available.
	DisableMmap bool

	// CacheSize is the number of pages kept for positional-read sources.
	// Zero selects DefaultCacheSize; a negative value disables the cache.
	CacheSize int

	// MaxDecompressedSize bounds the in-memory image of an xz-compressed
	// database. Zero selects DefaultMaxDecompressedSize.
	MaxDecompressedSize int64
}

// DefaultMaxDecompressedSize is the largest xz-compressed database image
// Open will inflate into memory.
const DefaultMaxDecompressedSize int64 = 4 << 30

// Pager provides read-only access to the pages of one database file.
type Pager struct {
	src       Source
	filename  string
	header    *format.Header
	pageSize  int
	pageCount uint32
	cache     *PageCache
}

// Open opens the database at path read-only.
func Open(path string, opts Options) (*Pager, error) {
	src, err := openSource(path, opts)
	if err != nil {
		return nil, err
	}
	p, err := New(src, opts)
	if err != nil {
		src.Close()
		return nil, errors.Wrapf(err, "open %s", path)
	}
	p.filename = path
	return p, nil
}

// NewMemory creates a Pager over an in-memory database image.
func NewMemory(data []byte) (*Pager, error) {
	return New(NewMemorySource(data), Options{})
}

// New creates a Pager over src, reading and validating the database header.
func New(src Source, opts Options) (*Pager, error) {
	head := make([]byte, format.HeaderSize)
	n, err := src.ReadAt(head, 0)
	if err != nil && err != io.EOF {
		return nil, errors.NewIO("read", "database header", err)
	}
	header, err := format.ParseHeader(head[:n])
	if err != nil {
		return nil, err
	}

	pageSize := header.GetPageSize()
	pageCount := uint32((src.Size() + int64(pageSize) - 1) / int64(pageSize))

	cacheSize := opts.CacheSize
	if cacheSize == 0 {
		cacheSize = DefaultCacheSize
	}

	return &Pager{
		src:       src,
		header:    header,
		pageSize:  pageSize,
		pageCount: pageCount,
		cache:     NewPageCache(cacheSize),
	}, nil
}

// Header returns the parsed database header.
func (p *Pager) Header() *format.Header {
	return p.header
}

// PageSize returns the page size in bytes.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// UsableSize returns the page size minus the reserved region.
func (p *Pager) UsableSize() int {
	return p.header.UsableSize()
}

// PageCount returns the number of pages implied by the file size.
func (p *Pager) PageCount() uint32 {
	return p.pageCount
}

// Filename returns the path the pager was opened with, if any.
func (p *Pager) Filename() string {
	return p.filename
}

// PageOffset converts a 1-based page number into a byte offset.
func (p *Pager) PageOffset(pgno uint32) int64 {
	return int64(pgno-1) * int64(p.pageSize)
}

// Page returns the full contents of page pgno. The returned slice must not
// be modified.
func (p *Pager) Page(pgno uint32) ([]byte, error) {
	if pgno == 0 || pgno > p.pageCount {
		return nil, errors.NewCorrupt(pgno, "page number out of range 1..%d", p.pageCount)
	}

	off := p.PageOffset(pgno)
	end := off + int64(p.pageSize)

	if bs, ok := p.src.(byteSource); ok {
		data := bs.Bytes()
		if end > int64(len(data)) {
			return nil, errors.NewTruncated("page", int(off), p.pageSize, len(data)-int(off))
		}
		return data[off:end:end], nil
	}

	if data, ok := p.cache.Get(pgno); ok {
		return data, nil
	}

	data := make([]byte, p.pageSize)
	n, err := p.src.ReadAt(data, off)
	if n < p.pageSize {
		if err != nil && err != io.EOF {
			return nil, errors.NewIO("read", p.filename, err)
		}
		return nil, errors.NewTruncated("page", int(off), p.pageSize, n)
	}
	p.cache.Put(pgno, data)
	return data, nil
}

// Fingerprint returns the hex BLAKE3-256 digest of the whole database image.
func (p *Pager) Fingerprint() (string, error) {
	h := blake3.New()
	if _, err := io.Copy(h, io.NewSectionReader(p.src, 0, p.src.Size())); err != nil {
		return "", errors.NewIO("hash", p.filename, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Compressed reports whether the file was xz-compressed on disk.
func (p *Pager) Compressed() bool {
	m, ok := p.src.(*memSource)
	return ok && m.compressed
}

// CacheStats reports page cache hits and misses.
func (p *Pager) CacheStats() (hits, misses uint64) {
	return p.cache.Stats()
}

// Close releases the underlying source.
func (p *Pager) Close() error {
	if p.src == nil {
		return nil
	}
	err := p.src.Close()
	p.src = nil
	return err
}
