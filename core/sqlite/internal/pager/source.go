package pager

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/internal/validation"
)

// Source is a randomly-seekable, read-only byte source.
type Source interface {
	io.ReaderAt
	Size() int64
	Close() error
}

// byteSource is implemented by sources whose whole content is addressable.
type byteSource interface {
	Bytes() []byte
}

// memSource serves bytes held in memory.
type memSource struct {
	data       []byte
	compressed bool // decompressed from an xz file
}

// NewMemorySource wraps data as a Source. The slice is not copied.
func NewMemorySource(data []byte) Source {
	return &memSource{data: data}
}

func (m *memSource) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(m.data).ReadAt(p, off)
}

func (m *memSource) Size() int64   { return int64(len(m.data)) }
func (m *memSource) Bytes() []byte { return m.data }
func (m *memSource) Close() error  { return nil }

// fileSource serves positional reads from an open file.
type fileSource struct {
	file *os.File
	size int64
}

func (f *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return f.file.ReadAt(p, off)
}

func (f *fileSource) Size() int64  { return f.size }
func (f *fileSource) Close() error { return f.file.Close() }

// isXZ reports whether the file starts with the xz stream magic.
func isXZ(f *os.File) (bool, error) {
	ft, err := validation.DetectFileType(f)
	if err != nil {
		return false, err
	}
	return ft == validation.FileTypeXZ, nil
}

// openXZ decompresses an xz-compressed database into memory, refusing
// images larger than limit bytes.
func openXZ(f *os.File, path string, limit int64) (Source, error) {
	r, err := xz.NewReader(f)
	if err != nil {
		return nil, errors.NewIO("open xz stream", path, err)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, errors.NewIO("decompress", path, err)
	}
	if int64(len(data)) > limit {
		return nil, errors.NewIO("decompress", path,
			errors.NewUnsupported("xz database", fmt.Sprintf("decompressed image exceeds %d bytes", limit)))
	}
	return &memSource{data: data, compressed: true}, nil
}

// openSource picks the best Source for path.
func openSource(path string, opts Options) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}

	compressed, err := isXZ(f)
	if err != nil {
		f.Close()
		return nil, errors.NewIO("read", path, err)
	}
	if compressed {
		defer f.Close()
		limit := opts.MaxDecompressedSize
		if limit <= 0 {
			limit = DefaultMaxDecompressedSize
		}
		return openXZ(f, path, limit)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.NewIO("stat", path, err)
	}

	if !opts.DisableMmap && info.Size() > 0 {
		if src, err := mmapFile(f, info.Size()); err == nil {
			return src, nil
		}
		// fall through to positional reads
	}

	return &fileSource{file: f, size: info.Size()}, nil
}
