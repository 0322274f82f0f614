//go:build unix

package pager

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mmapSource is a read-only shared mapping of the whole database file.
type mmapSource struct {
	file *os.File
	data []byte
}

// mmapFile maps f read-only. The caller keeps ownership of f on error.
func mmapFile(f *os.File, size int64) (Source, error) {
	if int64(int(size)) != size {
		return nil, fmt.Errorf("file too large to map: %d bytes", size)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap: %w", err)
	}
	return &mmapSource{file: f, data: data}, nil
}

func (m *mmapSource) ReadAt(p []byte, off int64) (int, error) {
	return (&memSource{data: m.data}).ReadAt(p, off)
}

func (m *mmapSource) Size() int64   { return int64(len(m.data)) }
func (m *mmapSource) Bytes() []byte { return m.data }

// Close unmaps and closes the file.
func (m *mmapSource) Close() error {
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			return fmt.Errorf("failed to munmap: %w", err)
		}
		m.data = nil
	}
	if m.file != nil {
		if err := m.file.Close(); err != nil {
			return fmt.Errorf("failed to close file: %w", err)
		}
		m.file = nil
	}
	return nil
}
