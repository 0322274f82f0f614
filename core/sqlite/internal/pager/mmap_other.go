//go:build !unix

package pager

import (
	"errors"
	"os"
)

func mmapFile(f *os.File, size int64) (Source, error) {
	return nil, errors.New("mmap not supported on this platform")
}
