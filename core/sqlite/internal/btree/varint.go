package btree

import (
	"github.com/FocuswithJustin/sqlitescan/core/errors"
)

// Variable-length integer encoding/decoding (SQLite format):
//   - lower 7 bits of each byte carry data, most significant group first
//   - high bit (0x80) set on every byte that is followed by another
//   - at most 9 bytes; the 9th byte contributes all 8 of its bits

// MaxVarintLen is the longest possible varint encoding.
const MaxVarintLen = 9

// PutVarint writes v to p and returns the number of bytes written.
// p must have room for VarintLen(v) bytes.
func PutVarint(p []byte, v uint64) int {
	if v <= 0x7f {
		p[0] = byte(v)
		return 1
	}
	if v <= 0x3fff {
		p[0] = byte((v>>7)&0x7f) | 0x80
		p[1] = byte(v & 0x7f)
		return 2
	}
	return putVarint64(p, v)
}

// putVarint64 handles the general case of encoding a 64-bit varint
func putVarint64(p []byte, v uint64) int {
	if v&(uint64(0xff000000)<<32) != 0 {
		// 9-byte case: all 8 bits of the 9th byte are used
		p[8] = byte(v)
		v >>= 8
		for i := 7; i >= 0; i-- {
			p[i] = byte((v & 0x7f) | 0x80)
			v >>= 7
		}
		return 9
	}

	n := VarintLen(v)
	for i := n - 1; i >= 0; i-- {
		b := byte((v >> uint(i*7)) & 0x7f)
		if i > 0 {
			b |= 0x80
		}
		p[n-1-i] = b
	}
	return n
}

// GetVarint reads a varint from the start of p and returns the value and the
// number of bytes consumed. It returns (0, 0) if p ends before the varint does.
func GetVarint(p []byte) (uint64, int) {
	if len(p) > 0 && p[0] < 0x80 {
		return uint64(p[0]), 1
	}

	var v uint64
	for i := 0; i < 8; i++ {
		if i >= len(p) {
			return 0, 0
		}
		v = (v << 7) | uint64(p[i]&0x7f)
		if p[i]&0x80 == 0 {
			return v, i + 1
		}
	}
	if len(p) < 9 {
		return 0, 0
	}
	return (v << 8) | uint64(p[8]), 9
}

// ReadVarint decodes the varint starting at p[off].
func ReadVarint(p []byte, off int) (uint64, int, error) {
	if off < 0 || off >= len(p) {
		return 0, 0, errors.NewTruncated("varint", off, 1, len(p)-off)
	}
	v, n := GetVarint(p[off:])
	if n == 0 {
		need := len(p) - off + 1
		if need > MaxVarintLen {
			need = MaxVarintLen
		}
		return 0, 0, errors.NewTruncated("varint", off, need, len(p)-off)
	}
	return v, n, nil
}

// VarintLen returns the number of bytes required to encode v as a varint
func VarintLen(v uint64) int {
	switch {
	case v <= 0x7f:
		return 1
	case v <= 0x3fff:
		return 2
	case v <= 0x1fffff:
		return 3
	case v <= 0xfffffff:
		return 4
	case v <= 0x7ffffffff:
		return 5
	case v <= 0x3ffffffffff:
		return 6
	case v <= 0x1ffffffffffff:
		return 7
	case v <= 0xffffffffffffff:
		return 8
	default:
		return 9
	}
}
