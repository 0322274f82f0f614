package record

import (
	"fmt"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
)

// Kind is the storage class of a column value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindText
	KindBlob
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Serial type codes with fixed meaning.
const (
	SerialNull    = 0
	SerialInt8    = 1
	SerialInt16   = 2
	SerialInt24   = 3
	SerialInt32   = 4
	SerialInt48   = 5
	SerialInt64   = 6
	SerialFloat64 = 7
	SerialZero    = 8
	SerialOne     = 9

	// Codes 10 and 11 are reserved for internal use by the engine and never
	// appear in a well-formed database file.
	serialReserved10 = 10
	serialReserved11 = 11

	serialBlobMin = 12
	serialTextMin = 13
)

// Descriptor describes how one column is stored in a record body.
type Descriptor struct {
	Code   uint64 // Serial type code as stored in the record header
	Length int    // Number of body bytes the value occupies
	Kind   Kind   // Null, Integer, Text, or Blob
}

// IsFloat reports whether the value is an IEEE-754 double. Float columns are
// described as (8, Integer) by Resolve.
func (d Descriptor) IsFloat() bool {
	return d.Code == SerialFloat64
}

var fixedTypes = [...]Descriptor{
	SerialNull:    {SerialNull, 0, KindNull},
	SerialInt8:    {SerialInt8, 1, KindInteger},
	SerialInt16:   {SerialInt16, 2, KindInteger},
	SerialInt24:   {SerialInt24, 3, KindInteger},
	SerialInt32:   {SerialInt32, 4, KindInteger},
	SerialInt48:   {SerialInt48, 6, KindInteger},
	SerialInt64:   {SerialInt64, 8, KindInteger},
	SerialFloat64: {SerialFloat64, 8, KindInteger},
	SerialZero:    {SerialZero, 0, KindInteger},
	SerialOne:     {SerialOne, 0, KindInteger},
}

// Resolve maps a serial type code to its byte length and kind.
// Codes 10 and 11 are rejected.
func Resolve(code uint64) (Descriptor, error) {
	switch {
	case code < uint64(len(fixedTypes)):
		return fixedTypes[code], nil
	case code == serialReserved10 || code == serialReserved11:
		return Descriptor{}, errors.NewUnsupported("serial type",
			fmt.Sprintf("code %d is reserved", code))
	case code%2 == 0:
		return Descriptor{Code: code, Length: int((code - serialBlobMin) / 2), Kind: KindBlob}, nil
	default:
		return Descriptor{Code: code, Length: int((code - serialTextMin) / 2), Kind: KindText}, nil
	}
}
