package record

import (
	"encoding/hex"
	"strconv"
)

// Value is one decoded column value.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Text  string
	Blob  []byte
}

// Null returns the NULL value.
func Null() Value { return Value{Kind: KindNull} }

// Integer returns an integer value.
func Integer(v int64) Value { return Value{Kind: KindInteger, Int: v} }

// Float returns a floating point value.
func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }

// Text returns a text value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Blob returns a blob value.
func Blob(b []byte) Value { return Value{Kind: KindBlob, Blob: b} }

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// String returns the textual form used for output and predicate comparison.
// NULL renders as the empty string and blobs as their raw bytes.
func (v Value) String() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return FormatFloat(v.Float)
	case KindText:
		return v.Text
	case KindBlob:
		return string(v.Blob)
	default:
		return ""
	}
}

// Interface returns v as a plain Go value: nil, int64, float64, string, or
// a hex string for blobs.
func (v Value) Interface() any {
	switch v.Kind {
	case KindInteger:
		return v.Int
	case KindFloat:
		return v.Float
	case KindText:
		return v.Text
	case KindBlob:
		return hex.EncodeToString(v.Blob)
	default:
		return nil
	}
}

// Equal reports whether two values have the same kind and contents.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInteger:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	case KindText:
		return v.Text == o.Text
	case KindBlob:
		return string(v.Blob) == string(o.Blob)
	default:
		return true
	}
}

// FormatFloat renders f in the shortest form that round-trips.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
