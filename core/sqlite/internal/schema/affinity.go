package schema

import (
	"strings"
)

// Affinity is the SQLite type affinity of a declared column type.
type Affinity int

// Affinity constants.
const (
	AffinityNone Affinity = iota
	AffinityText
	AffinityNumeric
	AffinityInteger
	AffinityReal
	AffinityBlob
)

// DetermineAffinity determines the type affinity from a column type name.
//
// SQLite type affinity rules (from https://sqlite.org/datatype3.html):
// 1. If the type contains "INT" -> INTEGER affinity
// 2. If the type contains "CHAR", "CLOB", or "TEXT" -> TEXT affinity
// 3. If the type contains "BLOB" or no type specified -> BLOB affinity
// 4. If the type contains "REAL", "FLOA", or "DOUB" -> REAL affinity
// 5. Otherwise -> NUMERIC affinity
func DetermineAffinity(typeName string) Affinity {
	if typeName == "" {
		return AffinityBlob
	}

	upper := strings.ToUpper(typeName)

	if strings.Contains(upper, "INT") {
		return AffinityInteger
	}

	if strings.Contains(upper, "CHAR") ||
		strings.Contains(upper, "CLOB") ||
		strings.Contains(upper, "TEXT") {
		return AffinityText
	}

	if strings.Contains(upper, "BLOB") {
		return AffinityBlob
	}

	if strings.Contains(upper, "REAL") ||
		strings.Contains(upper, "FLOA") ||
		strings.Contains(upper, "DOUB") {
		return AffinityReal
	}

	return AffinityNumeric
}

// IsNumeric returns true if the affinity is NUMERIC, INTEGER, or REAL.
func (a Affinity) IsNumeric() bool {
	return a == AffinityNumeric || a == AffinityInteger || a == AffinityReal
}

// String returns the canonical name for an affinity.
func (a Affinity) String() string {
	switch a {
	case AffinityNone:
		return "NONE"
	case AffinityText:
		return "TEXT"
	case AffinityNumeric:
		return "NUMERIC"
	case AffinityInteger:
		return "INTEGER"
	case AffinityReal:
		return "REAL"
	case AffinityBlob:
		return "BLOB"
	default:
		return "UNKNOWN"
	}
}
