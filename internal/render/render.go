// Package render writes command results as text, JSON or XML.
//
// The text format is the one the command line has always printed:
// pipe-separated columns, one row per line, nothing for an empty result.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatText, FormatJSON, FormatXML}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.NewValidation("format", fmt.Sprintf("unknown output format %q", s))
}

// Write renders res to w in format f.
func Write(w io.Writer, f Format, res *sqlite.Result) error {
	switch f {
	case FormatText, "":
		return Text(w, res)
	case FormatJSON:
		return JSON(w, res)
	case FormatXML:
		return XML(w, res)
	default:
		return errors.NewValidation("format", fmt.Sprintf("unknown output format %q", f))
	}
}

// Text writes res in the plain text format.
func Text(w io.Writer, res *sqlite.Result) error {
	var b strings.Builder
	switch res.Kind {
	case sqlite.KindDBInfo:
		fmt.Fprintf(&b, "database page size: %d\n", res.Info.PageSize)
		fmt.Fprintf(&b, "number of tables: %d\n", res.Info.TableCount)
	case sqlite.KindTables:
		if len(res.Tables) > 0 {
			b.WriteString(strings.Join(res.Tables, " "))
			b.WriteByte('\n')
		}
	case sqlite.KindFingerprint:
		fmt.Fprintf(&b, "blake3: %s\n", res.Fingerprint.Digest)
		fmt.Fprintf(&b, "page size: %d\n", res.Fingerprint.PageSize)
		fmt.Fprintf(&b, "page count: %d\n", res.Fingerprint.PageCount)
	case sqlite.KindCount:
		b.WriteString(strconv.Itoa(res.Count))
		b.WriteByte('\n')
	case sqlite.KindSelect:
		for _, row := range res.Strings() {
			b.WriteString(strings.Join(row, "|"))
			b.WriteByte('\n')
		}
	default:
		return errors.NewValidation("result", "unknown result kind "+res.Kind.String())
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Document is the JSON shape of a result.
type Document struct {
	Kind        string              `json:"kind"`
	Info        *sqlite.DBInfo      `json:"info,omitempty"`
	Tables      []string            `json:"tables,omitempty"`
	Fingerprint *sqlite.Fingerprint `json:"fingerprint,omitempty"`
	Count       *int                `json:"count,omitempty"`
	Columns     []string            `json:"columns,omitempty"`
	Rows        [][]any             `json:"rows,omitempty"`
}

// NewDocument converts res into its JSON shape. Blobs become hex strings.
// An empty table list leaves Tables out of the document.
func NewDocument(res *sqlite.Result) *Document {
	doc := &Document{Kind: res.Kind.String()}
	switch res.Kind {
	case sqlite.KindDBInfo:
		doc.Info = res.Info
	case sqlite.KindTables:
		doc.Tables = res.Tables
	case sqlite.KindFingerprint:
		doc.Fingerprint = res.Fingerprint
	case sqlite.KindCount:
		n := res.Count
		doc.Count = &n
	case sqlite.KindSelect:
		doc.Columns = res.Columns
		doc.Rows = make([][]any, len(res.Rows))
		for i, row := range res.Rows {
			doc.Rows[i] = make([]any, len(row))
			for j, v := range row {
				doc.Rows[i][j] = jsonValue(v)
			}
		}
	}
	return doc
}

// jsonValue returns v as a value encoding/json accepts. Infinities and NaN
// have no JSON number form and are written as strings such as "+Inf".
func jsonValue(v sqlite.Value) any {
	x := v.Interface()
	if f, ok := x.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return v.String()
	}
	return x
}

// JSON writes res as one indented JSON object.
func JSON(w io.Writer, res *sqlite.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(res))
}
