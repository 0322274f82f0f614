package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/sqlitescan/core/errors"
	"github.com/FocuswithJustin/sqlitescan/core/sqlite"
)

// NewXMLDocument builds the XML tree for res:
//
//	<result kind="select">
//	  <columns><column>name</column></columns>
//	  <row><value column="name" type="text">apple</value></row>
//	</result>
func NewXMLDocument(res *sqlite.Result) (*xmlquery.Node, error) {
	doc := &xmlquery.Node{Type: xmlquery.DocumentNode}
	decl := &xmlquery.Node{Type: xmlquery.DeclarationNode, Data: "xml"}
	xmlquery.AddAttr(decl, "version", "1.0")
	xmlquery.AddChild(doc, decl)

	root := element("result")
	xmlquery.AddAttr(root, "kind", res.Kind.String())
	xmlquery.AddChild(doc, root)

	switch res.Kind {
	case sqlite.KindDBInfo:
		info := element("info")
		xmlquery.AddAttr(info, "page_size", strconv.Itoa(res.Info.PageSize))
		xmlquery.AddAttr(info, "table_count", strconv.Itoa(res.Info.TableCount))
		xmlquery.AddAttr(info, "page_count", strconv.FormatUint(uint64(res.Info.PageCount), 10))
		xmlquery.AddAttr(info, "encoding", res.Info.Encoding)
		xmlquery.AddChild(root, info)

	case sqlite.KindTables:
		for _, name := range res.Tables {
			xmlquery.AddChild(root, textElement("table", name))
		}

	case sqlite.KindFingerprint:
		fp := element("fingerprint")
		xmlquery.AddAttr(fp, "blake3", res.Fingerprint.Digest)
		xmlquery.AddAttr(fp, "page_size", strconv.Itoa(res.Fingerprint.PageSize))
		xmlquery.AddAttr(fp, "page_count", strconv.FormatUint(uint64(res.Fingerprint.PageCount), 10))
		xmlquery.AddChild(root, fp)

	case sqlite.KindCount:
		xmlquery.AddChild(root, textElement("count", strconv.Itoa(res.Count)))

	case sqlite.KindSelect:
		cols := element("columns")
		for _, c := range res.Columns {
			xmlquery.AddChild(cols, textElement("column", c))
		}
		xmlquery.AddChild(root, cols)

		for _, row := range res.Rows {
			r := element("row")
			for i, v := range row {
				xmlquery.AddChild(r, valueElement(res.Columns[i], v))
			}
			xmlquery.AddChild(root, r)
		}

	default:
		return nil, errors.NewValidation("result", "unknown result kind "+res.Kind.String())
	}
	return doc, nil
}

// XML writes res as an XML document.
func XML(w io.Writer, res *sqlite.Result) error {
	doc, err := NewXMLDocument(res)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, doc.OutputXML(false)+"\n")
	return err
}

func element(name string) *xmlquery.Node {
	return &xmlquery.Node{Type: xmlquery.ElementNode, Data: name}
}

func textElement(name, text string) *xmlquery.Node {
	n := element(name)
	xmlquery.AddChild(n, &xmlquery.Node{Type: xmlquery.TextNode, Data: text})
	return n
}

func valueElement(column string, v sqlite.Value) *xmlquery.Node {
	n := element("value")
	xmlquery.AddAttr(n, "column", column)
	xmlquery.AddAttr(n, "type", v.Kind.String())
	if v.IsNull() {
		return n
	}

	// blobs are hex encoded
	xmlquery.AddChild(n, &xmlquery.Node{Type: xmlquery.TextNode, Data: fmt.Sprint(v.Interface())})
	return n
}
