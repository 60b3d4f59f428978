// Package results renders query results as tables and as the W3C SPARQL
// result formats.
package results

import (
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
	"github.com/sparqlpad/sparqlpad/pkg/sparql/executor"
	"github.com/sparqlpad/sparqlpad/pkg/store"
)

// ResultSet is a drained SELECT result
type ResultSet struct {
	Variables []string
	Bindings  []*store.Binding
}

// NewResultSet drains rows and closes them
func NewResultSet(rows *executor.Rows) (*ResultSet, error) {
	bindings, err := executor.Collect(rows)
	if err != nil {
		return nil, err
	}
	return &ResultSet{Variables: rows.Variables(), Bindings: bindings}, nil
}

// cells renders every binding with render, one string per variable. Unbound
// variables become empty strings.
func (rs *ResultSet) cells(render func(rdf.Term) string) [][]string {
	out := make([][]string, len(rs.Bindings))
	for i, binding := range rs.Bindings {
		row := make([]string, len(rs.Variables))
		for j, name := range rs.Variables {
			if term, ok := binding.Vars[name]; ok {
				row[j] = render(term)
			}
		}
		out[i] = row
	}
	return out
}

// Format names an output format
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatText Format = "text"
)

var contentTypes = map[Format]string{
	FormatJSON: "application/sparql-results+json",
	FormatXML:  "application/sparql-results+xml",
	FormatCSV:  "text/csv",
	FormatTSV:  "text/tab-separated-values",
	FormatText: "text/plain",
}

// ParseFormat maps a format name to a Format
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("unknown format %q (want json, xml, csv, tsv or text)", name)
	}
	return f, nil
}

// ContentType returns the media type of the format
func (f Format) ContentType() string {
	return contentTypes[f]
}

// Negotiate picks a format from an Accept header, defaulting to JSON
func Negotiate(accept string) Format {
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case "application/sparql-results+json", "application/json":
			return FormatJSON
		case "application/sparql-results+xml", "application/xml", "text/xml":
			return FormatXML
		case "text/csv":
			return FormatCSV
		case "text/tab-separated-values":
			return FormatTSV
		case "text/plain":
			return FormatText
		}
	}
	return FormatJSON
}

// Write renders rs to w in format f
func Write(w io.Writer, f Format, rs *ResultSet) error {
	var data []byte
	var err error

	switch f {
	case FormatJSON:
		data, err = FormatSelectResultsJSON(rs)
	case FormatXML:
		data, err = FormatSelectResultsXML(rs)
	case FormatCSV:
		data, err = FormatSelectResultsCSV(rs)
	case FormatTSV:
		data, err = FormatSelectResultsTSV(rs)
	case FormatText:
		return NewTable(rs).WriteText(w)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}
