package results

import (
	"bytes"
	"encoding/csv"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
)

// FormatSelectResultsCSV writes the SPARQL 1.1 CSV results format
// (https://www.w3.org/TR/sparql11-results-csv-tsv/). Records end in CRLF.
func FormatSelectResultsCSV(rs *ResultSet) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	records := append([][]string{rs.Variables}, rs.cells(csvValue)...)
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// csvValue drops the syntax around a term: IRIs lose their brackets and
// literals keep only the lexical form
func csvValue(term rdf.Term) string {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return t.IRI
	case *rdf.BlankNode:
		return "_:" + t.ID
	case *rdf.Literal:
		return t.Value
	}
	return term.String()
}
