package results

import (
	"strings"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
)

// FormatSelectResultsTSV writes the SPARQL 1.1 TSV results format. The
// header names carry their ? and cells hold terms in Turtle syntax.
func FormatSelectResultsTSV(rs *ResultSet) ([]byte, error) {
	var b strings.Builder

	header := make([]string, len(rs.Variables))
	for i, name := range rs.Variables {
		header[i] = "?" + name
	}
	b.WriteString(strings.Join(header, "\t"))
	b.WriteByte('\n')

	for _, row := range rs.cells(tsvValue) {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}

	return []byte(b.String()), nil
}

// tsvValue writes numeric literals bare when that is safe
func tsvValue(term rdf.Term) string {
	lit, ok := term.(*rdf.Literal)
	if !ok {
		return term.String()
	}

	switch lit.DatatypeIRI() {
	case rdf.XSDInteger.IRI, rdf.XSDDecimal.IRI, rdf.XSDDouble.IRI:
		if !strings.ContainsAny(lit.Value, "\t\n\r\"\\") {
			return lit.Value
		}
	}
	return lit.String()
}
