package results

import (
	"bytes"
	"encoding/xml"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
)

// SPARQL XML Results Format
// https://www.w3.org/TR/rdf-sparql-XMLres/

const sparqlResultsNamespace = "http://www.w3.org/2005/sparql-results#"

// FormatSelectResultsXML converts a SELECT result to SPARQL XML format
func FormatSelectResultsXML(rs *ResultSet) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0"?>` + "\n")
	buf.WriteString(`<sparql xmlns="` + sparqlResultsNamespace + `">` + "\n")
	buf.WriteString("  <head>\n")
	for _, name := range rs.Variables {
		buf.WriteString(`    <variable name="`)
		if err := xml.EscapeText(&buf, []byte(name)); err != nil {
			return nil, err
		}
		buf.WriteString("\"/>\n")
	}
	buf.WriteString("  </head>\n")
	buf.WriteString("  <results>\n")

	for _, binding := range rs.Bindings {
		buf.WriteString("    <result>\n")
		for _, name := range rs.Variables {
			term, ok := binding.Vars[name]
			if !ok {
				continue
			}
			buf.WriteString(`      <binding name="`)
			if err := xml.EscapeText(&buf, []byte(name)); err != nil {
				return nil, err
			}
			buf.WriteString("\">")
			if err := writeXMLTerm(&buf, term); err != nil {
				return nil, err
			}
			buf.WriteString("</binding>\n")
		}
		buf.WriteString("    </result>\n")
	}

	buf.WriteString("  </results>\n")
	buf.WriteString("</sparql>\n")

	return buf.Bytes(), nil
}

func writeXMLTerm(buf *bytes.Buffer, term rdf.Term) error {
	escape := func(s string) error {
		return xml.EscapeText(buf, []byte(s))
	}

	switch t := term.(type) {
	case *rdf.NamedNode:
		buf.WriteString("<uri>")
		if err := escape(t.IRI); err != nil {
			return err
		}
		buf.WriteString("</uri>")

	case *rdf.BlankNode:
		buf.WriteString("<bnode>")
		if err := escape(t.ID); err != nil {
			return err
		}
		buf.WriteString("</bnode>")

	case *rdf.Literal:
		switch {
		case t.Language != "":
			buf.WriteString(`<literal xml:lang="`)
			if err := escape(t.Language); err != nil {
				return err
			}
			buf.WriteString(`">`)
		case !t.IsPlain():
			buf.WriteString(`<literal datatype="`)
			if err := escape(t.DatatypeIRI()); err != nil {
				return err
			}
			buf.WriteString(`">`)
		default:
			buf.WriteString("<literal>")
		}
		if err := escape(t.Value); err != nil {
			return err
		}
		buf.WriteString("</literal>")

	default:
		buf.WriteString("<literal>")
		if err := escape(term.String()); err != nil {
			return err
		}
		buf.WriteString("</literal>")
	}

	return nil
}
