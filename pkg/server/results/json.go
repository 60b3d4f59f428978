package results

import (
	"encoding/json"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
)

// SPARQL JSON Results Format
// https://www.w3.org/TR/sparql11-results-json/

// SPARQLResultsJSON represents the JSON format for SPARQL query results
type SPARQLResultsJSON struct {
	Head    ResultHead     `json:"head"`
	Results ResultBindings `json:"results"`
}

// ResultHead contains the variable names
type ResultHead struct {
	Vars []string `json:"vars"`
}

// ResultBindings contains the result bindings
type ResultBindings struct {
	Bindings []map[string]BindingValue `json:"bindings"`
}

// BindingValue represents a single bound value
type BindingValue struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	XMLLang  string `json:"xml:lang,omitempty"`
}

// FormatSelectResultsJSON converts a SELECT result to SPARQL JSON format
func FormatSelectResultsJSON(rs *ResultSet) ([]byte, error) {
	vars := rs.Variables
	if vars == nil {
		vars = []string{}
	}

	// Unbound variables are left out of each binding
	jsonBindings := make([]map[string]BindingValue, 0, len(rs.Bindings))
	for _, binding := range rs.Bindings {
		jsonBinding := make(map[string]BindingValue, len(vars))
		for _, name := range vars {
			if term, ok := binding.Vars[name]; ok {
				jsonBinding[name] = termToBindingValue(term)
			}
		}
		jsonBindings = append(jsonBindings, jsonBinding)
	}

	return json.MarshalIndent(SPARQLResultsJSON{
		Head:    ResultHead{Vars: vars},
		Results: ResultBindings{Bindings: jsonBindings},
	}, "", "  ")
}

// termToBindingValue converts an RDF term to a SPARQL JSON binding value
func termToBindingValue(term rdf.Term) BindingValue {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return BindingValue{Type: "uri", Value: t.IRI}

	case *rdf.BlankNode:
		return BindingValue{Type: "bnode", Value: t.ID}

	case *rdf.Literal:
		bv := BindingValue{Type: "literal", Value: t.Value}
		if t.Language != "" {
			bv.XMLLang = t.Language
		} else if !t.IsPlain() {
			bv.Datatype = t.DatatypeIRI()
		}
		return bv

	default:
		return BindingValue{Type: "literal", Value: term.String()}
	}
}
