package encoding

import (
	"fmt"
	"strings"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
)

// TermDecoder handles decoding of RDF terms
type TermDecoder struct{}

// NewTermDecoder creates a new term decoder
func NewTermDecoder() *TermDecoder {
	return &TermDecoder{}
}

// NeedsLookup reports whether the term's text lives in the id2str table
func (d *TermDecoder) NeedsLookup(encoded EncodedTerm) bool {
	switch GetTermType(encoded) {
	case rdf.TermTypeNamedNode, rdf.TermTypeBlankNode, rdf.TermTypeLangStringLiteral, rdf.TermTypeTypedLiteral:
		return true
	case rdf.TermTypeStringLiteral:
		return encoded[0]&hashedStringFlag != 0
	default:
		return false
	}
}

// DecodeTerm decodes an encoded term back to an rdf.Term
// For terms that require string lookup, stringValue should be provided
func (d *TermDecoder) DecodeTerm(encoded EncodedTerm, stringValue *string) (rdf.Term, error) {
	termType := GetTermType(encoded)

	if d.NeedsLookup(encoded) && stringValue == nil {
		return nil, fmt.Errorf("string value required for term type %d", termType)
	}

	switch termType {
	case rdf.TermTypeNamedNode:
		return rdf.NewNamedNode(*stringValue), nil

	case rdf.TermTypeBlankNode:
		return rdf.NewBlankNode(*stringValue), nil

	case rdf.TermTypeStringLiteral:
		if stringValue != nil {
			return rdf.NewLiteral(*stringValue), nil
		}
		// Inline data is NUL-padded
		endIdx := 1
		for endIdx < len(encoded) && encoded[endIdx] != 0 {
			endIdx++
		}
		return rdf.NewLiteral(string(encoded[1:endIdx])), nil

	case rdf.TermTypeLangStringLiteral:
		combined := *stringValue
		idx := strings.LastIndexByte(combined, '@')
		if idx < 0 {
			return nil, fmt.Errorf("malformed language-tagged literal %q", combined)
		}
		return rdf.NewLiteralWithLanguage(combined[:idx], combined[idx+1:]), nil

	case rdf.TermTypeTypedLiteral:
		datatype, value, ok := strings.Cut(*stringValue, typedLiteralSeparator)
		if !ok {
			return nil, fmt.Errorf("malformed typed literal %q", *stringValue)
		}
		return rdf.NewLiteralWithDatatype(value, rdf.NewNamedNode(datatype)), nil

	case rdf.TermTypeDefaultGraph:
		return rdf.NewDefaultGraph(), nil

	default:
		return nil, fmt.Errorf("unknown term type: %d", termType)
	}
}
