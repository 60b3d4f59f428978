package encoding

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
	"github.com/sparqlpad/sparqlpad/pkg/store"
)

const (
	// Maximum size for inline strings (16 bytes of UTF-8)
	MaxInlineStringSize = 16

	// Separates datatype IRI and lexical form in the id2str entry of a typed literal
	typedLiteralSeparator = "\x00"
)

// EncodedTerm is the storage form of a term
type EncodedTerm = store.EncodedTerm

// TermEncoder encodes RDF terms for the index tables. IRIs, blank nodes
// and long or tagged literals are hashed with 128-bit xxh3 and their text
// is kept in the id2str table; short plain strings are stored inline.
type TermEncoder struct{}

func NewTermEncoder() *TermEncoder {
	return &TermEncoder{}
}

// Hash128 computes a 128-bit xxh3 hash of the input string
func (e *TermEncoder) Hash128(s string) [16]byte {
	hash := xxh3.HashString128(s)
	var result [16]byte
	binary.BigEndian.PutUint64(result[0:8], hash.Hi)
	binary.BigEndian.PutUint64(result[8:16], hash.Lo)
	return result
}

// EncodeTerm encodes an RDF term into a fixed-size byte array
// Returns the encoded term and optionally a string to store in id2str table
func (e *TermEncoder) EncodeTerm(term rdf.Term) (EncodedTerm, *string, error) {
	switch t := term.(type) {
	case *rdf.NamedNode:
		return e.hashed(rdf.TermTypeNamedNode, t.IRI), &t.IRI, nil
	case *rdf.BlankNode:
		return e.hashed(rdf.TermTypeBlankNode, t.ID), &t.ID, nil
	case *rdf.Literal:
		return e.encodeLiteral(t)
	case *rdf.DefaultGraph:
		var encoded EncodedTerm
		encoded[0] = byte(rdf.TermTypeDefaultGraph)
		return encoded, nil, nil
	default:
		var encoded EncodedTerm
		return encoded, nil, fmt.Errorf("unknown term type: %T", term)
	}
}

func (e *TermEncoder) hashed(termType rdf.TermType, s string) EncodedTerm {
	var encoded EncodedTerm
	encoded[0] = byte(termType)
	hash := e.Hash128(s)
	copy(encoded[1:], hash[:])
	return encoded
}

func (e *TermEncoder) encodeLiteral(lit *rdf.Literal) (EncodedTerm, *string, error) {
	if lit.Language != "" {
		// Split on the last '@' when decoding; tags never contain one
		combined := lit.Value + "@" + strings.ToLower(lit.Language)
		return e.hashed(rdf.TermTypeLangStringLiteral, combined), &combined, nil
	}

	if !lit.IsPlain() {
		combined := lit.DatatypeIRI() + typedLiteralSeparator + lit.Value
		return e.hashed(rdf.TermTypeTypedLiteral, combined), &combined, nil
	}

	if len(lit.Value) <= MaxInlineStringSize && !strings.Contains(lit.Value, "\x00") {
		var encoded EncodedTerm
		encoded[0] = byte(rdf.TermTypeStringLiteral)
		copy(encoded[1:], lit.Value)
		return encoded, nil, nil
	}

	value := lit.Value
	encoded := e.hashed(rdf.TermTypeStringLiteral, value)
	// Marks the hashed form so it is never read back as inline text
	encoded[0] = byte(rdf.TermTypeStringLiteral) | hashedStringFlag
	return encoded, &value, nil
}

// hashedStringFlag is set on the type byte of plain strings that were too long to inline
const hashedStringFlag = 0x80

// EncodeQuadKey concatenates encoded terms into an index key.
// Keys sort bytewise, so a prefix of bound terms selects a key range.
func (e *TermEncoder) EncodeQuadKey(terms ...EncodedTerm) []byte {
	result := make([]byte, 0, len(terms)*store.EncodedTermSize)
	for _, term := range terms {
		result = append(result, term[:]...)
	}
	return result
}

// GetTermType extracts the type from an encoded term
func GetTermType(encoded EncodedTerm) rdf.TermType {
	return rdf.TermType(encoded[0] &^ hashedStringFlag)
}
