package store

import (
	"github.com/sparqlpad/sparqlpad/pkg/rdf"
)

// EncodedTermSize is the size of an encoded term: a type byte followed by
// 16 bytes of hash or inline data
const EncodedTermSize = 17

// EncodedTerm represents a term encoded as a type byte followed by up to 16 bytes of data
type EncodedTerm [EncodedTermSize]byte

// Type returns the term type recorded in the first byte
func (e EncodedTerm) Type() rdf.TermType {
	return rdf.TermType(e[0])
}

// TermEncoder handles encoding of RDF terms into a compact binary format
type TermEncoder interface {
	// EncodeTerm encodes an RDF term into a fixed-size byte array
	// Returns the encoded term and optionally a string to store in id2str table
	EncodeTerm(term rdf.Term) (EncodedTerm, *string, error)

	// EncodeQuadKey concatenates encoded terms into an index key
	EncodeQuadKey(terms ...EncodedTerm) []byte
}

// TermDecoder handles decoding of RDF terms from binary format
type TermDecoder interface {
	// DecodeTerm decodes an encoded term back to an rdf.Term
	// For terms that require string lookup, stringValue should be provided
	DecodeTerm(encoded EncodedTerm, stringValue *string) (rdf.Term, error)

	// NeedsLookup reports whether decoding requires the id2str entry
	NeedsLookup(encoded EncodedTerm) bool
}
