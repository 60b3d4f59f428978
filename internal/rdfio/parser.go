// Package rdfio selects an RDF reader for a content type.
package rdfio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
)

// TripleReader is a lazy sequence of triples. Next returns false at the end
// of the input or on the first error, which Err reports.
type TripleReader interface {
	Next() bool
	Triple() *rdf.Triple
	Err() error
}

// ErrUnsupportedContentType is returned for media types no reader handles
var ErrUnsupportedContentType = errors.New("unsupported content type")

// DefaultContentType is assumed when a caller sends none
const DefaultContentType = "text/turtle"

// NormalizeContentType lowercases a media type and removes parameters like
// charset
func NormalizeContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if ct == "" {
		return DefaultContentType
	}
	return ct
}

// NewReader creates an RDF reader over input based on the content type
func NewReader(contentType, input string, opts ...rdf.TurtleOption) (TripleReader, error) {
	switch NormalizeContentType(contentType) {
	case "application/n-triples", "text/plain":
		return rdf.NewNTriplesReader(input, opts...), nil
	case "text/turtle", "application/x-turtle":
		return rdf.NewTurtleReader(input, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}
}

// GetSupportedContentTypes returns a list of all supported content types
func GetSupportedContentTypes() []string {
	return []string{
		"text/turtle",
		"application/x-turtle",
		"application/n-triples",
		"text/plain", // Alias for N-Triples
	}
}

// ContentTypeForPath guesses a content type from a file extension
func ContentTypeForPath(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".nt"):
		return "application/n-triples"
	default:
		return DefaultContentType
	}
}
