package rdf

import (
	"fmt"
	"strconv"
	"strings"
)

// TermType represents the type of an RDF term
type TermType byte

const (
	// Core RDF types
	TermTypeNamedNode TermType = iota + 1
	TermTypeBlankNode
	TermTypeLiteral
	TermTypeDefaultGraph

	// Literal subtypes, used only by the storage encoding
	TermTypeStringLiteral
	TermTypeLangStringLiteral
	TermTypeTypedLiteral
)

// Term represents an RDF term (IRI, blank node, literal or the default graph)
type Term interface {
	Type() TermType
	String() string
	Equals(other Term) bool
}

// NamedNode represents an IRI
type NamedNode struct {
	IRI string
}

func NewNamedNode(iri string) *NamedNode {
	return &NamedNode{IRI: iri}
}

func (n *NamedNode) Type() TermType {
	return TermTypeNamedNode
}

func (n *NamedNode) String() string {
	return "<" + n.IRI + ">"
}

func (n *NamedNode) Equals(other Term) bool {
	if on, ok := other.(*NamedNode); ok {
		return n.IRI == on.IRI
	}
	return false
}

// BlankNode represents a blank node
type BlankNode struct {
	ID string
}

func NewBlankNode(id string) *BlankNode {
	return &BlankNode{ID: id}
}

func (b *BlankNode) Type() TermType {
	return TermTypeBlankNode
}

func (b *BlankNode) String() string {
	return "_:" + b.ID
}

func (b *BlankNode) Equals(other Term) bool {
	if ob, ok := other.(*BlankNode); ok {
		return b.ID == ob.ID
	}
	return false
}

// Literal represents an RDF literal.
//
// Every literal carries a datatype: plain literals are xsd:string and
// language-tagged literals are rdf:langString. A nil Datatype is read as
// xsd:string so that struct literals compare the same as constructed ones.
type Literal struct {
	Value    string
	Language string
	Datatype *NamedNode
}

func NewLiteral(value string) *Literal {
	return &Literal{Value: value, Datatype: XSDString}
}

func NewLiteralWithLanguage(value, language string) *Literal {
	return &Literal{Value: value, Language: strings.ToLower(language), Datatype: RDFLangString}
}

func NewLiteralWithDatatype(value string, datatype *NamedNode) *Literal {
	if datatype == nil {
		datatype = XSDString
	}
	return &Literal{Value: value, Datatype: datatype}
}

func (l *Literal) Type() TermType {
	return TermTypeLiteral
}

// DatatypeIRI returns the literal's datatype IRI with the implicit defaults applied
func (l *Literal) DatatypeIRI() string {
	if l.Language != "" {
		return RDFLangString.IRI
	}
	if l.Datatype == nil {
		return XSDString.IRI
	}
	return l.Datatype.IRI
}

// IsPlain reports whether the literal is a simple xsd:string literal
func (l *Literal) IsPlain() bool {
	return l.Language == "" && l.DatatypeIRI() == XSDString.IRI
}

func (l *Literal) String() string {
	result := `"` + EscapeString(l.Value) + `"`
	if l.Language != "" {
		return result + "@" + l.Language
	}
	if dt := l.DatatypeIRI(); dt != XSDString.IRI {
		return result + "^^<" + dt + ">"
	}
	return result
}

func (l *Literal) Equals(other Term) bool {
	ol, ok := other.(*Literal)
	if !ok {
		return false
	}
	return l.Value == ol.Value &&
		strings.EqualFold(l.Language, ol.Language) &&
		l.DatatypeIRI() == ol.DatatypeIRI()
}

// DefaultGraph represents the default graph
type DefaultGraph struct{}

func NewDefaultGraph() *DefaultGraph {
	return &DefaultGraph{}
}

func (d *DefaultGraph) Type() TermType {
	return TermTypeDefaultGraph
}

func (d *DefaultGraph) String() string {
	return "DEFAULT"
}

func (d *DefaultGraph) Equals(other Term) bool {
	_, ok := other.(*DefaultGraph)
	return ok
}

// Triple represents an RDF triple (subject, predicate, object)
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func NewTriple(subject, predicate, object Term) *Triple {
	return &Triple{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}
}

func (t *Triple) String() string {
	return fmt.Sprintf("%s %s %s .", t.Subject, t.Predicate, t.Object)
}

// Equals reports whether two triples have equal components
func (t *Triple) Equals(other *Triple) bool {
	return other != nil &&
		t.Subject.Equals(other.Subject) &&
		t.Predicate.Equals(other.Predicate) &&
		t.Object.Equals(other.Object)
}

// ToQuad places the triple in the default graph
func (t *Triple) ToQuad() *Quad {
	return NewQuad(t.Subject, t.Predicate, t.Object, NewDefaultGraph())
}

// Quad represents an RDF quad (subject, predicate, object, graph)
type Quad struct {
	Subject   Term
	Predicate Term
	Object    Term
	Graph     Term
}

func NewQuad(subject, predicate, object, graph Term) *Quad {
	if graph == nil {
		graph = NewDefaultGraph()
	}
	return &Quad{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
		Graph:     graph,
	}
}

func (q *Quad) String() string {
	if q.Graph == nil || q.Graph.Type() == TermTypeDefaultGraph {
		return fmt.Sprintf("%s %s %s .", q.Subject, q.Predicate, q.Object)
	}
	return fmt.Sprintf("%s %s %s %s .", q.Subject, q.Predicate, q.Object, q.Graph)
}

// Equals reports whether two quads have equal components
func (q *Quad) Equals(other *Quad) bool {
	return other != nil &&
		q.Subject.Equals(other.Subject) &&
		q.Predicate.Equals(other.Predicate) &&
		q.Object.Equals(other.Object) &&
		q.Graph.Equals(other.Graph)
}

// Common vocabulary
const (
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
)

var (
	RDFType       = NewNamedNode(RDFNamespace + "type")
	RDFFirst      = NewNamedNode(RDFNamespace + "first")
	RDFRest       = NewNamedNode(RDFNamespace + "rest")
	RDFNil        = NewNamedNode(RDFNamespace + "nil")
	RDFLangString = NewNamedNode(RDFNamespace + "langString")

	XSDString  = NewNamedNode(XSDNamespace + "string")
	XSDInteger = NewNamedNode(XSDNamespace + "integer")
	XSDDecimal = NewNamedNode(XSDNamespace + "decimal")
	XSDDouble  = NewNamedNode(XSDNamespace + "double")
	XSDBoolean = NewNamedNode(XSDNamespace + "boolean")
)

func NewIntegerLiteral(value int64) *Literal {
	return NewLiteralWithDatatype(strconv.FormatInt(value, 10), XSDInteger)
}

func NewDecimalLiteral(value float64) *Literal {
	s := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return NewLiteralWithDatatype(s, XSDDecimal)
}

func NewDoubleLiteral(value float64) *Literal {
	return NewLiteralWithDatatype(strconv.FormatFloat(value, 'E', -1, 64), XSDDouble)
}

func NewBooleanLiteral(value bool) *Literal {
	return NewLiteralWithDatatype(strconv.FormatBool(value), XSDBoolean)
}

// DisplayValue returns the text shown for a term in a result table:
// the IRI for named nodes, the lexical form for literals and the label
// for blank nodes. A nil term displays as the empty string.
func DisplayValue(term Term) string {
	switch t := term.(type) {
	case nil:
		return ""
	case *NamedNode:
		return t.IRI
	case *BlankNode:
		return t.ID
	case *Literal:
		return t.Value
	case *DefaultGraph:
		return ""
	default:
		return term.String()
	}
}

// CompareTerms orders terms by type and then by their fields. It returns
// a negative number, zero or a positive number like strings.Compare.
func CompareTerms(a, b Term) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if a.Type() != b.Type() {
		return int(a.Type()) - int(b.Type())
	}
	switch at := a.(type) {
	case *NamedNode:
		return strings.Compare(at.IRI, b.(*NamedNode).IRI)
	case *BlankNode:
		return strings.Compare(at.ID, b.(*BlankNode).ID)
	case *Literal:
		bt := b.(*Literal)
		if c := strings.Compare(at.Value, bt.Value); c != 0 {
			return c
		}
		if c := strings.Compare(at.DatatypeIRI(), bt.DatatypeIRI()); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(at.Language), strings.ToLower(bt.Language))
	}
	return 0
}
