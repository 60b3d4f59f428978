package parser

import (
	"fmt"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
)

// Query represents a parsed SPARQL SELECT query. Prefixed names are kept
// unresolved; the optimizer expands them against Prefixes.
type Query struct {
	Base     string        // Last BASE declaration, empty if none
	Prefixes []*PrefixDecl // PREFIX declarations in source order
	Select   *SelectQuery
}

// PrefixDecl is one PREFIX declaration
type PrefixDecl struct {
	Prefix string
	IRI    string
}

// SelectQuery represents a SELECT query
type SelectQuery struct {
	Variables []*Variable   // Variables to select (nil for *)
	Distinct  bool          // DISTINCT modifier
	Reduced   bool          // REDUCED modifier
	Where     *GraphPattern // WHERE clause
	Limit     *int          // LIMIT clause
	Offset    *int          // OFFSET clause
}

// GraphPattern represents a group graph pattern
type GraphPattern struct {
	Type     GraphPatternType
	Elements []PatternElement // Triples and OPTIONAL groups in source order
}

// GraphPatternType represents the type of graph pattern
type GraphPatternType int

const (
	GraphPatternTypeBasic GraphPatternType = iota
	GraphPatternTypeOptional
)

// PatternElement is either a triple pattern or an OPTIONAL group
type PatternElement struct {
	Triple   *TriplePattern
	Optional *GraphPattern
}

// Patterns returns the triple patterns that belong directly to the group
func (g *GraphPattern) Patterns() []*TriplePattern {
	var patterns []*TriplePattern
	for _, el := range g.Elements {
		if el.Triple != nil {
			patterns = append(patterns, el.Triple)
		}
	}
	return patterns
}

// Optionals returns the OPTIONAL groups nested directly in the group
func (g *GraphPattern) Optionals() []*GraphPattern {
	var optionals []*GraphPattern
	for _, el := range g.Elements {
		if el.Optional != nil {
			optionals = append(optionals, el.Optional)
		}
	}
	return optionals
}

// TriplePattern represents a triple pattern with possible variables
type TriplePattern struct {
	Subject   TermOrVariable
	Predicate TermOrVariable
	Object    TermOrVariable
}

func (t *TriplePattern) String() string {
	return t.Subject.String() + " " + t.Predicate.String() + " " + t.Object.String()
}

// Variables returns the variables of the pattern in S, P, O order
func (t *TriplePattern) Variables() []*Variable {
	var vars []*Variable
	for _, tov := range []TermOrVariable{t.Subject, t.Predicate, t.Object} {
		if tov.IsVariable() {
			vars = append(vars, tov.Variable)
		}
	}
	return vars
}

// TermOrVariable can be an RDF term, a variable, or a prefixed name that
// has not been resolved yet
type TermOrVariable struct {
	Term     rdf.Term
	Variable *Variable
	Prefixed *PrefixedName

	// DatatypePrefixed is set when Term is a literal whose datatype was
	// written as a prefixed name
	DatatypePrefixed *PrefixedName
}

// IsVariable returns true if this is a variable
func (t *TermOrVariable) IsVariable() bool {
	return t.Variable != nil
}

// IsPrefixed returns true if this is an unresolved prefixed name
func (t *TermOrVariable) IsPrefixed() bool {
	return t.Prefixed != nil
}

func (t TermOrVariable) String() string {
	switch {
	case t.Variable != nil:
		return t.Variable.String()
	case t.Prefixed != nil:
		return t.Prefixed.String()
	case t.DatatypePrefixed != nil:
		if lit, ok := t.Term.(*rdf.Literal); ok {
			return fmt.Sprintf("%q^^%s", lit.Value, t.DatatypePrefixed)
		}
	}
	if t.Term == nil {
		return "<nil>"
	}
	return t.Term.String()
}

// Variable represents a SPARQL variable. Hidden variables come from blank
// nodes and desugared paths; they join like any other variable but are
// never part of SELECT *.
type Variable struct {
	Name   string
	Hidden bool
}

func (v *Variable) String() string {
	if v.Hidden {
		return v.Name
	}
	return "?" + v.Name
}

// PrefixedName is a name written as prefix:local
type PrefixedName struct {
	Prefix string
	Local  string
}

func (n *PrefixedName) String() string {
	return n.Prefix + ":" + n.Local
}
