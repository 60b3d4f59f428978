package rdf

import (
	"testing"
)

func TestNamedNode_String(t *testing.T) {
	node := NewNamedNode("http://example.org/resource")
	expected := "<http://example.org/resource>"
	if node.String() != expected {
		t.Errorf("Expected %s, got %s", expected, node.String())
	}
}

func TestNamedNode_Equals(t *testing.T) {
	node1 := NewNamedNode("http://example.org/resource")
	node2 := NewNamedNode("http://example.org/resource")
	node3 := NewNamedNode("http://example.org/different")

	if !node1.Equals(node2) {
		t.Error("Expected equal NamedNodes to be equal")
	}
	if node1.Equals(node3) {
		t.Error("Expected different NamedNodes to not be equal")
	}
	if node1.Equals(NewLiteral("http://example.org/resource")) {
		t.Error("NamedNode should not equal Literal")
	}
}

func TestBlankNode_Equals(t *testing.T) {
	node1 := NewBlankNode("b1")
	node2 := NewBlankNode("b1")
	node3 := NewBlankNode("b2")

	if node1.String() != "_:b1" {
		t.Errorf("Expected _:b1, got %s", node1.String())
	}
	if !node1.Equals(node2) {
		t.Error("Expected equal BlankNodes to be equal")
	}
	if node1.Equals(node3) {
		t.Error("Expected different BlankNodes to not be equal")
	}
	if node1.Equals(NewNamedNode("b1")) {
		t.Error("BlankNode should not equal NamedNode")
	}
}

func TestLiteral_String(t *testing.T) {
	tests := []struct {
		name     string
		literal  *Literal
		expected string
	}{
		{"plain", NewLiteral("hello"), `"hello"`},
		{"explicit xsd:string", NewLiteralWithDatatype("hello", XSDString), `"hello"`},
		{"language", NewLiteralWithLanguage("hello", "EN"), `"hello"@en`},
		{"typed", NewIntegerLiteral(42), `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`},
		{"escaped", NewLiteral("say \"hi\"\n"), `"say \"hi\"\n"`},
		{"struct literal", &Literal{Value: "x"}, `"x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.literal.String(); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestLiteral_Equals(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Term
		equal bool
	}{
		{"same plain", NewLiteral("a"), NewLiteral("a"), true},
		{"plain vs xsd:string", NewLiteral("a"), NewLiteralWithDatatype("a", XSDString), true},
		{"plain vs nil datatype", NewLiteral("a"), &Literal{Value: "a"}, true},
		{"different value", NewLiteral("a"), NewLiteral("b"), false},
		{"language vs plain", NewLiteralWithLanguage("a", "en"), NewLiteral("a"), false},
		{"language case", NewLiteralWithLanguage("a", "en"), &Literal{Value: "a", Language: "EN"}, true},
		{"different language", NewLiteralWithLanguage("a", "en"), NewLiteralWithLanguage("a", "de"), false},
		{"typed vs plain", NewLiteralWithDatatype("1", XSDInteger), NewLiteral("1"), false},
		{"same typed", NewIntegerLiteral(1), NewLiteralWithDatatype("1", XSDInteger), true},
		{"lexical forms differ", NewLiteralWithDatatype("01", XSDInteger), NewIntegerLiteral(1), false},
		{"literal vs IRI", NewLiteral("a"), NewNamedNode("a"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equals(tt.b); got != tt.equal {
				t.Errorf("Equals(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.equal)
			}
			if got := tt.b.Equals(tt.a); got != tt.equal {
				t.Errorf("Equals is not symmetric for %s and %s", tt.a, tt.b)
			}
		})
	}
}

func TestLiteral_DatatypeIRI(t *testing.T) {
	if got := NewLiteralWithLanguage("a", "en").DatatypeIRI(); got != RDFLangString.IRI {
		t.Errorf("Expected rdf:langString, got %s", got)
	}
	if got := (&Literal{Value: "a"}).DatatypeIRI(); got != XSDString.IRI {
		t.Errorf("Expected xsd:string, got %s", got)
	}
	if !NewLiteral("a").IsPlain() {
		t.Error("Expected plain literal")
	}
	if NewBooleanLiteral(true).IsPlain() {
		t.Error("Expected typed literal not to be plain")
	}
}

func TestDefaultGraph_Equals(t *testing.T) {
	if !NewDefaultGraph().Equals(NewDefaultGraph()) {
		t.Error("Expected default graphs to be equal")
	}
	if NewDefaultGraph().Equals(NewNamedNode("http://example.org/g")) {
		t.Error("DefaultGraph should not equal NamedNode")
	}
}

func TestTriple_String(t *testing.T) {
	triple := NewTriple(
		NewNamedNode("http://example.org/s"),
		NewNamedNode("http://example.org/p"),
		NewLiteral("o"),
	)
	expected := `<http://example.org/s> <http://example.org/p> "o" .`
	if triple.String() != expected {
		t.Errorf("Expected %s, got %s", expected, triple.String())
	}
}

func TestQuad_DefaultGraph(t *testing.T) {
	quad := NewQuad(NewNamedNode("s"), NewNamedNode("p"), NewNamedNode("o"), nil)
	if quad.Graph.Type() != TermTypeDefaultGraph {
		t.Errorf("Expected nil graph to become the default graph, got %v", quad.Graph)
	}

	triple := NewTriple(NewNamedNode("s"), NewNamedNode("p"), NewNamedNode("o"))
	if !triple.ToQuad().Equals(quad) {
		t.Error("Expected ToQuad to match the default-graph quad")
	}

	named := NewQuad(NewNamedNode("s"), NewNamedNode("p"), NewNamedNode("o"), NewNamedNode("g"))
	if named.Equals(quad) {
		t.Error("Expected quads in different graphs to differ")
	}
}

func TestTypedLiteralConstructors(t *testing.T) {
	tests := []struct {
		literal  *Literal
		value    string
		datatype *NamedNode
	}{
		{NewIntegerLiteral(-7), "-7", XSDInteger},
		{NewDecimalLiteral(2), "2.0", XSDDecimal},
		{NewDecimalLiteral(1.25), "1.25", XSDDecimal},
		{NewDoubleLiteral(1500), "1.5E+03", XSDDouble},
		{NewBooleanLiteral(false), "false", XSDBoolean},
	}

	for _, tt := range tests {
		if tt.literal.Value != tt.value {
			t.Errorf("Expected value %s, got %s", tt.value, tt.literal.Value)
		}
		if !tt.literal.Datatype.Equals(tt.datatype) {
			t.Errorf("Expected datatype %s, got %s", tt.datatype, tt.literal.Datatype)
		}
	}
}

func TestDisplayValue(t *testing.T) {
	tests := []struct {
		term     Term
		expected string
	}{
		{NewNamedNode("http://example.com/pddl_ont/Function"), "http://example.com/pddl_ont/Function"},
		{NewLiteralWithLanguage("rover", "en"), "rover"},
		{NewIntegerLiteral(3), "3"},
		{NewBlankNode("b0"), "b0"},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := DisplayValue(tt.term); got != tt.expected {
			t.Errorf("DisplayValue(%v) = %q, want %q", tt.term, got, tt.expected)
		}
	}
}

func TestCompareTerms(t *testing.T) {
	ordered := []Term{
		NewNamedNode("http://a"),
		NewNamedNode("http://b"),
		NewBlankNode("x"),
		NewLiteralWithLanguage("a", "en"),
		NewLiteral("a"),
		NewLiteral("b"),
	}

	for i := 0; i < len(ordered)-1; i++ {
		if CompareTerms(ordered[i], ordered[i+1]) >= 0 {
			t.Errorf("Expected %s < %s", ordered[i], ordered[i+1])
		}
		if CompareTerms(ordered[i+1], ordered[i]) <= 0 {
			t.Errorf("Expected %s > %s", ordered[i+1], ordered[i])
		}
	}
	if CompareTerms(NewLiteral("a"), &Literal{Value: "a"}) != 0 {
		t.Error("Expected equal literals to compare as 0")
	}
	if CompareTerms(nil, NewNamedNode("x")) >= 0 {
		t.Error("Expected nil to sort first")
	}
}

func TestSerializeNTriples(t *testing.T) {
	triples := []*Triple{
		NewTriple(NewNamedNode("http://example.org/s"), NewNamedNode("http://example.org/p"), NewLiteral("line\tbreak\n")),
		NewTriple(NewBlankNode("b1"), RDFType, NewNamedNode("http://example.org/C")),
	}
	expected := "<http://example.org/s> <http://example.org/p> \"line\\tbreak\\n\" .\n" +
		"_:b1 <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/C> .\n"

	if got := SerializeNTriples(triples); got != expected {
		t.Errorf("Expected:\n%s\nGot:\n%s", expected, got)
	}
}
