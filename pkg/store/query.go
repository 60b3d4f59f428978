package store

import (
	"fmt"
	"sort"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
)

// Pattern represents a triple or quad pattern with optional variables
type Pattern struct {
	Subject   any // rdf.Term or *Variable
	Predicate any // rdf.Term or *Variable
	Object    any // rdf.Term or *Variable
	Graph     any // rdf.Term or *Variable (nil means the default graph)
}

// Variable represents a SPARQL variable
type Variable struct {
	Name string
}

// NewVariable creates a new variable
func NewVariable(name string) *Variable {
	return &Variable{Name: name}
}

func (v *Variable) String() string {
	return "?" + v.Name
}

// Binding maps variable names to terms
type Binding struct {
	Vars map[string]rdf.Term
}

// NewBinding creates a new empty binding
func NewBinding() *Binding {
	return &Binding{Vars: make(map[string]rdf.Term)}
}

// Clone creates a copy of the binding
func (b *Binding) Clone() *Binding {
	newBinding := &Binding{Vars: make(map[string]rdf.Term, len(b.Vars))}
	for k, v := range b.Vars {
		newBinding.Vars[k] = v
	}
	return newBinding
}

// Get returns the term bound to name
func (b *Binding) Get(name string) (rdf.Term, bool) {
	term, ok := b.Vars[name]
	return term, ok
}

// Len returns the number of bound variables
func (b *Binding) Len() int {
	return len(b.Vars)
}

// Names returns the bound variable names in sorted order
func (b *Binding) Names() []string {
	names := make([]string, 0, len(b.Vars))
	for name := range b.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equals reports whether two bindings bind the same variables to equal terms
func (b *Binding) Equals(other *Binding) bool {
	if len(b.Vars) != len(other.Vars) {
		return false
	}
	for name, term := range b.Vars {
		o, ok := other.Vars[name]
		if !ok || !term.Equals(o) {
			return false
		}
	}
	return true
}

func (b *Binding) String() string {
	s := "{"
	for i, name := range b.Names() {
		if i > 0 {
			s += ", "
		}
		s += "?" + name + "=" + b.Vars[name].String()
	}
	return s + "}"
}

// QuadIterator iterates over quads matching a pattern
type QuadIterator interface {
	Next() bool
	Quad() (*rdf.Quad, error)
	Close() error
}

// BindingIterator iterates over variable bindings
type BindingIterator interface {
	Next() bool
	Binding() *Binding
	Close() error
}

// positions of a quad: S=0, P=1, O=2, G=3
const (
	posSubject = iota
	posPredicate
	posObject
	posGraph
)

// graphMode describes how a pattern constrains the graph
type graphMode int

const (
	graphDefault graphMode = iota // only the default graph
	graphNamed                    // one named graph
	graphAny                      // every graph, including the default one
)

func patternGraphMode(pattern *Pattern) graphMode {
	switch g := pattern.Graph.(type) {
	case nil:
		return graphDefault
	case *Variable:
		return graphAny
	case rdf.Term:
		if g.Type() == rdf.TermTypeDefaultGraph {
			return graphDefault
		}
		return graphNamed
	}
	return graphAny
}

// Query returns the quads matching pattern. The iterator reads from a
// snapshot taken when Query is called and must be closed.
func (s *TripleStore) Query(pattern *Pattern) (QuadIterator, error) {
	if err := checkPattern(pattern); err != nil {
		return nil, err
	}

	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}

	// Select the best index based on bound positions
	table, keyPattern := s.selectIndex(pattern)

	// Build the prefix for scanning
	prefix, err := s.buildScanPrefix(pattern, keyPattern)
	if err != nil {
		_ = txn.Rollback() // #nosec G104 - rollback error less important than original error
		return nil, err
	}

	it, err := txn.Scan(table, prefix, nil)
	if err != nil {
		_ = txn.Rollback() // #nosec G104 - rollback error less important than original error
		return nil, err
	}

	return &quadIterator{
		store:      s,
		txn:        txn,
		it:         it,
		pattern:    pattern,
		keyPattern: keyPattern,
		cache:      make(map[EncodedTerm]rdf.Term),
	}, nil
}

// Match is Query under the name the pattern matcher uses
func (s *TripleStore) Match(pattern *Pattern) (QuadIterator, error) {
	return s.Query(pattern)
}

func checkPattern(pattern *Pattern) error {
	if pattern == nil {
		return fmt.Errorf("nil pattern")
	}
	for i, v := range []any{pattern.Subject, pattern.Predicate, pattern.Object} {
		switch v.(type) {
		case *Variable, rdf.Term:
		default:
			return fmt.Errorf("pattern position %d must be a term or variable, got %T", i, v)
		}
	}
	return nil
}

// selectIndex chooses the index whose key order puts the bound positions first
func (s *TripleStore) selectIndex(pattern *Pattern) (Table, []int) {
	sBound := !isVariable(pattern.Subject)
	pBound := !isVariable(pattern.Predicate)
	oBound := !isVariable(pattern.Object)

	// KeyPattern maps: key_position -> SPOG_position (S=0, P=1, O=2, G=3)
	var order []int
	switch {
	case sBound && pBound, sBound && !oBound:
		order = []int{posSubject, posPredicate, posObject}
	case pBound:
		order = []int{posPredicate, posObject, posSubject}
	case oBound:
		order = []int{posObject, posSubject, posPredicate}
	default:
		order = []int{posSubject, posPredicate, posObject}
	}

	switch patternGraphMode(pattern) {
	case graphNamed:
		keyPattern := append([]int{posGraph}, order...)
		switch order[0] {
		case posPredicate:
			return TableGPOS, keyPattern
		case posObject:
			return TableGOSP, keyPattern
		default:
			return TableGSPO, keyPattern
		}
	case graphAny:
		keyPattern := append(append([]int{}, order...), posGraph)
		switch order[0] {
		case posPredicate:
			return TablePOSG, keyPattern
		case posObject:
			return TableOSPG, keyPattern
		default:
			return TableSPOG, keyPattern
		}
	default:
		switch order[0] {
		case posPredicate:
			return TablePOS, order
		case posObject:
			return TableOSP, order
		default:
			return TableSPO, order
		}
	}
}

// positionsOf returns the pattern components in S, P, O, G order
func positionsOf(pattern *Pattern) [4]any {
	graph := pattern.Graph
	if graph == nil {
		graph = rdf.NewDefaultGraph()
	}
	return [4]any{pattern.Subject, pattern.Predicate, pattern.Object, graph}
}

// buildScanPrefix encodes the bound terms in key order, stopping at the first variable
func (s *TripleStore) buildScanPrefix(pattern *Pattern, keyPattern []int) ([]byte, error) {
	positions := positionsOf(pattern)

	var prefix []byte
	for _, idx := range keyPattern {
		term := positions[idx]
		if isVariable(term) {
			break
		}

		encoded, _, err := s.encoder.EncodeTerm(term.(rdf.Term))
		if err != nil {
			return nil, err
		}

		prefix = append(prefix, encoded[:]...)
	}

	return prefix, nil
}

// isVariable checks if a value is a variable
func isVariable(v any) bool {
	_, ok := v.(*Variable)
	return ok
}

// quadIterator implements QuadIterator
type quadIterator struct {
	store      *TripleStore
	txn        Transaction
	it         Iterator
	pattern    *Pattern
	keyPattern []int
	cache      map[EncodedTerm]rdf.Term
	current    *rdf.Quad
	err        error
	closed     bool
}

// Next advances to the next quad that satisfies every bound position
func (qi *quadIterator) Next() bool {
	if qi.closed || qi.err != nil {
		return false
	}
	for qi.it.Next() {
		quad, err := qi.decodeCurrent()
		if err != nil {
			qi.err = err
			qi.current = nil
			// Surface the error through Quad
			return true
		}
		if qi.matches(quad) {
			qi.current = quad
			return true
		}
	}
	qi.current = nil
	return false
}

func (qi *quadIterator) Quad() (*rdf.Quad, error) {
	if qi.closed {
		return nil, fmt.Errorf("iterator closed")
	}
	if qi.err != nil {
		return nil, qi.err
	}
	if qi.current == nil {
		return nil, fmt.Errorf("no current quad")
	}
	return qi.current, nil
}

// matches checks the bound positions the key prefix did not cover
func (qi *quadIterator) matches(quad *rdf.Quad) bool {
	positions := positionsOf(qi.pattern)
	actual := [4]rdf.Term{quad.Subject, quad.Predicate, quad.Object, quad.Graph}
	for i, want := range positions {
		if i == posGraph && patternGraphMode(qi.pattern) == graphAny {
			continue
		}
		if term, ok := want.(rdf.Term); ok && !term.Equals(actual[i]) {
			return false
		}
	}
	return true
}

func (qi *quadIterator) decodeCurrent() (*rdf.Quad, error) {
	key := qi.it.Key()
	if len(key) < len(qi.keyPattern)*EncodedTermSize {
		return nil, fmt.Errorf("invalid key length: %d", len(key))
	}

	var decoded [4]rdf.Term
	decoded[posGraph] = rdf.NewDefaultGraph()
	for i, idx := range qi.keyPattern {
		var encoded EncodedTerm
		copy(encoded[:], key[i*EncodedTermSize:(i+1)*EncodedTermSize])
		term, err := qi.decodeTerm(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode quad position %d: %w", idx, err)
		}
		decoded[idx] = term
	}

	return rdf.NewQuad(decoded[posSubject], decoded[posPredicate], decoded[posObject], decoded[posGraph]), nil
}

func (qi *quadIterator) decodeTerm(encoded EncodedTerm) (rdf.Term, error) {
	if term, ok := qi.cache[encoded]; ok {
		return term, nil
	}
	term, err := qi.store.decodeTerm(qi.txn, encoded)
	if err != nil {
		return nil, err
	}
	qi.cache[encoded] = term
	return term, nil
}

func (qi *quadIterator) Close() error {
	if qi.closed {
		return nil
	}
	qi.closed = true
	_ = qi.it.Close() // #nosec G104 - iterator close error less critical than transaction rollback error
	return qi.txn.Rollback()
}

// decodeTerm decodes an encoded term back to an rdf.Term
func (s *TripleStore) decodeTerm(txn Transaction, encoded EncodedTerm) (rdf.Term, error) {
	var stringValue *string
	if s.decoder.NeedsLookup(encoded) {
		str, err := txn.Get(TableID2Str, encoded[1:])
		if err != nil {
			return nil, fmt.Errorf("id2str lookup: %w", err)
		}
		strVal := string(str)
		stringValue = &strVal
	}

	return s.decoder.DecodeTerm(encoded, stringValue)
}
