package optimizer

import (
	"fmt"
	"math"
	"net/url"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
	"github.com/sparqlpad/sparqlpad/pkg/sparql/parser"
)

// UndefinedPrefixError is returned when a prefixed name uses a prefix that
// was never declared
type UndefinedPrefixError struct {
	Prefix string
}

func (e *UndefinedPrefixError) Error() string {
	return fmt.Sprintf("undefined prefix: '%s'", e.Prefix)
}

// UnboundVariableError reports a projected variable that no pattern binds.
// It is a warning unless Options.StrictProjection is set.
type UnboundVariableError struct {
	Variable string
}

func (e *UnboundVariableError) Error() string {
	return fmt.Sprintf("projected variable ?%s does not appear in any pattern", e.Variable)
}

// Statistics provides cardinality estimates. *store.TripleStore satisfies it.
type Statistics interface {
	PredicateCount(predicate rdf.Term) (int64, error)
}

// Options controls plan construction
type Options struct {
	// Reorder joins inside each basic graph pattern by estimated selectivity
	Reorder bool
	// StrictProjection turns UnboundVariableError into a planning failure
	StrictProjection bool
}

// Optimizer turns parsed queries into execution plans
type Optimizer struct {
	stats Statistics
	opts  Options
}

// NewOptimizer creates a new query optimizer. stats may be nil.
func NewOptimizer(stats Statistics, opts Options) *Optimizer {
	return &Optimizer{
		stats: stats,
		opts:  opts,
	}
}

// OptimizedQuery represents an optimized query with execution plan
type OptimizedQuery struct {
	Original  *parser.Query
	Plan      QueryPlan
	Variables []string // Result columns in order
	Warnings  []error
}

// Optimize resolves prefixed names and relative IRIs and builds the plan
func (o *Optimizer) Optimize(query *parser.Query) (*OptimizedQuery, error) {
	if query == nil || query.Select == nil {
		return nil, fmt.Errorf("no SELECT query to optimize")
	}

	r, err := newResolver(query)
	if err != nil {
		return nil, err
	}

	where, err := r.resolveGroup(query.Select.Where)
	if err != nil {
		return nil, err
	}

	optimized := &OptimizedQuery{Original: query}

	inScope := make(map[string]bool)
	var visible []string
	collectVariables(where, inScope, &visible)

	if query.Select.Variables == nil {
		optimized.Variables = visible
	} else {
		for _, v := range query.Select.Variables {
			optimized.Variables = append(optimized.Variables, v.Name)
			if !inScope[v.Name] {
				warning := &UnboundVariableError{Variable: v.Name}
				if o.opts.StrictProjection {
					return nil, warning
				}
				optimized.Warnings = append(optimized.Warnings, warning)
			}
		}
	}

	plan, err := o.optimizeGroup(where, map[string]bool{})
	if err != nil {
		return nil, err
	}

	// Projection drops hidden variables even for SELECT *
	plan = &ProjectionPlan{Input: plan, Variables: optimized.Variables}

	if query.Select.Distinct {
		plan = &DistinctPlan{Input: plan}
	}

	if query.Select.Offset != nil && *query.Select.Offset > 0 {
		plan = &OffsetPlan{Input: plan, Offset: *query.Select.Offset}
	}

	if query.Select.Limit != nil {
		plan = &LimitPlan{Input: plan, Limit: *query.Select.Limit}
	}

	optimized.Plan = plan
	return optimized, nil
}

// optimizeGroup folds the group's elements left to right: runs of triple
// patterns become joins, each OPTIONAL becomes a left join against
// everything before it. bound holds the variables earlier stages bind.
func (o *Optimizer) optimizeGroup(group *parser.GraphPattern, bound map[string]bool) (QueryPlan, error) {
	var plan QueryPlan
	var run []*parser.TriplePattern

	flush := func() {
		if len(run) == 0 {
			return
		}
		if o.opts.Reorder {
			run = o.reorderBySelectivity(run, bound)
		}
		for _, pattern := range run {
			plan = joinWith(plan, &ScanPlan{Pattern: pattern})
			for _, v := range pattern.Variables() {
				bound[v.Name] = true
			}
		}
		run = nil
	}

	for _, el := range group.Elements {
		if el.Triple != nil {
			run = append(run, el.Triple)
			continue
		}

		flush()
		if plan == nil {
			plan = &EmptyPlan{}
		}

		right, err := o.optimizeGroup(el.Optional, copyBound(bound))
		if err != nil {
			return nil, err
		}
		plan = &OptionalPlan{Left: plan, Right: right}

		// Variables of an OPTIONAL may stay unbound, so they do not count
		// as bound for reordering later patterns
	}
	flush()

	if plan == nil {
		plan = &EmptyPlan{}
	}
	return plan, nil
}

func joinWith(left, right QueryPlan) QueryPlan {
	if left == nil {
		return right
	}
	return &JoinPlan{Left: left, Right: right}
}

func copyBound(bound map[string]bool) map[string]bool {
	out := make(map[string]bool, len(bound))
	for k, v := range bound {
		out[k] = v
	}
	return out
}

// reorderBySelectivity orders patterns greedily. At each step it prefers a
// pattern sharing an already bound variable, then the one with the most
// bound positions, then the one with the rarest predicate. Ties keep
// declaration order.
func (o *Optimizer) reorderBySelectivity(patterns []*parser.TriplePattern, bound map[string]bool) []*parser.TriplePattern {
	remaining := make([]*parser.TriplePattern, len(patterns))
	copy(remaining, patterns)

	known := copyBound(bound)
	counts := make(map[*parser.TriplePattern]int64, len(patterns))
	for _, p := range patterns {
		counts[p] = o.predicateCardinality(p)
	}

	ordered := make([]*parser.TriplePattern, 0, len(patterns))
	for len(remaining) > 0 {
		best := 0
		for i := 1; i < len(remaining); i++ {
			if o.better(remaining[i], remaining[best], known, counts) {
				best = i
			}
		}

		chosen := remaining[best]
		ordered = append(ordered, chosen)
		remaining = append(remaining[:best], remaining[best+1:]...)
		for _, v := range chosen.Variables() {
			known[v.Name] = true
		}
	}

	return ordered
}

func (o *Optimizer) better(a, b *parser.TriplePattern, known map[string]bool, counts map[*parser.TriplePattern]int64) bool {
	aConnected, aBound := boundPositions(a, known)
	bConnected, bBound := boundPositions(b, known)

	if aConnected != bConnected {
		return aConnected
	}
	if aBound != bBound {
		return aBound > bBound
	}
	return counts[a] < counts[b]
}

// boundPositions counts positions that are constants or already bound
// variables, and reports whether any bound variable is shared
func boundPositions(pattern *parser.TriplePattern, known map[string]bool) (bool, int) {
	connected := false
	n := 0
	for _, tov := range []parser.TermOrVariable{pattern.Subject, pattern.Predicate, pattern.Object} {
		switch {
		case !tov.IsVariable():
			n++
		case known[tov.Variable.Name]:
			connected = true
			n++
		}
	}
	return connected, n
}

func (o *Optimizer) predicateCardinality(pattern *parser.TriplePattern) int64 {
	if o.stats == nil || pattern.Predicate.IsVariable() {
		return math.MaxInt64
	}
	count, err := o.stats.PredicateCount(pattern.Predicate.Term)
	if err != nil {
		return math.MaxInt64
	}
	return count
}

// collectVariables records variables in first-appearance order. Hidden
// variables are in scope but never visible.
func collectVariables(group *parser.GraphPattern, inScope map[string]bool, visible *[]string) {
	for _, el := range group.Elements {
		if el.Optional != nil {
			collectVariables(el.Optional, inScope, visible)
			continue
		}
		for _, v := range el.Triple.Variables() {
			if inScope[v.Name] {
				continue
			}
			inScope[v.Name] = true
			if !v.Hidden {
				*visible = append(*visible, v.Name)
			}
		}
	}
}

// resolver expands prefixed names and relative IRIs
type resolver struct {
	base     *url.URL
	prefixes map[string]string
}

func newResolver(query *parser.Query) (*resolver, error) {
	r := &resolver{prefixes: make(map[string]string, len(query.Prefixes))}

	if query.Base != "" {
		base, err := url.Parse(query.Base)
		if err != nil {
			return nil, fmt.Errorf("invalid BASE <%s>: %w", query.Base, err)
		}
		r.base = base
	}

	for _, decl := range query.Prefixes {
		iri, err := r.resolveIRI(decl.IRI)
		if err != nil {
			return nil, err
		}
		r.prefixes[decl.Prefix] = iri
	}

	return r, nil
}

func (r *resolver) resolveIRI(iri string) (string, error) {
	if r.base == nil {
		return iri, nil
	}
	ref, err := url.Parse(iri)
	if err != nil {
		return "", fmt.Errorf("invalid IRI <%s>: %w", iri, err)
	}
	if ref.IsAbs() {
		return iri, nil
	}
	return r.base.ResolveReference(ref).String(), nil
}

func (r *resolver) expand(name *parser.PrefixedName) (*rdf.NamedNode, error) {
	ns, ok := r.prefixes[name.Prefix]
	if !ok {
		return nil, &UndefinedPrefixError{Prefix: name.Prefix}
	}
	return rdf.NewNamedNode(ns + name.Local), nil
}

// resolveGroup returns a copy of group with every term resolved
func (r *resolver) resolveGroup(group *parser.GraphPattern) (*parser.GraphPattern, error) {
	out := &parser.GraphPattern{Type: group.Type, Elements: make([]parser.PatternElement, 0, len(group.Elements))}

	for _, el := range group.Elements {
		if el.Optional != nil {
			optional, err := r.resolveGroup(el.Optional)
			if err != nil {
				return nil, err
			}
			out.Elements = append(out.Elements, parser.PatternElement{Optional: optional})
			continue
		}

		triple := &parser.TriplePattern{}
		targets := []*parser.TermOrVariable{&triple.Subject, &triple.Predicate, &triple.Object}
		for i, tov := range []parser.TermOrVariable{el.Triple.Subject, el.Triple.Predicate, el.Triple.Object} {
			resolved, err := r.resolveTerm(tov)
			if err != nil {
				return nil, err
			}
			*targets[i] = resolved
		}
		out.Elements = append(out.Elements, parser.PatternElement{Triple: triple})
	}

	return out, nil
}

func (r *resolver) resolveTerm(tov parser.TermOrVariable) (parser.TermOrVariable, error) {
	if tov.IsVariable() {
		return tov, nil
	}

	if tov.IsPrefixed() {
		node, err := r.expand(tov.Prefixed)
		if err != nil {
			return tov, err
		}
		return parser.TermOrVariable{Term: node}, nil
	}

	switch term := tov.Term.(type) {
	case *rdf.NamedNode:
		iri, err := r.resolveIRI(term.IRI)
		if err != nil {
			return tov, err
		}
		return parser.TermOrVariable{Term: rdf.NewNamedNode(iri)}, nil
	case *rdf.Literal:
		if tov.DatatypePrefixed != nil {
			datatype, err := r.expand(tov.DatatypePrefixed)
			if err != nil {
				return tov, err
			}
			return parser.TermOrVariable{Term: rdf.NewLiteralWithDatatype(term.Value, datatype)}, nil
		}
		if term.Datatype != nil && term.Language == "" && !term.IsPlain() {
			iri, err := r.resolveIRI(term.Datatype.IRI)
			if err != nil {
				return tov, err
			}
			return parser.TermOrVariable{Term: rdf.NewLiteralWithDatatype(term.Value, rdf.NewNamedNode(iri))}, nil
		}
	}

	return tov, nil
}
