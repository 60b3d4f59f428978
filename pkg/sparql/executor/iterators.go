package executor

import (
	"context"
	"strings"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
	"github.com/sparqlpad/sparqlpad/pkg/store"
)

// iterator is a store.BindingIterator that also reports why it stopped
type iterator interface {
	store.BindingIterator
	Err() error
}

// iteratorFactory builds the right side of a join for one left binding
type iteratorFactory func(seed *store.Binding) (iterator, error)

// singletonIterator yields one binding
type singletonIterator struct {
	binding *store.Binding
	done    bool
}

func (it *singletonIterator) Next() bool {
	if it.done {
		return false
	}
	it.done = true
	return true
}

func (it *singletonIterator) Binding() *store.Binding { return it.binding }
func (it *singletonIterator) Err() error              { return nil }
func (it *singletonIterator) Close() error            { return nil }

// scanIterator matches one pattern against the store. Variables bound in
// seed are substituted before the lookup; every match extends seed.
type scanIterator struct {
	ctx      context.Context
	store    *store.TripleStore
	pattern  *store.Pattern
	seed     *store.Binding
	quadIter store.QuadIterator
	binding  *store.Binding
	err      error
	done     bool
}

func newScanIterator(ctx context.Context, s *store.TripleStore, pattern *store.Pattern, seed *store.Binding) *scanIterator {
	return &scanIterator{
		ctx:     ctx,
		store:   s,
		pattern: substitute(pattern, seed),
		seed:    seed,
	}
}

func (it *scanIterator) Next() bool {
	if it.done {
		return false
	}

	if it.quadIter == nil {
		quadIter, err := it.store.Query(it.pattern)
		if err != nil {
			return it.fail(err)
		}
		it.quadIter = quadIter
	}

	for it.quadIter.Next() {
		if err := it.ctx.Err(); err != nil {
			return it.fail(err)
		}

		quad, err := it.quadIter.Quad()
		if err != nil {
			return it.fail(err)
		}

		if binding := unify(it.seed, it.pattern, quad); binding != nil {
			it.binding = binding
			return true
		}
	}

	it.done = true
	return false
}

func (it *scanIterator) fail(err error) bool {
	it.err = wrapExecution("scan", err)
	it.done = true
	return false
}

func (it *scanIterator) Binding() *store.Binding { return it.binding }
func (it *scanIterator) Err() error              { return it.err }

func (it *scanIterator) Close() error {
	it.done = true
	if it.quadIter == nil {
		return nil
	}
	err := it.quadIter.Close()
	it.quadIter = nil
	return err
}

// substitute replaces variables bound in seed with their terms
func substitute(pattern *store.Pattern, seed *store.Binding) *store.Pattern {
	resolve := func(v any) any {
		if variable, ok := v.(*store.Variable); ok {
			if term, bound := seed.Vars[variable.Name]; bound {
				return term
			}
		}
		return v
	}

	return &store.Pattern{
		Subject:   resolve(pattern.Subject),
		Predicate: resolve(pattern.Predicate),
		Object:    resolve(pattern.Object),
		Graph:     resolve(pattern.Graph),
	}
}

// unify extends seed with the quad's terms for the pattern's free
// variables. It returns nil when a variable repeated in the pattern would
// be bound to two different terms.
func unify(seed *store.Binding, pattern *store.Pattern, quad *rdf.Quad) *store.Binding {
	binding := seed.Clone()

	positions := [4]any{pattern.Subject, pattern.Predicate, pattern.Object, pattern.Graph}
	terms := [4]rdf.Term{quad.Subject, quad.Predicate, quad.Object, quad.Graph}

	for i, pos := range positions {
		variable, ok := pos.(*store.Variable)
		if !ok {
			continue
		}
		if existing, bound := binding.Vars[variable.Name]; bound {
			if !existing.Equals(terms[i]) {
				return nil
			}
			continue
		}
		binding.Vars[variable.Name] = terms[i]
	}

	return binding
}

// nestedLoopJoinIterator implements nested loop join
type nestedLoopJoinIterator struct {
	left         iterator
	right        iteratorFactory
	currentRight iterator
	result       *store.Binding
	err          error
}

func (it *nestedLoopJoinIterator) Next() bool {
	if it.err != nil {
		return false
	}

	for {
		// If we have a right iterator, try to get next from it
		if it.currentRight != nil {
			if it.currentRight.Next() {
				// Right bindings already extend the left one
				it.result = it.currentRight.Binding()
				return true
			}
			if err := it.currentRight.Err(); err != nil {
				it.err = err
				return false
			}
			_ = it.currentRight.Close() // #nosec G104 - close error doesn't affect iteration logic
			it.currentRight = nil
		}

		// Get next from left
		if !it.left.Next() {
			it.err = it.left.Err()
			return false
		}

		right, err := it.right(it.left.Binding())
		if err != nil {
			it.err = err
			return false
		}
		it.currentRight = right
	}
}

func (it *nestedLoopJoinIterator) Binding() *store.Binding { return it.result }
func (it *nestedLoopJoinIterator) Err() error              { return it.err }

func (it *nestedLoopJoinIterator) Close() error {
	if it.currentRight != nil {
		_ = it.currentRight.Close() // #nosec G104 - right close error less critical than left close error
		it.currentRight = nil
	}
	return it.left.Close()
}

// optionalIterator implements OPTIONAL as a left outer join. A left binding
// with no extension on the right is emitted unchanged.
type optionalIterator struct {
	left         iterator
	right        iteratorFactory
	currentLeft  *store.Binding
	currentRight iterator
	matched      bool
	result       *store.Binding
	err          error
}

func (it *optionalIterator) Next() bool {
	if it.err != nil {
		return false
	}

	for {
		if it.currentRight != nil {
			if it.currentRight.Next() {
				it.matched = true
				it.result = it.currentRight.Binding()
				return true
			}
			if err := it.currentRight.Err(); err != nil {
				it.err = err
				return false
			}
			_ = it.currentRight.Close() // #nosec G104 - close error doesn't affect iteration logic
			it.currentRight = nil

			if !it.matched {
				it.result = it.currentLeft
				return true
			}
		}

		if !it.left.Next() {
			it.err = it.left.Err()
			return false
		}

		it.currentLeft = it.left.Binding()
		it.matched = false
		right, err := it.right(it.currentLeft)
		if err != nil {
			it.err = err
			return false
		}
		it.currentRight = right
	}
}

func (it *optionalIterator) Binding() *store.Binding { return it.result }
func (it *optionalIterator) Err() error              { return it.err }

func (it *optionalIterator) Close() error {
	if it.currentRight != nil {
		_ = it.currentRight.Close() // #nosec G104 - right close error less critical than left close error
		it.currentRight = nil
	}
	return it.left.Close()
}

// projectionIterator implements projection operations
type projectionIterator struct {
	input     iterator
	variables []string
	binding   *store.Binding
}

func (it *projectionIterator) Next() bool {
	if !it.input.Next() {
		return false
	}

	// Project only selected variables
	it.binding = store.NewBinding()
	inputBinding := it.input.Binding()
	for _, name := range it.variables {
		if term, exists := inputBinding.Vars[name]; exists {
			it.binding.Vars[name] = term
		}
	}
	return true
}

func (it *projectionIterator) Binding() *store.Binding { return it.binding }
func (it *projectionIterator) Err() error              { return it.input.Err() }
func (it *projectionIterator) Close() error            { return it.input.Close() }

// limitIterator implements LIMIT operations
type limitIterator struct {
	input iterator
	limit int
	count int
}

func (it *limitIterator) Next() bool {
	if it.count >= it.limit {
		return false
	}

	if it.input.Next() {
		it.count++
		return true
	}

	return false
}

func (it *limitIterator) Binding() *store.Binding { return it.input.Binding() }
func (it *limitIterator) Err() error              { return it.input.Err() }
func (it *limitIterator) Close() error            { return it.input.Close() }

// offsetIterator implements OFFSET operations
type offsetIterator struct {
	input   iterator
	offset  int
	skipped int
}

func (it *offsetIterator) Next() bool {
	// Skip initial rows
	for it.skipped < it.offset {
		if !it.input.Next() {
			return false
		}
		it.skipped++
	}

	return it.input.Next()
}

func (it *offsetIterator) Binding() *store.Binding { return it.input.Binding() }
func (it *offsetIterator) Err() error              { return it.input.Err() }
func (it *offsetIterator) Close() error            { return it.input.Close() }

// distinctIterator implements DISTINCT operations
type distinctIterator struct {
	input iterator
	seen  map[string]bool
}

func (it *distinctIterator) Next() bool {
	for it.input.Next() {
		key := bindingSignature(it.input.Binding())
		if !it.seen[key] {
			it.seen[key] = true
			return true
		}
	}
	return false
}

func (it *distinctIterator) Binding() *store.Binding { return it.input.Binding() }
func (it *distinctIterator) Err() error              { return it.input.Err() }
func (it *distinctIterator) Close() error            { return it.input.Close() }

// bindingSignature creates a key that is equal for equal bindings
func bindingSignature(binding *store.Binding) string {
	var sb strings.Builder
	for _, name := range binding.Names() {
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(binding.Vars[name].String())
		sb.WriteByte(0)
	}
	return sb.String()
}
