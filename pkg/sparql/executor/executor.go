package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/sparqlpad/sparqlpad/pkg/sparql/optimizer"
	"github.com/sparqlpad/sparqlpad/pkg/sparql/parser"
	"github.com/sparqlpad/sparqlpad/pkg/store"
)

// ExecutionError reports a failure while producing results
type ExecutionError struct {
	Op  string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution error in %s: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func wrapExecution(op string, err error) error {
	if err == nil {
		return nil
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return err
	}
	return &ExecutionError{Op: op, Err: err}
}

// Executor executes SPARQL queries using the Volcano iterator model
type Executor struct {
	store *store.TripleStore
}

// NewExecutor creates a new query executor
func NewExecutor(store *store.TripleStore) *Executor {
	return &Executor{
		store: store,
	}
}

// Execute starts evaluating an optimized query. Results are produced
// lazily as the returned Rows is consumed.
func (e *Executor) Execute(ctx context.Context, query *optimizer.OptimizedQuery) (*Rows, error) {
	if query == nil || query.Plan == nil {
		return nil, fmt.Errorf("no plan to execute")
	}

	iter, err := e.createIterator(ctx, query.Plan, store.NewBinding())
	if err != nil {
		return nil, err
	}

	return newRows(ctx, iter, query.Variables, query.Warnings), nil
}

// Query parses, plans and executes text against s in one call
func Query(ctx context.Context, s *store.TripleStore, text string, opts optimizer.Options) (*Rows, error) {
	parsed, err := parser.NewParser(text).Parse()
	if err != nil {
		return nil, err
	}

	optimized, err := optimizer.NewOptimizer(s, opts).Optimize(parsed)
	if err != nil {
		return nil, err
	}

	return NewExecutor(s).Execute(ctx, optimized)
}

// createIterator creates an iterator from a query plan. seed holds the
// bindings produced by the enclosing stages.
func (e *Executor) createIterator(ctx context.Context, plan optimizer.QueryPlan, seed *store.Binding) (iterator, error) {
	switch p := plan.(type) {
	case *optimizer.EmptyPlan:
		return &singletonIterator{binding: seed}, nil
	case *optimizer.ScanPlan:
		return newScanIterator(ctx, e.store, convertPattern(p.Pattern), seed), nil
	case *optimizer.JoinPlan:
		return e.createJoinIterator(ctx, p, seed)
	case *optimizer.OptionalPlan:
		return e.createOptionalIterator(ctx, p, seed)
	case *optimizer.ProjectionPlan:
		return e.createProjectionIterator(ctx, p, seed)
	case *optimizer.DistinctPlan:
		input, err := e.createIterator(ctx, p.Input, seed)
		if err != nil {
			return nil, err
		}
		return &distinctIterator{input: input, seen: make(map[string]bool)}, nil
	case *optimizer.OffsetPlan:
		input, err := e.createIterator(ctx, p.Input, seed)
		if err != nil {
			return nil, err
		}
		return &offsetIterator{input: input, offset: p.Offset}, nil
	case *optimizer.LimitPlan:
		input, err := e.createIterator(ctx, p.Input, seed)
		if err != nil {
			return nil, err
		}
		return &limitIterator{input: input, limit: p.Limit}, nil
	default:
		return nil, fmt.Errorf("unsupported plan type: %T", plan)
	}
}

// createJoinIterator creates a nested loop join; the right side is
// re-created for each left binding
func (e *Executor) createJoinIterator(ctx context.Context, plan *optimizer.JoinPlan, seed *store.Binding) (iterator, error) {
	left, err := e.createIterator(ctx, plan.Left, seed)
	if err != nil {
		return nil, err
	}

	return &nestedLoopJoinIterator{
		left: left,
		right: func(b *store.Binding) (iterator, error) {
			return e.createIterator(ctx, plan.Right, b)
		},
	}, nil
}

// createOptionalIterator creates a left outer join
func (e *Executor) createOptionalIterator(ctx context.Context, plan *optimizer.OptionalPlan, seed *store.Binding) (iterator, error) {
	left, err := e.createIterator(ctx, plan.Left, seed)
	if err != nil {
		return nil, err
	}

	return &optionalIterator{
		left: left,
		right: func(b *store.Binding) (iterator, error) {
			return e.createIterator(ctx, plan.Right, b)
		},
	}, nil
}

// createProjectionIterator creates an iterator for projection operations
func (e *Executor) createProjectionIterator(ctx context.Context, plan *optimizer.ProjectionPlan, seed *store.Binding) (iterator, error) {
	input, err := e.createIterator(ctx, plan.Input, seed)
	if err != nil {
		return nil, err
	}

	return &projectionIterator{
		input:     input,
		variables: plan.Variables,
	}, nil
}

// convertPattern converts a resolved parser triple pattern to store format
func convertPattern(pattern *parser.TriplePattern) *store.Pattern {
	return &store.Pattern{
		Subject:   convertTermOrVariable(pattern.Subject),
		Predicate: convertTermOrVariable(pattern.Predicate),
		Object:    convertTermOrVariable(pattern.Object),
	}
}

// convertTermOrVariable converts a parser term/variable to store format
func convertTermOrVariable(tov parser.TermOrVariable) any {
	if tov.IsVariable() {
		return store.NewVariable(tov.Variable.Name)
	}
	return tov.Term
}
