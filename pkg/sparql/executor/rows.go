package executor

import (
	"context"

	"github.com/sparqlpad/sparqlpad/pkg/store"
)

// Rows is the result sequence of a query. It is consumed once; Next
// returns false at the end or on the first error, which Err reports.
// Rows must be closed to release the store snapshot.
type Rows struct {
	ctx       context.Context
	iter      iterator
	variables []string
	warnings  []error
	current   *store.Binding
	err       error
	closed    bool
}

func newRows(ctx context.Context, iter iterator, variables []string, warnings []error) *Rows {
	return &Rows{
		ctx:       ctx,
		iter:      iter,
		variables: variables,
		warnings:  warnings,
	}
}

// Next advances to the next row
func (r *Rows) Next() bool {
	if r.closed || r.err != nil {
		return false
	}

	if err := r.ctx.Err(); err != nil {
		r.err = wrapExecution("rows", err)
		return false
	}

	if !r.iter.Next() {
		r.err = wrapExecution("rows", r.iter.Err())
		r.current = nil
		return false
	}

	r.current = r.iter.Binding()
	return true
}

// Binding returns the current row
func (r *Rows) Binding() *store.Binding {
	return r.current
}

// Err returns the error that ended the sequence, if any
func (r *Rows) Err() error {
	return r.err
}

// Close releases the underlying iterators. It is safe to call more than once.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.iter.Close()
}

// Variables returns the result columns in order
func (r *Rows) Variables() []string {
	return r.variables
}

// Warnings returns the non-fatal problems found while planning
func (r *Rows) Warnings() []error {
	return r.warnings
}

// Collect drains rows into a slice and closes it
func Collect(rows *Rows) ([]*store.Binding, error) {
	defer rows.Close() // #nosec G104 - drain error takes precedence

	var results []*store.Binding
	for rows.Next() {
		results = append(results, rows.Binding())
	}
	return results, rows.Err()
}
