package executor

import (
	"context"

	"github.com/sparqlpad/sparqlpad/pkg/store"
)

// EvaluateBGP matches a basic graph pattern against s. Patterns are joined
// left to right; each result extends one of seeds. A nil seeds slice means
// a single empty binding, and an empty pattern list returns the seeds.
func EvaluateBGP(ctx context.Context, s *store.TripleStore, patterns []*store.Pattern, seeds []*store.Binding) ([]*store.Binding, error) {
	if seeds == nil {
		seeds = []*store.Binding{store.NewBinding()}
	}

	var results []*store.Binding
	for _, seed := range seeds {
		iter := bgpIterator(ctx, s, patterns, seed)
		for iter.Next() {
			results = append(results, iter.Binding())
		}
		err := iter.Err()
		_ = iter.Close() // #nosec G104 - iteration error takes precedence
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// bgpIterator chains one scan per pattern with nested loop joins
func bgpIterator(ctx context.Context, s *store.TripleStore, patterns []*store.Pattern, seed *store.Binding) iterator {
	if len(patterns) == 0 {
		return &singletonIterator{binding: seed}
	}

	var iter iterator = newScanIterator(ctx, s, patterns[0], seed)
	for _, pattern := range patterns[1:] {
		pattern := pattern
		iter = &nestedLoopJoinIterator{
			left: iter,
			right: func(b *store.Binding) (iterator, error) {
				return newScanIterator(ctx, s, pattern, b), nil
			},
		}
	}
	return iter
}
