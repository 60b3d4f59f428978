package executor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparqlpad/sparqlpad/internal/encoding"
	"github.com/sparqlpad/sparqlpad/internal/storage"
	"github.com/sparqlpad/sparqlpad/pkg/rdf"
	"github.com/sparqlpad/sparqlpad/pkg/sparql/executor"
	"github.com/sparqlpad/sparqlpad/pkg/sparql/optimizer"
	"github.com/sparqlpad/sparqlpad/pkg/sparql/parser"
	"github.com/sparqlpad/sparqlpad/pkg/store"
)

const (
	ont = "http://example.com/pddl_ont/"
	ex  = "http://example.com/test/"
)

const domainData = `@prefix ont: <http://example.com/pddl_ont/> .
@prefix ex: <http://example.com/test/> .

ex:f1 a ont:Function ;
    ont:hasParameters ex:params1 .
ex:params1 ont:parameterName "x" .

ex:f2 a ont:Function .

ex:f3 a ont:Function ;
    ont:hasParameters ex:params3 .
ex:params3 ont:parameterName "a", "b" .

ex:self ex:knows ex:self .
ex:self ex:knows ex:f1 .
`

// chainData gives each subject a different subset of the :q, :r and :s
// links so OPTIONAL groups match partially
const chainData = `@prefix : <http://example.com/test/> .
:a :p :o1 ; :q :y1 ; :s "za" .
:y1 :r :w1 .
:b :p :o2 ; :q :y2 .
:c :p :o3 ; :s "zc" .
:d :q :y1 .
`

const defaultQuery = `PREFIX ont: <http://example.com/pddl_ont/>
PREFIX ex: <http://example.com/test/>
SELECT ?p ?name
WHERE {
    ?p a ont:Function.
    OPTIONAL {
        ?p ont:hasParameters/ont:parameterName ?name.
    }
}`

func openStore(t *testing.T) *store.TripleStore {
	t.Helper()
	backend, err := storage.NewMemoryStorage()
	require.NoError(t, err)
	return store.NewTripleStore(backend, encoding.NewTermEncoder(), encoding.NewTermDecoder())
}

func newTestStore(t *testing.T) *store.TripleStore {
	t.Helper()
	return loadStore(t, domainData)
}

func loadStore(t *testing.T, data string) *store.TripleStore {
	t.Helper()
	ts := openStore(t)
	t.Cleanup(func() { _ = ts.Close() })

	triples, err := rdf.ParseAll(data)
	require.NoError(t, err)
	require.NoError(t, ts.InsertTriplesBatch(triples))
	return ts
}

func run(t *testing.T, ts *store.TripleStore, text string, opts optimizer.Options) []string {
	t.Helper()
	rows, err := executor.Query(context.Background(), ts, text, opts)
	require.NoError(t, err)
	bindings, err := executor.Collect(rows)
	require.NoError(t, err)
	return render(bindings)
}

func render(bindings []*store.Binding) []string {
	out := make([]string, len(bindings))
	for i, b := range bindings {
		out[i] = b.String()
	}
	return out
}

func node(iri string) *rdf.NamedNode { return rdf.NewNamedNode(iri) }

func TestQuery_DefaultQuery(t *testing.T) {
	ts := newTestStore(t)

	rows, err := executor.Query(context.Background(), ts, defaultQuery, optimizer.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "name"}, rows.Variables())

	bindings, err := executor.Collect(rows)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		`{?name="x", ?p=<http://example.com/test/f1>}`,
		`{?p=<http://example.com/test/f2>}`,
		`{?name="a", ?p=<http://example.com/test/f3>}`,
		`{?name="b", ?p=<http://example.com/test/f3>}`,
	}, render(bindings))

	// The hidden path variable never reaches a row
	for _, b := range bindings {
		for _, name := range b.Names() {
			assert.Contains(t, []string{"p", "name"}, name)
		}
	}
}

func TestQuery_OptionalKeepsUnmatchedRows(t *testing.T) {
	ts := newTestStore(t)

	got := run(t, ts, `PREFIX ont: <`+ont+`>
SELECT ?p ?params { ?p a ont:Function OPTIONAL { ?p ont:hasParameters ?params } }`, optimizer.Options{})

	assert.ElementsMatch(t, []string{
		`{?p=<http://example.com/test/f1>, ?params=<http://example.com/test/params1>}`,
		`{?p=<http://example.com/test/f2>}`,
		`{?p=<http://example.com/test/f3>, ?params=<http://example.com/test/params3>}`,
	}, got)
}

func TestQuery_LeadingOptional(t *testing.T) {
	ts := newTestStore(t)

	got := run(t, ts, `SELECT * { OPTIONAL { ?s <http://example.com/test/knows> ?o } }`, optimizer.Options{})
	assert.Len(t, got, 2)

	got = run(t, ts, `SELECT * { OPTIONAL { ?s <http://example.com/test/missing> ?o } }`, optimizer.Options{})
	assert.Equal(t, []string{"{}"}, got)
}

func TestQuery_SequentialOptionals(t *testing.T) {
	ts := loadStore(t, chainData)

	got := run(t, ts, `PREFIX : <`+ex+`>
SELECT ?s ?o ?y ?w ?z {
    ?s :p ?o
    OPTIONAL { ?s :q ?y }
    OPTIONAL { ?y :r ?w }
    OPTIONAL { ?s :s ?z }
}`, optimizer.Options{})

	// :c has no ?y when the second group runs, so ?y :r ?w binds both
	assert.ElementsMatch(t, []string{
		`{?o=<http://example.com/test/o1>, ?s=<http://example.com/test/a>, ?w=<http://example.com/test/w1>, ?y=<http://example.com/test/y1>, ?z="za"}`,
		`{?o=<http://example.com/test/o2>, ?s=<http://example.com/test/b>, ?y=<http://example.com/test/y2>}`,
		`{?o=<http://example.com/test/o3>, ?s=<http://example.com/test/c>, ?w=<http://example.com/test/w1>, ?y=<http://example.com/test/y1>, ?z="zc"}`,
	}, got)
}

func TestQuery_NestedOptional(t *testing.T) {
	ts := loadStore(t, chainData)

	got := run(t, ts, `PREFIX : <`+ex+`>
SELECT ?s ?o ?y ?w ?z {
    ?s :p ?o
    OPTIONAL { ?s :q ?y OPTIONAL { ?y :r ?w } }
    OPTIONAL { ?s :s ?z }
}`, optimizer.Options{})

	assert.ElementsMatch(t, []string{
		`{?o=<http://example.com/test/o1>, ?s=<http://example.com/test/a>, ?w=<http://example.com/test/w1>, ?y=<http://example.com/test/y1>, ?z="za"}`,
		`{?o=<http://example.com/test/o2>, ?s=<http://example.com/test/b>, ?y=<http://example.com/test/y2>}`,
		`{?o=<http://example.com/test/o3>, ?s=<http://example.com/test/c>, ?z="zc"}`,
	}, got)
}

func TestQuery_ProjectionDropsJoinVariables(t *testing.T) {
	ts := newTestStore(t)

	got := run(t, ts, `PREFIX ont: <`+ont+`>
SELECT ?name { ?p ont:hasParameters ?params . ?params ont:parameterName ?name }`, optimizer.Options{})

	assert.ElementsMatch(t, []string{`{?name="x"}`, `{?name="a"}`, `{?name="b"}`}, got)
}

func TestQuery_ReorderPreservesResults(t *testing.T) {
	ts := newTestStore(t)
	text := `PREFIX ont: <` + ont + `>
SELECT * { ?params ont:parameterName ?name . ?p ont:hasParameters ?params . ?p a ont:Function }`

	plain := run(t, ts, text, optimizer.Options{})
	reordered := run(t, ts, text, optimizer.Options{Reorder: true})

	assert.Len(t, plain, 3)
	assert.ElementsMatch(t, plain, reordered)
}

func TestQuery_SolutionModifiers(t *testing.T) {
	ts := newTestStore(t)
	prefix := `PREFIX ont: <` + ont + `>
`

	tests := []struct {
		name  string
		query string
		count int
	}{
		{"all", "SELECT ?p { ?p ont:hasParameters/ont:parameterName ?n }", 3},
		{"distinct", "SELECT DISTINCT ?p { ?p ont:hasParameters/ont:parameterName ?n }", 2},
		{"limit", "SELECT ?p { ?p a ont:Function } LIMIT 2", 2},
		{"limit zero", "SELECT ?p { ?p a ont:Function } LIMIT 0", 0},
		{"offset", "SELECT ?p { ?p a ont:Function } OFFSET 1", 2},
		{"offset past end", "SELECT ?p { ?p a ont:Function } OFFSET 10", 0},
		{"offset and limit", "SELECT ?p { ?p a ont:Function } OFFSET 1 LIMIT 1", 1},
		{"reduced", "SELECT REDUCED ?p { ?p a ont:Function }", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, run(t, ts, prefix+tt.query, optimizer.Options{}), tt.count)
		})
	}
}

func TestQuery_LiteralSubjectMatchesNothing(t *testing.T) {
	ts := newTestStore(t)
	assert.Empty(t, run(t, ts, `SELECT * { "x" ?p ?o }`, optimizer.Options{}))
}

func TestQuery_ParseAndPlanErrors(t *testing.T) {
	ts := newTestStore(t)

	_, err := executor.Query(context.Background(), ts, "SELECT ?x WHERE { ?x", optimizer.Options{})
	var syntaxErr *parser.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr), "got %v", err)

	_, err = executor.Query(context.Background(), ts, "SELECT ?x WHERE { ?x a ont:Foo }", optimizer.Options{})
	var prefixErr *optimizer.UndefinedPrefixError
	assert.True(t, errors.As(err, &prefixErr), "got %v", err)
}

func TestQuery_WarningsReachRows(t *testing.T) {
	ts := newTestStore(t)

	rows, err := executor.Query(context.Background(), ts,
		"SELECT ?s ?nope { ?s <http://example.com/test/knows> ?o }", optimizer.Options{})
	require.NoError(t, err)
	defer rows.Close()

	require.Len(t, rows.Warnings(), 1)
	assert.Equal(t, []string{"s", "nope"}, rows.Variables())
}

func TestRows_Cancellation(t *testing.T) {
	ts := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	rows, err := executor.Query(ctx, ts, `SELECT * { ?s ?p ?o }`, optimizer.Options{})
	require.NoError(t, err)

	require.True(t, rows.Next())
	first := rows.Binding()
	cancel()

	assert.False(t, rows.Next())
	assert.True(t, errors.Is(rows.Err(), context.Canceled))
	var execErr *executor.ExecutionError
	assert.True(t, errors.As(rows.Err(), &execErr))
	assert.Equal(t, 3, first.Len(), "delivered rows stay valid")

	assert.False(t, rows.Next())
	require.NoError(t, rows.Close())
	require.NoError(t, rows.Close())
}

func TestRows_StoreFailure(t *testing.T) {
	ts := openStore(t)
	require.NoError(t, ts.InsertTriple(rdf.NewTriple(node(ex+"a"), node(ex+"p"), node(ex+"b"))))

	rows, err := executor.Query(context.Background(), ts, `SELECT * { ?s ?p ?o }`, optimizer.Options{})
	require.NoError(t, err)
	require.NoError(t, ts.Close())

	assert.False(t, rows.Next())
	var execErr *executor.ExecutionError
	require.True(t, errors.As(rows.Err(), &execErr), "got %v", rows.Err())
	assert.Equal(t, "scan", execErr.Op)
	assert.True(t, errors.Is(rows.Err(), store.ErrClosed))
	assert.NoError(t, rows.Close())
}

func TestEvaluateBGP(t *testing.T) {
	ts := newTestStore(t)
	ctx := context.Background()
	rdfType := node("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")
	knows := node(ex + "knows")

	t.Run("join", func(t *testing.T) {
		bindings, err := executor.EvaluateBGP(ctx, ts, []*store.Pattern{
			{Subject: store.NewVariable("f"), Predicate: rdfType, Object: node(ont + "Function")},
			{Subject: store.NewVariable("f"), Predicate: node(ont + "hasParameters"), Object: store.NewVariable("params")},
		}, nil)
		require.NoError(t, err)
		assert.Len(t, bindings, 2)
		for _, b := range bindings {
			assert.Equal(t, 2, b.Len())
		}
	})

	t.Run("zero patterns pass seeds through", func(t *testing.T) {
		seed := store.NewBinding()
		seed.Vars["x"] = node(ex + "f1")
		bindings, err := executor.EvaluateBGP(ctx, ts, nil, []*store.Binding{seed})
		require.NoError(t, err)
		require.Len(t, bindings, 1)
		assert.True(t, bindings[0].Equals(seed))

		bindings, err = executor.EvaluateBGP(ctx, ts, nil, nil)
		require.NoError(t, err)
		require.Len(t, bindings, 1)
		assert.Equal(t, 0, bindings[0].Len())
	})

	t.Run("ground pattern is an existence check", func(t *testing.T) {
		present := &store.Pattern{Subject: node(ex + "f2"), Predicate: rdfType, Object: node(ont + "Function")}
		absent := &store.Pattern{Subject: node(ex + "f2"), Predicate: rdfType, Object: node(ont + "Other")}

		bindings, err := executor.EvaluateBGP(ctx, ts, []*store.Pattern{present}, nil)
		require.NoError(t, err)
		assert.Len(t, bindings, 1)

		bindings, err = executor.EvaluateBGP(ctx, ts, []*store.Pattern{absent}, nil)
		require.NoError(t, err)
		assert.Empty(t, bindings)
	})

	t.Run("repeated variable must agree", func(t *testing.T) {
		x := store.NewVariable("x")
		bindings, err := executor.EvaluateBGP(ctx, ts, []*store.Pattern{
			{Subject: x, Predicate: knows, Object: x},
		}, nil)
		require.NoError(t, err)
		require.Len(t, bindings, 1)
		got, _ := bindings[0].Get("x")
		assert.True(t, got.Equals(node(ex+"self")))
	})

	t.Run("seeds constrain the scan", func(t *testing.T) {
		f1 := store.NewBinding()
		f1.Vars["f"] = node(ex + "f1")
		f2 := store.NewBinding()
		f2.Vars["f"] = node(ex + "f2")

		bindings, err := executor.EvaluateBGP(ctx, ts, []*store.Pattern{
			{Subject: store.NewVariable("f"), Predicate: node(ont + "hasParameters"), Object: store.NewVariable("params")},
		}, []*store.Binding{f1, f2})
		require.NoError(t, err)
		require.Len(t, bindings, 1)
		params, _ := bindings[0].Get("params")
		assert.True(t, params.Equals(node(ex+"params1")))
	})

	t.Run("graph variable", func(t *testing.T) {
		graph := node(ex + "g")
		require.NoError(t, ts.InsertQuad(rdf.NewQuad(node(ex+"q"), knows, node(ex+"r"), graph)))

		bindings, err := executor.EvaluateBGP(ctx, ts, []*store.Pattern{
			{Subject: node(ex + "q"), Predicate: knows, Object: store.NewVariable("o"), Graph: store.NewVariable("g")},
		}, nil)
		require.NoError(t, err)
		require.Len(t, bindings, 1)
		g, _ := bindings[0].Get("g")
		assert.True(t, g.Equals(graph))
	})
}

func TestExecute_RequiresPlan(t *testing.T) {
	ts := newTestStore(t)
	_, err := executor.NewExecutor(ts).Execute(context.Background(), &optimizer.OptimizedQuery{})
	assert.Error(t, err)
}
