package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
)

const actionQuery = `PREFIX ont: <http://example.com/pddl_ont/>
SELECT ?p ?name WHERE {
    ?p a ont:Action .
    ?p ont:hasParameters/ont:parameterName ?name .
}`

// execute runs the CLI with args and returns stdout
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "sparqlpad", cmd.Use)

	for _, name := range []string{"query", "translate", "serve", "demo"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestQuery_Golden(t *testing.T) {
	out, err := execute(t, "", "query", "--data", "demo/*.ttl", "-e", actionQuery)
	require.NoError(t, err)
	golden(t).Assert(t, "query_text", []byte(out))
}

func TestQuery_NoResults(t *testing.T) {
	out, err := execute(t, "", "query", "--data", "demo/*.ttl",
		"-e", "SELECT ?s WHERE { ?s <http://example.com/pddl_ont/missing> ?o }")
	require.NoError(t, err)
	golden(t).Assert(t, "query_empty", []byte(out))
}

func TestQuery_Formats(t *testing.T) {
	out, err := execute(t, "", "query", "--format", "csv", "--data", "demo/*.ttl", "-e", actionQuery)
	require.NoError(t, err)
	assert.Equal(t, "p,name\r\nhttp://example.com/test/pick-up,?x\r\n", out)

	out, err = execute(t, "", "query", "--format", "json", "--data", "demo/*.ttl", "-e", actionQuery)
	require.NoError(t, err)
	var decoded struct {
		Head struct {
			Vars []string `json:"vars"`
		} `json:"head"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, []string{"p", "name"}, decoded.Head.Vars)

	_, err = execute(t, "", "query", "--format", "yaml", "--data", "demo/*.ttl", "-e", actionQuery)
	assert.ErrorContains(t, err, "invalid format")
}

func TestQuery_RecursiveGlobs(t *testing.T) {
	query := `PREFIX ont: <http://example.com/pddl_ont/>
SELECT ?p ?name WHERE { ?p a ont:Action . OPTIONAL { ?p ont:hasParameters/ont:parameterName ?name } }`

	out, err := execute(t, "", "query",
		"--data", "demo/*.ttl",
		"--data", "testdata/data/**/*.nt",
		"--data", "demo/blocksworld.ttl",
		"-e", query)
	require.NoError(t, err)
	assert.Contains(t, out, "http://example.com/test/pick-up | ?x")
	assert.Contains(t, out, "http://example.com/test/stack   | \n")
	assert.Len(t, strings.Split(strings.TrimSuffix(out, "\n"), "\n"), 4)
}

func TestQuery_QuerySources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.rq")
	require.NoError(t, os.WriteFile(path, []byte(actionQuery), 0o600))

	fromFile, err := execute(t, "", "query", "--data", "demo/*.ttl", "--query", path)
	require.NoError(t, err)

	fromStdin, err := execute(t, actionQuery, "query", "--data", "demo/*.ttl", "--query", "-")
	require.NoError(t, err)
	assert.Equal(t, fromFile, fromStdin)

	_, err = execute(t, "", "query", "--data", "demo/*.ttl")
	assert.ErrorContains(t, err, "no query given")

	_, err = execute(t, "", "query", "--data", "demo/*.ttl", "--query", path, "-e", actionQuery)
	assert.ErrorContains(t, err, "not both")
}

func TestQuery_DataErrors(t *testing.T) {
	_, err := execute(t, "", "query", "--data", "testdata/nothing/*.ttl", "-e", actionQuery)
	assert.ErrorContains(t, err, "no files match")

	_, err = execute(t, "", "query", "--data", "testdata/broken/*.ttl", "-e", "SELECT ?s WHERE { ?s ?p ?o }")
	var syntaxErr *rdf.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 3, syntaxErr.Line)

	out, err := execute(t, "", "query", "--lenient", "--data", "testdata/broken/*.ttl",
		"-e", "SELECT ?o WHERE { ?s ?p ?o }")
	require.NoError(t, err)
	assert.Contains(t, out, "http://example.com/test/c")
}

func TestDemo(t *testing.T) {
	out, err := execute(t, "", "demo")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "p "))
	assert.ElementsMatch(t, []string{
		"http://example.com/test/total-cost | ",
		"http://example.com/test/height     | ?b",
		"http://example.com/test/distance   | ?from",
		"http://example.com/test/distance   | ?to",
	}, lines[2:])
	assert.NotContains(t, out, "pick-up")

	out, err = execute(t, "", "demo", "--show-data")
	require.NoError(t, err)
	assert.Contains(t, out, "ex:blocksworld a ont:Domain")
}

func TestTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "blocksworld") {
			http.Error(w, "bad pddl", http.StatusUnprocessableEntity)
			return
		}
		_, _ = io.WriteString(w, "<http://example.com/test/blocksworld> a <http://example.com/pddl_ont/Domain> .\n")
	}))
	defer srv.Close()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "sparqlpad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("translator:\n  url: "+srv.URL+"\n"), 0o600))

	out, err := execute(t, "", "--config", configPath, "translate", "--pddl", "testdata/blocksworld.pddl")
	require.NoError(t, err)
	assert.Contains(t, out, "pddl_ont/Domain")

	outPath := filepath.Join(dir, "domain.nt")
	_, err = execute(t, "", "--config", configPath, "translate", "--pddl", "testdata/blocksworld.pddl", "--out", outPath)
	require.NoError(t, err)
	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, out, string(written))

	_, err = execute(t, "(define (domain other))", "--config", configPath, "translate", "--pddl", "-")
	assert.ErrorContains(t, err, "422")
}
