package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparqlpad/sparqlpad/internal/config"
	"github.com/sparqlpad/sparqlpad/internal/logging"
	"github.com/sparqlpad/sparqlpad/internal/translate"
	"github.com/sparqlpad/sparqlpad/pkg/server"
)

const domainData = `@prefix ex: <http://example.com/test/> .
ex:f1 ex:hasParameters ex:params1 .
ex:params1 ex:hasName "x" .
ex:f2 ex:arity 0 .
`

const parameterQuery = `PREFIX ex: <http://example.com/test/>
SELECT ?p ?name WHERE { ?p ex:hasParameters ?params . ?params ex:hasName ?name . }`

type fakeTranslator struct {
	rdf string
	err error
}

func (f *fakeTranslator) Translate(ctx context.Context, pddl string) (string, error) {
	if strings.TrimSpace(pddl) == "" {
		return "", translate.ErrEmptyDocument
	}
	return f.rdf, f.err
}

type jsonResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T, translator translate.Translator) *httptest.Server {
	t.Helper()
	if translator == nil {
		translator = &fakeTranslator{}
	}
	srv := server.NewServer(config.DefaultConfig(), translator, logging.Discard())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any, accept string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.URL+path, strings.NewReader(string(data)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func sparqlBody(rdfText, query string) map[string]string {
	return map[string]string{"rdf": rdfText, "query": query, "contentType": "text/turtle"}
}

func TestSPARQL_JSONBody(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := postJSON(t, ts, "/sparql", sparqlBody(domainData, parameterQuery), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/sparql-results+json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var results jsonResults
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	assert.Equal(t, []string{"p", "name"}, results.Head.Vars)
	require.Len(t, results.Results.Bindings, 1)
	assert.Equal(t, "uri", results.Results.Bindings[0]["p"].Type)
	assert.Equal(t, "http://example.com/test/f1", results.Results.Bindings[0]["p"].Value)
	assert.Equal(t, "x", results.Results.Bindings[0]["name"].Value)
}

func TestSPARQL_FormBody(t *testing.T) {
	ts := newTestServer(t, nil)

	form := url.Values{
		"rdf":   {domainData},
		"query": {parameterQuery},
	}
	resp, err := http.PostForm(ts.URL+"/sparql?format=csv", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "p,name\r\nhttp://example.com/test/f1,x\r\n", readBody(t, resp))
}

func TestSPARQL_Formats(t *testing.T) {
	tests := []struct {
		name        string
		accept      string
		contentType string
		contains    string
	}{
		{"text", "text/plain", "text/plain", "http://example.com/test/f1 | x"},
		{"xml", "application/sparql-results+xml", "application/sparql-results+xml", `<variable name="name"/>`},
		{"tsv", "text/tab-separated-values", "text/tab-separated-values", "<http://example.com/test/f1>\t\"x\""},
		{"default", "", "application/sparql-results+json", `"vars"`},
		{"quality list", "text/html, text/csv;q=0.9", "text/csv", "http://example.com/test/f1,x"},
	}

	ts := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts, "/sparql", sparqlBody(domainData, parameterQuery), tt.accept)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), tt.contentType))
			assert.Contains(t, readBody(t, resp), tt.contains)
		})
	}
}

func TestSPARQL_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{
			name:   "syntax error in data",
			body:   sparqlBody("@prefix ex: <http://ex/> .\nex:a ex:b \"open .\n", parameterQuery),
			status: http.StatusBadRequest,
		},
		{
			name:   "syntax error in query",
			body:   sparqlBody(domainData, "SELECT ?s WHERE { ?s"),
			status: http.StatusBadRequest,
		},
		{
			name:   "undefined prefix",
			body:   sparqlBody(domainData, "SELECT ?s WHERE { ?s missing:p ?o }"),
			status: http.StatusBadRequest,
		},
		{
			name:   "missing query",
			body:   sparqlBody(domainData, "  "),
			status: http.StatusBadRequest,
		},
		{
			name:   "unsupported data content type",
			body:   map[string]string{"rdf": domainData, "query": parameterQuery, "contentType": "application/ld+json"},
			status: http.StatusUnsupportedMediaType,
		},
	}

	ts := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts, "/sparql", tt.body, "")
			require.Equal(t, tt.status, resp.StatusCode)

			var body errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.status, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestSPARQL_UnknownFormat(t *testing.T) {
	ts := newTestServer(t, nil)
	resp := postJSON(t, ts, "/sparql?format=yaml", sparqlBody(domainData, parameterQuery), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSPARQL_Methods(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/sparql")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/sparql", nil)
	require.NoError(t, err)
	preflight, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer preflight.Body.Close()
	assert.Equal(t, http.StatusOK, preflight.StatusCode)
	assert.Contains(t, preflight.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestSPARQL_UnsupportedRequestBody(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Post(ts.URL+"/sparql", "text/plain", strings.NewReader(parameterQuery))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSPARQL_UnboundProjectionWarning(t *testing.T) {
	ts := newTestServer(t, nil)
	query := `PREFIX ex: <http://example.com/test/>
SELECT ?p ?ghost WHERE { ?p ex:hasParameters ?params }`

	resp := postJSON(t, ts, "/sparql", sparqlBody(domainData, query), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("X-Query-Warning"), "ghost")
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name       string
		translator *fakeTranslator
		body       string
		status     int
		contains   string
	}{
		{
			name:       "success",
			translator: &fakeTranslator{rdf: "<http://ex/d> a <http://ex/Domain> .\n"},
			body:       "(define (domain d))",
			status:     http.StatusOK,
			contains:   "<http://ex/Domain>",
		},
		{
			name:       "empty document",
			translator: &fakeTranslator{},
			body:       "   ",
			status:     http.StatusUnprocessableEntity,
			contains:   "Bad pddl",
		},
		{
			name:       "service failure",
			translator: &fakeTranslator{err: &translate.ServiceError{StatusCode: 500, Body: "boom"}},
			body:       "(define (domain d))",
			status:     http.StatusUnprocessableEntity,
			contains:   "boom",
		},
		{
			name:       "transport failure",
			translator: &fakeTranslator{err: errors.New("connection refused")},
			body:       "(define (domain d))",
			status:     http.StatusUnprocessableEntity,
			contains:   "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.translator)
			resp, err := http.Post(ts.URL+"/translate_pddl", "text/plain", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, readBody(t, resp), tt.contains)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, nil)

	for range 2 {
		resp := postJSON(t, ts, "/sparql", sparqlBody(domainData, parameterQuery), "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	health, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)

	var status struct {
		Status              string   `json:"status"`
		CachedQueries       int      `json:"cachedQueries"`
		SupportedRDFFormats []string `json:"supportedRDFFormats"`
	}
	require.NoError(t, json.NewDecoder(health.Body).Decode(&status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, 1, status.CachedQueries)
	assert.Contains(t, status.SupportedRDFFormats, "text/turtle")

	metrics, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	body := readBody(t, metrics)

	assert.Contains(t, body, `sparqlpad_http_requests_total{code="200",handler="sparql"} 2`)
	assert.Contains(t, body, `sparqlpad_query_cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, body, `sparqlpad_query_cache_lookups_total{result="miss"} 1`)
	assert.Contains(t, body, "sparqlpad_triples_loaded_total 6")
}

func TestQueryCacheDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.QueryCacheSize = 0
	ts := httptest.NewServer(server.NewServer(cfg, &fakeTranslator{}, logging.Discard()).Handler())
	defer ts.Close()

	for range 2 {
		resp := postJSON(t, ts, "/sparql", sparqlBody(domainData, parameterQuery), "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	metrics, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	body := readBody(t, metrics)
	assert.Contains(t, body, `sparqlpad_query_cache_lookups_total{result="miss"} 2`)
	assert.NotContains(t, body, `result="hit"`)
}
