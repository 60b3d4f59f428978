package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/sparqlpad/sparqlpad/internal/rdfio"
	"github.com/sparqlpad/sparqlpad/internal/session"
	"github.com/sparqlpad/sparqlpad/internal/translate"
	"github.com/sparqlpad/sparqlpad/pkg/server/results"
)

// sparqlRequest is the body of POST /sparql
type sparqlRequest struct {
	RDF         string `json:"rdf"`
	Query       string `json:"query"`
	ContentType string `json:"contentType"`
}

// handleSPARQL loads the posted RDF into a fresh session and runs the query
// against it
func (s *Server) handleSPARQL(w http.ResponseWriter, r *http.Request) {
	// Enable CORS
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed. Use POST")
		return
	}

	req, err := decodeSPARQLRequest(w, r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeError(w, r, http.StatusBadRequest, "Missing 'query' parameter")
		return
	}

	format := results.Negotiate(r.Header.Get("Accept"))
	if name := r.URL.Query().Get("format"); name != "" {
		if format, err = results.ParseFormat(name); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	query, hit, err := s.queries.parse(req.Query)
	s.metrics.queryCache.WithLabelValues(cacheLabel(hit)).Inc()
	if err != nil {
		s.writeError(w, r, statusFor(err), fmt.Sprintf("Parse error: %v", err))
		return
	}

	logger := s.requestLogger(r.Context())
	sess, err := session.New(s.cfg, logger)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	defer sess.Close() // #nosec G104 - the response is already decided

	report, err := sess.Load(r.Context(), req.ContentType, req.RDF)
	s.metrics.triplesLoaded.Add(float64(report.Triples))
	if err != nil {
		s.writeError(w, r, statusFor(err), fmt.Sprintf("Load error: %v", err))
		return
	}

	rows, err := sess.Execute(r.Context(), query)
	if err != nil {
		s.writeError(w, r, statusFor(err), fmt.Sprintf("Query error: %v", err))
		return
	}
	for _, warning := range rows.Warnings() {
		w.Header().Add("X-Query-Warning", warning.Error())
	}

	rs, err := results.NewResultSet(rows)
	if err != nil {
		s.writeError(w, r, statusFor(err), fmt.Sprintf("Execution error: %v", err))
		return
	}

	logger.Debug("Query answered", slog.Int("triples", report.Triples), slog.Int("rows", len(rs.Bindings)))
	s.writeResult(w, r, rs, format)
}

func decodeSPARQLRequest(w http.ResponseWriter, r *http.Request) (*sparqlRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var req sparqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		return &req, nil

	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("failed to parse form: %w", err)
		}
		return &sparqlRequest{
			RDF:         r.FormValue("rdf"),
			Query:       r.FormValue("query"),
			ContentType: r.FormValue("contentType"),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported request content type %q", r.Header.Get("Content-Type"))
	}
}

func cacheLabel(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

// handleTranslate proxies a PDDL document to the translation service
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed. Use POST")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "Failed to read request body")
		return
	}

	rdfText, err := s.translator.Translate(r.Context(), string(body))
	if err != nil {
		message := err.Error()
		if errors.Is(err, translate.ErrEmptyDocument) {
			message = "Bad pddl"
		}
		s.writeError(w, r, http.StatusUnprocessableEntity, message)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, rdfText) // #nosec G104 - client went away
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{ // #nosec G104 - client went away
		"status":              "ok",
		"cachedQueries":       s.queries.len(),
		"supportedRDFFormats": rdfio.GetSupportedContentTypes(),
	})
}
