package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sparqlpad/sparqlpad/internal/rdfio"
	"github.com/sparqlpad/sparqlpad/pkg/rdf"
	"github.com/sparqlpad/sparqlpad/pkg/server/results"
	"github.com/sparqlpad/sparqlpad/pkg/sparql/optimizer"
	"github.com/sparqlpad/sparqlpad/pkg/sparql/parser"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// statusFor maps an error to a response status. Execution and store
// failures are server errors.
func statusFor(err error) int {
	var rdfSyntax *rdf.SyntaxError
	var querySyntax *parser.SyntaxError
	var prefix *optimizer.UndefinedPrefixError
	var unbound *optimizer.UnboundVariableError

	switch {
	case errors.As(err, &rdfSyntax), errors.As(err, &querySyntax),
		errors.As(err, &prefix), errors.As(err, &unbound):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, rdfio.ErrUnsupportedContentType):
		return http.StatusUnsupportedMediaType
	}
	return http.StatusInternalServerError
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	logger := s.requestLogger(r.Context())
	if statusCode >= http.StatusInternalServerError {
		logger.Error("Request failed", slog.Int("status", statusCode), slog.String("error", message))
	} else {
		logger.Debug("Request rejected", slog.Int("status", statusCode), slog.String("error", message))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Code: statusCode, Message: message}}) // #nosec G104 - client went away
}

// writeResult writes the query result in the specified format
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, rs *results.ResultSet, format results.Format) {
	var buf bytes.Buffer
	if err := results.Write(&buf, format, rs); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "Formatting error: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", format.ContentType()+"; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes()) // #nosec G104 - client went away
}
