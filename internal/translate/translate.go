// Package translate calls the external service that turns a PDDL domain
// into RDF text.
package translate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sparqlpad/sparqlpad/internal/config"
)

// ErrEmptyDocument is returned for a blank PDDL document. No request is made.
var ErrEmptyDocument = errors.New("empty PDDL document")

// maxResponseBytes bounds the RDF text read from the service
const maxResponseBytes = 64 << 20

// ServiceError is a non-2xx answer from the translation service
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("translation service error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("translation service error (status %d): %s", e.StatusCode, body)
}

// Translator converts a PDDL document to RDF text
type Translator interface {
	Translate(ctx context.Context, pddl string) (string, error)
}

// HTTPTranslator posts PDDL documents to the translation service
type HTTPTranslator struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPTranslator creates a translator for the service at cfg.URL
func NewHTTPTranslator(cfg config.TranslatorConfig, logger *slog.Logger) *HTTPTranslator {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPTranslator{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Translate sends pddl as text/plain and returns the response body
func (t *HTTPTranslator) Translate(ctx context.Context, pddl string) (string, error) {
	if strings.TrimSpace(pddl) == "" {
		return "", ErrEmptyDocument
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, strings.NewReader(pddl))
	if err != nil {
		return "", fmt.Errorf("failed to build translation request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read translation response: %w", err)
	}

	t.logger.Debug("Translation finished",
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ServiceError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return string(body), nil
}
