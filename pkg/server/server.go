// Package server exposes the query engine and the translation service
// over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sparqlpad/sparqlpad/internal/config"
	"github.com/sparqlpad/sparqlpad/internal/translate"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 32 << 20

// Server represents the HTTP SPARQL server. Each /sparql request gets its
// own ephemeral session; nothing is shared between requests except the
// parsed-query cache.
type Server struct {
	cfg        *config.Config
	translator translate.Translator
	logger     *slog.Logger
	metrics    *metrics
	registry   *prometheus.Registry
	queries    *queryCache
	handler    http.Handler
}

// NewServer creates a new SPARQL HTTP server
func NewServer(cfg *config.Config, translator translate.Translator, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		cfg:        cfg,
		translator: translator,
		logger:     logger,
		metrics:    newMetrics(registry),
		registry:   registry,
		queries:    newQueryCache(cfg.Server.QueryCacheSize),
	}

	mux := http.NewServeMux()
	mux.Handle("/sparql", s.instrument("sparql", http.HandlerFunc(s.handleSPARQL)))
	mux.Handle("/translate_pddl", s.instrument("translate_pddl", http.HandlerFunc(s.handleTranslate)))
	mux.Handle("/healthz", s.instrument("healthz", http.HandlerFunc(s.handleHealth)))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	s.handler = mux

	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on cfg.Server.Addr until ctx is done, then shuts
// down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.handler,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting SPARQL endpoint", slog.String("addr", s.cfg.Server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
