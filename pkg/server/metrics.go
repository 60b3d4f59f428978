package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	triplesLoaded prometheus.Counter
	queryCache    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sparqlpad",
			Name:      "http_requests_total",
			Help:      "HTTP requests by handler and status code.",
		}, []string{"handler", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sparqlpad",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by handler.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler"}),
		triplesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sparqlpad",
			Name:      "triples_loaded_total",
			Help:      "Triples inserted into request sessions.",
		}),
		queryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sparqlpad",
			Name:      "query_cache_lookups_total",
			Help:      "Parsed-query cache lookups by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.requests, m.duration, m.triplesLoaded, m.queryCache)
	return m
}

type contextKey int

const loggerKey contextKey = iota

// requestLogger returns the request-scoped logger
func (s *Server) requestLogger(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return s.logger
}

// statusRecorder remembers the status code written through it
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument assigns a request id, logs the request and records metrics
func (s *Server) instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		logger := s.logger.With(slog.String("request_id", requestID))

		w.Header().Set("X-Request-ID", requestID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), loggerKey, logger)))

		elapsed := time.Since(start)
		s.metrics.requests.WithLabelValues(name, strconv.Itoa(rec.status)).Inc()
		s.metrics.duration.WithLabelValues(name).Observe(elapsed.Seconds())

		logger.Info("Request handled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", elapsed))
	})
}
