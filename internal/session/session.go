// Package session ties one ephemeral store to its load lifecycle: the
// store is populated from RDF text, signals readiness, then serves queries.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sparqlpad/sparqlpad/internal/config"
	"github.com/sparqlpad/sparqlpad/internal/encoding"
	"github.com/sparqlpad/sparqlpad/internal/rdfio"
	"github.com/sparqlpad/sparqlpad/internal/storage"
	"github.com/sparqlpad/sparqlpad/pkg/rdf"
	"github.com/sparqlpad/sparqlpad/pkg/sparql/executor"
	"github.com/sparqlpad/sparqlpad/pkg/sparql/optimizer"
	"github.com/sparqlpad/sparqlpad/pkg/sparql/parser"
	"github.com/sparqlpad/sparqlpad/pkg/store"
)

var (
	// ErrNotReady is returned when the session closes before population finished
	ErrNotReady = errors.New("session closed before it became ready")
	// ErrClosed is returned by operations on a closed session
	ErrClosed = errors.New("session is closed")
	// ErrAlreadyLoaded is returned when Load is called after population finished
	ErrAlreadyLoaded = errors.New("session is already populated")
)

// Document is one RDF input
type Document struct {
	// Name identifies the document in logs, e.g. a file path
	Name        string
	ContentType string
	Text        string
}

// LoadReport summarizes a population run
type LoadReport struct {
	Triples  int
	Batches  int
	Duration time.Duration
	// ParseError is the syntax error a lenient load skipped past
	ParseError error
}

// Session owns one in-memory store
type Session struct {
	id        string
	store     *store.TripleStore
	logger    *slog.Logger
	batchSize int
	lenient   bool
	queryOpts optimizer.Options

	mu       sync.Mutex
	loadErr  error
	loaded   bool
	closed   bool
	ready    chan struct{}
	done     chan struct{}
	doneOnce sync.Once
}

// New opens an empty session backed by an in-memory Badger store
func New(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	logger = logger.With(slog.String("session_id", id))

	backend, err := storage.NewMemoryStorage(storage.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	batchSize := cfg.Parse.BatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultConfig().Parse.BatchSize
	}

	return &Session{
		id:        id,
		store:     store.NewTripleStore(backend, encoding.NewTermEncoder(), encoding.NewTermDecoder()),
		logger:    logger,
		batchSize: batchSize,
		lenient:   cfg.Parse.Lenient,
		queryOpts: optimizer.Options{
			Reorder:          cfg.Query.Reorder,
			StrictProjection: cfg.Query.StrictProjection,
		},
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}, nil
}

// ID returns the session id used in logs
func (s *Session) ID() string {
	return s.id
}

// Store returns the underlying store
func (s *Session) Store() *store.TripleStore {
	return s.store
}

// Ready is closed once population has finished, successfully or not
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// Load populates the session from one document and marks it ready
func (s *Session) Load(ctx context.Context, contentType, text string) (LoadReport, error) {
	return s.LoadAll(ctx, Document{ContentType: contentType, Text: text})
}

// LoadAll populates the session from docs in order and marks it ready. In
// strict mode the first syntax error aborts the load and is returned by
// every later Query. In lenient mode the error is logged, the triples read
// before it are kept, and loading continues with the next document.
// Blank nodes never span documents.
func (s *Session) LoadAll(ctx context.Context, docs ...Document) (LoadReport, error) {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return LoadReport{}, ErrClosed
	case s.loaded:
		s.mu.Unlock()
		return LoadReport{}, ErrAlreadyLoaded
	}
	s.loaded = true
	s.mu.Unlock()

	start := time.Now()
	var report LoadReport
	err := s.populate(ctx, docs, &report)
	report.Duration = time.Since(start)

	s.mu.Lock()
	s.loadErr = err
	close(s.ready)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Load failed", slog.Int("triples", report.Triples), slog.String("error", err.Error()))
		return report, err
	}

	s.logger.Info("Session ready",
		slog.Int("triples", report.Triples),
		slog.Int("batches", report.Batches),
		slog.Duration("duration", report.Duration))
	return report, nil
}

func (s *Session) populate(ctx context.Context, docs []Document, report *LoadReport) error {
	batch := make([]*rdf.Triple, 0, s.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.store.InsertTriplesBatch(batch); err != nil {
			return fmt.Errorf("failed to insert triples: %w", err)
		}
		report.Triples += len(batch)
		report.Batches++
		batch = batch[:0]
		return nil
	}

	for i, doc := range docs {
		// Blank node labels are scoped to their document
		var opts []rdf.TurtleOption
		if len(docs) > 1 {
			opts = append(opts, rdf.WithBlankNodePrefix(fmt.Sprintf("d%d_", i+1)))
		}
		reader, err := rdfio.NewReader(doc.ContentType, doc.Text, opts...)
		if err != nil {
			return err
		}

		for reader.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			batch = append(batch, reader.Triple())
			if len(batch) >= s.batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}

		if err := flush(); err != nil {
			return err
		}

		if err := reader.Err(); err != nil {
			if !s.lenient {
				return err
			}
			s.logger.Warn("Skipping rest of document after syntax error",
				slog.String("document", doc.Name),
				slog.String("error", err.Error()))
			if report.ParseError == nil {
				report.ParseError = err
			}
		}
	}

	return nil
}

// Query waits until the session is ready, then plans and executes text
func (s *Session) Query(ctx context.Context, text string) (*executor.Rows, error) {
	query, err := parser.NewParser(text).Parse()
	if err != nil {
		return nil, err
	}
	return s.Execute(ctx, query)
}

// Execute runs an already parsed query once the session is ready
func (s *Session) Execute(ctx context.Context, query *parser.Query) (*executor.Rows, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	optimized, err := optimizer.NewOptimizer(s.store, s.queryOpts).Optimize(query)
	if err != nil {
		return nil, err
	}

	for _, warning := range optimized.Warnings {
		s.logger.Warn("Query warning", slog.String("warning", warning.Error()))
	}

	return executor.NewExecutor(s.store).Execute(ctx, optimized)
}

func (s *Session) wait(ctx context.Context) error {
	select {
	case <-s.ready:
	case <-s.done:
		select {
		case <-s.ready:
		default:
			return ErrNotReady
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.loadErr
}

// Close releases the store. Pending queries fail with ErrNotReady.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.doneOnce.Do(func() { close(s.done) })
	return s.store.Close()
}
