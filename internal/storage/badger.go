package storage

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/sparqlpad/sparqlpad/pkg/store"
)

// BadgerStorage implements store.Storage using BadgerDB
type BadgerStorage struct {
	db *badger.DB
}

// Option configures how the database is opened
type Option func(*badger.Options)

// WithLogger routes Badger's internal logging to a slog logger
func WithLogger(logger *slog.Logger) Option {
	return func(opts *badger.Options) {
		opts.Logger = &badgerLogger{logger: logger}
	}
}

// NewBadgerStorage creates a BadgerDB-backed storage in the given directory
func NewBadgerStorage(path string, options ...Option) (*BadgerStorage, error) {
	return open(badger.DefaultOptions(path), options)
}

// NewMemoryStorage creates a BadgerDB-backed storage that never touches disk.
// Everything is discarded on Close.
func NewMemoryStorage(options ...Option) (*BadgerStorage, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), options)
}

func open(opts badger.Options, options []Option) (*BadgerStorage, error) {
	opts.Logger = nil // Disable default logger
	for _, o := range options {
		o(&opts)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &BadgerStorage{db: db}, nil
}

// Begin starts a new transaction
func (s *BadgerStorage) Begin(writable bool) (store.Transaction, error) {
	if s.db.IsClosed() {
		return nil, store.ErrClosed
	}
	txn := s.db.NewTransaction(writable)
	return &BadgerTransaction{
		txn:      txn,
		writable: writable,
	}, nil
}

// Close closes the storage
func (s *BadgerStorage) Close() error {
	return s.db.Close()
}

// Sync flushes writes to disk
func (s *BadgerStorage) Sync() error {
	if s.db.Opts().InMemory {
		return nil
	}
	return s.db.Sync()
}

// DropAll removes every key from every table
func (s *BadgerStorage) DropAll() error {
	return s.db.DropAll()
}

// BadgerTransaction implements store.Transaction using BadgerDB
type BadgerTransaction struct {
	txn      *badger.Txn
	writable bool
}

// Get retrieves a value by key
func (t *BadgerTransaction) Get(table store.Table, key []byte) ([]byte, error) {
	item, err := t.txn.Get(table.Key(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Set stores a key-value pair
func (t *BadgerTransaction) Set(table store.Table, key, value []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	return mapTxnErr(t.txn.Set(table.Key(key), value))
}

// Delete removes a key
func (t *BadgerTransaction) Delete(table store.Table, key []byte) error {
	if !t.writable {
		return store.ErrTransactionRO
	}
	return mapTxnErr(t.txn.Delete(table.Key(key)))
}

func mapTxnErr(err error) error {
	if errors.Is(err, badger.ErrTxnTooBig) {
		return store.ErrTxnTooBig
	}
	return err
}

// Scan iterates over the keys of a table that start with prefix, stopping
// before end if it is set. A nil prefix scans the whole table.
func (t *BadgerTransaction) Scan(table store.Table, prefix, end []byte) (store.Iterator, error) {
	opts := badger.DefaultIteratorOptions
	// Index entries carry no values
	opts.PrefetchValues = false

	tablePrefix := table.Prefix()
	scanPrefix := tablePrefix
	if prefix != nil {
		scanPrefix = table.Key(prefix)
	}
	opts.Prefix = scanPrefix

	var endKey []byte
	if end != nil {
		endKey = table.Key(end)
	}

	return &BadgerIterator{
		it:         t.txn.NewIterator(opts),
		prefix:     tablePrefix,
		scanPrefix: scanPrefix,
		endKey:     endKey,
	}, nil
}

// Commit commits the transaction
func (t *BadgerTransaction) Commit() error {
	if !t.writable {
		t.txn.Discard()
		return nil
	}
	return t.txn.Commit()
}

// Rollback rolls back the transaction. It is safe to call after Commit.
func (t *BadgerTransaction) Rollback() error {
	t.txn.Discard()
	return nil
}

// BadgerIterator implements store.Iterator using BadgerDB
type BadgerIterator struct {
	it         *badger.Iterator
	prefix     []byte // Table prefix for stripping from keys
	scanPrefix []byte
	endKey     []byte
	started    bool
	hasValue   bool
}

// Next advances to the next item
func (i *BadgerIterator) Next() bool {
	if !i.started {
		i.it.Seek(i.scanPrefix)
		i.started = true
	} else {
		i.it.Next()
	}

	if !i.it.ValidForPrefix(i.scanPrefix) {
		i.hasValue = false
		return false
	}

	if i.endKey != nil && bytes.Compare(i.it.Item().Key(), i.endKey) >= 0 {
		i.hasValue = false
		return false
	}

	i.hasValue = true
	return true
}

// Key returns a copy of the current key without the table prefix
func (i *BadgerIterator) Key() []byte {
	if !i.hasValue {
		return nil
	}
	key := i.it.Item().KeyCopy(nil)
	return key[len(i.prefix):]
}

// Value returns the current value
func (i *BadgerIterator) Value() ([]byte, error) {
	if !i.hasValue {
		return nil, store.ErrNotFound
	}
	return i.it.Item().ValueCopy(nil)
}

// Close closes the iterator
func (i *BadgerIterator) Close() error {
	i.it.Close()
	return nil
}

// badgerLogger adapts slog to badger.Logger
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(trimf(format, args), slog.String("component", "badger"))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(trimf(format, args), slog.String("component", "badger"))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(trimf(format, args), slog.String("component", "badger"))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(trimf(format, args), slog.String("component", "badger"))
}

func trimf(format string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
