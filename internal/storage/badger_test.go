package storage

import (
	"errors"
	"strconv"
	"testing"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/sparqlpad/sparqlpad/internal/encoding"
	"github.com/sparqlpad/sparqlpad/pkg/rdf"
	"github.com/sparqlpad/sparqlpad/pkg/store"
)

func newMemory(t *testing.T) *BadgerStorage {
	t.Helper()
	s, err := NewMemoryStorage()
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTransactionSetGetDelete(t *testing.T) {
	s := newMemory(t)

	txn, err := s.Begin(true)
	if err != nil {
		t.Fatalf("failed to begin: %v", err)
	}
	if err := txn.Set(store.TableID2Str, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := txn.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	txn, _ = s.Begin(false)
	got, err := txn.Get(store.TableID2Str, []byte("k"))
	if err != nil || string(got) != "v" {
		t.Fatalf("get: want v, got %q (%v)", got, err)
	}
	if _, err := txn.Get(store.TableSPO, []byte("k")); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("tables must not share keys, got %v", err)
	}
	if err := txn.Set(store.TableID2Str, []byte("x"), nil); !errors.Is(err, store.ErrTransactionRO) {
		t.Errorf("read-only transaction accepted a write: %v", err)
	}
	_ = txn.Rollback()

	txn, _ = s.Begin(true)
	if err := txn.Delete(store.TableID2Str, []byte("k")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_ = txn.Commit()

	txn, _ = s.Begin(false)
	defer txn.Rollback()
	if _, err := txn.Get(store.TableID2Str, []byte("k")); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestScanPrefixAndEnd(t *testing.T) {
	s := newMemory(t)

	txn, _ := s.Begin(true)
	for _, k := range []string{"aa", "ab", "ac", "b"} {
		if err := txn.Set(store.TableSPO, []byte(k), nil); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	// A neighbouring table must not leak into the scan
	_ = txn.Set(store.TablePOS, []byte("az"), nil)
	if err := txn.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	tests := []struct {
		name   string
		prefix []byte
		end    []byte
		want   []string
	}{
		{"whole table", nil, nil, []string{"aa", "ab", "ac", "b"}},
		{"prefix", []byte("a"), nil, []string{"aa", "ab", "ac"}},
		{"prefix with end", []byte("a"), []byte("ac"), []string{"aa", "ab"}},
		{"no match", []byte("z"), nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, _ := s.Begin(false)
			defer txn.Rollback()

			it, err := txn.Scan(store.TableSPO, tt.prefix, tt.end)
			if err != nil {
				t.Fatalf("scan: %v", err)
			}
			defer it.Close()

			var got []string
			for it.Next() {
				got = append(got, string(it.Key()))
			}
			if len(got) != len(tt.want) {
				t.Fatalf("want %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("key %d: want %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestDropAllAndClose(t *testing.T) {
	s, err := NewMemoryStorage()
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}

	txn, _ := s.Begin(true)
	_ = txn.Set(store.TableSPO, []byte("k"), nil)
	_ = txn.Commit()

	if err := s.DropAll(); err != nil {
		t.Fatalf("drop all: %v", err)
	}
	txn, _ = s.Begin(false)
	if _, err := txn.Get(store.TableSPO, []byte("k")); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("key survived DropAll: %v", err)
	}
	_ = txn.Rollback()

	if err := s.Sync(); err != nil {
		t.Errorf("sync on memory storage: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := s.Begin(false); !errors.Is(err, store.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestBatchInsertOnDisk(t *testing.T) {
	s, err := NewBadgerStorage(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	tripleStore := store.NewTripleStore(s, encoding.NewTermEncoder(), encoding.NewTermDecoder())
	defer tripleStore.Close()

	name := rdf.NewNamedNode("http://xmlns.com/foaf/0.1/name")
	quads := []*rdf.Quad{
		rdf.NewQuad(rdf.NewNamedNode("http://example.org/alice"), name, rdf.NewLiteral("Alice"), nil),
		rdf.NewQuad(rdf.NewNamedNode("http://example.org/bob"), name, rdf.NewLiteral("Bob"), nil),
		rdf.NewQuad(rdf.NewNamedNode("http://example.org/charlie"), name, rdf.NewLiteral("Charlie"),
			rdf.NewNamedNode("http://example.org/graph1")),
	}
	if err := tripleStore.InsertQuadsBatch(quads); err != nil {
		t.Fatalf("failed to batch insert: %v", err)
	}

	count, err := tripleStore.Count()
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}

	iter, err := tripleStore.Query(&store.Pattern{
		Subject:   store.NewVariable("s"),
		Predicate: name,
		Object:    store.NewVariable("o"),
		Graph:     store.NewVariable("g"),
	})
	if err != nil {
		t.Fatalf("failed to query: %v", err)
	}
	defer iter.Close()

	seen := 0
	for iter.Next() {
		if _, err := iter.Quad(); err != nil {
			t.Fatalf("failed to get quad: %v", err)
		}
		seen++
	}
	if seen != 3 {
		t.Errorf("expected 3 quads across graphs, got %d", seen)
	}
}

func TestBatchInsertSplitsLargeBatches(t *testing.T) {
	// A tiny memtable forces ErrTxnTooBig well before the batch ends
	s, err := NewMemoryStorage(func(o *badger.Options) {
		o.MemTableSize = 1 << 20
		o.ValueThreshold = 1 << 10
	})
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	tripleStore := store.NewTripleStore(s, encoding.NewTermEncoder(), encoding.NewTermDecoder())
	defer tripleStore.Close()

	pred := rdf.NewNamedNode("http://example.org/value")
	quads := make([]*rdf.Quad, 0, 5000)
	for i := 0; i < 5000; i++ {
		subject := rdf.NewNamedNode("http://example.org/item/" + strconv.Itoa(i))
		quads = append(quads, rdf.NewQuad(subject, pred, rdf.NewIntegerLiteral(int64(i)), nil))
	}
	if err := tripleStore.InsertQuadsBatch(quads); err != nil {
		t.Fatalf("batch insert: %v", err)
	}

	count, err := tripleStore.PredicateCount(pred)
	if err != nil {
		t.Fatalf("predicate count: %v", err)
	}
	if count != 5000 {
		t.Errorf("expected 5000, got %d", count)
	}
}
