package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sparqlpad/sparqlpad/pkg/rdf"
)

// TripleStore indexes quads over a Storage. Default-graph quads are kept in
// three permutation tables (SPO, POS, OSP) and every quad is also kept in
// six graph-aware tables, so any combination of bound positions maps to a
// key-prefix scan.
type TripleStore struct {
	storage Storage
	encoder TermEncoder
	decoder TermDecoder
}

// NewTripleStore creates a new triplestore
func NewTripleStore(storage Storage, encoder TermEncoder, decoder TermDecoder) *TripleStore {
	return &TripleStore{
		storage: storage,
		encoder: encoder,
		decoder: decoder,
	}
}

// Close closes the triplestore
func (s *TripleStore) Close() error {
	return s.storage.Close()
}

// Clear removes every quad
func (s *TripleStore) Clear() error {
	return s.storage.DropAll()
}

// InsertQuad inserts a quad into the store. Inserting a quad that is
// already present has no effect.
func (s *TripleStore) InsertQuad(quad *rdf.Quad) error {
	return s.InsertQuadsBatch([]*rdf.Quad{quad})
}

// InsertTriple inserts a triple into the default graph
func (s *TripleStore) InsertTriple(triple *rdf.Triple) error {
	return s.InsertQuad(triple.ToQuad())
}

// InsertTriplesBatch inserts triples into the default graph in one transaction
func (s *TripleStore) InsertTriplesBatch(triples []*rdf.Triple) error {
	quads := make([]*rdf.Quad, len(triples))
	for i, triple := range triples {
		quads[i] = triple.ToQuad()
	}
	return s.InsertQuadsBatch(quads)
}

// InsertQuadsBatch inserts quads in a single transaction. A batch too large
// for one transaction is split and committed in parts.
func (s *TripleStore) InsertQuadsBatch(quads []*rdf.Quad) error {
	if len(quads) == 0 {
		return nil
	}

	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback() // #nosec G104 - no-op after commit

	for _, quad := range quads {
		err := s.insertQuadInTxn(txn, quad)
		if errors.Is(err, ErrTxnTooBig) && len(quads) > 1 {
			_ = txn.Rollback() // #nosec G104 - the halves are retried in fresh transactions
			mid := len(quads) / 2
			if err := s.InsertQuadsBatch(quads[:mid]); err != nil {
				return err
			}
			return s.InsertQuadsBatch(quads[mid:])
		}
		if err != nil {
			return err
		}
	}

	return txn.Commit()
}

type encodedQuad struct {
	s, p, o, g EncodedTerm
}

type indexWrite struct {
	table Table
	key   []byte
}

func (s *TripleStore) encodeQuad(quad *rdf.Quad, onString func(EncodedTerm, *string) error) (encodedQuad, error) {
	if err := validateQuad(quad); err != nil {
		return encodedQuad{}, err
	}

	var eq encodedQuad
	targets := []*EncodedTerm{&eq.s, &eq.p, &eq.o, &eq.g}
	terms := []rdf.Term{quad.Subject, quad.Predicate, quad.Object, quad.Graph}
	names := []string{"subject", "predicate", "object", "graph"}

	for i, term := range terms {
		encoded, str, err := s.encoder.EncodeTerm(term)
		if err != nil {
			return eq, fmt.Errorf("failed to encode %s: %w", names[i], err)
		}
		*targets[i] = encoded
		if onString != nil {
			if err := onString(encoded, str); err != nil {
				return eq, err
			}
		}
	}
	return eq, nil
}

func validateQuad(quad *rdf.Quad) error {
	switch quad.Subject.(type) {
	case *rdf.NamedNode, *rdf.BlankNode:
	default:
		return fmt.Errorf("invalid subject %v: must be an IRI or blank node", quad.Subject)
	}
	if _, ok := quad.Predicate.(*rdf.NamedNode); !ok {
		return fmt.Errorf("invalid predicate %v: must be an IRI", quad.Predicate)
	}
	if quad.Object == nil {
		return fmt.Errorf("missing object")
	}
	if quad.Graph == nil {
		quad.Graph = rdf.NewDefaultGraph()
	}
	return nil
}

// insertQuadInTxn inserts a quad within an existing transaction
func (s *TripleStore) insertQuadInTxn(txn Transaction, quad *rdf.Quad) error {
	eq, err := s.encodeQuad(quad, func(encoded EncodedTerm, str *string) error {
		return s.storeString(txn, encoded, str)
	})
	if err != nil {
		return err
	}

	// SPOG doubles as the existence check, so it is written last
	spogKey := s.encoder.EncodeQuadKey(eq.s, eq.p, eq.o, eq.g)
	if _, err := txn.Get(TableSPOG, spogKey); err == nil {
		return nil
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	// Empty value for all index entries
	emptyValue := []byte{}

	isDefaultGraph := quad.Graph.Type() == rdf.TermTypeDefaultGraph

	writes := []indexWrite{
		{TablePOSG, s.encoder.EncodeQuadKey(eq.p, eq.o, eq.s, eq.g)},
		{TableOSPG, s.encoder.EncodeQuadKey(eq.o, eq.s, eq.p, eq.g)},
		{TableGSPO, s.encoder.EncodeQuadKey(eq.g, eq.s, eq.p, eq.o)},
		{TableGPOS, s.encoder.EncodeQuadKey(eq.g, eq.p, eq.o, eq.s)},
		{TableGOSP, s.encoder.EncodeQuadKey(eq.g, eq.o, eq.s, eq.p)},
	}
	if isDefaultGraph {
		writes = append(writes,
			indexWrite{TableSPO, s.encoder.EncodeQuadKey(eq.s, eq.p, eq.o)},
			indexWrite{TablePOS, s.encoder.EncodeQuadKey(eq.p, eq.o, eq.s)},
			indexWrite{TableOSP, s.encoder.EncodeQuadKey(eq.o, eq.s, eq.p)},
		)
	} else {
		writes = append(writes, indexWrite{TableGraphs, eq.g[:]})
	}

	for _, w := range writes {
		if err := txn.Set(w.table, w.key, emptyValue); err != nil {
			return err
		}
	}

	if err := s.adjustPredicateCount(txn, eq.p, 1); err != nil {
		return err
	}

	return txn.Set(TableSPOG, spogKey, emptyValue)
}

// storeString stores a string in the id2str table if provided
func (s *TripleStore) storeString(txn Transaction, encoded EncodedTerm, str *string) error {
	if str == nil {
		return nil
	}

	// The hash portion is the key; the type byte is not needed for lookup
	key := encoded[1:]
	value := []byte(*str)

	// Check if already exists to avoid unnecessary writes
	existing, err := txn.Get(TableID2Str, key)
	if err == nil && bytes.Equal(existing, value) {
		return nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	return txn.Set(TableID2Str, key, value)
}

func (s *TripleStore) adjustPredicateCount(txn Transaction, predicate EncodedTerm, delta int64) error {
	var count int64
	value, err := txn.Get(TableStats, predicate[:])
	switch {
	case err == nil && len(value) == 8:
		count = int64(binary.BigEndian.Uint64(value)) // #nosec G115 - counters are never negative
	case err != nil && !errors.Is(err, ErrNotFound):
		return err
	}

	count += delta
	if count <= 0 {
		return txn.Delete(TableStats, predicate[:])
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(count)) // #nosec G115 - count is positive here
	return txn.Set(TableStats, predicate[:], buf)
}

// DeleteQuad deletes a quad from the store. Deleting an absent quad has no effect.
func (s *TripleStore) DeleteQuad(quad *rdf.Quad) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback() // #nosec G104 - no-op after commit

	if err := s.deleteQuadInTxn(txn, quad); err != nil {
		return err
	}

	return txn.Commit()
}

// DeleteTriple deletes a triple from the default graph
func (s *TripleStore) DeleteTriple(triple *rdf.Triple) error {
	return s.DeleteQuad(triple.ToQuad())
}

// deleteQuadInTxn deletes a quad within an existing transaction
func (s *TripleStore) deleteQuadInTxn(txn Transaction, quad *rdf.Quad) error {
	eq, err := s.encodeQuad(quad, nil)
	if err != nil {
		return err
	}

	spogKey := s.encoder.EncodeQuadKey(eq.s, eq.p, eq.o, eq.g)
	if _, err := txn.Get(TableSPOG, spogKey); errors.Is(err, ErrNotFound) {
		return nil
	} else if err != nil {
		return err
	}

	keys := map[Table][]byte{
		TableSPOG: spogKey,
		TablePOSG: s.encoder.EncodeQuadKey(eq.p, eq.o, eq.s, eq.g),
		TableOSPG: s.encoder.EncodeQuadKey(eq.o, eq.s, eq.p, eq.g),
		TableGSPO: s.encoder.EncodeQuadKey(eq.g, eq.s, eq.p, eq.o),
		TableGPOS: s.encoder.EncodeQuadKey(eq.g, eq.p, eq.o, eq.s),
		TableGOSP: s.encoder.EncodeQuadKey(eq.g, eq.o, eq.s, eq.p),
	}
	if quad.Graph.Type() == rdf.TermTypeDefaultGraph {
		keys[TableSPO] = s.encoder.EncodeQuadKey(eq.s, eq.p, eq.o)
		keys[TablePOS] = s.encoder.EncodeQuadKey(eq.p, eq.o, eq.s)
		keys[TableOSP] = s.encoder.EncodeQuadKey(eq.o, eq.s, eq.p)
	}
	for table, key := range keys {
		if err := txn.Delete(table, key); err != nil {
			return err
		}
	}

	// The graphs and id2str tables are not garbage collected
	return s.adjustPredicateCount(txn, eq.p, -1)
}

// ContainsQuad checks if a quad exists in the store
func (s *TripleStore) ContainsQuad(quad *rdf.Quad) (bool, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback() // #nosec G104 - read-only transaction

	eq, err := s.encodeQuad(quad, nil)
	if err != nil {
		return false, err
	}

	_, err = txn.Get(TableSPOG, s.encoder.EncodeQuadKey(eq.s, eq.p, eq.o, eq.g))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of quads in the store
func (s *TripleStore) Count() (int64, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback() // #nosec G104 - read-only transaction

	it, err := txn.Scan(TableSPOG, nil, nil)
	if err != nil {
		return 0, err
	}
	defer it.Close() // #nosec G104 - iterator close error is not actionable

	count := int64(0)
	for it.Next() {
		count++
	}

	return count, nil
}

// PredicateCount returns how many quads use the given predicate
func (s *TripleStore) PredicateCount(predicate rdf.Term) (int64, error) {
	encoded, _, err := s.encoder.EncodeTerm(predicate)
	if err != nil {
		return 0, err
	}

	txn, err := s.storage.Begin(false)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback() // #nosec G104 - read-only transaction

	value, err := txn.Get(TableStats, encoded[:])
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(value) != 8 {
		return 0, fmt.Errorf("corrupt predicate count for %s", predicate)
	}
	return int64(binary.BigEndian.Uint64(value)), nil // #nosec G115 - counters are never negative
}
