package store

import (
	"errors"
	"fmt"
)

// Errors returned by Storage implementations
var (
	ErrNotFound      = errors.New("key not found")
	ErrTransactionRO = errors.New("transaction is read-only")
	ErrClosed        = errors.New("storage is closed")
	ErrTxnTooBig     = errors.New("transaction is too big")
)

// Storage is a transactional key-value store split into tables. The triple
// store keeps every index and the term dictionary in a single Storage.
type Storage interface {
	Begin(writable bool) (Transaction, error)
	Sync() error
	DropAll() error
	Close() error
}

// Transaction is a snapshot of a Storage. Its writes become visible to
// other transactions on Commit.
type Transaction interface {
	Get(table Table, key []byte) ([]byte, error)
	Set(table Table, key, value []byte) error
	Delete(table Table, key []byte) error

	// Scan walks, in key order, the keys of table that start with prefix
	// and sort before end. A nil prefix covers the whole table; a nil end
	// sets no upper bound.
	Scan(table Table, prefix, end []byte) (Iterator, error)

	Commit() error
	// Rollback discards the transaction. It is a no-op after Commit.
	Rollback() error
}

// Iterator walks the pairs produced by Scan
type Iterator interface {
	Next() bool
	Key() []byte
	Value() ([]byte, error)
	Close() error
}

// Table is a key namespace inside a Storage. Its byte value is prepended to
// every key stored in it.
type Table byte

const (
	TableID2Str Table = iota // term hash -> lexical form

	TableSPO
	TablePOS
	TableOSP

	TableSPOG
	TablePOSG
	TableOSPG
	TableGSPO
	TableGPOS
	TableGOSP

	TableGraphs // every named graph seen
	TableStats  // predicate hash -> triple count
)

var tableNames = [...]string{
	TableID2Str: "id2str",
	TableSPO:    "spo",
	TablePOS:    "pos",
	TableOSP:    "osp",
	TableSPOG:   "spog",
	TablePOSG:   "posg",
	TableOSPG:   "ospg",
	TableGSPO:   "gspo",
	TableGPOS:   "gpos",
	TableGOSP:   "gosp",
	TableGraphs: "graphs",
	TableStats:  "stats",
}

func (t Table) String() string {
	if int(t) < len(tableNames) {
		return tableNames[t]
	}
	return fmt.Sprintf("table(%d)", byte(t))
}

// Prefix returns the key prefix shared by everything in the table
func (t Table) Prefix() []byte {
	return []byte{byte(t)}
}

// Key qualifies key with the table prefix
func (t Table) Key(key []byte) []byte {
	out := make([]byte, 1+len(key))
	out[0] = byte(t)
	copy(out[1:], key)
	return out
}
