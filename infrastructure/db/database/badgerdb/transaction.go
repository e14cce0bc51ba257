package badgerdb

import (
	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/infrastructure/db/database"
)

// BadgerTransaction wraps a read-write badger transaction.
// Unlike the leveldb transaction, writes made within the
// transaction are visible to its own reads.
type BadgerTransaction struct {
	txn      *badger.Txn
	isClosed bool
}

// Begin begins a new transaction.
func (db *BadgerDB) Begin() (database.Transaction, error) {
	return &BadgerTransaction{txn: db.badger.NewTransaction(true)}, nil
}

// Commit commits whatever changes were made to the database
// within this transaction.
func (tx *BadgerTransaction) Commit() error {
	if tx.isClosed {
		return errors.New("cannot commit a closed transaction")
	}
	tx.isClosed = true
	return errors.WithStack(tx.txn.Commit())
}

// Rollback rolls back whatever changes were made to the
// database within this transaction.
func (tx *BadgerTransaction) Rollback() error {
	if tx.isClosed {
		return errors.New("cannot rollback a closed transaction")
	}
	tx.isClosed = true
	tx.txn.Discard()
	return nil
}

// RollbackUnlessClosed rolls back changes that were made to
// the database within the transaction, unless the transaction
// had already been closed using either Rollback or Commit.
func (tx *BadgerTransaction) RollbackUnlessClosed() error {
	if tx.isClosed {
		return nil
	}
	return tx.Rollback()
}

// Put sets the value for the given key. It overwrites
// any previous value for that key.
func (tx *BadgerTransaction) Put(key *database.Key, value []byte) error {
	if tx.isClosed {
		return errors.New("cannot put into a closed transaction")
	}
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return errors.WithStack(tx.txn.Set(key.Bytes(), valueCopy))
}

// Get gets the value for the given key. It returns
// ErrNotFound if the given key does not exist.
func (tx *BadgerTransaction) Get(key *database.Key) ([]byte, error) {
	if tx.isClosed {
		return nil, errors.New("cannot get from a closed transaction")
	}
	return get(tx.txn, key)
}

// Has returns true if the database does contains the
// given key.
func (tx *BadgerTransaction) Has(key *database.Key) (bool, error) {
	if tx.isClosed {
		return false, errors.New("cannot has from a closed transaction")
	}
	return has(tx.txn, key)
}

// Delete deletes the value for the given key. Will not
// return an error if the key doesn't exist.
func (tx *BadgerTransaction) Delete(key *database.Key) error {
	if tx.isClosed {
		return errors.New("cannot delete from a closed transaction")
	}
	return errors.WithStack(tx.txn.Delete(key.Bytes()))
}

// Cursor begins a new cursor over the given bucket. Only one
// cursor may be open at a time over a badger transaction.
func (tx *BadgerTransaction) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	if tx.isClosed {
		return nil, errors.New("cannot open a cursor from a closed transaction")
	}
	return newBadgerCursor(tx.txn, bucket, false), nil
}
