package badgerdb

import (
	"bytes"

	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/infrastructure/db/database"
)

// BadgerCursor adapts a badger iterator to the database.Cursor
// interface. A fresh cursor is positioned before the first item
// of its bucket.
type BadgerCursor struct {
	txn      *badger.Txn
	ownsTxn  bool
	iterator *badger.Iterator
	bucket   *database.Bucket
	prefix   []byte

	isStarted bool
	isClosed  bool
}

func newBadgerCursor(txn *badger.Txn, bucket *database.Bucket, ownsTxn bool) *BadgerCursor {
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	return &BadgerCursor{
		txn:      txn,
		ownsTxn:  ownsTxn,
		iterator: txn.NewIterator(options),
		bucket:   bucket,
		prefix:   bucket.Path(),
	}
}

// Next moves the iterator to the next key/value pair. It returns whether the
// iterator is exhausted. Panics if the cursor is closed.
func (c *BadgerCursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	if !c.isStarted {
		c.isStarted = true
		c.iterator.Seek(c.prefix)
		return c.iterator.ValidForPrefix(c.prefix)
	}
	if !c.iterator.ValidForPrefix(c.prefix) {
		return false
	}
	c.iterator.Next()
	return c.iterator.ValidForPrefix(c.prefix)
}

// First moves the iterator to the first key/value pair. It returns false if
// such a pair does not exist. Panics if the cursor is closed.
func (c *BadgerCursor) First() bool {
	if c.isClosed {
		panic("cannot call first on a closed cursor")
	}
	c.isStarted = true
	c.iterator.Seek(c.prefix)
	return c.iterator.ValidForPrefix(c.prefix)
}

// Seek moves the iterator to the given key. It returns ErrNotFound
// if the key does not exist.
func (c *BadgerCursor) Seek(key *database.Key) error {
	if c.isClosed {
		return errors.New("cannot seek a closed cursor")
	}
	c.isStarted = true
	keyBytes := key.Bytes()
	c.iterator.Seek(keyBytes)
	if !c.iterator.ValidForPrefix(c.prefix) ||
		!bytes.Equal(c.iterator.Item().Key(), keyBytes) {

		return errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	}
	return nil
}

// Key returns the key of the current key/value pair, or ErrNotFound if done.
func (c *BadgerCursor) Key() (*database.Key, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	if !c.isStarted || !c.iterator.ValidForPrefix(c.prefix) {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"key of an exhausted cursor")
	}
	fullKey := c.iterator.Item().KeyCopy(nil)
	return c.bucket.Key(fullKey[len(c.prefix):]), nil
}

// Value returns the value of the current key/value pair, or ErrNotFound if done.
func (c *BadgerCursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	if !c.isStarted || !c.iterator.ValidForPrefix(c.prefix) {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the "+
			"value of an exhausted cursor")
	}
	value, err := c.iterator.Item().ValueCopy(nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return value, nil
}

// Close releases associated resources.
func (c *BadgerCursor) Close() error {
	if c.isClosed {
		return errors.New("cannot close an already closed cursor")
	}
	c.isClosed = true
	c.iterator.Close()
	if c.ownsTxn {
		c.txn.Discard()
	}
	return nil
}
