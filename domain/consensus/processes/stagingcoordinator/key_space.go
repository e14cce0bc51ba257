package stagingcoordinator

import (
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model"
)

type keyValue struct {
	key   model.DBKey
	value []byte
}

func readKeySpace(source model.DBReader, bucket model.DBBucket) ([]*keyValue, error) {
	cursor, err := source.Cursor(bucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var entries []*keyValue
	for cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		value, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		entries = append(entries, &keyValue{key: bucket.Key(key.Suffix()), value: value})
	}
	return entries, nil
}

// copyKeySpace writes every entry of bucket in source into target in a
// single transaction
func copyKeySpace(source model.DBReader, target model.DBManager, bucket model.DBBucket) error {
	entries, err := readKeySpace(source, bucket)
	if err != nil {
		return err
	}

	dbTx, err := target.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	for _, entry := range entries {
		err := dbTx.Put(entry.key, entry.value)
		if err != nil {
			return err
		}
	}
	return errors.WithStack(dbTx.Commit())
}

// replaceKeySpace makes bucket in target an exact copy of bucket in
// source, in a single transaction
func replaceKeySpace(target model.DBManager, source model.DBReader, bucket model.DBBucket) error {
	stale, err := readKeySpace(target, bucket)
	if err != nil {
		return err
	}
	entries, err := readKeySpace(source, bucket)
	if err != nil {
		return err
	}

	dbTx, err := target.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	for _, entry := range stale {
		err := dbTx.Delete(entry.key)
		if err != nil {
			return err
		}
	}
	for _, entry := range entries {
		err := dbTx.Put(entry.key, entry.value)
		if err != nil {
			return err
		}
	}
	return errors.WithStack(dbTx.Commit())
}
