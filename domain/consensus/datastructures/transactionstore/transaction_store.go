package transactionstore

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

var bucketName = []byte("transactions")

// transactionStore represents a store of transactions
type transactionStore struct {
	shardID model.StagingShardID
	cache   *lru.Cache
	bucket  model.DBBucket
}

// New instantiates a new TransactionStore
func New(prefixBucket model.DBBucket, cacheSize int) (model.TransactionStore, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &transactionStore{
		shardID: model.StagingShardID("TransactionStore"),
		cache:   cache,
		bucket:  prefixBucket.Bucket(bucketName),
	}, nil
}

// Stage stages the given transaction for the given transactionHash
func (ts *transactionStore) Stage(stagingArea *model.StagingArea, transactionHash *externalapi.DomainHash, transaction *externalapi.Transaction) {
	stagingShard := ts.stagingShard(stagingArea)
	delete(stagingShard.toDelete, *transactionHash)
	stagingShard.toAdd[*transactionHash] = transaction.Clone()
}

func (ts *transactionStore) IsStaged(stagingArea *model.StagingArea) bool {
	return ts.stagingShard(stagingArea).isStaged()
}

// Transaction gets the transaction associated with the given transactionHash
func (ts *transactionStore) Transaction(dbContext model.DBReader, stagingArea *model.StagingArea,
	transactionHash *externalapi.DomainHash) (*externalapi.Transaction, error) {

	stagingShard := ts.stagingShard(stagingArea)

	return ts.transaction(dbContext, stagingShard, transactionHash)
}

func (ts *transactionStore) transaction(dbContext model.DBReader, stagingShard *transactionStagingShard,
	transactionHash *externalapi.DomainHash) (*externalapi.Transaction, error) {

	if transaction, ok := stagingShard.toAdd[*transactionHash]; ok {
		return transaction.Clone(), nil
	}
	if _, ok := stagingShard.toDelete[*transactionHash]; ok {
		return nil, errors.Wrapf(database.ErrNotFound, "transaction %s is staged for deletion", transactionHash)
	}

	if transaction, ok := ts.cache.Get(*transactionHash); ok {
		return transaction.(*externalapi.Transaction).Clone(), nil
	}

	transactionBytes, err := dbContext.Get(ts.hashAsKey(transactionHash))
	if err != nil {
		return nil, err
	}

	transaction, err := serialization.DeserializeTransaction(transactionBytes)
	if err != nil {
		return nil, err
	}
	ts.cache.Add(*transactionHash, transaction)
	return transaction.Clone(), nil
}

// HasTransaction returns whether a transaction with a given hash exists in the store.
func (ts *transactionStore) HasTransaction(dbContext model.DBReader, stagingArea *model.StagingArea,
	transactionHash *externalapi.DomainHash) (bool, error) {

	stagingShard := ts.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[*transactionHash]; ok {
		return true, nil
	}
	if _, ok := stagingShard.toDelete[*transactionHash]; ok {
		return false, nil
	}

	if ts.cache.Contains(*transactionHash) {
		return true, nil
	}

	return dbContext.Has(ts.hashAsKey(transactionHash))
}

// Transactions gets the transactions associated with the given transactionHashes
func (ts *transactionStore) Transactions(dbContext model.DBReader, stagingArea *model.StagingArea,
	transactionHashes []*externalapi.DomainHash) ([]*externalapi.Transaction, error) {

	stagingShard := ts.stagingShard(stagingArea)

	transactions := make([]*externalapi.Transaction, len(transactionHashes))
	for i, hash := range transactionHashes {
		var err error
		transactions[i], err = ts.transaction(dbContext, stagingShard, hash)
		if err != nil {
			return nil, err
		}
	}
	return transactions, nil
}

// Delete deletes the transaction associated with the given transactionHash
func (ts *transactionStore) Delete(stagingArea *model.StagingArea, transactionHash *externalapi.DomainHash) {
	stagingShard := ts.stagingShard(stagingArea)

	delete(stagingShard.toAdd, *transactionHash)
	stagingShard.toDelete[*transactionHash] = struct{}{}
}

// ResetCache drops every cached transaction
func (ts *transactionStore) ResetCache() {
	ts.cache.Purge()
}

func (ts *transactionStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return ts.bucket.Key(hash.ByteSlice())
}
