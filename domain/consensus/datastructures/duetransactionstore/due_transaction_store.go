package duetransactionstore

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

var bucketName = []byte("due-transactions")

// dueTransactionStore indexes escrowed future-dated transactions by hash
type dueTransactionStore struct {
	shardID model.StagingShardID
	bucket  model.DBBucket
}

// New instantiates a new DueTransactionStore
func New(prefixBucket model.DBBucket) model.DueTransactionStore {
	return &dueTransactionStore{
		shardID: model.StagingShardID("DueTransactionStore"),
		bucket:  prefixBucket.Bucket(bucketName),
	}
}

func (dts *dueTransactionStore) Stage(stagingArea *model.StagingArea, transactionHash *externalapi.DomainHash, dueTimestamp int64) {
	stagingShard := dts.stagingShard(stagingArea)
	delete(stagingShard.toDelete, *transactionHash)
	stagingShard.toAdd[*transactionHash] = dueTimestamp
}

func (dts *dueTransactionStore) IsStaged(stagingArea *model.StagingArea) bool {
	return dts.stagingShard(stagingArea).isStaged()
}

func (dts *dueTransactionStore) Delete(stagingArea *model.StagingArea, transactionHash *externalapi.DomainHash) {
	stagingShard := dts.stagingShard(stagingArea)
	delete(stagingShard.toAdd, *transactionHash)
	stagingShard.toDelete[*transactionHash] = struct{}{}
}

func (dts *dueTransactionStore) Has(dbContext model.DBReader, stagingArea *model.StagingArea,
	transactionHash *externalapi.DomainHash) (bool, error) {

	stagingShard := dts.stagingShard(stagingArea)
	if _, ok := stagingShard.toAdd[*transactionHash]; ok {
		return true, nil
	}
	if _, ok := stagingShard.toDelete[*transactionHash]; ok {
		return false, nil
	}
	return dbContext.Has(dts.hashAsKey(transactionHash))
}

// DueTimestamp returns the timestamp at which the given escrowed
// transaction becomes due
func (dts *dueTransactionStore) DueTimestamp(dbContext model.DBReader, stagingArea *model.StagingArea,
	transactionHash *externalapi.DomainHash) (int64, error) {

	stagingShard := dts.stagingShard(stagingArea)
	if dueTimestamp, ok := stagingShard.toAdd[*transactionHash]; ok {
		return dueTimestamp, nil
	}
	if _, ok := stagingShard.toDelete[*transactionHash]; ok {
		return 0, errors.Wrapf(database.ErrNotFound, "due transaction %s is staged for deletion", transactionHash)
	}

	timestampBytes, err := dbContext.Get(dts.hashAsKey(transactionHash))
	if err != nil {
		return 0, err
	}
	dueTimestamp, err := serialization.KeyBytesToUint64(timestampBytes)
	if err != nil {
		return 0, err
	}
	return int64(dueTimestamp), nil
}

// All returns the hashes of every escrowed transaction, ordered by hash
func (dts *dueTransactionStore) All(dbContext model.DBReader, stagingArea *model.StagingArea) ([]*externalapi.DomainHash, error) {
	stagingShard := dts.stagingShard(stagingArea)

	cursor, err := dbContext.Cursor(dts.bucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	hashes := make(map[externalapi.DomainHash]struct{})
	for cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		hash, err := externalapi.NewDomainHashFromByteSlice(key.Suffix())
		if err != nil {
			return nil, err
		}
		if _, ok := stagingShard.toDelete[*hash]; ok {
			continue
		}
		hashes[*hash] = struct{}{}
	}
	for hash := range stagingShard.toAdd {
		hashes[hash] = struct{}{}
	}

	result := make([]*externalapi.DomainHash, 0, len(hashes))
	for hash := range hashes {
		hash := hash
		result = append(result, &hash)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Less(result[j])
	})
	return result, nil
}

func (dts *dueTransactionStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return dts.bucket.Key(hash.ByteSlice())
}
