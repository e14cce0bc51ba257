package transactionstore

import (
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

type transactionStagingShard struct {
	store    *transactionStore
	toAdd    map[externalapi.DomainHash]*externalapi.Transaction
	toDelete map[externalapi.DomainHash]struct{}
}

func (ts *transactionStore) stagingShard(stagingArea *model.StagingArea) *transactionStagingShard {
	return stagingArea.GetOrCreateShard(ts.shardID, func() model.StagingShard {
		return &transactionStagingShard{
			store:    ts,
			toAdd:    make(map[externalapi.DomainHash]*externalapi.Transaction),
			toDelete: make(map[externalapi.DomainHash]struct{}),
		}
	}).(*transactionStagingShard)
}

func (tss *transactionStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash, transaction := range tss.toAdd {
		transactionBytes, err := serialization.SerializeTransaction(transaction)
		if err != nil {
			return err
		}
		err = dbTx.Put(tss.store.hashAsKey(&hash), transactionBytes)
		if err != nil {
			return err
		}
		tss.store.cache.Add(hash, transaction)
	}

	for hash := range tss.toDelete {
		err := dbTx.Delete(tss.store.hashAsKey(&hash))
		if err != nil {
			return err
		}
		tss.store.cache.Remove(hash)
	}

	return nil
}

func (tss *transactionStagingShard) isStaged() bool {
	return len(tss.toAdd) != 0 || len(tss.toDelete) != 0
}
