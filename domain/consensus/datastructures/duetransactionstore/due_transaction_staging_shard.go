package duetransactionstore

import (
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

type dueTransactionStagingShard struct {
	store    *dueTransactionStore
	toAdd    map[externalapi.DomainHash]int64
	toDelete map[externalapi.DomainHash]struct{}
}

func (dts *dueTransactionStore) stagingShard(stagingArea *model.StagingArea) *dueTransactionStagingShard {
	return stagingArea.GetOrCreateShard(dts.shardID, func() model.StagingShard {
		return &dueTransactionStagingShard{
			store:    dts,
			toAdd:    make(map[externalapi.DomainHash]int64),
			toDelete: make(map[externalapi.DomainHash]struct{}),
		}
	}).(*dueTransactionStagingShard)
}

func (dtss *dueTransactionStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash := range dtss.toDelete {
		hash := hash
		err := dbTx.Delete(dtss.store.hashAsKey(&hash))
		if err != nil {
			return err
		}
	}

	for hash, dueTimestamp := range dtss.toAdd {
		hash := hash
		err := dbTx.Put(dtss.store.hashAsKey(&hash), serialization.Uint64ToKeyBytes(uint64(dueTimestamp)))
		if err != nil {
			return err
		}
	}

	return nil
}

func (dtss *dueTransactionStagingShard) isStaged() bool {
	return len(dtss.toAdd) != 0 || len(dtss.toDelete) != 0
}
