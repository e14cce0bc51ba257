package blockstore

import (
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

type blockStagingShard struct {
	store    *blockStore
	toAdd    map[externalapi.DomainHash]*externalapi.Block
	toDelete map[externalapi.DomainHash]struct{}
}

func (bs *blockStore) stagingShard(stagingArea *model.StagingArea) *blockStagingShard {
	return stagingArea.GetOrCreateShard(bs.shardID, func() model.StagingShard {
		return &blockStagingShard{
			store:    bs,
			toAdd:    make(map[externalapi.DomainHash]*externalapi.Block),
			toDelete: make(map[externalapi.DomainHash]struct{}),
		}
	}).(*blockStagingShard)
}

func (bss *blockStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash, block := range bss.toAdd {
		blockBytes, err := serialization.SerializeBlock(block)
		if err != nil {
			return err
		}
		err = dbTx.Put(bss.store.hashAsKey(&hash), blockBytes)
		if err != nil {
			return err
		}
		bss.store.cache.Add(hash, block)
	}

	for hash := range bss.toDelete {
		err := dbTx.Delete(bss.store.hashAsKey(&hash))
		if err != nil {
			return err
		}
		bss.store.cache.Remove(hash)
	}

	return nil
}

func (bss *blockStagingShard) isStaged() bool {
	return len(bss.toAdd) != 0 || len(bss.toDelete) != 0
}
