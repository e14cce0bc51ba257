package chainstatestore

import (
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

type chainStateStagingShard struct {
	store             *chainStateStore
	newChainState     *externalapi.ChainState
	snapshotsToDelete map[uint64]struct{}
}

func (css *chainStateStore) stagingShard(stagingArea *model.StagingArea) *chainStateStagingShard {
	return stagingArea.GetOrCreateShard(css.shardID, func() model.StagingShard {
		return &chainStateStagingShard{
			store:             css,
			newChainState:     nil,
			snapshotsToDelete: make(map[uint64]struct{}),
		}
	}).(*chainStateStagingShard)
}

func (csss *chainStateStagingShard) Commit(dbTx model.DBTransaction) error {
	for height := range csss.snapshotsToDelete {
		err := dbTx.Delete(csss.store.snapshotKey(height))
		if err != nil {
			return err
		}
		csss.store.snapshotCache.Remove(height)
	}

	if csss.newChainState == nil {
		return nil
	}

	stateBytes, err := serialization.SerializeChainState(csss.newChainState)
	if err != nil {
		return err
	}
	err = dbTx.Put(csss.store.latestKey, stateBytes)
	if err != nil {
		return err
	}
	err = dbTx.Put(csss.store.snapshotKey(csss.newChainState.ID), stateBytes)
	if err != nil {
		return err
	}

	csss.store.latest = csss.newChainState
	csss.store.snapshotCache.Add(csss.newChainState.ID, csss.newChainState)
	return nil
}

func (csss *chainStateStagingShard) isStaged() bool {
	return csss.newChainState != nil || len(csss.snapshotsToDelete) != 0
}
