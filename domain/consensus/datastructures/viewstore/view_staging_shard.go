package viewstore

import (
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

type stagedView struct {
	hash *externalapi.DomainHash
	view *externalapi.View
}

type viewStagingShard struct {
	store    *viewStore
	toAdd    map[uint64]*stagedView
	toDelete map[uint64]*externalapi.DomainHash
}

func (vs *viewStore) stagingShard(stagingArea *model.StagingArea) *viewStagingShard {
	return stagingArea.GetOrCreateShard(vs.shardID, func() model.StagingShard {
		return &viewStagingShard{
			store:    vs,
			toAdd:    make(map[uint64]*stagedView),
			toDelete: make(map[uint64]*externalapi.DomainHash),
		}
	}).(*viewStagingShard)
}

func (vss *viewStagingShard) Commit(dbTx model.DBTransaction) error {
	for height, viewHash := range vss.toDelete {
		err := dbTx.Delete(vss.store.heightAsKey(height))
		if err != nil {
			return err
		}
		err = dbTx.Delete(vss.store.hashAsKey(viewHash))
		if err != nil {
			return err
		}
		vss.store.cache.Remove(height)
	}

	for height, staged := range vss.toAdd {
		viewBytes, err := serialization.SerializeView(staged.view)
		if err != nil {
			return err
		}
		err = dbTx.Put(vss.store.heightAsKey(height), viewBytes)
		if err != nil {
			return err
		}
		err = dbTx.Put(vss.store.hashAsKey(staged.hash), serialization.Uint64ToKeyBytes(height))
		if err != nil {
			return err
		}
		vss.store.cache.Add(height, staged.view)
	}

	return nil
}

func (vss *viewStagingShard) isStaged() bool {
	return len(vss.toAdd) != 0 || len(vss.toDelete) != 0
}
