package votestore

import (
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

type voteStagingShard struct {
	store    *voteStore
	toAdd    map[externalapi.DomainHash]*externalapi.Vote
	toDelete map[externalapi.DomainHash]struct{}
}

func (vs *voteStore) stagingShard(stagingArea *model.StagingArea) *voteStagingShard {
	return stagingArea.GetOrCreateShard(vs.shardID, func() model.StagingShard {
		return &voteStagingShard{
			store:    vs,
			toAdd:    make(map[externalapi.DomainHash]*externalapi.Vote),
			toDelete: make(map[externalapi.DomainHash]struct{}),
		}
	}).(*voteStagingShard)
}

func (vss *voteStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash, vote := range vss.toAdd {
		voteBytes, err := serialization.SerializeVote(vote)
		if err != nil {
			return err
		}
		err = dbTx.Put(vss.store.hashAsKey(&hash), voteBytes)
		if err != nil {
			return err
		}
		vss.store.cache.Add(hash, vote)
	}

	for hash := range vss.toDelete {
		err := dbTx.Delete(vss.store.hashAsKey(&hash))
		if err != nil {
			return err
		}
		vss.store.cache.Remove(hash)
	}

	return nil
}

func (vss *voteStagingShard) isStaged() bool {
	return len(vss.toAdd) != 0 || len(vss.toDelete) != 0
}
