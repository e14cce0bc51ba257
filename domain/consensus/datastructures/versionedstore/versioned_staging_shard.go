package versionedstore

import (
	"github.com/viewledger/viewd/domain/consensus/model"
)

type versionedStagingShard struct {
	store       *versionedStore
	toAdd       map[string]map[uint64][]byte
	toDelete    map[string]map[uint64]struct{}
	deleteAbove *uint64
	pruneBelow  *uint64
}

func (vs *versionedStore) stagingShard(stagingArea *model.StagingArea) *versionedStagingShard {
	return stagingArea.GetOrCreateShard(vs.shardID, func() model.StagingShard {
		return &versionedStagingShard{
			store:    vs,
			toAdd:    make(map[string]map[uint64][]byte),
			toDelete: make(map[string]map[uint64]struct{}),
		}
	}).(*versionedStagingShard)
}

func (vss *versionedStagingShard) Commit(dbTx model.DBTransaction) error {
	if vss.deleteAbove != nil {
		err := vss.store.deleteJournaledVersionsAbove(dbTx, *vss.deleteAbove)
		if err != nil {
			return err
		}
		vss.store.cache.Purge()
	}

	for entity, heights := range vss.toDelete {
		for height := range heights {
			err := vss.store.deleteVersion(dbTx, []byte(entity), height)
			if err != nil {
				return err
			}
		}
		vss.store.cache.Remove(entity)
	}

	for entity, versions := range vss.toAdd {
		for height, record := range versions {
			err := dbTx.Put(vss.store.versionKey([]byte(entity), height), record)
			if err != nil {
				return err
			}
			err = dbTx.Put(vss.store.journalKey(height, []byte(entity)), []byte{})
			if err != nil {
				return err
			}
		}
		vss.store.cache.Remove(entity)
	}

	if vss.pruneBelow != nil {
		err := vss.store.pruneJournaledVersions(dbTx, *vss.pruneBelow)
		if err != nil {
			return err
		}
	}

	return nil
}

func (vss *versionedStagingShard) isStaged() bool {
	return len(vss.toAdd) != 0 || len(vss.toDelete) != 0 || vss.deleteAbove != nil || vss.pruneBelow != nil
}

// touches returns whether the shard holds any change that may affect
// the reads of the given entity
func (vss *versionedStagingShard) touches(entity string) bool {
	if vss.deleteAbove != nil {
		return true
	}
	if _, ok := vss.toAdd[entity]; ok {
		return true
	}
	_, ok := vss.toDelete[entity]
	return ok
}

func (vss *versionedStagingShard) isDeleted(entity string, height uint64) bool {
	if vss.deleteAbove != nil && height > *vss.deleteAbove {
		return true
	}
	heights, ok := vss.toDelete[entity]
	if !ok {
		return false
	}
	_, ok = heights[height]
	return ok
}
