package chainstatestore

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

var (
	bucketName          = []byte("chain-state")
	latestKeyName       = []byte("latest")
	snapshotsBucketName = []byte("snapshots")
)

// chainStateStore keeps the latest ChainState together with a snapshot
// of it for every committed height
type chainStateStore struct {
	shardID         model.StagingShardID
	latest          *externalapi.ChainState
	snapshotCache   *lru.Cache
	latestKey       model.DBKey
	snapshotsBucket model.DBBucket
}

// New instantiates a new ChainStateStore
func New(prefixBucket model.DBBucket, cacheSize int) (model.ChainStateStore, error) {
	snapshotCache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	bucket := prefixBucket.Bucket(bucketName)
	return &chainStateStore{
		shardID:         model.StagingShardID("ChainStateStore"),
		snapshotCache:   snapshotCache,
		latestKey:       bucket.Key(latestKeyName),
		snapshotsBucket: bucket.Bucket(snapshotsBucketName),
	}, nil
}

// Stage stages the given chain state as the latest one, and as the
// snapshot of its height
func (css *chainStateStore) Stage(stagingArea *model.StagingArea, chainState *externalapi.ChainState) {
	stagingShard := css.stagingShard(stagingArea)
	delete(stagingShard.snapshotsToDelete, chainState.ID)
	stagingShard.newChainState = chainState.Clone()
}

func (css *chainStateStore) IsStaged(stagingArea *model.StagingArea) bool {
	return css.stagingShard(stagingArea).isStaged()
}

// ChainState returns the latest chain state
func (css *chainStateStore) ChainState(dbContext model.DBReader, stagingArea *model.StagingArea) (*externalapi.ChainState, error) {
	stagingShard := css.stagingShard(stagingArea)
	if stagingShard.newChainState != nil {
		return stagingShard.newChainState.Clone(), nil
	}

	if css.latest != nil {
		return css.latest.Clone(), nil
	}

	stateBytes, err := dbContext.Get(css.latestKey)
	if err != nil {
		return nil, err
	}
	chainState, err := serialization.DeserializeChainState(stateBytes)
	if err != nil {
		return nil, err
	}
	css.latest = chainState
	return chainState.Clone(), nil
}

// ChainStateAt returns the snapshot of the chain state taken when the
// view at the given height was committed
func (css *chainStateStore) ChainStateAt(dbContext model.DBReader, stagingArea *model.StagingArea,
	height uint64) (*externalapi.ChainState, error) {

	stagingShard := css.stagingShard(stagingArea)
	if stagingShard.newChainState != nil && stagingShard.newChainState.ID == height {
		return stagingShard.newChainState.Clone(), nil
	}
	if _, ok := stagingShard.snapshotsToDelete[height]; ok {
		return nil, errors.Wrapf(database.ErrNotFound, "chain state snapshot %d is staged for deletion", height)
	}

	if chainState, ok := css.snapshotCache.Get(height); ok {
		return chainState.(*externalapi.ChainState).Clone(), nil
	}

	stateBytes, err := dbContext.Get(css.snapshotKey(height))
	if err != nil {
		return nil, err
	}
	chainState, err := serialization.DeserializeChainState(stateBytes)
	if err != nil {
		return nil, err
	}
	css.snapshotCache.Add(height, chainState)
	return chainState.Clone(), nil
}

// HasChainState returns whether any chain state was ever committed
func (css *chainStateStore) HasChainState(dbContext model.DBReader, stagingArea *model.StagingArea) (bool, error) {
	stagingShard := css.stagingShard(stagingArea)
	if stagingShard.newChainState != nil || css.latest != nil {
		return true, nil
	}
	return dbContext.Has(css.latestKey)
}

// DeleteSnapshot deletes the chain state snapshot of the given height.
// The latest chain state is never deleted, only overwritten.
func (css *chainStateStore) DeleteSnapshot(stagingArea *model.StagingArea, height uint64) {
	stagingShard := css.stagingShard(stagingArea)
	stagingShard.snapshotsToDelete[height] = struct{}{}
}

func (css *chainStateStore) ResetCache() {
	css.latest = nil
	css.snapshotCache.Purge()
}

func (css *chainStateStore) snapshotKey(height uint64) model.DBKey {
	return css.snapshotsBucket.Key(serialization.Uint64ToKeyBytes(height))
}
