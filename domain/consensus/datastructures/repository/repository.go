package repository

import (
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/datastructures/blockstore"
	"github.com/viewledger/viewd/domain/consensus/datastructures/chainstatestore"
	"github.com/viewledger/viewd/domain/consensus/datastructures/duetransactionstore"
	"github.com/viewledger/viewd/domain/consensus/datastructures/transactionstore"
	"github.com/viewledger/viewd/domain/consensus/datastructures/versionedstore"
	"github.com/viewledger/viewd/domain/consensus/datastructures/viewstore"
	"github.com/viewledger/viewd/domain/consensus/datastructures/votestore"
	"github.com/viewledger/viewd/domain/consensus/model"
)

// RootBucketName is the name of the bucket every chain record lives under
var RootBucketName = []byte("chain")

// CacheSizes configures the LRU caches of the repository's stores
type CacheSizes struct {
	Blocks       int
	Votes        int
	Transactions int
	Views        int
	ChainStates  int
	Versioned    int
}

// DefaultCacheSizes are the cache sizes used by a node
var DefaultCacheSizes = &CacheSizes{
	Blocks:       1000,
	Votes:        1000,
	Transactions: 10000,
	Views:        200,
	ChainStates:  200,
	Versioned:    10000,
}

type repository struct {
	databaseContext model.DBManager
	rootBucket      model.DBBucket

	blockStore          model.BlockStore
	voteStore           model.VoteStore
	transactionStore    model.TransactionStore
	viewStore           model.ViewStore
	chainStateStore     model.ChainStateStore
	dueTransactionStore model.DueTransactionStore
	versionedStores     map[model.VersionedIndex]model.VersionedStore
}

// New instantiates a new Repository over the given database
func New(databaseContext model.DBManager, cacheSizes *CacheSizes) (model.Repository, error) {
	rootBucket := database.MakeBucket(RootBucketName)

	blockStore, err := blockstore.New(rootBucket, cacheSizes.Blocks)
	if err != nil {
		return nil, err
	}
	voteStore, err := votestore.New(rootBucket, cacheSizes.Votes)
	if err != nil {
		return nil, err
	}
	transactionStore, err := transactionstore.New(rootBucket, cacheSizes.Transactions)
	if err != nil {
		return nil, err
	}
	viewStore, err := viewstore.New(rootBucket, cacheSizes.Views)
	if err != nil {
		return nil, err
	}
	chainStateStore, err := chainstatestore.New(rootBucket, cacheSizes.ChainStates)
	if err != nil {
		return nil, err
	}

	versionedStores := make(map[model.VersionedIndex]model.VersionedStore, len(model.AllVersionedIndices))
	for _, index := range model.AllVersionedIndices {
		versionedStores[index], err = versionedstore.New(rootBucket, index, cacheSizes.Versioned)
		if err != nil {
			return nil, err
		}
	}

	return &repository{
		databaseContext:     databaseContext,
		rootBucket:          rootBucket,
		blockStore:          blockStore,
		voteStore:           voteStore,
		transactionStore:    transactionStore,
		viewStore:           viewStore,
		chainStateStore:     chainStateStore,
		dueTransactionStore: duetransactionstore.New(rootBucket),
		versionedStores:     versionedStores,
	}, nil
}

func (r *repository) DatabaseContext() model.DBManager {
	return r.databaseContext
}

func (r *repository) RootBucket() model.DBBucket {
	return r.rootBucket
}

// Commit writes every change staged in stagingArea in a single
// database transaction. The store caches are dropped if the commit
// fails, since shards update them while committing.
func (r *repository) Commit(stagingArea *model.StagingArea) (err error) {
	defer func() {
		if err != nil {
			r.ResetCaches()
		}
	}()

	dbTx, err := r.databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	err = stagingArea.Commit(dbTx)
	if err != nil {
		return err
	}
	return errors.WithStack(dbTx.Commit())
}

// ResetCaches drops the caches of every store. It must be called
// whenever the database is modified behind the repository's back.
func (r *repository) ResetCaches() {
	r.blockStore.ResetCache()
	r.voteStore.ResetCache()
	r.transactionStore.ResetCache()
	r.viewStore.ResetCache()
	r.chainStateStore.ResetCache()
	for _, store := range r.versionedStores {
		store.ResetCache()
	}
}

func (r *repository) versionedStore(index model.VersionedIndex) (model.VersionedStore, error) {
	store, ok := r.versionedStores[index]
	if !ok {
		return nil, errors.Errorf("unknown versioned index %s", index)
	}
	return store, nil
}

func (r *repository) DeleteVersionsAbove(stagingArea *model.StagingArea, height uint64) {
	for _, index := range model.AllVersionedIndices {
		r.versionedStores[index].DeleteVersionsAbove(stagingArea, height)
	}
}

func (r *repository) DeleteNonLatestFromIndexBeforeHeight(stagingArea *model.StagingArea,
	index model.VersionedIndex, height uint64) error {

	store, err := r.versionedStore(index)
	if err != nil {
		return err
	}
	store.DeleteNonLatestBeforeHeight(stagingArea, height)
	return nil
}
