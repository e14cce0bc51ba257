package viewstore

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

var (
	viewsBucketName      = []byte("views")
	viewHashesBucketName = []byte("view-hashes")
)

// viewStore represents a store of views, keyed by height, with a
// secondary index from view hash to height
type viewStore struct {
	shardID      model.StagingShardID
	cache        *lru.Cache
	viewsBucket  model.DBBucket
	hashesBucket model.DBBucket
}

// New instantiates a new ViewStore
func New(prefixBucket model.DBBucket, cacheSize int) (model.ViewStore, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &viewStore{
		shardID:      model.StagingShardID("ViewStore"),
		cache:        cache,
		viewsBucket:  prefixBucket.Bucket(viewsBucketName),
		hashesBucket: prefixBucket.Bucket(viewHashesBucketName),
	}, nil
}

// Stage stages the given view under its height and hash
func (vs *viewStore) Stage(stagingArea *model.StagingArea, viewHash *externalapi.DomainHash, view *externalapi.View) {
	stagingShard := vs.stagingShard(stagingArea)
	stagingShard.toAdd[view.ID] = &stagedView{hash: viewHash, view: view.Clone()}
}

func (vs *viewStore) IsStaged(stagingArea *model.StagingArea) bool {
	return vs.stagingShard(stagingArea).isStaged()
}

// View gets the view at the given height
func (vs *viewStore) View(dbContext model.DBReader, stagingArea *model.StagingArea, height uint64) (*externalapi.View, error) {
	stagingShard := vs.stagingShard(stagingArea)
	return vs.view(dbContext, stagingShard, height)
}

func (vs *viewStore) view(dbContext model.DBReader, stagingShard *viewStagingShard, height uint64) (*externalapi.View, error) {
	if staged, ok := stagingShard.toAdd[height]; ok {
		return staged.view.Clone(), nil
	}
	if _, ok := stagingShard.toDelete[height]; ok {
		return nil, errors.Wrapf(database.ErrNotFound, "view %d is staged for deletion", height)
	}

	if view, ok := vs.cache.Get(height); ok {
		return view.(*externalapi.View).Clone(), nil
	}

	viewBytes, err := dbContext.Get(vs.heightAsKey(height))
	if err != nil {
		return nil, err
	}
	view, err := serialization.DeserializeView(viewBytes)
	if err != nil {
		return nil, err
	}
	vs.cache.Add(height, view)
	return view.Clone(), nil
}

// ViewByHash gets the view with the given hash
func (vs *viewStore) ViewByHash(dbContext model.DBReader, stagingArea *model.StagingArea,
	viewHash *externalapi.DomainHash) (*externalapi.View, error) {

	stagingShard := vs.stagingShard(stagingArea)
	for _, staged := range stagingShard.toAdd {
		if staged.hash.Equal(viewHash) {
			return staged.view.Clone(), nil
		}
	}

	heightBytes, err := dbContext.Get(vs.hashAsKey(viewHash))
	if err != nil {
		return nil, err
	}
	height, err := serialization.KeyBytesToUint64(heightBytes)
	if err != nil {
		return nil, err
	}
	if deletedHash, ok := stagingShard.toDelete[height]; ok && deletedHash.Equal(viewHash) {
		return nil, errors.Wrapf(database.ErrNotFound, "view %s is staged for deletion", viewHash)
	}
	return vs.view(dbContext, stagingShard, height)
}

// HasView returns whether a view exists at the given height
func (vs *viewStore) HasView(dbContext model.DBReader, stagingArea *model.StagingArea, height uint64) (bool, error) {
	stagingShard := vs.stagingShard(stagingArea)
	if _, ok := stagingShard.toAdd[height]; ok {
		return true, nil
	}
	if _, ok := stagingShard.toDelete[height]; ok {
		return false, nil
	}
	if vs.cache.Contains(height) {
		return true, nil
	}
	return dbContext.Has(vs.heightAsKey(height))
}

// Delete deletes the view with the given hash at the given height
func (vs *viewStore) Delete(stagingArea *model.StagingArea, viewHash *externalapi.DomainHash, height uint64) {
	stagingShard := vs.stagingShard(stagingArea)
	delete(stagingShard.toAdd, height)
	stagingShard.toDelete[height] = viewHash
}

// ResetCache drops every cached view
func (vs *viewStore) ResetCache() {
	vs.cache.Purge()
}

func (vs *viewStore) heightAsKey(height uint64) model.DBKey {
	return vs.viewsBucket.Key(serialization.Uint64ToKeyBytes(height))
}

func (vs *viewStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return vs.hashesBucket.Key(hash.ByteSlice())
}
