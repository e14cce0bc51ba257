package votestore

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

var bucketName = []byte("votes")

// voteStore represents a store of votes
type voteStore struct {
	shardID model.StagingShardID
	cache   *lru.Cache
	bucket  model.DBBucket
}

// New instantiates a new VoteStore
func New(prefixBucket model.DBBucket, cacheSize int) (model.VoteStore, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &voteStore{
		shardID: model.StagingShardID("VoteStore"),
		cache:   cache,
		bucket:  prefixBucket.Bucket(bucketName),
	}, nil
}

// Stage stages the given vote for the given voteHash
func (vs *voteStore) Stage(stagingArea *model.StagingArea, voteHash *externalapi.DomainHash, vote *externalapi.Vote) {
	stagingShard := vs.stagingShard(stagingArea)
	delete(stagingShard.toDelete, *voteHash)
	stagingShard.toAdd[*voteHash] = vote.Clone()
}

func (vs *voteStore) IsStaged(stagingArea *model.StagingArea) bool {
	return vs.stagingShard(stagingArea).isStaged()
}

// Vote gets the vote associated with the given voteHash
func (vs *voteStore) Vote(dbContext model.DBReader, stagingArea *model.StagingArea,
	voteHash *externalapi.DomainHash) (*externalapi.Vote, error) {

	stagingShard := vs.stagingShard(stagingArea)

	return vs.vote(dbContext, stagingShard, voteHash)
}

func (vs *voteStore) vote(dbContext model.DBReader, stagingShard *voteStagingShard,
	voteHash *externalapi.DomainHash) (*externalapi.Vote, error) {

	if vote, ok := stagingShard.toAdd[*voteHash]; ok {
		return vote.Clone(), nil
	}
	if _, ok := stagingShard.toDelete[*voteHash]; ok {
		return nil, errors.Wrapf(database.ErrNotFound, "vote %s is staged for deletion", voteHash)
	}

	if vote, ok := vs.cache.Get(*voteHash); ok {
		return vote.(*externalapi.Vote).Clone(), nil
	}

	voteBytes, err := dbContext.Get(vs.hashAsKey(voteHash))
	if err != nil {
		return nil, err
	}

	vote, err := serialization.DeserializeVote(voteBytes)
	if err != nil {
		return nil, err
	}
	vs.cache.Add(*voteHash, vote)
	return vote.Clone(), nil
}

// HasVote returns whether a vote with a given hash exists in the store.
func (vs *voteStore) HasVote(dbContext model.DBReader, stagingArea *model.StagingArea,
	voteHash *externalapi.DomainHash) (bool, error) {

	stagingShard := vs.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[*voteHash]; ok {
		return true, nil
	}
	if _, ok := stagingShard.toDelete[*voteHash]; ok {
		return false, nil
	}

	if vs.cache.Contains(*voteHash) {
		return true, nil
	}

	return dbContext.Has(vs.hashAsKey(voteHash))
}

// Votes gets the votes associated with the given voteHashes
func (vs *voteStore) Votes(dbContext model.DBReader, stagingArea *model.StagingArea,
	voteHashes []*externalapi.DomainHash) ([]*externalapi.Vote, error) {

	stagingShard := vs.stagingShard(stagingArea)

	votes := make([]*externalapi.Vote, len(voteHashes))
	for i, hash := range voteHashes {
		var err error
		votes[i], err = vs.vote(dbContext, stagingShard, hash)
		if err != nil {
			return nil, err
		}
	}
	return votes, nil
}

// Delete deletes the vote associated with the given voteHash
func (vs *voteStore) Delete(stagingArea *model.StagingArea, voteHash *externalapi.DomainHash) {
	stagingShard := vs.stagingShard(stagingArea)

	delete(stagingShard.toAdd, *voteHash)
	stagingShard.toDelete[*voteHash] = struct{}{}
}

// ResetCache drops every cached vote
func (vs *voteStore) ResetCache() {
	vs.cache.Purge()
}

func (vs *voteStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return vs.bucket.Key(hash.ByteSlice())
}
