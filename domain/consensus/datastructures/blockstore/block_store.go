package blockstore

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

var bucketName = []byte("blocks")

// blockStore represents a store of blocks
type blockStore struct {
	shardID model.StagingShardID
	cache   *lru.Cache
	bucket  model.DBBucket
}

// New instantiates a new BlockStore
func New(prefixBucket model.DBBucket, cacheSize int) (model.BlockStore, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &blockStore{
		shardID: model.StagingShardID("BlockStore"),
		cache:   cache,
		bucket:  prefixBucket.Bucket(bucketName),
	}, nil
}

// Stage stages the given block for the given blockHash
func (bs *blockStore) Stage(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash, block *externalapi.Block) {
	stagingShard := bs.stagingShard(stagingArea)
	delete(stagingShard.toDelete, *blockHash)
	stagingShard.toAdd[*blockHash] = block.Clone()
}

func (bs *blockStore) IsStaged(stagingArea *model.StagingArea) bool {
	return bs.stagingShard(stagingArea).isStaged()
}

// Block gets the block associated with the given blockHash
func (bs *blockStore) Block(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*externalapi.Block, error) {

	stagingShard := bs.stagingShard(stagingArea)

	return bs.block(dbContext, stagingShard, blockHash)
}

func (bs *blockStore) block(dbContext model.DBReader, stagingShard *blockStagingShard,
	blockHash *externalapi.DomainHash) (*externalapi.Block, error) {

	if block, ok := stagingShard.toAdd[*blockHash]; ok {
		return block.Clone(), nil
	}
	if _, ok := stagingShard.toDelete[*blockHash]; ok {
		return nil, errors.Wrapf(database.ErrNotFound, "block %s is staged for deletion", blockHash)
	}

	if block, ok := bs.cache.Get(*blockHash); ok {
		return block.(*externalapi.Block).Clone(), nil
	}

	blockBytes, err := dbContext.Get(bs.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}

	block, err := serialization.DeserializeBlock(blockBytes)
	if err != nil {
		return nil, err
	}
	bs.cache.Add(*blockHash, block)
	return block.Clone(), nil
}

// HasBlock returns whether a block with a given hash exists in the store.
func (bs *blockStore) HasBlock(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (bool, error) {

	stagingShard := bs.stagingShard(stagingArea)

	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		return true, nil
	}
	if _, ok := stagingShard.toDelete[*blockHash]; ok {
		return false, nil
	}

	if bs.cache.Contains(*blockHash) {
		return true, nil
	}

	return dbContext.Has(bs.hashAsKey(blockHash))
}

// Blocks gets the blocks associated with the given blockHashes
func (bs *blockStore) Blocks(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHashes []*externalapi.DomainHash) ([]*externalapi.Block, error) {

	stagingShard := bs.stagingShard(stagingArea)

	blocks := make([]*externalapi.Block, len(blockHashes))
	for i, hash := range blockHashes {
		var err error
		blocks[i], err = bs.block(dbContext, stagingShard, hash)
		if err != nil {
			return nil, err
		}
	}
	return blocks, nil
}

// Delete deletes the block associated with the given blockHash
func (bs *blockStore) Delete(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) {
	stagingShard := bs.stagingShard(stagingArea)

	delete(stagingShard.toAdd, *blockHash)
	stagingShard.toDelete[*blockHash] = struct{}{}
}

// ResetCache drops every cached block
func (bs *blockStore) ResetCache() {
	bs.cache.Purge()
}

func (bs *blockStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return bs.bucket.Key(hash.ByteSlice())
}
