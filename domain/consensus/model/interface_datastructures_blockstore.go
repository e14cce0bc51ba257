package model

import "github.com/viewledger/viewd/domain/consensus/model/externalapi"

// BlockStore represents a store of committed blocks
type BlockStore interface {
	Store
	Stage(stagingArea *StagingArea, blockHash *externalapi.DomainHash, block *externalapi.Block)
	Block(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (*externalapi.Block, error)
	HasBlock(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (bool, error)
	Blocks(dbContext DBReader, stagingArea *StagingArea, blockHashes []*externalapi.DomainHash) ([]*externalapi.Block, error)
	Delete(stagingArea *StagingArea, blockHash *externalapi.DomainHash)
	ResetCache()
}
