package model

import "github.com/viewledger/viewd/domain/consensus/model/externalapi"

// ChainStateStore represents a store for the latest ChainState and
// its per-height snapshots
type ChainStateStore interface {
	Store
	Stage(stagingArea *StagingArea, chainState *externalapi.ChainState)
	ChainState(dbContext DBReader, stagingArea *StagingArea) (*externalapi.ChainState, error)
	ChainStateAt(dbContext DBReader, stagingArea *StagingArea, height uint64) (*externalapi.ChainState, error)
	HasChainState(dbContext DBReader, stagingArea *StagingArea) (bool, error)
	DeleteSnapshot(stagingArea *StagingArea, height uint64)
	ResetCache()
}
