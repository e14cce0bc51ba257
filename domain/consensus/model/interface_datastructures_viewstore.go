package model

import "github.com/viewledger/viewd/domain/consensus/model/externalapi"

// ViewStore represents a store of committed views, indexed by
// height and by hash
type ViewStore interface {
	Store
	Stage(stagingArea *StagingArea, viewHash *externalapi.DomainHash, view *externalapi.View)
	View(dbContext DBReader, stagingArea *StagingArea, height uint64) (*externalapi.View, error)
	ViewByHash(dbContext DBReader, stagingArea *StagingArea, viewHash *externalapi.DomainHash) (*externalapi.View, error)
	HasView(dbContext DBReader, stagingArea *StagingArea, height uint64) (bool, error)
	Delete(stagingArea *StagingArea, viewHash *externalapi.DomainHash, height uint64)
	ResetCache()
}
