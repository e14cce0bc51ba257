package model

import "github.com/viewledger/viewd/domain/consensus/model/externalapi"

// DifficultyManager provides a method to resolve the
// difficulty value of the next view
type DifficultyManager interface {
	StartingDifficulty() uint32
	Scale(stagingArea *StagingArea, chainState *externalapi.ChainState) (uint32, error)
}
