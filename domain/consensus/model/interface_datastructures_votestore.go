package model

import "github.com/viewledger/viewd/domain/consensus/model/externalapi"

// VoteStore represents a store of committed votes
type VoteStore interface {
	Store
	Stage(stagingArea *StagingArea, voteHash *externalapi.DomainHash, vote *externalapi.Vote)
	Vote(dbContext DBReader, stagingArea *StagingArea, voteHash *externalapi.DomainHash) (*externalapi.Vote, error)
	HasVote(dbContext DBReader, stagingArea *StagingArea, voteHash *externalapi.DomainHash) (bool, error)
	Votes(dbContext DBReader, stagingArea *StagingArea, voteHashes []*externalapi.DomainHash) ([]*externalapi.Vote, error)
	Delete(stagingArea *StagingArea, voteHash *externalapi.DomainHash)
	ResetCache()
}
