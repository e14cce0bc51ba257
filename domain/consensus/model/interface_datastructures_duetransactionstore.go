package model

import "github.com/viewledger/viewd/domain/consensus/model/externalapi"

// DueTransactionStore indexes future-dated transactions that were
// escrowed and wait to be settled by a later view
type DueTransactionStore interface {
	Store
	Stage(stagingArea *StagingArea, transactionHash *externalapi.DomainHash, dueTimestamp int64)
	Delete(stagingArea *StagingArea, transactionHash *externalapi.DomainHash)
	Has(dbContext DBReader, stagingArea *StagingArea, transactionHash *externalapi.DomainHash) (bool, error)
	DueTimestamp(dbContext DBReader, stagingArea *StagingArea, transactionHash *externalapi.DomainHash) (int64, error)
	All(dbContext DBReader, stagingArea *StagingArea) ([]*externalapi.DomainHash, error)
}
