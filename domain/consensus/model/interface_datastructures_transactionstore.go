package model

import "github.com/viewledger/viewd/domain/consensus/model/externalapi"

// TransactionStore represents a store of committed transactions,
// including the reward transactions minted by the state machine
type TransactionStore interface {
	Store
	Stage(stagingArea *StagingArea, transactionHash *externalapi.DomainHash, transaction *externalapi.Transaction)
	Transaction(dbContext DBReader, stagingArea *StagingArea,
		transactionHash *externalapi.DomainHash) (*externalapi.Transaction, error)
	HasTransaction(dbContext DBReader, stagingArea *StagingArea, transactionHash *externalapi.DomainHash) (bool, error)
	Transactions(dbContext DBReader, stagingArea *StagingArea,
		transactionHashes []*externalapi.DomainHash) ([]*externalapi.Transaction, error)
	Delete(stagingArea *StagingArea, transactionHash *externalapi.DomainHash)
	ResetCache()
}
