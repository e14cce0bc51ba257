package model

import "github.com/viewledger/viewd/domain/consensus/model/externalapi"

// LedgerWorkingSet is the mutable set of ledgers touched since the last
// committed view. Ledgers are loaded lazily from the repository.
type LedgerWorkingSet interface {
	// Ledger returns a copy of the ledger of the given address. An
	// address that was never written has an empty ledger.
	Ledger(address *externalapi.Address) (*externalapi.Ledger, error)

	// SetLedger replaces the ledger of ledger.Address. The ledger must
	// have been read through Ledger first.
	SetLedger(ledger *externalapi.Ledger)

	// Original returns the last committed version of the ledger, if any.
	Original(address *externalapi.Address) (*externalapi.Ledger, bool)

	// DirtyLedgers returns the ledgers that differ from their committed
	// version, sorted by address.
	DirtyLedgers() []*externalapi.Ledger
	MarkCommitted()
	EvictSettled()
	Clear()
}

// ValidatorWorkingSet is the mutable set of validators touched since the
// last committed view. Validators are loaded lazily from the repository.
type ValidatorWorkingSet interface {
	Validator(nodeAddress *externalapi.Address) (*externalapi.Validator, bool, error)
	SetValidator(validator *externalapi.Validator)

	// RemoveValidator drops the validator from the working set. Removed
	// validators are not reported as dirty.
	RemoveValidator(nodeAddress *externalapi.Address)
	Validators() ([]*externalapi.Validator, error)
	DirtyValidators() []*externalapi.Validator
	MarkCommitted()
	Clear()
}

// StateCache holds the objects admitted since the last committed view,
// the working sets of the view being built, and the latest committed
// View and ChainState.
type StateCache interface {
	AddPendingBlock(blockHash *externalapi.DomainHash, block *externalapi.Block)
	AddPendingVote(voteHash *externalapi.DomainHash, vote *externalapi.Vote)
	AddPendingTransaction(transactionHash *externalapi.DomainHash, transaction *externalapi.Transaction)

	PendingBlock(blockHash *externalapi.DomainHash) (*externalapi.Block, bool)
	PendingVote(voteHash *externalapi.DomainHash) (*externalapi.Vote, bool)
	PendingTransaction(transactionHash *externalapi.DomainHash) (*externalapi.Transaction, bool)

	RemovePendingBlock(blockHash *externalapi.DomainHash) bool
	RemovePendingVote(voteHash *externalapi.DomainHash) bool
	RemovePendingTransaction(transactionHash *externalapi.DomainHash) bool

	PendingBlocks() []*externalapi.Block
	PendingVotes() []*externalapi.Vote
	PendingTransactions() []*externalapi.Transaction
	PendingCounts() (blocks, votes, transactions int)

	ClearPendingBlocks()
	ClearPendingVotes()

	LedgerWorkingSet() LedgerWorkingSet
	ValidatorWorkingSet() ValidatorWorkingSet

	CurrentView() *externalapi.View
	CurrentState() *externalapi.ChainState
	SetCurrent(view *externalapi.View, chainState *externalapi.ChainState)

	IsLoaded() bool
	Clear()
	Reload(repository Repository) error
	EvictSettledLedgers()
}
