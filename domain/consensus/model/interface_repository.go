package model

import "github.com/viewledger/viewd/domain/consensus/model/externalapi"

// Repository is the durable store of the chain. Every write is staged
// into a StagingArea and becomes durable, atomically, on Commit.
// Dropping a StagingArea without committing it discards its changes.
type Repository interface {
	DatabaseContext() DBManager
	RootBucket() DBBucket
	Commit(stagingArea *StagingArea) error
	ResetCaches()

	StageView(stagingArea *StagingArea, view *externalapi.View) error
	View(stagingArea *StagingArea, height uint64) (*externalapi.View, error)
	ViewByHash(stagingArea *StagingArea, viewHash *externalapi.DomainHash) (*externalapi.View, error)
	HasView(stagingArea *StagingArea, height uint64) (bool, error)
	DeleteView(stagingArea *StagingArea, view *externalapi.View) error

	StageBlock(stagingArea *StagingArea, block *externalapi.Block) error
	Block(stagingArea *StagingArea, blockHash *externalapi.DomainHash) (*externalapi.Block, error)
	Blocks(stagingArea *StagingArea, blockHashes []*externalapi.DomainHash) ([]*externalapi.Block, error)
	HasBlock(stagingArea *StagingArea, blockHash *externalapi.DomainHash) (bool, error)
	DeleteBlock(stagingArea *StagingArea, blockHash *externalapi.DomainHash)

	StageVote(stagingArea *StagingArea, vote *externalapi.Vote) error
	Vote(stagingArea *StagingArea, voteHash *externalapi.DomainHash) (*externalapi.Vote, error)
	Votes(stagingArea *StagingArea, voteHashes []*externalapi.DomainHash) ([]*externalapi.Vote, error)
	HasVote(stagingArea *StagingArea, voteHash *externalapi.DomainHash) (bool, error)
	DeleteVote(stagingArea *StagingArea, voteHash *externalapi.DomainHash)

	StageTransaction(stagingArea *StagingArea, transaction *externalapi.Transaction) error
	Transaction(stagingArea *StagingArea, transactionHash *externalapi.DomainHash) (*externalapi.Transaction, error)
	Transactions(stagingArea *StagingArea, transactionHashes []*externalapi.DomainHash) ([]*externalapi.Transaction, error)
	HasTransaction(stagingArea *StagingArea, transactionHash *externalapi.DomainHash) (bool, error)
	DeleteTransaction(stagingArea *StagingArea, transactionHash *externalapi.DomainHash)

	StageChainState(stagingArea *StagingArea, chainState *externalapi.ChainState)
	ChainState(stagingArea *StagingArea) (*externalapi.ChainState, error)
	ChainStateAt(stagingArea *StagingArea, height uint64) (*externalapi.ChainState, error)
	HasChainState(stagingArea *StagingArea) (bool, error)
	DeleteChainStateSnapshot(stagingArea *StagingArea, height uint64)

	StageLedger(stagingArea *StagingArea, height uint64, ledger *externalapi.Ledger) error
	Ledger(stagingArea *StagingArea, address *externalapi.Address) (*externalapi.Ledger, error)
	LedgerAt(stagingArea *StagingArea, address *externalapi.Address, height uint64) (*externalapi.Ledger, error)
	AllLedgers(stagingArea *StagingArea) ([]*externalapi.Ledger, error)

	StageValidator(stagingArea *StagingArea, height uint64, validator *externalapi.Validator) error
	Validator(stagingArea *StagingArea, nodeAddress *externalapi.Address) (*externalapi.Validator, error)
	ValidatorAt(stagingArea *StagingArea, nodeAddress *externalapi.Address, height uint64) (*externalapi.Validator, error)
	AllValidators(stagingArea *StagingArea) ([]*externalapi.Validator, error)

	StageContract(stagingArea *StagingArea, height uint64, contract *externalapi.Contract) error
	Contract(stagingArea *StagingArea, address *externalapi.Address) (*externalapi.Contract, error)
	StageContractCode(stagingArea *StagingArea, height uint64, address *externalapi.Address, code []byte)
	ContractCode(stagingArea *StagingArea, address *externalapi.Address) ([]byte, error)
	StageContractSnapshot(stagingArea *StagingArea, snapshot *externalapi.ContractSnapshot) error
	ContractSnapshot(stagingArea *StagingArea, address *externalapi.Address) (*externalapi.ContractSnapshot, error)

	StageToken(stagingArea *StagingArea, height uint64, token *externalapi.Token) error
	Token(stagingArea *StagingArea, tokenID *externalapi.DomainHash) (*externalapi.Token, error)
	TokenAt(stagingArea *StagingArea, tokenID *externalapi.DomainHash, height uint64) (*externalapi.Token, error)

	DeleteVersionsAbove(stagingArea *StagingArea, height uint64)
	DeleteNonLatestFromIndexBeforeHeight(stagingArea *StagingArea, index VersionedIndex, height uint64) error

	AddDueTransaction(stagingArea *StagingArea, transactionHash *externalapi.DomainHash, dueTimestamp int64)
	RemoveDueTransaction(stagingArea *StagingArea, transactionHash *externalapi.DomainHash)
	IsDueTransaction(stagingArea *StagingArea, transactionHash *externalapi.DomainHash) (bool, error)
	DueTransactions(stagingArea *StagingArea) ([]*externalapi.DomainHash, error)
}
