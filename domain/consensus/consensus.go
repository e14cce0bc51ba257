package consensus

import (
	"context"

	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// Consensus maintains the current core state of the node
type Consensus interface {
	AddGenesis() error
	AddView(ctx context.Context, view *externalapi.View, broadcast bool, castVote bool) error
	AddBlock(ctx context.Context, block *externalapi.Block) (bool, error)
	AddVote(ctx context.Context, vote *externalapi.Vote) (bool, error)
	AddTransaction(ctx context.Context, transaction *externalapi.Transaction) (externalapi.ExecutionResult, error)
	AddBatch(ctx context.Context, blocks []*externalapi.Block, votes []*externalapi.Vote,
		transactions []*externalapi.Transaction) error
	Rollback(targetHeight uint64) error
	LoadStagingChain(ctx context.Context, forkHeight uint64, candidate []*externalapi.ViewBundle) (bool, error)

	State() model.MachineState
	ChainState() *externalapi.ChainState
	CurrentView() *externalapi.View
	PendingCounts() (blocks, votes, transactions int)
	Ledger(address *externalapi.Address) (*externalapi.Ledger, error)
	Validator(nodeAddress *externalapi.Address) (*externalapi.Validator, bool, error)
	Validators() ([]*externalapi.Validator, error)
	IsValidator(nodeAddress *externalapi.Address) (bool, error)

	GetView(height uint64) (*externalapi.View, error)
	GetViewByHash(viewHash *externalapi.DomainHash) (*externalapi.View, error)
	GetViewBundle(height uint64) (*externalapi.ViewBundle, error)
	GetChainStateAt(height uint64) (*externalapi.ChainState, error)
	GetBlock(blockHash *externalapi.DomainHash) (*externalapi.Block, error)
	GetVote(voteHash *externalapi.DomainHash) (*externalapi.Vote, error)
	GetTransaction(transactionHash *externalapi.DomainHash) (*externalapi.Transaction, error)
	GetContract(address *externalapi.Address) (*externalapi.Contract, error)
	GetToken(tokenID *externalapi.DomainHash) (*externalapi.Token, error)
	GetDueTransactions() ([]*externalapi.DomainHash, error)
}

type consensus struct {
	model.ConsensusStateMachine

	repository         model.Repository
	stagingCoordinator model.StagingCoordinator
}

func (s *consensus) LoadStagingChain(ctx context.Context, forkHeight uint64,
	candidate []*externalapi.ViewBundle) (bool, error) {

	return s.stagingCoordinator.LoadStagingChain(ctx, forkHeight, candidate)
}

// readLocked runs f with a fresh staging area under the read lock of
// the state machine
func (s *consensus) readLocked(f func(stagingArea *model.StagingArea) error) error {
	return s.ReadLocked(func() error {
		return f(model.NewStagingArea())
	})
}

func (s *consensus) GetView(height uint64) (*externalapi.View, error) {
	var view *externalapi.View
	err := s.readLocked(func(stagingArea *model.StagingArea) error {
		var err error
		view, err = s.repository.View(stagingArea, height)
		return err
	})
	return view, err
}

func (s *consensus) GetViewByHash(viewHash *externalapi.DomainHash) (*externalapi.View, error) {
	var view *externalapi.View
	err := s.readLocked(func(stagingArea *model.StagingArea) error {
		var err error
		view, err = s.repository.ViewByHash(stagingArea, viewHash)
		return err
	})
	return view, err
}

// GetViewBundle returns the view at height together with the blocks,
// votes and transactions it references. Rewards and settled scheduled
// transactions are not part of the bundle.
func (s *consensus) GetViewBundle(height uint64) (*externalapi.ViewBundle, error) {
	var bundle *externalapi.ViewBundle
	err := s.readLocked(func(stagingArea *model.StagingArea) error {
		view, err := s.repository.View(stagingArea, height)
		if err != nil {
			return err
		}
		blocks, err := s.repository.Blocks(stagingArea, view.Blocks)
		if err != nil {
			return err
		}
		votes, err := s.repository.Votes(stagingArea, view.Votes)
		if err != nil {
			return err
		}
		transactions, err := s.repository.Transactions(stagingArea, view.Transactions)
		if err != nil {
			return err
		}
		for i, transaction := range transactions {
			transaction = transaction.Clone()
			transaction.ExecutionResult = externalapi.ExecutionResultPending
			transaction.SpentFee = 0
			transaction.Effects = nil
			transactions[i] = transaction
		}
		bundle = &externalapi.ViewBundle{
			View:         view,
			Blocks:       blocks,
			Votes:        votes,
			Transactions: transactions,
		}
		return nil
	})
	return bundle, err
}

func (s *consensus) GetChainStateAt(height uint64) (*externalapi.ChainState, error) {
	var chainState *externalapi.ChainState
	err := s.readLocked(func(stagingArea *model.StagingArea) error {
		var err error
		chainState, err = s.repository.ChainStateAt(stagingArea, height)
		return err
	})
	return chainState, err
}

func (s *consensus) GetBlock(blockHash *externalapi.DomainHash) (*externalapi.Block, error) {
	var block *externalapi.Block
	err := s.readLocked(func(stagingArea *model.StagingArea) error {
		var err error
		block, err = s.repository.Block(stagingArea, blockHash)
		return err
	})
	return block, err
}

func (s *consensus) GetVote(voteHash *externalapi.DomainHash) (*externalapi.Vote, error) {
	var vote *externalapi.Vote
	err := s.readLocked(func(stagingArea *model.StagingArea) error {
		var err error
		vote, err = s.repository.Vote(stagingArea, voteHash)
		return err
	})
	return vote, err
}

func (s *consensus) GetTransaction(transactionHash *externalapi.DomainHash) (*externalapi.Transaction, error) {
	var transaction *externalapi.Transaction
	err := s.readLocked(func(stagingArea *model.StagingArea) error {
		var err error
		transaction, err = s.repository.Transaction(stagingArea, transactionHash)
		return err
	})
	return transaction, err
}

func (s *consensus) GetContract(address *externalapi.Address) (*externalapi.Contract, error) {
	var contract *externalapi.Contract
	err := s.readLocked(func(stagingArea *model.StagingArea) error {
		var err error
		contract, err = s.repository.Contract(stagingArea, address)
		return err
	})
	return contract, err
}

func (s *consensus) GetToken(tokenID *externalapi.DomainHash) (*externalapi.Token, error) {
	var token *externalapi.Token
	err := s.readLocked(func(stagingArea *model.StagingArea) error {
		var err error
		token, err = s.repository.Token(stagingArea, tokenID)
		return err
	})
	return token, err
}

func (s *consensus) GetDueTransactions() ([]*externalapi.DomainHash, error) {
	var dueTransactions []*externalapi.DomainHash
	err := s.readLocked(func(stagingArea *model.StagingArea) error {
		var err error
		dueTransactions, err = s.repository.DueTransactions(stagingArea)
		return err
	})
	return dueTransactions, err
}

// IsNotFoundError returns whether err reports a missing record
func IsNotFoundError(err error) bool {
	return database.IsNotFoundError(err)
}
