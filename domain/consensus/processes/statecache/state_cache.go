package statecache

import (
	"sort"

	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// stateCache is not safe for concurrent use. Its owner serializes
// access to it.
type stateCache struct {
	pendingBlocks       map[externalapi.DomainHash]*externalapi.Block
	pendingVotes        map[externalapi.DomainHash]*externalapi.Vote
	pendingTransactions map[externalapi.DomainHash]*externalapi.Transaction

	ledgers    model.LedgerWorkingSet
	validators model.ValidatorWorkingSet

	currentView  *externalapi.View
	currentState *externalapi.ChainState
	isLoaded     bool
}

// New instantiates a new, unloaded StateCache
func New() model.StateCache {
	sc := &stateCache{}
	sc.Clear()
	return sc
}

func (sc *stateCache) AddPendingBlock(blockHash *externalapi.DomainHash, block *externalapi.Block) {
	sc.pendingBlocks[*blockHash] = block.Clone()
}

func (sc *stateCache) AddPendingVote(voteHash *externalapi.DomainHash, vote *externalapi.Vote) {
	sc.pendingVotes[*voteHash] = vote.Clone()
}

func (sc *stateCache) AddPendingTransaction(transactionHash *externalapi.DomainHash, transaction *externalapi.Transaction) {
	sc.pendingTransactions[*transactionHash] = transaction.Clone()
}

func (sc *stateCache) PendingBlock(blockHash *externalapi.DomainHash) (*externalapi.Block, bool) {
	block, ok := sc.pendingBlocks[*blockHash]
	return block.Clone(), ok
}

func (sc *stateCache) PendingVote(voteHash *externalapi.DomainHash) (*externalapi.Vote, bool) {
	vote, ok := sc.pendingVotes[*voteHash]
	return vote.Clone(), ok
}

func (sc *stateCache) PendingTransaction(transactionHash *externalapi.DomainHash) (*externalapi.Transaction, bool) {
	transaction, ok := sc.pendingTransactions[*transactionHash]
	return transaction.Clone(), ok
}

func (sc *stateCache) RemovePendingBlock(blockHash *externalapi.DomainHash) bool {
	_, ok := sc.pendingBlocks[*blockHash]
	delete(sc.pendingBlocks, *blockHash)
	return ok
}

func (sc *stateCache) RemovePendingVote(voteHash *externalapi.DomainHash) bool {
	_, ok := sc.pendingVotes[*voteHash]
	delete(sc.pendingVotes, *voteHash)
	return ok
}

func (sc *stateCache) RemovePendingTransaction(transactionHash *externalapi.DomainHash) bool {
	_, ok := sc.pendingTransactions[*transactionHash]
	delete(sc.pendingTransactions, *transactionHash)
	return ok
}

func sortedHashes[T any](objects map[externalapi.DomainHash]T) []externalapi.DomainHash {
	hashes := make([]externalapi.DomainHash, 0, len(objects))
	for hash := range objects {
		hashes = append(hashes, hash)
	}
	sort.Slice(hashes, func(i, j int) bool {
		return hashes[i].Less(&hashes[j])
	})
	return hashes
}

// PendingBlocks returns the pending blocks ordered by hash
func (sc *stateCache) PendingBlocks() []*externalapi.Block {
	blocks := make([]*externalapi.Block, 0, len(sc.pendingBlocks))
	for _, hash := range sortedHashes(sc.pendingBlocks) {
		blocks = append(blocks, sc.pendingBlocks[hash].Clone())
	}
	return blocks
}

// PendingVotes returns the pending votes ordered by hash
func (sc *stateCache) PendingVotes() []*externalapi.Vote {
	votes := make([]*externalapi.Vote, 0, len(sc.pendingVotes))
	for _, hash := range sortedHashes(sc.pendingVotes) {
		votes = append(votes, sc.pendingVotes[hash].Clone())
	}
	return votes
}

// PendingTransactions returns the pending transactions ordered by hash
func (sc *stateCache) PendingTransactions() []*externalapi.Transaction {
	transactions := make([]*externalapi.Transaction, 0, len(sc.pendingTransactions))
	for _, hash := range sortedHashes(sc.pendingTransactions) {
		transactions = append(transactions, sc.pendingTransactions[hash].Clone())
	}
	return transactions
}

func (sc *stateCache) PendingCounts() (blocks, votes, transactions int) {
	return len(sc.pendingBlocks), len(sc.pendingVotes), len(sc.pendingTransactions)
}

func (sc *stateCache) ClearPendingBlocks() {
	sc.pendingBlocks = make(map[externalapi.DomainHash]*externalapi.Block)
}

func (sc *stateCache) ClearPendingVotes() {
	sc.pendingVotes = make(map[externalapi.DomainHash]*externalapi.Vote)
}

func (sc *stateCache) LedgerWorkingSet() model.LedgerWorkingSet {
	return sc.ledgers
}

func (sc *stateCache) ValidatorWorkingSet() model.ValidatorWorkingSet {
	return sc.validators
}

func (sc *stateCache) CurrentView() *externalapi.View {
	return sc.currentView.Clone()
}

func (sc *stateCache) CurrentState() *externalapi.ChainState {
	return sc.currentState.Clone()
}

func (sc *stateCache) SetCurrent(view *externalapi.View, chainState *externalapi.ChainState) {
	sc.currentView = view.Clone()
	sc.currentState = chainState.Clone()
}

func (sc *stateCache) IsLoaded() bool {
	return sc.isLoaded
}

// Clear drops everything the cache holds. The cache refuses to be used
// for admission until Reload is called.
func (sc *stateCache) Clear() {
	sc.ClearPendingBlocks()
	sc.ClearPendingVotes()
	sc.pendingTransactions = make(map[externalapi.DomainHash]*externalapi.Transaction)
	sc.ledgers = NewLedgerWorkingSet(func(*externalapi.Address) (*externalapi.Ledger, bool, error) {
		return nil, false, nil
	})
	sc.validators = NewValidatorWorkingSet(
		func(*externalapi.Address) (*externalapi.Validator, bool, error) { return nil, false, nil },
		func() ([]*externalapi.Validator, error) { return nil, nil })
	sc.currentView = nil
	sc.currentState = nil
	sc.isLoaded = false
}

// Reload points the working sets at the given repository and loads the
// latest committed View and ChainState from it. An empty repository
// leaves both unset.
func (sc *stateCache) Reload(repository model.Repository) error {
	sc.ledgers = NewLedgerWorkingSet(RepositoryLedgerLoader(repository))
	sc.validators = NewValidatorWorkingSet(
		RepositoryValidatorLoader(repository), RepositoryAllValidatorsLoader(repository))

	stagingArea := model.NewStagingArea()
	hasChainState, err := repository.HasChainState(stagingArea)
	if err != nil {
		return err
	}
	if !hasChainState {
		sc.currentView = nil
		sc.currentState = nil
		sc.isLoaded = true
		return nil
	}

	chainState, err := repository.ChainState(stagingArea)
	if err != nil {
		return err
	}
	view, err := repository.View(stagingArea, chainState.ID)
	if err != nil {
		return err
	}
	sc.SetCurrent(view, chainState)
	sc.isLoaded = true
	return nil
}

func (sc *stateCache) EvictSettledLedgers() {
	sc.ledgers.EvictSettled()
}

// RepositoryLedgerLoader returns a LedgerLoader that reads the latest
// committed ledgers of the given repository
func RepositoryLedgerLoader(repository model.Repository) LedgerLoader {
	return func(address *externalapi.Address) (*externalapi.Ledger, bool, error) {
		ledger, err := repository.Ledger(model.NewStagingArea(), address)
		if database.IsNotFoundError(err) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return ledger, true, nil
	}
}

// RepositoryValidatorLoader returns a ValidatorLoader that reads the
// latest committed validators of the given repository
func RepositoryValidatorLoader(repository model.Repository) ValidatorLoader {
	return func(nodeAddress *externalapi.Address) (*externalapi.Validator, bool, error) {
		validator, err := repository.Validator(model.NewStagingArea(), nodeAddress)
		if database.IsNotFoundError(err) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return validator, true, nil
	}
}

// RepositoryAllValidatorsLoader returns an AllValidatorsLoader over the
// given repository
func RepositoryAllValidatorsLoader(repository model.Repository) AllValidatorsLoader {
	return func() ([]*externalapi.Validator, error) {
		return repository.AllValidators(model.NewStagingArea())
	}
}
