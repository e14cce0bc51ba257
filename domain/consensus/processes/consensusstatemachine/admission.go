package consensusstatemachine

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/processes/transfer"
	"github.com/viewledger/viewd/domain/consensus/ruleerrors"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/util/math"
)

// AddBlock admits block into the state cache and credits its value to
// the pending balance of its recipient. It returns false if the block
// is already known.
func (csm *consensusStateMachine) AddBlock(ctx context.Context, block *externalapi.Block) (bool, error) {
	err := ctx.Err()
	if err != nil {
		return false, err
	}
	err = csm.verifier.VerifyBlock(block)
	if err != nil {
		return false, err
	}

	var isNew bool
	err = csm.WriteLocked(func() error {
		var err error
		isNew, err = csm.addBlockInternal(block)
		return err
	})
	return isNew, err
}

// AddVote admits vote into the state cache. It returns false if the
// vote is already known or its validator already voted in the current
// voting window.
func (csm *consensusStateMachine) AddVote(ctx context.Context, vote *externalapi.Vote) (bool, error) {
	err := ctx.Err()
	if err != nil {
		return false, err
	}
	err = csm.verifier.VerifyVote(vote)
	if err != nil {
		return false, err
	}

	var isNew bool
	err = csm.WriteLocked(func() error {
		var err error
		isNew, err = csm.addVoteInternal(vote)
		return err
	})
	return isNew, err
}

// AddTransaction admits transaction into the state cache. The returned
// ExecutionResult is PENDING if the transaction was admitted, and the
// result of the failed advisory check otherwise.
func (csm *consensusStateMachine) AddTransaction(ctx context.Context,
	transaction *externalapi.Transaction) (externalapi.ExecutionResult, error) {

	err := ctx.Err()
	if err != nil {
		return externalapi.ExecutionResultPending, err
	}
	err = csm.verifier.VerifyTransaction(transaction)
	if err != nil {
		return externalapi.ExecutionResultPending, err
	}

	result := externalapi.ExecutionResultPending
	err = csm.WriteLocked(func() error {
		var err error
		result, err = csm.addTransactionInternal(transaction)
		return err
	})
	return result, err
}

// AddBatch verifies the given objects in parallel and admits all of
// them, or none if any of them is rejected. Objects that are already
// known are skipped.
func (csm *consensusStateMachine) AddBatch(ctx context.Context, blocks []*externalapi.Block,
	votes []*externalapi.Vote, transactions []*externalapi.Transaction) error {

	err := csm.verifier.VerifyBatch(ctx, blocks, votes, transactions)
	if err != nil {
		return err
	}
	return csm.WriteLocked(func() error {
		return csm.addBatchInternal(blocks, votes, transactions)
	})
}

// admissionState returns the chain state objects are admitted against
func (csm *consensusStateMachine) admissionState() (*externalapi.ChainState, error) {
	if !csm.cache.IsLoaded() {
		return nil, errors.WithStack(ruleerrors.ErrCacheNotLoaded)
	}
	current := csm.cache.CurrentState()
	if current == nil {
		return nil, errors.WithStack(ruleerrors.ErrMissingGenesis)
	}
	csm.setState(model.MachineStateAdmitting)
	return current, nil
}

func (csm *consensusStateMachine) addBlockInternal(block *externalapi.Block) (bool, error) {
	current, err := csm.admissionState()
	if err != nil {
		return false, err
	}
	blockHash := consensushashing.BlockHash(block)
	isNew, err := csm.checkBlock(current, blockHash, block)
	if err != nil || !isNew {
		return false, err
	}
	err = csm.applyBlock(blockHash, block)
	if err != nil {
		return false, err
	}
	return true, nil
}

// checkBlock checks that block extends the current view. It returns
// false if the block is already known.
func (csm *consensusStateMachine) checkBlock(current *externalapi.ChainState, blockHash *externalapi.DomainHash,
	block *externalapi.Block) (bool, error) {

	if _, ok := csm.cache.PendingBlock(blockHash); ok {
		return false, nil
	}
	hasBlock, err := csm.repository.HasBlock(model.NewStagingArea(), blockHash)
	if err != nil {
		return false, err
	}
	if hasBlock {
		return false, nil
	}

	if !block.LastHash.Equal(current.ViewHash) {
		return false, errors.Wrapf(ruleerrors.ErrStaleBlock, "block %s points to %s instead of %s",
			blockHash, block.LastHash, current.ViewHash)
	}
	if block.Difficulty != current.CurrentDifficulty {
		return false, errors.Wrapf(ruleerrors.ErrBadBlockDifficulty, "block %s has difficulty %08x instead of %08x",
			blockHash, block.Difficulty, current.CurrentDifficulty)
	}
	if block.Value > current.BlockReward {
		return false, errors.Wrapf(ruleerrors.ErrBadBlockValue, "block %s claims %d out of %d",
			blockHash, block.Value, current.BlockReward)
	}
	if block.Timestamp <= current.Timestamp {
		return false, errors.Wrapf(ruleerrors.ErrTimeTooOld, "block %s timestamp %d is not after %d",
			blockHash, block.Timestamp, current.Timestamp)
	}
	return true, nil
}

func (csm *consensusStateMachine) applyBlock(blockHash *externalapi.DomainHash, block *externalapi.Block) error {
	_, err := transfer.New(csm.cache.LedgerWorkingSet(), csm.cache.ValidatorWorkingSet()).Pending(block.To, block.Value)
	if err != nil {
		return err
	}
	csm.cache.AddPendingBlock(blockHash, block.Clone())
	log.Tracef("Admitted block %s paying %d to %s", blockHash, block.Value, block.To)
	return nil
}

func (csm *consensusStateMachine) addVoteInternal(vote *externalapi.Vote) (bool, error) {
	current, err := csm.admissionState()
	if err != nil {
		return false, err
	}
	voteHash := consensushashing.VoteHash(vote)
	isNew, err := csm.checkVote(current, voteHash, vote)
	if err != nil || !isNew {
		return false, err
	}
	csm.applyVote(voteHash, vote)
	return true, nil
}

// checkVote checks that vote is cast by a validator, with its counted
// stake, for the milestone of the current voting window. It returns
// false if the vote is already known or the validator already voted
// in this window.
func (csm *consensusStateMachine) checkVote(current *externalapi.ChainState, voteHash *externalapi.DomainHash,
	vote *externalapi.Vote) (bool, error) {

	if _, ok := csm.cache.PendingVote(voteHash); ok {
		return false, nil
	}
	for _, pendingVote := range csm.cache.PendingVotes() {
		if bytes.Equal(pendingVote.PublicKey, vote.PublicKey) {
			return false, nil
		}
	}
	stagingArea := model.NewStagingArea()
	hasVote, err := csm.repository.HasVote(stagingArea, voteHash)
	if err != nil {
		return false, err
	}
	if hasVote {
		return false, nil
	}

	milestoneHash, err := csm.milestoneHash(stagingArea, current)
	if err != nil {
		return false, err
	}
	if !vote.ViewHash.Equal(milestoneHash) {
		return false, errors.Wrapf(ruleerrors.ErrUnexpectedViewHash, "vote %s is for view %s instead of %s",
			voteHash, vote.ViewHash, milestoneHash)
	}

	nodeAddress := consensushashing.NewWalletAddress(vote.PublicKey)
	validator, found, err := csm.cache.ValidatorWorkingSet().Validator(nodeAddress)
	if err != nil {
		return false, err
	}
	if !found || !csm.isVotingValidator(validator) {
		return false, errors.Wrapf(ruleerrors.ErrNotValidator, "vote %s by %s", voteHash, nodeAddress)
	}
	if csm.votedInWindow(validator, current) {
		return false, nil
	}
	countedStake := csm.params.CountedStake(validator)
	if vote.Stake != countedStake {
		return false, errors.Wrapf(ruleerrors.ErrMalformedObject, "vote %s has stake %d instead of %d",
			voteHash, vote.Stake, countedStake)
	}
	return true, nil
}

// milestoneHeight returns the height of the milestone view the votes
// of the current voting window are cast for
func (csm *consensusStateMachine) milestoneHeight(current *externalapi.ChainState) uint64 {
	return current.ID - current.ID%csm.params.VoteInterval
}

// votedInWindow returns whether a vote of validator was committed after
// the milestone of the current voting window
func (csm *consensusStateMachine) votedInWindow(validator *externalapi.Validator,
	current *externalapi.ChainState) bool {

	return validator.LastActiveHeight > int64(csm.milestoneHeight(current))
}

// milestoneHash returns the hash of the latest milestone view, which
// is the view the votes of the current voting window are cast for
func (csm *consensusStateMachine) milestoneHash(stagingArea *model.StagingArea,
	current *externalapi.ChainState) (*externalapi.DomainHash, error) {

	milestone := csm.milestoneHeight(current)
	if milestone == current.ID {
		return current.ViewHash, nil
	}
	milestoneState, err := csm.repository.ChainStateAt(stagingArea, milestone)
	if err != nil {
		return nil, err
	}
	return milestoneState.ViewHash, nil
}

func (csm *consensusStateMachine) applyVote(voteHash *externalapi.DomainHash, vote *externalapi.Vote) {
	csm.cache.AddPendingVote(voteHash, vote.Clone())
	log.Tracef("Admitted vote %s for view %s", voteHash, vote.ViewHash)
}

func (csm *consensusStateMachine) addTransactionInternal(
	transaction *externalapi.Transaction) (externalapi.ExecutionResult, error) {

	_, err := csm.admissionState()
	if err != nil {
		return externalapi.ExecutionResultPending, err
	}
	transactionHash := consensushashing.TransactionHash(transaction)
	result, err := csm.checkTransaction(transactionHash, transaction, nil)
	if err != nil || result != externalapi.ExecutionResultPending {
		return result, err
	}
	csm.applyTransaction(transactionHash, transaction)
	return externalapi.ExecutionResultPending, nil
}

// checkTransaction runs the advisory checks of transaction against the
// working sets of the state cache. batchOutflows holds the outflows of
// senders that are admitted together with transaction.
func (csm *consensusStateMachine) checkTransaction(transactionHash *externalapi.DomainHash,
	transaction *externalapi.Transaction,
	batchOutflows map[externalapi.Address]uint64) (externalapi.ExecutionResult, error) {

	if _, ok := csm.cache.PendingTransaction(transactionHash); ok {
		return externalapi.ExecutionResultPending,
			errors.Wrapf(ruleerrors.ErrDuplicateObject, "transaction %s is already pending", transactionHash)
	}
	hasTransaction, err := csm.repository.HasTransaction(model.NewStagingArea(), transactionHash)
	if err != nil {
		return externalapi.ExecutionResultPending, err
	}
	if hasTransaction {
		return externalapi.ExecutionResultPending,
			errors.Wrapf(ruleerrors.ErrDuplicateObject, "transaction %s is already committed", transactionHash)
	}

	fee, err := csm.executor.RequiredFee(transaction)
	if err != nil {
		return externalapi.ExecutionResultPending, err
	}
	if transaction.MaxFee < fee {
		return externalapi.ExecutionResultTooLowFee, nil
	}

	switch transaction.Type {
	case externalapi.TransactionTypeRegisterValidator:
		return csm.addValidatorRegisterInternal(transaction, fee, batchOutflows)
	case externalapi.TransactionTypeDeregisterValidator:
		return csm.addValidatorDeregisterInternal(transaction, fee, batchOutflows)
	}
	return csm.checkBalance(transaction, fee, batchOutflows)
}

// checkBalance checks that the sender of transaction can cover it
// together with its other pending transactions
func (csm *consensusStateMachine) checkBalance(transaction *externalapi.Transaction, fee uint64,
	batchOutflows map[externalapi.Address]uint64) (externalapi.ExecutionResult, error) {

	outflow, err := math.SumUint64(transaction.Value, fee, batchOutflows[*transaction.From])
	if err != nil {
		return externalapi.ExecutionResultTooLowBalance, nil
	}
	pendingOutflow, err := csm.pendingOutflow(transaction.From)
	if err != nil {
		return externalapi.ExecutionResultPending, err
	}
	outflow, err = math.AddUint64(outflow, pendingOutflow)
	if err != nil {
		return externalapi.ExecutionResultTooLowBalance, nil
	}

	ledger, err := csm.cache.LedgerWorkingSet().Ledger(transaction.From)
	if err != nil {
		return externalapi.ExecutionResultPending, err
	}
	if ledger.Balance < outflow {
		return externalapi.ExecutionResultTooLowBalance, nil
	}
	return externalapi.ExecutionResultPending, nil
}

// pendingOutflow returns the value plus the required fee of every
// pending transaction sent from address
func (csm *consensusStateMachine) pendingOutflow(address *externalapi.Address) (uint64, error) {
	outflow := uint64(0)
	for _, pendingTransaction := range csm.cache.PendingTransactions() {
		if !pendingTransaction.From.Equal(address) {
			continue
		}
		fee, err := csm.executor.RequiredFee(pendingTransaction)
		if err != nil {
			return 0, err
		}
		outflow, err = math.SumUint64(outflow, pendingTransaction.Value, fee)
		if err != nil {
			return 0, err
		}
	}
	return outflow, nil
}

// addValidatorRegisterInternal checks that the sender of a
// REGISTER_VALIDATOR transaction is not staking yet and can lock at
// least the minimum stake
func (csm *consensusStateMachine) addValidatorRegisterInternal(transaction *externalapi.Transaction, fee uint64,
	batchOutflows map[externalapi.Address]uint64) (externalapi.ExecutionResult, error) {

	if transaction.Value < csm.params.MinStake {
		return externalapi.ExecutionResultInvalidValidator, nil
	}
	validator, found, err := csm.cache.ValidatorWorkingSet().Validator(transaction.From)
	if err != nil {
		return externalapi.ExecutionResultPending, err
	}
	if found && validator.Stake > 0 {
		return externalapi.ExecutionResultInvalidValidator, nil
	}
	return csm.checkBalance(transaction, fee, batchOutflows)
}

// addValidatorDeregisterInternal checks that the sender of a
// DEREGISTER_VALIDATOR transaction has a stake to unlock and can pay
// the fee
func (csm *consensusStateMachine) addValidatorDeregisterInternal(transaction *externalapi.Transaction, fee uint64,
	batchOutflows map[externalapi.Address]uint64) (externalapi.ExecutionResult, error) {

	validator, found, err := csm.cache.ValidatorWorkingSet().Validator(transaction.From)
	if err != nil {
		return externalapi.ExecutionResultPending, err
	}
	if !found || validator.Stake == 0 {
		return externalapi.ExecutionResultInvalidValidator, nil
	}
	return csm.checkBalance(transaction, fee, batchOutflows)
}

func (csm *consensusStateMachine) applyTransaction(transactionHash *externalapi.DomainHash,
	transaction *externalapi.Transaction) {

	pendingTransaction := transaction.Clone()
	pendingTransaction.ExecutionResult = externalapi.ExecutionResultPending
	pendingTransaction.SpentFee = 0
	pendingTransaction.Effects = nil
	csm.cache.AddPendingTransaction(transactionHash, pendingTransaction)
	log.Tracef("Admitted %s transaction %s", transaction.Type, transactionHash)
}

// addBatchInternal checks every object of the batch before admitting
// any of them
func (csm *consensusStateMachine) addBatchInternal(blocks []*externalapi.Block, votes []*externalapi.Vote,
	transactions []*externalapi.Transaction) error {

	current, err := csm.admissionState()
	if err != nil {
		return err
	}

	newBlocks := make(map[externalapi.DomainHash]*externalapi.Block)
	for _, block := range blocks {
		blockHash := consensushashing.BlockHash(block)
		isNew, err := csm.checkBlock(current, blockHash, block)
		if err != nil {
			return err
		}
		if isNew {
			newBlocks[*blockHash] = block
		}
	}

	newVotes := make(map[externalapi.DomainHash]*externalapi.Vote)
	batchVoters := make(map[string]struct{})
	for _, vote := range votes {
		voteHash := consensushashing.VoteHash(vote)
		isNew, err := csm.checkVote(current, voteHash, vote)
		if err != nil {
			return err
		}
		if _, ok := batchVoters[string(vote.PublicKey)]; ok || !isNew {
			continue
		}
		batchVoters[string(vote.PublicKey)] = struct{}{}
		newVotes[*voteHash] = vote
	}

	newTransactions := make(map[externalapi.DomainHash]*externalapi.Transaction)
	batchOutflows := make(map[externalapi.Address]uint64)
	for _, transaction := range transactions {
		transactionHash := consensushashing.TransactionHash(transaction)
		if _, ok := newTransactions[*transactionHash]; ok {
			continue
		}
		result, err := csm.checkTransaction(transactionHash, transaction, batchOutflows)
		if err != nil {
			return err
		}
		switch result {
		case externalapi.ExecutionResultPending:
		case externalapi.ExecutionResultTooLowBalance:
			return errors.Wrapf(ruleerrors.ErrInsufficientBalance, "transaction %s", transactionHash)
		default:
			return errors.Wrapf(ruleerrors.ErrRejectedTransaction, "transaction %s: %s", transactionHash, result)
		}

		fee, err := csm.executor.RequiredFee(transaction)
		if err != nil {
			return err
		}
		batchOutflows[*transaction.From], err = math.SumUint64(batchOutflows[*transaction.From], transaction.Value, fee)
		if err != nil {
			return err
		}
		newTransactions[*transactionHash] = transaction
	}

	for _, block := range blocks {
		blockHash := consensushashing.BlockHash(block)
		if _, ok := newBlocks[*blockHash]; !ok {
			continue
		}
		delete(newBlocks, *blockHash)
		err := csm.applyBlock(blockHash, block)
		if err != nil {
			csm.reloadCache()
			return err
		}
	}
	for voteHash, vote := range newVotes {
		voteHash := voteHash
		csm.applyVote(&voteHash, vote)
	}
	for transactionHash, transaction := range newTransactions {
		transactionHash := transactionHash
		csm.applyTransaction(&transactionHash, transaction)
	}
	return nil
}
