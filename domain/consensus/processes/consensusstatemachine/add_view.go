package consensusstatemachine

import (
	"context"
	"math/big"
	"sort"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/processes/transfer"
	"github.com/viewledger/viewd/domain/consensus/ruleerrors"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/domain/consensus/utils/difficulty"
	"github.com/viewledger/viewd/infrastructure/logger"
	"github.com/viewledger/viewd/util/math"
)

// AddView commits view on top of the current view. Every object view
// references has to be pending in the state cache, except for the
// scheduled transactions it settles.
func (csm *consensusStateMachine) AddView(ctx context.Context, view *externalapi.View, broadcast bool,
	castVote bool) error {

	err := ctx.Err()
	if err != nil {
		return err
	}
	err = csm.verifier.VerifyView(view)
	if err != nil {
		return err
	}
	return csm.WriteLocked(func() error {
		return csm.addViewInternal(view, broadcast, castVote)
	})
}

// viewCommit is the view being committed together with everything
// resolved for it
type viewCommit struct {
	stagingArea *model.StagingArea
	view        *externalapi.View
	chainState  *externalapi.ChainState

	blocks       []*externalapi.Block
	votes        []*externalapi.Vote
	transactions []*externalapi.Transaction
	scheduled    []*externalapi.Transaction
	rewards      []*externalapi.Transaction
	totalStake   uint64
}

func (csm *consensusStateMachine) addViewInternal(view *externalapi.View, broadcast bool, castVote bool) (err error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "addViewInternal")
	defer onEnd()

	if !csm.cache.IsLoaded() {
		return errors.WithStack(ruleerrors.ErrCacheNotLoaded)
	}
	current := csm.cache.CurrentState()
	if current == nil {
		return errors.Wrapf(ruleerrors.ErrMissingGenesis, "cannot add view %d", view.ID)
	}
	err = checkViewExtends(view, current)
	if err != nil {
		return err
	}

	csm.setState(model.MachineStateCommitting)
	defer csm.finishCommit(&err)

	commit := &viewCommit{
		stagingArea: model.NewStagingArea(),
		view:        view.Clone(),
		chainState:  current.Clone(),
	}
	commit.view.Rewards = nil

	err = csm.resolveBlocks(commit)
	if err != nil {
		return err
	}
	err = csm.resolveVotes(commit)
	if err != nil {
		return err
	}
	err = csm.resolveTransactions(commit)
	if err != nil {
		return err
	}
	if commit.view.ID%csm.params.VoteInterval == 0 {
		csm.cache.ClearPendingVotes()
	}
	if commit.view.ID%csm.params.EpochLength == 0 {
		epochRewards, err := csm.epochChange(commit)
		if err != nil {
			return err
		}
		commit.rewards = append(commit.rewards, epochRewards...)
	}

	domainEvents, err := csm.executor.Execute(commit.stagingArea, commit.view, commit.chainState,
		&model.ExecutionBatch{
			Scheduled:    commit.scheduled,
			Transactions: commit.transactions,
			Rewards:      commit.rewards,
		},
		csm.cache.LedgerWorkingSet(), csm.cache.ValidatorWorkingSet())
	if err != nil {
		return err
	}

	err = csm.stageObjects(commit)
	if err != nil {
		return err
	}
	isFinalized, err := csm.updateChainState(commit)
	if err != nil {
		return err
	}
	if isFinalized {
		err = csm.finalize(commit)
		if err != nil {
			return err
		}
	}

	events, err := csm.commit(commit.stagingArea, commit.view, commit.chainState, domainEvents)
	if err != nil {
		return err
	}
	log.Debugf("Committed view %d (%s) with %d blocks, %d votes and %d transactions",
		commit.view.ID, commit.chainState.ViewHash, len(commit.blocks), len(commit.votes), len(commit.transactions))

	if castVote {
		csm.castSelfVote(commit.chainState, broadcast)
	}
	if broadcast {
		csm.sink.Broadcast(commit.view.Clone())
	}
	csm.sink.Publish(events...)
	csm.cache.EvictSettledLedgers()
	return nil
}

func checkViewExtends(view *externalapi.View, current *externalapi.ChainState) error {
	if view.ID != current.ID+1 {
		return errors.Wrapf(ruleerrors.ErrUnexpectedViewID, "expected view %d, got %d", current.ID+1, view.ID)
	}
	if !view.LastHash.Equal(current.ViewHash) {
		return errors.Wrapf(ruleerrors.ErrUnexpectedLastHash, "view %d points to %s instead of %s",
			view.ID, view.LastHash, current.ViewHash)
	}
	if view.Timestamp <= current.Timestamp {
		return errors.Wrapf(ruleerrors.ErrTimeTooOld, "view %d timestamp %d is not after %d",
			view.ID, view.Timestamp, current.Timestamp)
	}
	return nil
}

// resolveBlocks drains the blocks of the view from the state cache and
// turns them into one block reward per recipient. The pending value of
// every cached block, referenced or orphaned, is released.
func (csm *consensusStateMachine) resolveBlocks(commit *viewCommit) error {
	var missing []*externalapi.DomainHash
	commit.blocks = make([]*externalapi.Block, 0, len(commit.view.Blocks))
	for _, blockHash := range commit.view.Blocks {
		block, ok := csm.cache.PendingBlock(blockHash)
		if !ok {
			missing = append(missing, blockHash)
			continue
		}
		commit.blocks = append(commit.blocks, block)
	}
	if len(missing) > 0 {
		return ruleerrors.NewErrMissingReferences(ruleerrors.ErrUnknownBlock, missing)
	}

	transfers := transfer.New(csm.cache.LedgerWorkingSet(), csm.cache.ValidatorWorkingSet())
	for _, block := range csm.cache.PendingBlocks() {
		_, err := transfers.SubtractPending(block.To, block.Value)
		if err != nil {
			return err
		}
	}
	csm.cache.ClearPendingBlocks()

	if len(commit.blocks) == 0 {
		return nil
	}
	blocksPerRecipient := make(map[externalapi.Address]uint64)
	recipients := make([]*externalapi.Address, 0)
	for _, block := range commit.blocks {
		if _, ok := blocksPerRecipient[*block.To]; !ok {
			recipients = append(recipients, block.To)
		}
		blocksPerRecipient[*block.To]++
	}
	sort.Slice(recipients, func(i, j int) bool { return recipients[i].Less(recipients[j]) })

	rewardPerBlock := commit.chainState.BlockReward / uint64(len(commit.blocks))
	for _, recipient := range recipients {
		reward, err := math.MulUint64(rewardPerBlock, blocksPerRecipient[*recipient])
		if err != nil {
			return err
		}
		commit.rewards = append(commit.rewards, &externalapi.Transaction{
			Type:      externalapi.TransactionTypeBlockReward,
			To:        recipient,
			Value:     reward,
			Timestamp: commit.view.Timestamp,
			Data:      serialization.Uint64ToKeyBytes(commit.view.ID),
		})
	}
	return nil
}

// resolveVotes drains the votes of the view from the state cache and
// reactivates their validators. A validator counts at most once per
// voting window.
func (csm *consensusStateMachine) resolveVotes(commit *viewCommit) error {
	var missing []*externalapi.DomainHash
	commit.votes = make([]*externalapi.Vote, 0, len(commit.view.Votes))
	for _, voteHash := range commit.view.Votes {
		vote, ok := csm.cache.PendingVote(voteHash)
		if !ok {
			missing = append(missing, voteHash)
			continue
		}
		csm.cache.RemovePendingVote(voteHash)
		commit.votes = append(commit.votes, vote)
	}
	if len(missing) > 0 {
		return ruleerrors.NewErrMissingReferences(ruleerrors.ErrUnknownVote, missing)
	}

	validators := csm.cache.ValidatorWorkingSet()
	for _, vote := range commit.votes {
		nodeAddress := consensushashing.NewWalletAddress(vote.PublicKey)
		validator, found, err := validators.Validator(nodeAddress)
		if err != nil {
			return err
		}
		if !found || !csm.isVotingValidator(validator) {
			return errors.Wrapf(ruleerrors.ErrNotValidator, "vote %s by %s",
				consensushashing.VoteHash(vote), nodeAddress)
		}
		if csm.votedInWindow(validator, commit.chainState) {
			return errors.Wrapf(ruleerrors.ErrDuplicateObject, "vote %s: %s already voted for milestone %d",
				consensushashing.VoteHash(vote), nodeAddress, csm.milestoneHeight(commit.chainState))
		}

		countedStake := csm.params.CountedStake(validator)
		commit.totalStake, err = math.AddUint64(commit.totalStake, countedStake)
		if err != nil {
			return err
		}
		if !validator.Active {
			validator.Active = true
			commit.chainState.TotalActiveStake, err = math.AddUint64(commit.chainState.TotalActiveStake, countedStake)
			if err != nil {
				return err
			}
		}
		validator.LastActiveHeight = int64(commit.view.ID)
		validators.SetValidator(validator)
	}
	return nil
}

// resolveTransactions drains the transactions of the view from the
// state cache and loads the scheduled transactions it settles
func (csm *consensusStateMachine) resolveTransactions(commit *viewCommit) error {
	var missing []*externalapi.DomainHash
	commit.transactions = make([]*externalapi.Transaction, 0, len(commit.view.Transactions))
	for _, transactionHash := range commit.view.Transactions {
		transaction, ok := csm.cache.PendingTransaction(transactionHash)
		if !ok {
			missing = append(missing, transactionHash)
			continue
		}
		csm.cache.RemovePendingTransaction(transactionHash)
		commit.transactions = append(commit.transactions, transaction)
	}
	if len(missing) > 0 {
		return ruleerrors.NewErrMissingReferences(ruleerrors.ErrUnknownTransaction, missing)
	}

	commit.scheduled = make([]*externalapi.Transaction, 0, len(commit.view.ScheduledTransactions))
	for _, transactionHash := range commit.view.ScheduledTransactions {
		transaction, err := csm.repository.Transaction(commit.stagingArea, transactionHash)
		if err != nil {
			return errors.Wrapf(ruleerrors.ErrUnknownScheduledTransaction, "transaction %s: %s",
				transactionHash, err)
		}
		commit.scheduled = append(commit.scheduled, transaction)
	}
	return nil
}

// stageObjects stages the resolved objects and the view. Reward hashes
// are filled into the view.
func (csm *consensusStateMachine) stageObjects(commit *viewCommit) error {
	commit.view.Rewards = consensushashing.TransactionHashes(commit.rewards)

	for _, block := range commit.blocks {
		err := csm.repository.StageBlock(commit.stagingArea, block)
		if err != nil {
			return err
		}
	}
	for _, vote := range commit.votes {
		err := csm.repository.StageVote(commit.stagingArea, vote)
		if err != nil {
			return err
		}
	}
	for _, transactions := range [][]*externalapi.Transaction{commit.transactions, commit.rewards} {
		for _, transaction := range transactions {
			err := csm.repository.StageTransaction(commit.stagingArea, transaction)
			if err != nil {
				return err
			}
		}
	}
	return csm.repository.StageView(commit.stagingArea, commit.view)
}

// updateChainState moves the chain state to the committed view and
// returns whether the votes of the view finalize its predecessor
func (csm *consensusStateMachine) updateChainState(commit *viewCommit) (bool, error) {
	chainState := commit.chainState
	blockCount := uint64(len(commit.blocks))

	if blockCount > 0 {
		chainState.BlockReward = 0
	}
	var err error
	chainState.BlockReward, err = math.AddUint64(chainState.BlockReward,
		csm.rewardCalculator.BlockReward(commit.view.ID))
	if err != nil {
		return false, err
	}

	work := difficulty.CalcWork(chainState.CurrentDifficulty)
	stakeUnits := new(big.Int).SetUint64(commit.totalStake / csm.params.MinStake)
	weightIncrease := new(big.Int).Mul(work, stakeUnits)
	weightIncrease.Add(weightIncrease, work)
	chainState.Weight = new(big.Int).Add(chainState.Weight, weightIncrease)
	chainState.TotalWork = new(big.Int).Add(chainState.TotalWork,
		new(big.Int).Mul(work, new(big.Int).SetUint64(blockCount)))

	chainState.ID = commit.view.ID
	chainState.ViewHash = consensushashing.ViewHash(commit.view)
	chainState.Timestamp = commit.view.Timestamp
	chainState.TotalBlocks += blockCount
	chainState.TotalVotes += uint64(len(commit.votes))
	chainState.TotalTransactions += uint64(len(commit.transactions))

	chainState.CurrentDifficulty, err = csm.difficultyManager.Scale(commit.stagingArea, chainState)
	if err != nil {
		return false, err
	}

	return csm.isFinalizing(commit.totalStake, chainState.TotalActiveStake), nil
}
