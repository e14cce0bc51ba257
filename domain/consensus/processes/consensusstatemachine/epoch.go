package consensusstatemachine

import (
	"sort"

	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/util/math"
)

// epochVoter is the accumulated stake a validator voted with during an
// epoch
type epochVoter struct {
	nodeAddress    *externalapi.Address
	rewardAddress  *externalapi.Address
	cumulatedStake uint64
}

// epochChange distributes the validator emission and the collected fees
// of the epoch ending at commit.view, recomputes the total active stake
// and deactivates the validators that did not vote during the epoch. It
// returns the STAKE_REWARD and DEV_REWARD transactions to execute.
func (csm *consensusStateMachine) epochChange(commit *viewCommit) ([]*externalapi.Transaction, error) {
	epochEnd := commit.view.ID
	epochStart := uint64(1)
	if epochEnd > csm.params.EpochLength {
		epochStart = epochEnd - csm.params.EpochLength + 1
	}

	voters, rewardedVoters, err := csm.collectEpochVotes(commit, epochStart)
	if err != nil {
		return nil, err
	}

	err = csm.updateActiveStake(commit, voters)
	if err != nil {
		return nil, err
	}

	rewards, distributedFees, err := csm.stakeRewards(commit, rewardedVoters)
	if err != nil {
		return nil, err
	}

	devReward, err := csm.devReward(epochStart, epochEnd)
	if err != nil {
		return nil, err
	}
	undistributedFees, err := math.SubUint64(commit.chainState.CollectedFees, distributedFees)
	if err != nil {
		return nil, err
	}
	devReward, err = math.AddUint64(devReward, undistributedFees)
	if err != nil {
		return nil, err
	}
	if devReward > 0 {
		rewards = append(rewards, &externalapi.Transaction{
			Type:      externalapi.TransactionTypeDevReward,
			To:        csm.params.DevAddress,
			Value:     devReward,
			Timestamp: commit.view.Timestamp,
			Data:      serialization.Uint64ToKeyBytes(commit.view.ID),
		})
	}
	commit.chainState.CollectedFees = 0

	log.Debugf("Epoch ending at view %d: %d voters, %d stake rewards, dev reward %d",
		epochEnd, len(voters), len(rewards), devReward)
	return rewards, nil
}

// collectEpochVotes loads the votes of the views of the epoch. The
// votes of the view being committed are taken from commit. It returns
// the node addresses of every validator that voted, and the voters
// that earn a stake reward sorted by node address.
func (csm *consensusStateMachine) collectEpochVotes(commit *viewCommit, epochStart uint64) (
	map[externalapi.Address]struct{}, []*epochVoter, error) {

	epochVotes := make([]*externalapi.Vote, 0)
	for height := epochStart; height < commit.view.ID; height++ {
		view, err := csm.repository.View(commit.stagingArea, height)
		if err != nil {
			return nil, nil, err
		}
		votes, err := csm.repository.Votes(commit.stagingArea, view.Votes)
		if err != nil {
			return nil, nil, err
		}
		epochVotes = append(epochVotes, votes...)
	}
	epochVotes = append(epochVotes, commit.votes...)

	voters := make(map[externalapi.Address]struct{})
	rewardedVoters := make(map[externalapi.Address]*epochVoter)
	for _, vote := range epochVotes {
		nodeAddress := consensushashing.NewWalletAddress(vote.PublicKey)
		voters[*nodeAddress] = struct{}{}
		if csm.params.IsSeedValidator(vote.PublicKey) {
			continue
		}

		voter, ok := rewardedVoters[*nodeAddress]
		if !ok {
			voter = &epochVoter{nodeAddress: nodeAddress}
			rewardedVoters[*nodeAddress] = voter
		}
		var err error
		voter.cumulatedStake, err = math.AddUint64(voter.cumulatedStake, vote.Stake)
		if err != nil {
			return nil, nil, err
		}
		voter.rewardAddress = vote.RewardAddress
	}

	sortedVoters := make([]*epochVoter, 0, len(rewardedVoters))
	for _, voter := range rewardedVoters {
		sortedVoters = append(sortedVoters, voter)
	}
	sort.Slice(sortedVoters, func(i, j int) bool {
		return sortedVoters[i].nodeAddress.Less(sortedVoters[j].nodeAddress)
	})
	return voters, sortedVoters, nil
}

// updateActiveStake sets TotalActiveStake to the counted stake of the
// validators that voted during the epoch and deactivates the rest
func (csm *consensusStateMachine) updateActiveStake(commit *viewCommit,
	voters map[externalapi.Address]struct{}) error {

	validatorWorkingSet := csm.cache.ValidatorWorkingSet()
	validators, err := validatorWorkingSet.Validators()
	if err != nil {
		return err
	}

	totalActiveStake := uint64(0)
	for _, validator := range validators {
		_, voted := voters[*validator.NodeAddress]
		if voted && csm.isVotingValidator(validator) {
			totalActiveStake, err = math.AddUint64(totalActiveStake, csm.params.CountedStake(validator))
			if err != nil {
				return err
			}
			continue
		}
		if validator.Active {
			validator.Active = false
			validatorWorkingSet.SetValidator(validator)
			log.Debugf("Validator %s did not vote during the epoch ending at view %d",
				validator.NodeAddress, commit.view.ID)
		}
	}
	commit.chainState.TotalActiveStake = totalActiveStake
	return nil
}

// stakeRewards splits the validator emission of the epoch and the
// collected fees between rewardedVoters, proportionally to their
// cumulated stake. It returns the rewards and the distributed part of
// the fees.
func (csm *consensusStateMachine) stakeRewards(commit *viewCommit, rewardedVoters []*epochVoter) (
	[]*externalapi.Transaction, uint64, error) {

	distributedFees := uint64(0)
	totalStake := uint64(0)
	for _, voter := range rewardedVoters {
		var err error
		totalStake, err = math.AddUint64(totalStake, voter.cumulatedStake)
		if err != nil {
			return nil, 0, err
		}
	}
	if totalStake == 0 {
		return nil, 0, nil
	}

	totalReward, err := math.MulUint64(csm.rewardCalculator.ValidatorReward(commit.view.ID),
		csm.params.MilestonesPerEpoch())
	if err != nil {
		return nil, 0, err
	}

	rewards := make([]*externalapi.Transaction, 0, len(rewardedVoters))
	for _, voter := range rewardedVoters {
		emissionShare, err := math.MulDivUint64(totalReward, voter.cumulatedStake, totalStake)
		if err != nil {
			return nil, 0, err
		}
		feeShare, err := math.MulDivUint64(commit.chainState.CollectedFees, voter.cumulatedStake, totalStake)
		if err != nil {
			return nil, 0, err
		}
		distributedFees += feeShare

		reward := emissionShare + feeShare
		if reward == 0 {
			continue
		}
		rewards = append(rewards, &externalapi.Transaction{
			Type:      externalapi.TransactionTypeStakeReward,
			To:        voter.rewardAddress,
			Value:     reward,
			Timestamp: commit.view.Timestamp,
			Data:      append(serialization.Uint64ToKeyBytes(commit.view.ID), voter.nodeAddress.ByteSlice()...),
		})
	}
	return rewards, distributedFees, nil
}

// devReward returns the dev share of the block emissions of every view
// of the epoch and of the validator emissions of its milestones
func (csm *consensusStateMachine) devReward(epochStart uint64, epochEnd uint64) (uint64, error) {
	devReward := uint64(0)
	for height := epochStart; height <= epochEnd; height++ {
		var err error
		devReward, err = math.AddUint64(devReward, csm.rewardCalculator.DevRewardForBlock(height))
		if err != nil {
			return 0, err
		}
		if height%csm.params.VoteInterval != 0 {
			continue
		}
		devReward, err = math.AddUint64(devReward, csm.rewardCalculator.DevRewardForValidator(height))
		if err != nil {
			return 0, err
		}
	}
	return devReward, nil
}
