package consensusstatemachine

import (
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/signing"
)

// castSelfVote signs and admits the vote of this node for the committed
// view, if the view is a milestone and the node is a validator. The
// view is already committed, so a failure here is only logged.
func (csm *consensusStateMachine) castSelfVote(chainState *externalapi.ChainState, broadcast bool) {
	if csm.validatorKey == nil || chainState.ID%csm.params.VoteInterval != 0 {
		return
	}

	vote, err := csm.buildSelfVote(chainState)
	if err != nil {
		log.Warnf("Could not build a vote for view %d: %+v", chainState.ID, err)
		return
	}
	if vote == nil {
		return
	}
	isNew, err := csm.addVoteInternal(vote)
	if err != nil {
		log.Warnf("Could not admit the vote for view %d: %+v", chainState.ID, err)
		return
	}
	if !isNew {
		return
	}
	log.Debugf("Voted for view %d with stake %d", chainState.ID, vote.Stake)
	if broadcast {
		csm.sink.BroadcastVote(vote.Clone())
	}
}

// buildSelfVote returns nil if this node is not a voting validator
func (csm *consensusStateMachine) buildSelfVote(chainState *externalapi.ChainState) (*externalapi.Vote, error) {
	validator, found, err := csm.cache.ValidatorWorkingSet().Validator(csm.validatorAddress)
	if err != nil {
		return nil, err
	}
	if !found || !csm.isVotingValidator(validator) {
		return nil, nil
	}

	vote := &externalapi.Vote{
		ViewHash:      chainState.ViewHash,
		Stake:         csm.params.CountedStake(validator),
		RewardAddress: validator.RewardAddress,
	}
	err = signing.SignVote(vote, csm.validatorKey)
	if err != nil {
		return nil, err
	}
	return vote, nil
}
