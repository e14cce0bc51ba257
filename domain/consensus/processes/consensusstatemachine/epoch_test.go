package consensusstatemachine_test

import (
	"testing"

	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/testutils"
)

func seedVotes(viewHash *externalapi.DomainHash, stake uint64, keyIndexes ...int) []*externalapi.Vote {
	votes := make([]*externalapi.Vote, len(keyIndexes))
	for i, keyIndex := range keyIndexes {
		votes[i] = testutils.Vote(keyIndex, viewHash, stake)
	}
	return votes
}

func TestEpochDevReward(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestEpochDevReward", true)
	defer teardown()

	minStake := tc.Params().MinStake
	payment := testutils.Payment(0, testutils.Address(1), 1000, 1, tc.ChainState().Timestamp)
	addView(t, tc, nil, seedVotes(tc.ChainState().ViewHash, minStake, 0, 1), []*externalapi.Transaction{payment}, nil)
	addEmptyViews(t, tc, 3)

	// Seed validators earn nothing, so the dev reward takes the dev
	// share of four block emissions and two validator emissions, plus
	// the undistributed fee
	devAddress := tc.Params().DevAddress
	checkLedger(t, tc, devAddress, 4*10+2*4+1, 0)

	chainState := tc.ChainState()
	if chainState.CollectedFees != 0 {
		t.Fatalf("expected the collected fees to be reset, got %d", chainState.CollectedFees)
	}
	if chainState.TotalActiveStake != 2*minStake {
		t.Fatalf("expected the active stake of the two voters, %d, got %d", 2*minStake, chainState.TotalActiveStake)
	}

	// Nobody votes during the second epoch
	addEmptyViews(t, tc, 4)
	if tc.ChainState().TotalActiveStake != 0 {
		t.Fatalf("expected no active stake after an epoch without votes, got %d", tc.ChainState().TotalActiveStake)
	}
	for _, keyIndex := range []int{0, 1} {
		validator, found, err := tc.Validator(testutils.Address(keyIndex))
		if err != nil {
			t.Fatalf("Validator: %+v", err)
		}
		if !found || validator.Active {
			t.Fatalf("expected validator %d to be deactivated", keyIndex)
		}
	}
	checkLedger(t, tc, devAddress, 2*(4*10+2*4)+1, 0)
}

func TestEpochStakeReward(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestEpochStakeReward", true)
	defer teardown()

	minStake := tc.Params().MinStake
	validatorAddress := testutils.Address(3)

	funding := testutils.Payment(0, validatorAddress, 5000, 1, tc.ChainState().Timestamp)
	addView(t, tc, nil, nil, []*externalapi.Transaction{funding}, nil)

	register := testutils.SignedTransaction(3, &externalapi.Transaction{
		Type:      externalapi.TransactionTypeRegisterValidator,
		To:        validatorAddress,
		Value:     minStake,
		MaxFee:    1,
		Timestamp: tc.ChainState().Timestamp,
	})
	addView(t, tc, nil, nil, []*externalapi.Transaction{register}, nil)
	checkLedger(t, tc, validatorAddress, 5000-1-minStake, minStake)

	validator, found, err := tc.Validator(validatorAddress)
	if err != nil {
		t.Fatalf("Validator: %+v", err)
	}
	if !found || validator.Stake != minStake || validator.Active {
		t.Fatalf("expected an inactive validator with stake %d, got %v", minStake, validator)
	}

	vote := testutils.Vote(3, tc.ChainState().ViewHash, minStake)
	addView(t, tc, nil, []*externalapi.Vote{vote}, nil, nil)
	if tc.ChainState().TotalActiveStake != minStake {
		t.Fatalf("expected the vote to activate %d stake, got %d", minStake, tc.ChainState().TotalActiveStake)
	}

	addEmptyViews(t, tc, 1)

	// The only staking voter takes two milestones of validator emission
	// and every collected fee of the epoch
	validatorEmission := uint64(40 - 4)
	checkLedger(t, tc, validatorAddress, 5000-1-minStake+2*validatorEmission+2, minStake)
	checkLedger(t, tc, tc.Params().DevAddress, 4*10+2*4, 0)

	reward, err := tc.GetView(4)
	if err != nil {
		t.Fatalf("GetView: %+v", err)
	}
	if len(reward.Rewards) != 2 {
		t.Fatalf("expected a stake reward and a dev reward in the epoch view, got %d rewards", len(reward.Rewards))
	}
}
