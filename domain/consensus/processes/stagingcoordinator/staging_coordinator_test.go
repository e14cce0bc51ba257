package stagingcoordinator_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/chainconfig"
	"github.com/viewledger/viewd/domain/consensus"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/ruleerrors"
	"github.com/viewledger/viewd/domain/consensus/utils/testutils"
)

func newTestConsensus(t *testing.T, testName string) (consensus.TestConsensus, func()) {
	params := chainconfig.SimnetParams
	config := &consensus.Config{Params: &params, SkipProofOfWork: true}
	tc, teardown, err := consensus.NewFactory().NewTestConsensus(config, testName)
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	err = tc.AddGenesis()
	if err != nil {
		teardown()
		t.Fatalf("AddGenesis: %+v", err)
	}
	return tc, teardown
}

// buildChain commits count views on tc, each with a block paying to
// recipient, and returns their bundles
func buildChain(t *testing.T, tc consensus.TestConsensus, recipient *externalapi.Address,
	count int) []*externalapi.ViewBundle {

	bundles := make([]*externalapi.ViewBundle, 0, count)
	for i := 0; i < count; i++ {
		block := tc.NewBlock(recipient, 1)
		view, err := tc.AddViewWithObjects([]*externalapi.Block{block}, nil, nil, nil)
		if err != nil {
			t.Fatalf("AddViewWithObjects: %+v", err)
		}
		bundle, err := tc.GetViewBundle(view.ID)
		if err != nil {
			t.Fatalf("GetViewBundle: %+v", err)
		}
		bundles = append(bundles, bundle)
	}
	return bundles
}

func TestLoadStagingChainSwitchesToHeavierChain(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestLoadStagingChainSwitchesToHeavierChain")
	defer teardown()
	other, otherTeardown := newTestConsensus(t, "TestLoadStagingChainSwitchesToHeavierChain-other")
	defer otherTeardown()

	buildChain(t, tc, testutils.Address(1), 2)
	candidate := buildChain(t, other, testutils.Address(2), 3)
	tc.CollectEvents()

	replaced, err := tc.LoadStagingChain(context.Background(), 0, candidate)
	if err != nil {
		t.Fatalf("LoadStagingChain: %+v", err)
	}
	if !replaced {
		t.Fatalf("expected the heavier candidate chain to replace the canonical chain")
	}

	chainState := tc.ChainState()
	otherState := other.ChainState()
	if !chainState.ViewHash.Equal(otherState.ViewHash) || chainState.Weight.Cmp(otherState.Weight) != 0 {
		t.Fatalf("expected the canonical chain to end at %s, got %s", otherState.ViewHash, chainState.ViewHash)
	}
	for _, keyIndex := range []int{1, 2} {
		expected, err := other.Ledger(testutils.Address(keyIndex))
		if err != nil {
			t.Fatalf("Ledger: %+v", err)
		}
		actual, err := tc.Ledger(testutils.Address(keyIndex))
		if err != nil {
			t.Fatalf("Ledger: %+v", err)
		}
		if !actual.Equal(expected) {
			t.Fatalf("expected the ledger of key %d to be %v, got %v", keyIndex, expected, actual)
		}
	}
	if len(tc.CollectEvents()) == 0 {
		t.Fatalf("expected the events of the replayed chain to be published")
	}

	// The switched chain keeps growing
	buildChain(t, tc, testutils.Address(1), 1)
	if tc.ChainState().ID != 4 {
		t.Fatalf("expected the chain to be at view 4, got %d", tc.ChainState().ID)
	}
}

func TestLoadStagingChainKeepsHeavierCanonicalChain(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestLoadStagingChainKeepsHeavierCanonicalChain")
	defer teardown()
	other, otherTeardown := newTestConsensus(t, "TestLoadStagingChainKeepsHeavierCanonicalChain-other")
	defer otherTeardown()

	buildChain(t, tc, testutils.Address(1), 2)
	canonicalState := tc.ChainState()
	candidate := buildChain(t, other, testutils.Address(2), 2)

	// Equal weight is not enough to switch
	replaced, err := tc.LoadStagingChain(context.Background(), 0, candidate)
	if err != nil {
		t.Fatalf("LoadStagingChain: %+v", err)
	}
	if replaced {
		t.Fatalf("expected a candidate chain of equal weight to be discarded")
	}
	if !tc.ChainState().ViewHash.Equal(canonicalState.ViewHash) {
		t.Fatalf("expected the canonical chain to be kept")
	}
	checkBalance, err := tc.Ledger(testutils.Address(2))
	if err != nil {
		t.Fatalf("Ledger: %+v", err)
	}
	if checkBalance.Balance != 0 {
		t.Fatalf("expected the discarded chain to leave no trace, got balance %d", checkBalance.Balance)
	}
}

func TestLoadStagingChainRejectsMalformedCandidate(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestLoadStagingChainRejectsMalformedCandidate")
	defer teardown()
	other, otherTeardown := newTestConsensus(t, "TestLoadStagingChainRejectsMalformedCandidate-other")
	defer otherTeardown()

	candidate := buildChain(t, other, testutils.Address(2), 3)

	_, err := tc.LoadStagingChain(context.Background(), 0, candidate[1:])
	if err == nil {
		t.Fatalf("expected a candidate chain that does not start above the fork height to be rejected")
	}
	_, err = tc.LoadStagingChain(context.Background(), 1, candidate[1:])
	if err == nil {
		t.Fatalf("expected a fork height above the canonical chain to be rejected")
	}
	if tc.ChainState().ID != 0 {
		t.Fatalf("expected the canonical chain to stay at genesis, got %d", tc.ChainState().ID)
	}

	replaced, err := tc.LoadStagingChain(context.Background(), 0, nil)
	if err != nil || replaced {
		t.Fatalf("expected an empty candidate chain to change nothing, got %t, %v", replaced, err)
	}
}

func TestLoadStagingChainRunsAdmissionChecks(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestLoadStagingChainRunsAdmissionChecks")
	defer teardown()
	other, otherTeardown := newTestConsensus(t, "TestLoadStagingChainRunsAdmissionChecks-other")
	defer otherTeardown()

	buildChain(t, tc, testutils.Address(1), 1)
	canonicalState := tc.ChainState()
	genesisHash := other.ChainState().ViewHash
	minStake := other.Params().MinStake

	tests := []struct {
		name          string
		votes         []*externalapi.Vote
		expectedError error
	}{
		{
			name: "two votes of one validator",
			votes: []*externalapi.Vote{
				testutils.Vote(0, genesisHash, minStake),
				testutils.VoteWithRewardAddress(0, genesisHash, minStake, testutils.Address(9)),
			},
			expectedError: ruleerrors.ErrUnknownVote,
		},
		{
			name:          "vote with an inflated stake",
			votes:         []*externalapi.Vote{testutils.Vote(0, genesisHash, 5*minStake)},
			expectedError: ruleerrors.ErrMalformedObject,
		},
	}
	for _, test := range tests {
		candidate := []*externalapi.ViewBundle{{
			View:  other.NextView(nil, test.votes, nil, nil),
			Votes: test.votes,
		}}
		replaced, err := tc.LoadStagingChain(context.Background(), 0, candidate)
		if !errors.Is(err, test.expectedError) {
			t.Fatalf("%s: expected %v, got %v", test.name, test.expectedError, err)
		}
		if replaced {
			t.Fatalf("%s: expected the candidate chain to be discarded", test.name)
		}
		if !tc.ChainState().ViewHash.Equal(canonicalState.ViewHash) {
			t.Fatalf("%s: expected the canonical chain to be kept", test.name)
		}
	}
}
