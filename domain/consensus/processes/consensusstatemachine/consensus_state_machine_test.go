package consensusstatemachine_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/chainconfig"
	"github.com/viewledger/viewd/domain/consensus"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/ruleerrors"
	"github.com/viewledger/viewd/domain/consensus/utils/testutils"
)

func newTestConsensus(t *testing.T, testName string, addGenesis bool) (consensus.TestConsensus, func()) {
	params := chainconfig.SimnetParams
	config := &consensus.Config{Params: &params, SkipProofOfWork: true}
	tc, teardown, err := consensus.NewFactory().NewTestConsensus(config, testName)
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	if addGenesis {
		err = tc.AddGenesis()
		if err != nil {
			teardown()
			t.Fatalf("AddGenesis: %+v", err)
		}
	}
	return tc, teardown
}

func addView(t *testing.T, tc consensus.TestConsensus, blocks []*externalapi.Block, votes []*externalapi.Vote,
	transactions []*externalapi.Transaction, scheduled []*externalapi.DomainHash) *externalapi.View {

	view, err := tc.AddViewWithObjects(blocks, votes, transactions, scheduled)
	if err != nil {
		t.Fatalf("AddViewWithObjects: %+v", err)
	}
	return view
}

func addEmptyViews(t *testing.T, tc consensus.TestConsensus, count int) {
	for i := 0; i < count; i++ {
		addView(t, tc, nil, nil, nil, nil)
	}
}

func ledger(t *testing.T, tc consensus.TestConsensus, address *externalapi.Address) *externalapi.Ledger {
	ledger, err := tc.Ledger(address)
	if err != nil {
		t.Fatalf("Ledger: %+v", err)
	}
	return ledger
}

func checkLedger(t *testing.T, tc consensus.TestConsensus, address *externalapi.Address,
	expectedBalance uint64, expectedPending uint64) {

	t.Helper()
	l := ledger(t, tc, address)
	if l.Balance != expectedBalance || l.Pending != expectedPending {
		t.Fatalf("expected %s to have balance %d and pending %d, got %d and %d",
			address, expectedBalance, expectedPending, l.Balance, l.Pending)
	}
}

func TestAddGenesis(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestAddGenesis", true)
	defer teardown()

	chainState := tc.ChainState()
	if chainState.ID != 0 {
		t.Fatalf("expected the genesis chain state to be at 0, got %d", chainState.ID)
	}
	if chainState.BlockReward != 90 {
		t.Fatalf("expected a genesis block reward of 90, got %d", chainState.BlockReward)
	}
	if chainState.Timestamp != tc.Params().GenesisTimestamp {
		t.Fatalf("expected the genesis timestamp %d, got %d", tc.Params().GenesisTimestamp, chainState.Timestamp)
	}
	if tc.State() != model.MachineStateCommitted {
		t.Fatalf("expected the machine to be committed, got %s", tc.State())
	}
	if !tc.CurrentView().LastHash.Equal(externalapi.NewZeroHash()) {
		t.Fatalf("expected the genesis view to point to the zero hash")
	}

	checkLedger(t, tc, testutils.Address(0), 1_000_000, 0)
	checkLedger(t, tc, testutils.Address(3), 0, 0)

	validators, err := tc.Validators()
	if err != nil {
		t.Fatalf("Validators: %+v", err)
	}
	if len(validators) != len(tc.Params().SeedValidatorKeys) {
		t.Fatalf("expected %d validators, got %d", len(tc.Params().SeedValidatorKeys), len(validators))
	}
	for _, validator := range validators {
		if validator.Stake != 0 || validator.Active {
			t.Fatalf("expected seed validator %s to be inactive without stake", validator.NodeAddress)
		}
	}
	isValidator, err := tc.IsValidator(testutils.Address(2))
	if err != nil {
		t.Fatalf("IsValidator: %+v", err)
	}
	if !isValidator {
		t.Fatalf("expected seed validator 2 to be a validator")
	}
	isValidator, err = tc.IsValidator(testutils.Address(3))
	if err != nil {
		t.Fatalf("IsValidator: %+v", err)
	}
	if isValidator {
		t.Fatalf("expected key 3 not to be a validator")
	}

	events := tc.CollectEvents()
	if len(events) == 0 || events[0].Type != externalapi.EventTypeChainStateChanged {
		t.Fatalf("expected the genesis commit to publish a chain state change first, got %v", events)
	}

	err = tc.AddGenesis()
	if !errors.Is(err, ruleerrors.ErrGenesisExists) {
		t.Fatalf("expected ErrGenesisExists, got %v", err)
	}
}

func TestAddViewWithoutGenesis(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestAddViewWithoutGenesis", false)
	defer teardown()

	view := &externalapi.View{
		ID:        1,
		Timestamp: tc.Params().GenesisTimestamp + 1000,
		LastHash:  externalapi.NewZeroHash(),
	}
	err := tc.AddView(context.Background(), view, false, false)
	if !errors.Is(err, ruleerrors.ErrMissingGenesis) {
		t.Fatalf("expected ErrMissingGenesis, got %v", err)
	}

	_, err = tc.AddTransaction(context.Background(),
		testutils.Payment(0, testutils.Address(1), 10, 1, tc.Params().GenesisTimestamp))
	if !errors.Is(err, ruleerrors.ErrMissingGenesis) {
		t.Fatalf("expected ErrMissingGenesis, got %v", err)
	}
}

func TestAddViewChecksPosition(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestAddViewChecksPosition", true)
	defer teardown()

	view := tc.NextView(nil, nil, nil, nil)
	view.ID++
	err := tc.AddView(context.Background(), view, false, false)
	if !errors.Is(err, ruleerrors.ErrUnexpectedViewID) {
		t.Fatalf("expected ErrUnexpectedViewID, got %v", err)
	}

	view = tc.NextView(nil, nil, nil, nil)
	view.LastHash = externalapi.NewZeroHash()
	err = tc.AddView(context.Background(), view, false, false)
	if !errors.Is(err, ruleerrors.ErrUnexpectedLastHash) {
		t.Fatalf("expected ErrUnexpectedLastHash, got %v", err)
	}

	view = tc.NextView(nil, nil, nil, nil)
	view.Timestamp = tc.ChainState().Timestamp
	err = tc.AddView(context.Background(), view, false, false)
	if !errors.Is(err, ruleerrors.ErrTimeTooOld) {
		t.Fatalf("expected ErrTimeTooOld, got %v", err)
	}

	payment := testutils.Payment(0, testutils.Address(1), 10, 1, tc.ChainState().Timestamp)
	view = tc.NextView(nil, nil, []*externalapi.Transaction{payment}, nil)
	err = tc.AddView(context.Background(), view, false, false)
	if !errors.Is(err, ruleerrors.ErrUnknownTransaction) {
		t.Fatalf("expected ErrUnknownTransaction, got %v", err)
	}
	if tc.State() != model.MachineStateAborted {
		t.Fatalf("expected the machine to be aborted, got %s", tc.State())
	}

	addView(t, tc, nil, nil, nil, nil)
	if tc.ChainState().ID != 1 {
		t.Fatalf("expected the chain to be at view 1, got %d", tc.ChainState().ID)
	}
}

func TestWeightIsMonotonic(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestWeightIsMonotonic", true)
	defer teardown()

	genesisHash := tc.ChainState().ViewHash
	previous := tc.ChainState()
	for i := 0; i < 6; i++ {
		var blocks []*externalapi.Block
		var votes []*externalapi.Vote
		if i == 0 {
			votes = []*externalapi.Vote{testutils.Vote(0, genesisHash, tc.Params().MinStake)}
		}
		if i%2 == 1 {
			blocks = []*externalapi.Block{tc.NewBlock(testutils.Address(1), 1)}
		}
		addView(t, tc, blocks, votes, nil, nil)

		current := tc.ChainState()
		if current.Weight.Cmp(previous.Weight) <= 0 {
			t.Fatalf("weight did not increase from view %d (%s) to view %d (%s)",
				previous.ID, previous.Weight, current.ID, current.Weight)
		}
		workIncreased := current.TotalWork.Cmp(previous.TotalWork) > 0
		if workIncreased != (len(blocks) > 0) {
			t.Fatalf("view %d with %d blocks: expected the total work to increase only with blocks",
				current.ID, len(blocks))
		}
		previous = current
	}
}

// totalSupply returns the sum of the balances and pending amounts of
// addresses, plus the fees collected by the current epoch
func totalSupply(t *testing.T, tc consensus.TestConsensus, addresses []*externalapi.Address) uint64 {
	supply := tc.ChainState().CollectedFees
	for _, address := range addresses {
		l := ledger(t, tc, address)
		supply += l.Balance + l.Pending
	}
	return supply
}

func TestSupplyIsConserved(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestSupplyIsConserved", true)
	defer teardown()

	minStake := tc.Params().MinStake
	addresses := []*externalapi.Address{
		testutils.Address(0), testutils.Address(1), testutils.Address(2), testutils.Address(3),
		tc.Params().DevAddress,
	}

	for i := 1; i <= 2*int(tc.Params().EpochLength); i++ {
		isEpochChange := uint64(i)%tc.Params().EpochLength == 0
		blocks := []*externalapi.Block{tc.NewBlock(testutils.Address(1+i%2), 10)}
		var votes []*externalapi.Vote
		if i%2 == 1 {
			votes = seedVotes(tc.ChainState().ViewHash, minStake, 0, 1)
		}
		var transactions []*externalapi.Transaction
		if !isEpochChange {
			transactions = []*externalapi.Transaction{
				testutils.Payment(0, testutils.Address(2), uint64(100+i), 1, tc.ChainState().Timestamp),
			}
		}

		supplyBefore := totalSupply(t, tc, addresses)
		collectedFeesBefore := tc.ChainState().CollectedFees
		view := addView(t, tc, blocks, votes, transactions, nil)

		committed, err := tc.GetView(view.ID)
		if err != nil {
			t.Fatalf("GetView: %+v", err)
		}
		minted := uint64(0)
		for _, rewardHash := range committed.Rewards {
			reward, err := tc.GetTransaction(rewardHash)
			if err != nil {
				t.Fatalf("GetTransaction: %+v", err)
			}
			minted += reward.Value
		}
		// Epoch rewards pay out the collected fees on top of the emission
		if isEpochChange {
			minted -= collectedFeesBefore
		}

		supplyAfter := totalSupply(t, tc, addresses)
		if supplyAfter != supplyBefore+minted {
			t.Fatalf("view %d: expected the supply to grow from %d by the %d minted, got %d",
				view.ID, supplyBefore, minted, supplyAfter)
		}
	}
}
