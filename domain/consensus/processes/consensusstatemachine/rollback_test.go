package consensusstatemachine_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/viewledger/viewd/domain/chainconfig"
	"github.com/viewledger/viewd/domain/consensus"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/domain/consensus/utils/testutils"
)

func TestRollbackRestoresState(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestRollbackRestoresState", true)
	defer teardown()

	minStake := tc.Params().MinStake
	addresses := []*externalapi.Address{
		testutils.Address(0), testutils.Address(1), testutils.Address(2), testutils.Address(3),
	}

	funding := testutils.Payment(0, testutils.Address(3), 5000, 1, tc.ChainState().Timestamp)
	addView(t, tc, []*externalapi.Block{tc.NewBlock(testutils.Address(1), 10)},
		seedVotes(tc.ChainState().ViewHash, minStake, 0), []*externalapi.Transaction{funding}, nil)

	savedState := tc.ChainState()
	savedLedgers := make([]*externalapi.Ledger, len(addresses))
	for i, address := range addresses {
		savedLedgers[i] = ledger(t, tc, address)
	}

	timestamp := tc.ChainState().Timestamp
	register := testutils.SignedTransaction(3, &externalapi.Transaction{
		Type:      externalapi.TransactionTypeRegisterValidator,
		To:        testutils.Address(3),
		Value:     minStake,
		MaxFee:    1,
		Timestamp: timestamp,
	})
	payment := testutils.Payment(1, testutils.Address(2), 20, 1, timestamp)
	addView(t, tc, []*externalapi.Block{tc.NewBlock(testutils.Address(2), 10)}, nil,
		[]*externalapi.Transaction{register, payment}, nil)

	scheduled := testutils.Payment(0, testutils.Address(2), 500, 1, timestamp+100_000)
	addView(t, tc, nil, nil, []*externalapi.Transaction{scheduled}, nil)
	addEmptyViews(t, tc, 2)

	dueTransactions, err := tc.GetDueTransactions()
	if err != nil {
		t.Fatalf("GetDueTransactions: %+v", err)
	}
	if len(dueTransactions) != 1 {
		t.Fatalf("expected 1 scheduled transaction, got %d", len(dueTransactions))
	}
	tc.CollectEvents()

	err = tc.Rollback(1)
	if err != nil {
		t.Fatalf("Rollback: %+v", err)
	}

	restoredState := tc.ChainState()
	if !restoredState.ViewHash.Equal(savedState.ViewHash) ||
		restoredState.Weight.Cmp(savedState.Weight) != 0 ||
		restoredState.CollectedFees != savedState.CollectedFees ||
		!bytes.Equal(restoredState.LedgerCommitment, savedState.LedgerCommitment) {

		t.Fatalf("the chain state was not restored: expected %s, got %s",
			spew.Sdump(savedState), spew.Sdump(restoredState))
	}
	if tc.CurrentView().ID != 1 {
		t.Fatalf("expected the current view to be view 1, got %d", tc.CurrentView().ID)
	}
	for i, address := range addresses {
		restored := ledger(t, tc, address)
		if !restored.Equal(savedLedgers[i]) {
			t.Fatalf("the ledger of %s was not restored: expected %v, got %v", address, savedLedgers[i], restored)
		}
	}

	_, found, err := tc.Validator(testutils.Address(3))
	if err != nil {
		t.Fatalf("Validator: %+v", err)
	}
	if found {
		t.Fatalf("expected the registration of validator 3 to be reverted")
	}
	_, err = tc.GetView(2)
	if !database.IsNotFoundError(err) {
		t.Fatalf("expected view 2 to be deleted, got %v", err)
	}
	dueTransactions, err = tc.GetDueTransactions()
	if err != nil {
		t.Fatalf("GetDueTransactions: %+v", err)
	}
	if len(dueTransactions) != 0 {
		t.Fatalf("expected the scheduled transaction to be reverted, got %d", len(dueTransactions))
	}

	events := tc.CollectEvents()
	if len(events) == 0 || events[len(events)-1].Type != externalapi.EventTypeChainStateChanged {
		t.Fatalf("expected the rollback to end with a chain state change, got %v", events)
	}

	// Reverted transactions can be admitted again
	result, err := tc.AddTransaction(context.Background(), payment)
	if err != nil {
		t.Fatalf("AddTransaction: %+v", err)
	}
	if result != externalapi.ExecutionResultPending {
		t.Fatalf("expected the reverted payment to be pending again, got %s", result)
	}
	addView(t, tc, nil, nil, []*externalapi.Transaction{payment}, nil)
	if tc.ChainState().ID != 2 {
		t.Fatalf("expected the chain to grow from view 1 again, got view %d", tc.ChainState().ID)
	}
	_, err = tc.GetTransaction(consensushashing.TransactionHash(payment))
	if err != nil {
		t.Fatalf("GetTransaction: %+v", err)
	}
}

func TestRollbackBounds(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestRollbackBounds", true)
	defer teardown()

	addEmptyViews(t, tc, 2)

	err := tc.Rollback(2)
	if err != nil {
		t.Fatalf("expected a rollback to the current view to do nothing, got %+v", err)
	}
	err = tc.Rollback(3)
	if err == nil {
		t.Fatalf("expected a rollback above the current view to fail")
	}
	if tc.ChainState().ID != 2 {
		t.Fatalf("expected the chain to stay at view 2, got %d", tc.ChainState().ID)
	}
}

func TestScheduledPayment(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestScheduledPayment", true)
	defer teardown()

	dueTimestamp := tc.ChainState().Timestamp + 3*tc.Params().TargetTimePerBlock.Milliseconds()
	scheduled := testutils.Payment(0, testutils.Address(1), 500, 1, dueTimestamp)
	scheduledHash := consensushashing.TransactionHash(scheduled)
	addView(t, tc, nil, nil, []*externalapi.Transaction{scheduled}, nil)

	checkLedger(t, tc, testutils.Address(0), 1_000_000-501, 0)
	checkLedger(t, tc, testutils.Address(1), 0, 500)

	dueTransactions, err := tc.GetDueTransactions()
	if err != nil {
		t.Fatalf("GetDueTransactions: %+v", err)
	}
	if len(dueTransactions) != 1 || !dueTransactions[0].Equal(scheduledHash) {
		t.Fatalf("expected %s to be scheduled, got %v", scheduledHash, dueTransactions)
	}

	// View 2 is before the due time
	_, err = tc.AddViewWithObjects(nil, nil, nil, []*externalapi.DomainHash{scheduledHash})
	if err == nil {
		t.Fatalf("expected settling a payment before its due time to fail")
	}
	addEmptyViews(t, tc, 1)

	addView(t, tc, nil, nil, nil, []*externalapi.DomainHash{scheduledHash})
	checkLedger(t, tc, testutils.Address(1), 500, 0)
	dueTransactions, err = tc.GetDueTransactions()
	if err != nil {
		t.Fatalf("GetDueTransactions: %+v", err)
	}
	if len(dueTransactions) != 0 {
		t.Fatalf("expected the settled payment to be unscheduled, got %v", dueTransactions)
	}
}

// tokenRuntime pays the caller back half of the value of every call.
// The first call mints its token to the caller, later calls hand the
// token to the contract owner and consume it.
type tokenRuntime struct {
	tokenID *externalapi.DomainHash
}

func (r *tokenRuntime) Deploy(_ *externalapi.Contract, _ []byte, _ *externalapi.Transaction) (*model.ContractExecution, error) {
	return &model.ContractExecution{State: []byte{0}, Success: true}, nil
}

func (r *tokenRuntime) Call(contract *externalapi.Contract, _ []byte, state []byte,
	transaction *externalapi.Transaction) (*model.ContractExecution, error) {

	tokenEffect := &externalapi.Effect{
		From:     transaction.From,
		To:       transaction.From,
		Contract: contract.Address,
		TokenID:  r.tokenID,
	}
	if state[0] > 0 {
		tokenEffect.To = contract.Owner
		tokenEffect.ConsumeToken = true
	}
	payout := &externalapi.Effect{
		From:     contract.Address,
		To:       transaction.From,
		Value:    transaction.Value / 2,
		Contract: contract.Address,
	}
	return &model.ContractExecution{
		State:   []byte{state[0] + 1},
		Effects: []*externalapi.Effect{payout, tokenEffect},
		Success: true,
	}, nil
}

func TestRollbackRevertsContractEffects(t *testing.T) {
	tokenID := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{7})
	params := chainconfig.SimnetParams
	config := &consensus.Config{
		Params:          &params,
		SkipProofOfWork: true,
		ContractRuntime: &tokenRuntime{tokenID: tokenID},
	}
	tc, teardown, err := consensus.NewFactory().NewTestConsensus(config, "TestRollbackRevertsContractEffects")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardown()
	err = tc.AddGenesis()
	if err != nil {
		t.Fatalf("AddGenesis: %+v", err)
	}

	caller := testutils.Address(1)
	timestamp := tc.ChainState().Timestamp
	funding := testutils.Payment(0, caller, 10_000, 1, timestamp)
	deploy := testutils.SignedTransaction(0, &externalapi.Transaction{
		Type:      externalapi.TransactionTypeContract,
		Value:     10,
		MaxFee:    10,
		Timestamp: timestamp,
		Data:      []byte{1, 2, 3},
	})
	addView(t, tc, nil, nil, []*externalapi.Transaction{funding, deploy}, nil)
	contractAddress := consensushashing.NewContractAddress(consensushashing.TransactionHash(deploy))

	addresses := []*externalapi.Address{testutils.Address(0), caller, contractAddress}
	ledgers := func() []*externalapi.Ledger {
		result := make([]*externalapi.Ledger, len(addresses))
		for i, address := range addresses {
			result[i] = ledger(t, tc, address)
		}
		return result
	}
	checkLedgers := func(expected []*externalapi.Ledger) {
		for i, address := range addresses {
			actual := ledger(t, tc, address)
			if !actual.Equal(expected[i]) {
				t.Fatalf("the ledger of %s was not restored: expected %v, got %v", address, expected[i], actual)
			}
		}
	}
	call := func() *externalapi.Transaction {
		return testutils.SignedTransaction(1, &externalapi.Transaction{
			Type:      externalapi.TransactionTypeContract,
			To:        contractAddress,
			Value:     100,
			MaxFee:    10,
			Timestamp: tc.ChainState().Timestamp,
		})
	}
	deployedLedgers := ledgers()

	mint := call()
	addView(t, tc, nil, nil, []*externalapi.Transaction{mint}, nil)
	committedMint, err := tc.GetTransaction(consensushashing.TransactionHash(mint))
	if err != nil {
		t.Fatalf("GetTransaction: %+v", err)
	}
	if committedMint.ExecutionResult != externalapi.ExecutionResultSuccess || len(committedMint.Effects) != 2 {
		t.Fatalf("unexpected outcome of the minting call: %s", spew.Sdump(committedMint))
	}
	mintedToken, err := tc.GetToken(tokenID)
	if err != nil {
		t.Fatalf("GetToken: %+v", err)
	}
	if !mintedToken.Owner.Equal(caller) || mintedToken.IsConsumed {
		t.Fatalf("unexpected minted token: %s", spew.Sdump(mintedToken))
	}
	mintedLedgers := ledgers()

	addView(t, tc, nil, nil, []*externalapi.Transaction{call()}, nil)
	consumedToken, err := tc.GetToken(tokenID)
	if err != nil {
		t.Fatalf("GetToken: %+v", err)
	}
	if !consumedToken.Owner.Equal(testutils.Address(0)) || !consumedToken.IsConsumed {
		t.Fatalf("expected the token to be consumed by the contract owner: %s", spew.Sdump(consumedToken))
	}

	err = tc.Rollback(2)
	if err != nil {
		t.Fatalf("Rollback: %+v", err)
	}
	restoredToken, err := tc.GetToken(tokenID)
	if err != nil {
		t.Fatalf("GetToken: %+v", err)
	}
	if !restoredToken.Equal(mintedToken) {
		t.Fatalf("the token was not restored: expected %s, got %s", spew.Sdump(mintedToken), spew.Sdump(restoredToken))
	}
	checkLedgers(mintedLedgers)

	err = tc.Rollback(1)
	if err != nil {
		t.Fatalf("Rollback: %+v", err)
	}
	_, err = tc.GetToken(tokenID)
	if !database.IsNotFoundError(err) {
		t.Fatalf("expected the minted token to be deleted, got %v", err)
	}
	checkLedgers(deployedLedgers)
	_, err = tc.GetContract(contractAddress)
	if err != nil {
		t.Fatalf("expected the contract deployed in view 1 to remain, got %+v", err)
	}
}
