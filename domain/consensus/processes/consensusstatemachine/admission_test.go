package consensusstatemachine_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/ruleerrors"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/domain/consensus/utils/difficulty"
	"github.com/viewledger/viewd/domain/consensus/utils/testutils"
)

func TestAddBlock(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestAddBlock", true)
	defer teardown()

	ctx := context.Background()
	block := tc.NewBlock(testutils.Address(1), 50)
	isNew, err := tc.AddBlock(ctx, block)
	if err != nil {
		t.Fatalf("AddBlock: %+v", err)
	}
	if !isNew {
		t.Fatalf("expected the block to be new")
	}
	isNew, err = tc.AddBlock(ctx, block)
	if err != nil {
		t.Fatalf("AddBlock: %+v", err)
	}
	if isNew {
		t.Fatalf("expected the second admission of the block to be reported as known")
	}

	greedyBlock := tc.NewBlock(testutils.Address(1), tc.ChainState().BlockReward+1)
	_, err = tc.AddBlock(ctx, greedyBlock)
	if !errors.Is(err, ruleerrors.ErrBadBlockValue) {
		t.Fatalf("expected ErrBadBlockValue, got %v", err)
	}

	staleBlock := tc.NewBlock(testutils.Address(1), 10)
	staleBlock.LastHash = externalapi.NewZeroHash()
	_, err = tc.AddBlock(ctx, staleBlock)
	if !errors.Is(err, ruleerrors.ErrStaleBlock) {
		t.Fatalf("expected ErrStaleBlock, got %v", err)
	}

	wrongDifficultyBlock := tc.NewBlock(testutils.Address(1), 10)
	wrongDifficultyBlock.Difficulty++
	_, err = tc.AddBlock(ctx, wrongDifficultyBlock)
	if !errors.Is(err, ruleerrors.ErrBadBlockDifficulty) {
		t.Fatalf("expected ErrBadBlockDifficulty, got %v", err)
	}

	pendingBlocks, _, _ := tc.PendingCounts()
	if pendingBlocks != 1 {
		t.Fatalf("expected 1 pending block, got %d", pendingBlocks)
	}

	view := tc.NextView([]*externalapi.Block{block}, nil, nil, nil)
	err = tc.AddView(ctx, view, false, false)
	if err != nil {
		t.Fatalf("AddView: %+v", err)
	}
	checkLedger(t, tc, testutils.Address(1), 90, 0)

	isNew, err = tc.AddBlock(ctx, block)
	if err == nil && isNew {
		t.Fatalf("expected a committed block not to be admitted again")
	}
}

func TestBlockRewards(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestBlockRewards", true)
	defer teardown()

	// A single block takes the whole reward, whatever value it claims
	addView(t, tc, []*externalapi.Block{tc.NewBlock(testutils.Address(1), 50)}, nil, nil, nil)
	checkLedger(t, tc, testutils.Address(1), 90, 0)
	chainState := tc.ChainState()
	if chainState.TotalBlocks != 1 || chainState.BlockReward != 90 {
		t.Fatalf("expected 1 block and a block reward of 90, got %d and %d",
			chainState.TotalBlocks, chainState.BlockReward)
	}

	// Blocks of the same view split the reward
	blocks := []*externalapi.Block{
		tc.NewBlock(testutils.Address(1), 10),
		tc.NewBlock(testutils.Address(2), 10),
	}
	addView(t, tc, blocks, nil, nil, nil)
	checkLedger(t, tc, testutils.Address(1), 135, 0)
	checkLedger(t, tc, testutils.Address(2), 45, 0)

	// Views without blocks accumulate the reward
	addEmptyViews(t, tc, 2)
	if tc.ChainState().BlockReward != 270 {
		t.Fatalf("expected an accumulated block reward of 270, got %d", tc.ChainState().BlockReward)
	}
	addView(t, tc, []*externalapi.Block{tc.NewBlock(testutils.Address(2), 270)}, nil, nil, nil)
	checkLedger(t, tc, testutils.Address(2), 315, 0)
	if tc.ChainState().BlockReward != 90 {
		t.Fatalf("expected the block reward to reset to 90, got %d", tc.ChainState().BlockReward)
	}
}

func TestOrphanedBlocksReleasePending(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestOrphanedBlocksReleasePending", true)
	defer teardown()

	ctx := context.Background()
	orphan := tc.NewBlock(testutils.Address(2), 30)
	_, err := tc.AddBlock(ctx, orphan)
	if err != nil {
		t.Fatalf("AddBlock: %+v", err)
	}
	included := tc.NewBlock(testutils.Address(1), 30)
	addView(t, tc, []*externalapi.Block{included}, nil, nil, nil)

	checkLedger(t, tc, testutils.Address(1), 90, 0)
	checkLedger(t, tc, testutils.Address(2), 0, 0)
	pendingBlocks, _, _ := tc.PendingCounts()
	if pendingBlocks != 0 {
		t.Fatalf("expected no pending blocks after the commit, got %d", pendingBlocks)
	}
}

func TestAddVote(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestAddVote", true)
	defer teardown()

	ctx := context.Background()
	minStake := tc.Params().MinStake
	genesisHash := tc.ChainState().ViewHash

	vote := testutils.Vote(0, genesisHash, minStake)
	isNew, err := tc.AddVote(ctx, vote)
	if err != nil {
		t.Fatalf("AddVote: %+v", err)
	}
	if !isNew {
		t.Fatalf("expected the vote to be new")
	}
	isNew, err = tc.AddVote(ctx, vote)
	if err != nil || isNew {
		t.Fatalf("expected a repeated vote to be reported as known, got %t, %v", isNew, err)
	}

	_, err = tc.AddVote(ctx, testutils.Vote(1, genesisHash, minStake-1))
	if !errors.Is(err, ruleerrors.ErrMalformedObject) {
		t.Fatalf("expected ErrMalformedObject, got %v", err)
	}
	_, err = tc.AddVote(ctx, testutils.Vote(1, externalapi.NewZeroHash(), minStake))
	if !errors.Is(err, ruleerrors.ErrUnexpectedViewHash) {
		t.Fatalf("expected ErrUnexpectedViewHash, got %v", err)
	}
	_, err = tc.AddVote(ctx, testutils.Vote(3, genesisHash, minStake))
	if !errors.Is(err, ruleerrors.ErrNotValidator) {
		t.Fatalf("expected ErrNotValidator, got %v", err)
	}

	secondVote := testutils.Vote(1, genesisHash, minStake)
	addView(t, tc, nil, []*externalapi.Vote{vote, secondVote}, nil, nil)

	chainState := tc.ChainState()
	if chainState.TotalVotes != 2 {
		t.Fatalf("expected 2 votes, got %d", chainState.TotalVotes)
	}
	if chainState.TotalActiveStake != 2*minStake {
		t.Fatalf("expected an active stake of %d, got %d", 2*minStake, chainState.TotalActiveStake)
	}
	validator, found, err := tc.Validator(testutils.Address(0))
	if err != nil {
		t.Fatalf("Validator: %+v", err)
	}
	if !found || !validator.Active || validator.LastActiveHeight != 1 {
		t.Fatalf("expected validator 0 to be active since view 1, got %v", validator)
	}

	// The voting window of the genesis milestone is still open, and
	// validator 0 already voted in it
	isNew, err = tc.AddVote(ctx, vote)
	if err != nil || isNew {
		t.Fatalf("expected a committed vote to be reported as known, got %t, %v", isNew, err)
	}

	// View 2 opens a new voting window
	addEmptyViews(t, tc, 1)
	milestoneHash := tc.ChainState().ViewHash
	isNew, err = tc.AddVote(ctx, testutils.Vote(0, milestoneHash, minStake))
	if err != nil || !isNew {
		t.Fatalf("expected a vote for the new milestone to be admitted, got %t, %v", isNew, err)
	}
	_, err = tc.AddVote(ctx, testutils.Vote(1, genesisHash, minStake))
	if !errors.Is(err, ruleerrors.ErrUnexpectedViewHash) {
		t.Fatalf("expected a vote for the previous milestone to fail with ErrUnexpectedViewHash, got %v", err)
	}
}

func TestAddVoteOncePerWindow(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestAddVoteOncePerWindow", true)
	defer teardown()

	ctx := context.Background()
	minStake := tc.Params().MinStake
	genesisHash := tc.ChainState().ViewHash

	addView(t, tc, nil, seedVotes(genesisHash, minStake, 0), nil, nil)
	votedState := tc.ChainState()

	// A second vote of validator 0 for the genesis milestone hashes
	// differently, but the validator already counted in this window
	redirected := testutils.VoteWithRewardAddress(0, genesisHash, minStake, testutils.Address(9))
	isNew, err := tc.AddVote(ctx, redirected)
	if err != nil || isNew {
		t.Fatalf("expected a second vote in the same window to be refused, got %t, %v", isNew, err)
	}
	_, pendingVotes, _ := tc.PendingCounts()
	if pendingVotes != 0 {
		t.Fatalf("expected no pending votes, got %d", pendingVotes)
	}

	_, err = tc.AddViewWithObjects(nil, []*externalapi.Vote{redirected}, nil, nil)
	if !errors.Is(err, ruleerrors.ErrUnknownVote) {
		t.Fatalf("expected a view counting the second vote to fail with ErrUnknownVote, got %v", err)
	}

	addEmptyViews(t, tc, 1)
	chainState := tc.ChainState()
	if chainState.TotalVotes != votedState.TotalVotes {
		t.Fatalf("expected %d votes, got %d", votedState.TotalVotes, chainState.TotalVotes)
	}
	emptyViewWeight := new(big.Int).Sub(chainState.Weight, votedState.Weight)
	if emptyViewWeight.Cmp(difficulty.CalcWork(votedState.CurrentDifficulty)) != 0 {
		t.Fatalf("expected view 2 to add only its own work to the weight, got %s", emptyViewWeight)
	}

	// Two votes of the same validator in one view are refused as well
	tc2, teardown2 := newTestConsensus(t, "TestAddVoteOncePerWindow-batch", true)
	defer teardown2()
	votes := []*externalapi.Vote{
		testutils.Vote(1, tc2.ChainState().ViewHash, minStake),
		testutils.VoteWithRewardAddress(1, tc2.ChainState().ViewHash, minStake, testutils.Address(9)),
	}
	err = tc2.AddBatch(ctx, nil, votes, nil)
	if err != nil {
		t.Fatalf("AddBatch: %+v", err)
	}
	_, pendingVotes, _ = tc2.PendingCounts()
	if pendingVotes != 1 {
		t.Fatalf("expected one of the two votes to be pending, got %d", pendingVotes)
	}
	err = tc2.AddView(ctx, tc2.NextView(nil, votes, nil, nil), false, false)
	if !errors.Is(err, ruleerrors.ErrUnknownVote) {
		t.Fatalf("expected a view with both votes to fail with ErrUnknownVote, got %v", err)
	}
}

func TestVoteWindowExpiry(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestVoteWindowExpiry", true)
	defer teardown()

	ctx := context.Background()
	minStake := tc.Params().MinStake
	genesisHash := tc.ChainState().ViewHash

	unreferenced := testutils.Vote(0, genesisHash, minStake)
	isNew, err := tc.AddVote(ctx, unreferenced)
	if err != nil || !isNew {
		t.Fatalf("expected the vote to be admitted, got %t, %v", isNew, err)
	}
	addView(t, tc, nil, seedVotes(genesisHash, minStake, 1), nil, nil)
	_, pendingVotes, _ := tc.PendingCounts()
	if pendingVotes != 1 {
		t.Fatalf("expected the unreferenced vote to stay pending inside its window, got %d pending votes",
			pendingVotes)
	}

	// The milestone view closes the window
	addEmptyViews(t, tc, int(tc.Params().VoteInterval)-1)
	if tc.ChainState().ID%tc.Params().VoteInterval != 0 {
		t.Fatalf("expected view %d to be a milestone", tc.ChainState().ID)
	}
	_, pendingVotes, _ = tc.PendingCounts()
	if pendingVotes != 0 {
		t.Fatalf("expected no pending votes after the window closed, got %d", pendingVotes)
	}
	if tc.ChainState().TotalVotes != 1 {
		t.Fatalf("expected only the referenced vote to be counted, got %d", tc.ChainState().TotalVotes)
	}
	validator, found, err := tc.Validator(testutils.Address(0))
	if err != nil {
		t.Fatalf("Validator: %+v", err)
	}
	if !found || validator.Active {
		t.Fatalf("expected validator 0 to stay inactive, got %v", validator)
	}

	_, err = tc.AddVote(ctx, unreferenced)
	if !errors.Is(err, ruleerrors.ErrUnexpectedViewHash) {
		t.Fatalf("expected the expired vote to fail with ErrUnexpectedViewHash, got %v", err)
	}
	isNew, err = tc.AddVote(ctx, testutils.Vote(0, tc.ChainState().ViewHash, minStake))
	if err != nil || !isNew {
		t.Fatalf("expected a vote for the new milestone to be admitted, got %t, %v", isNew, err)
	}
}

func TestAddTransaction(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestAddTransaction", true)
	defer teardown()

	ctx := context.Background()
	timestamp := tc.ChainState().Timestamp

	payment := testutils.Payment(0, testutils.Address(1), 600_000, 1, timestamp)
	result, err := tc.AddTransaction(ctx, payment)
	if err != nil {
		t.Fatalf("AddTransaction: %+v", err)
	}
	if result != externalapi.ExecutionResultPending {
		t.Fatalf("expected the payment to be pending, got %s", result)
	}

	_, err = tc.AddTransaction(ctx, payment)
	if !errors.Is(err, ruleerrors.ErrDuplicateObject) {
		t.Fatalf("expected ErrDuplicateObject, got %v", err)
	}

	// The first payment is counted against the balance of the sender
	overspend := testutils.Payment(0, testutils.Address(2), 600_000, 1, timestamp)
	result, err = tc.AddTransaction(ctx, overspend)
	if err != nil {
		t.Fatalf("AddTransaction: %+v", err)
	}
	if result != externalapi.ExecutionResultTooLowBalance {
		t.Fatalf("expected TOO_LOW_BALANCE, got %s", result)
	}

	cheap := testutils.Payment(0, testutils.Address(2), 10, 0, timestamp)
	result, err = tc.AddTransaction(ctx, cheap)
	if err != nil {
		t.Fatalf("AddTransaction: %+v", err)
	}
	if result != externalapi.ExecutionResultTooLowFee {
		t.Fatalf("expected TOO_LOW_FEE, got %s", result)
	}

	_, _, pendingTransactions := tc.PendingCounts()
	if pendingTransactions != 1 {
		t.Fatalf("expected 1 pending transaction, got %d", pendingTransactions)
	}

	addView(t, tc, nil, nil, []*externalapi.Transaction{payment}, nil)
	checkLedger(t, tc, testutils.Address(0), 1_000_000-600_001, 0)
	checkLedger(t, tc, testutils.Address(1), 600_000, 0)

	chainState := tc.ChainState()
	if chainState.CollectedFees != 1 || chainState.TotalTransactions != 1 {
		t.Fatalf("expected 1 collected fee and 1 transaction, got %d and %d",
			chainState.CollectedFees, chainState.TotalTransactions)
	}
	committed, err := tc.GetTransaction(consensushashing.TransactionHash(payment))
	if err != nil {
		t.Fatalf("GetTransaction: %+v", err)
	}
	if committed.ExecutionResult != externalapi.ExecutionResultSuccess || committed.SpentFee != 1 {
		t.Fatalf("expected a successful execution with a fee of 1, got %s with %d",
			committed.ExecutionResult, committed.SpentFee)
	}

	_, err = tc.AddTransaction(ctx, payment)
	if !errors.Is(err, ruleerrors.ErrDuplicateObject) {
		t.Fatalf("expected ErrDuplicateObject for a committed transaction, got %v", err)
	}
}

func TestAddBatchIsAtomic(t *testing.T) {
	tc, teardown := newTestConsensus(t, "TestAddBatchIsAtomic", true)
	defer teardown()

	ctx := context.Background()
	timestamp := tc.ChainState().Timestamp
	block := tc.NewBlock(testutils.Address(1), 10)
	vote := testutils.Vote(0, tc.ChainState().ViewHash, tc.Params().MinStake)

	// Each payment is covered on its own, but not both together
	transactions := []*externalapi.Transaction{
		testutils.Payment(0, testutils.Address(1), 600_000, 1, timestamp),
		testutils.Payment(0, testutils.Address(2), 600_000, 1, timestamp),
	}
	err := tc.AddBatch(ctx, []*externalapi.Block{block}, []*externalapi.Vote{vote}, transactions)
	if !errors.Is(err, ruleerrors.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	blocks, votes, pendingTransactions := tc.PendingCounts()
	if blocks != 0 || votes != 0 || pendingTransactions != 0 {
		t.Fatalf("expected a rejected batch to admit nothing, got %d blocks, %d votes and %d transactions",
			blocks, votes, pendingTransactions)
	}

	err = tc.AddBatch(ctx, []*externalapi.Block{block}, []*externalapi.Vote{vote}, transactions[:1])
	if err != nil {
		t.Fatalf("AddBatch: %+v", err)
	}
	blocks, votes, pendingTransactions = tc.PendingCounts()
	if blocks != 1 || votes != 1 || pendingTransactions != 1 {
		t.Fatalf("expected the batch to be admitted, got %d blocks, %d votes and %d transactions",
			blocks, votes, pendingTransactions)
	}

	// Known objects are skipped
	err = tc.AddBatch(ctx, []*externalapi.Block{block}, []*externalapi.Vote{vote}, nil)
	if err != nil {
		t.Fatalf("AddBatch: %+v", err)
	}
}
