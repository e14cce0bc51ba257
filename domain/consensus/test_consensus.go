package consensus

import (
	"context"
	"math/rand"

	"github.com/viewledger/viewd/domain/chainconfig"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/domain/consensus/utils/mining"
)

// TestConsensus is a Consensus with helpers that build and commit
// objects on top of its current view
type TestConsensus interface {
	Consensus

	Params() *chainconfig.Params
	Repository() model.Repository
	CollectEvents() []*externalapi.Event

	// NewBlock returns a mined block paying value to to on top of the
	// current view
	NewBlock(to *externalapi.Address, value uint64) *externalapi.Block

	// NextView returns the view that follows the current view and
	// references the given objects
	NextView(blocks []*externalapi.Block, votes []*externalapi.Vote, transactions []*externalapi.Transaction,
		scheduled []*externalapi.DomainHash) *externalapi.View

	// AddViewWithObjects admits the given objects and commits a view
	// that references all of them
	AddViewWithObjects(blocks []*externalapi.Block, votes []*externalapi.Vote,
		transactions []*externalapi.Transaction, scheduled []*externalapi.DomainHash) (*externalapi.View, error)
}

type testConsensus struct {
	*consensus

	params *chainconfig.Params
	sink   model.EffectSink
	rd     *rand.Rand
}

func (tc *testConsensus) Params() *chainconfig.Params {
	return tc.params
}

func (tc *testConsensus) Repository() model.Repository {
	return tc.repository
}

func (tc *testConsensus) CollectEvents() []*externalapi.Event {
	return tc.sink.CollectEvents()
}

func (tc *testConsensus) nextTimestamp() int64 {
	return tc.ChainState().Timestamp + tc.params.TargetTimePerBlock.Milliseconds()
}

func (tc *testConsensus) NewBlock(to *externalapi.Address, value uint64) *externalapi.Block {
	if tc.rd == nil {
		tc.rd = rand.New(rand.NewSource(0))
	}
	chainState := tc.ChainState()
	block := &externalapi.Block{
		To:         to,
		Value:      value,
		Timestamp:  tc.nextTimestamp(),
		LastHash:   chainState.ViewHash,
		Difficulty: chainState.CurrentDifficulty,
	}
	mining.SolveBlock(block, tc.rd)
	return block
}

func (tc *testConsensus) NextView(blocks []*externalapi.Block, votes []*externalapi.Vote,
	transactions []*externalapi.Transaction, scheduled []*externalapi.DomainHash) *externalapi.View {

	chainState := tc.ChainState()
	view := &externalapi.View{
		ID:                    chainState.ID + 1,
		Timestamp:             tc.nextTimestamp(),
		LastHash:              chainState.ViewHash,
		Blocks:                make([]*externalapi.DomainHash, 0, len(blocks)),
		Votes:                 make([]*externalapi.DomainHash, 0, len(votes)),
		Transactions:          consensushashing.TransactionHashes(transactions),
		ScheduledTransactions: scheduled,
	}
	for _, block := range blocks {
		view.Blocks = append(view.Blocks, consensushashing.BlockHash(block))
	}
	for _, vote := range votes {
		view.Votes = append(view.Votes, consensushashing.VoteHash(vote))
	}
	return view
}

func (tc *testConsensus) AddViewWithObjects(blocks []*externalapi.Block, votes []*externalapi.Vote,
	transactions []*externalapi.Transaction, scheduled []*externalapi.DomainHash) (*externalapi.View, error) {

	ctx := context.Background()
	err := tc.AddBatch(ctx, blocks, votes, transactions)
	if err != nil {
		return nil, err
	}
	view := tc.NextView(blocks, votes, transactions, scheduled)
	err = tc.AddView(ctx, view, false, false)
	if err != nil {
		return nil, err
	}
	return view, nil
}
