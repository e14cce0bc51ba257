package externalapi

import (
	"bytes"
	"math/big"
)

// ChainState is the singleton summary of the committed chain. A
// snapshot of it is persisted for every committed view.
type ChainState struct {
	ID                  uint64
	ViewHash            *DomainHash
	Weight              *big.Int
	CurrentDifficulty   uint32
	TotalActiveStake    uint64
	TotalWork           *big.Int
	TotalVotes          uint64
	TotalTransactions   uint64
	TotalBlocks         uint64
	CollectedFees       uint64
	BlockReward         uint64
	LastFinalizedHeight uint64
	Timestamp           int64

	// LedgerCommitment is a serialized multiset over all ledger records
	LedgerCommitment []byte
}

// Clone returns a clone of ChainState
func (state *ChainState) Clone() *ChainState {
	if state == nil {
		return nil
	}
	var ledgerCommitmentClone []byte
	if state.LedgerCommitment != nil {
		ledgerCommitmentClone = make([]byte, len(state.LedgerCommitment))
		copy(ledgerCommitmentClone, state.LedgerCommitment)
	}

	return &ChainState{
		ID:                  state.ID,
		ViewHash:            state.ViewHash,
		Weight:              cloneBigInt(state.Weight),
		CurrentDifficulty:   state.CurrentDifficulty,
		TotalActiveStake:    state.TotalActiveStake,
		TotalWork:           cloneBigInt(state.TotalWork),
		TotalVotes:          state.TotalVotes,
		TotalTransactions:   state.TotalTransactions,
		TotalBlocks:         state.TotalBlocks,
		CollectedFees:       state.CollectedFees,
		BlockReward:         state.BlockReward,
		LastFinalizedHeight: state.LastFinalizedHeight,
		Timestamp:           state.Timestamp,
		LedgerCommitment:    ledgerCommitmentClone,
	}
}

// If this doesn't compile, it means the type definition has been changed, so it's
// an indication to update Equal and Clone accordingly.
var _ = ChainState{0, &DomainHash{}, big.NewInt(0), 0, 0, big.NewInt(0),
	0, 0, 0, 0, 0, 0, 0, []byte{}}

// Equal returns whether state equals to other
func (state *ChainState) Equal(other *ChainState) bool {
	if state == nil || other == nil {
		return state == other
	}
	return state.ID == other.ID &&
		state.ViewHash.Equal(other.ViewHash) &&
		bigIntEqual(state.Weight, other.Weight) &&
		state.CurrentDifficulty == other.CurrentDifficulty &&
		state.TotalActiveStake == other.TotalActiveStake &&
		bigIntEqual(state.TotalWork, other.TotalWork) &&
		state.TotalVotes == other.TotalVotes &&
		state.TotalTransactions == other.TotalTransactions &&
		state.TotalBlocks == other.TotalBlocks &&
		state.CollectedFees == other.CollectedFees &&
		state.BlockReward == other.BlockReward &&
		state.LastFinalizedHeight == other.LastFinalizedHeight &&
		state.Timestamp == other.Timestamp &&
		bytes.Equal(state.LedgerCommitment, other.LedgerCommitment)
}

func cloneBigInt(value *big.Int) *big.Int {
	if value == nil {
		return nil
	}
	return new(big.Int).Set(value)
}

func bigIntEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}
