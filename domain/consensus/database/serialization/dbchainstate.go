package serialization

import (
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// DbChainState is the serializable form of externalapi.ChainState
type DbChainState struct {
	_                   struct{} `cbor:",toarray"`
	ID                  uint64
	ViewHash            []byte
	Weight              []byte
	CurrentDifficulty   uint32
	TotalActiveStake    uint64
	TotalWork           []byte
	TotalVotes          uint64
	TotalTransactions   uint64
	TotalBlocks         uint64
	CollectedFees       uint64
	BlockReward         uint64
	LastFinalizedHeight uint64
	Timestamp           int64
	LedgerCommitment    []byte
}

// SerializeChainState serializes the given chain state
func SerializeChainState(state *externalapi.ChainState) ([]byte, error) {
	return Serialize(&DbChainState{
		ID:                  state.ID,
		ViewHash:            DomainHashToDbHash(state.ViewHash),
		Weight:              bigIntToDbBigInt(state.Weight),
		CurrentDifficulty:   state.CurrentDifficulty,
		TotalActiveStake:    state.TotalActiveStake,
		TotalWork:           bigIntToDbBigInt(state.TotalWork),
		TotalVotes:          state.TotalVotes,
		TotalTransactions:   state.TotalTransactions,
		TotalBlocks:         state.TotalBlocks,
		CollectedFees:       state.CollectedFees,
		BlockReward:         state.BlockReward,
		LastFinalizedHeight: state.LastFinalizedHeight,
		Timestamp:           state.Timestamp,
		LedgerCommitment:    state.LedgerCommitment,
	})
}

// DeserializeChainState deserializes a chain state serialized with SerializeChainState
func DeserializeChainState(stateBytes []byte) (*externalapi.ChainState, error) {
	dbState := &DbChainState{}
	err := Deserialize(stateBytes, dbState)
	if err != nil {
		return nil, err
	}
	viewHash, err := DbHashToDomainHash(dbState.ViewHash)
	if err != nil {
		return nil, err
	}
	return &externalapi.ChainState{
		ID:                  dbState.ID,
		ViewHash:            viewHash,
		Weight:              dbBigIntToBigInt(dbState.Weight),
		CurrentDifficulty:   dbState.CurrentDifficulty,
		TotalActiveStake:    dbState.TotalActiveStake,
		TotalWork:           dbBigIntToBigInt(dbState.TotalWork),
		TotalVotes:          dbState.TotalVotes,
		TotalTransactions:   dbState.TotalTransactions,
		TotalBlocks:         dbState.TotalBlocks,
		CollectedFees:       dbState.CollectedFees,
		BlockReward:         dbState.BlockReward,
		LastFinalizedHeight: dbState.LastFinalizedHeight,
		Timestamp:           dbState.Timestamp,
		LedgerCommitment:    dbState.LedgerCommitment,
	}, nil
}
