package model

import (
	"context"

	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// MachineState is the phase a ConsensusStateMachine is in
type MachineState uint32

// These are the phases of a ConsensusStateMachine
const (
	MachineStateIdle MachineState = iota
	MachineStateAdmitting
	MachineStateCommitting
	MachineStateCommitted
	MachineStateAborted
)

var machineStateStrings = map[MachineState]string{
	MachineStateIdle:       "Idle",
	MachineStateAdmitting:  "Admitting",
	MachineStateCommitting: "Committing",
	MachineStateCommitted:  "Committed",
	MachineStateAborted:    "Aborted",
}

func (state MachineState) String() string {
	if str, ok := machineStateStrings[state]; ok {
		return str
	}
	return "Unknown"
}

// ConsensusStateMachine admits blocks, votes and transactions and
// commits them into views
type ConsensusStateMachine interface {
	AddGenesis() error
	AddView(ctx context.Context, view *externalapi.View, broadcast bool, castVote bool) error
	AddBlock(ctx context.Context, block *externalapi.Block) (bool, error)
	AddVote(ctx context.Context, vote *externalapi.Vote) (bool, error)
	AddTransaction(ctx context.Context, transaction *externalapi.Transaction) (externalapi.ExecutionResult, error)
	AddBatch(ctx context.Context, blocks []*externalapi.Block, votes []*externalapi.Vote,
		transactions []*externalapi.Transaction) error
	Rollback(targetHeight uint64) error

	// ReplayBundle admits the contents of an already verified bundle and
	// commits its view without broadcasting or voting.
	ReplayBundle(bundle *externalapi.ViewBundle) error

	ReadLocked(f func() error) error
	WriteLocked(f func() error) error

	State() MachineState
	ChainState() *externalapi.ChainState
	CurrentView() *externalapi.View
	Ledger(address *externalapi.Address) (*externalapi.Ledger, error)
	Validator(nodeAddress *externalapi.Address) (*externalapi.Validator, bool, error)
	Validators() ([]*externalapi.Validator, error)
	IsValidator(nodeAddress *externalapi.Address) (bool, error)
	PendingCounts() (blocks, votes, transactions int)
}

// StagingCoordinator evaluates candidate chains in isolation and adopts
// a candidate only if it outweighs the canonical chain
type StagingCoordinator interface {
	LoadStagingChain(ctx context.Context, forkHeight uint64, candidate []*externalapi.ViewBundle) (bool, error)
}
