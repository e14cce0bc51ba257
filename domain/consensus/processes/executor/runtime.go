package executor

import (
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// NoopRuntime is a ContractRuntime that accepts every deployment and
// call and never generates effects. The contract state is the state it
// was given.
type NoopRuntime struct{}

// Deploy initializes a contract with an empty state
func (NoopRuntime) Deploy(_ *externalapi.Contract, _ []byte, _ *externalapi.Transaction) (*model.ContractExecution, error) {
	return &model.ContractExecution{Success: true}, nil
}

// Call leaves the contract state untouched
func (NoopRuntime) Call(_ *externalapi.Contract, _ []byte, state []byte,
	_ *externalapi.Transaction) (*model.ContractExecution, error) {

	return &model.ContractExecution{State: state, Success: true}, nil
}
