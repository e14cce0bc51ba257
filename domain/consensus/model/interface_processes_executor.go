package model

import "github.com/viewledger/viewd/domain/consensus/model/externalapi"

// ExecutionBatch groups the transactions a view executes, in forward
// execution order
type ExecutionBatch struct {
	Scheduled    []*externalapi.Transaction
	Transactions []*externalapi.Transaction
	Rewards      []*externalapi.Transaction
}

// Executor applies the transactions of a view to the working sets.
// Business rule failures are recorded in each transaction's
// ExecutionResult and do not abort the batch.
type Executor interface {
	Execute(stagingArea *StagingArea, view *externalapi.View, chainState *externalapi.ChainState,
		batch *ExecutionBatch, ledgers LedgerWorkingSet, validators ValidatorWorkingSet) ([]*externalapi.Event, error)
	RequiredFee(transaction *externalapi.Transaction) (uint64, error)
}

// ContractRuntime runs contract code. Deploy initializes a contract and
// Call invokes it. Both return the new contract state together with the
// effects the invocation generated.
type ContractRuntime interface {
	Deploy(contract *externalapi.Contract, code []byte, transaction *externalapi.Transaction) (*ContractExecution, error)
	Call(contract *externalapi.Contract, code []byte, state []byte,
		transaction *externalapi.Transaction) (*ContractExecution, error)
}

// ContractExecution is the outcome of a contract invocation
type ContractExecution struct {
	State   []byte
	Effects []*externalapi.Effect
	Success bool
}
