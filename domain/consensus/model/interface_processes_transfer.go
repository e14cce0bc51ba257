package model

import "github.com/viewledger/viewd/domain/consensus/model/externalapi"

// Transfer moves value between ledgers with checked arithmetic.
// Every operation has an exact inverse.
type Transfer interface {
	From(address *externalapi.Address, amount uint64) (bool, externalapi.ExecutionResult, *externalapi.Ledger, error)
	To(address *externalapi.Address, amount uint64) (*externalapi.Ledger, error)
	Pending(address *externalapi.Address, amount uint64) (*externalapi.Ledger, error)
	SubtractPending(address *externalapi.Address, amount uint64) (*externalapi.Ledger, error)
	Lock(validatorAddress *externalapi.Address) (bool, error)
	Unlock(validatorAddress *externalapi.Address) (bool, error)
}
