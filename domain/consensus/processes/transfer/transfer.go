package transfer

import (
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/util/math"
)

// transfer moves value between the ledgers of a working set
type transfer struct {
	ledgers    model.LedgerWorkingSet
	validators model.ValidatorWorkingSet
}

// New instantiates a new Transfer over the given working sets
func New(ledgers model.LedgerWorkingSet, validators model.ValidatorWorkingSet) model.Transfer {
	return &transfer{
		ledgers:    ledgers,
		validators: validators,
	}
}

// From debits amount from the balance of address. An insufficient
// balance is reported through the returned ExecutionResult, and the
// ledger is left untouched.
func (t *transfer) From(address *externalapi.Address, amount uint64) (
	bool, externalapi.ExecutionResult, *externalapi.Ledger, error) {

	ledger, err := t.ledgers.Ledger(address)
	if err != nil {
		return false, 0, nil, err
	}
	if ledger.Balance < amount {
		return false, externalapi.ExecutionResultTooLowBalance, ledger, nil
	}
	ledger.Balance -= amount
	t.ledgers.SetLedger(ledger)
	return true, externalapi.ExecutionResultSuccess, ledger.Clone(), nil
}

// To credits amount to the balance of address
func (t *transfer) To(address *externalapi.Address, amount uint64) (*externalapi.Ledger, error) {
	ledger, err := t.ledgers.Ledger(address)
	if err != nil {
		return nil, err
	}
	ledger.Balance, err = math.AddUint64(ledger.Balance, amount)
	if err != nil {
		return nil, errors.Wrapf(err, "crediting %s", address)
	}
	t.ledgers.SetLedger(ledger)
	return ledger.Clone(), nil
}

// Pending credits amount to the pending balance of address
func (t *transfer) Pending(address *externalapi.Address, amount uint64) (*externalapi.Ledger, error) {
	ledger, err := t.ledgers.Ledger(address)
	if err != nil {
		return nil, err
	}
	ledger.Pending, err = math.AddUint64(ledger.Pending, amount)
	if err != nil {
		return nil, errors.Wrapf(err, "adding pending value to %s", address)
	}
	t.ledgers.SetLedger(ledger)
	return ledger.Clone(), nil
}

// SubtractPending is the inverse of Pending
func (t *transfer) SubtractPending(address *externalapi.Address, amount uint64) (*externalapi.Ledger, error) {
	ledger, err := t.ledgers.Ledger(address)
	if err != nil {
		return nil, err
	}
	ledger.Pending, err = math.SubUint64(ledger.Pending, amount)
	if err != nil {
		return nil, errors.Wrapf(err, "subtracting pending value of %s", address)
	}
	t.ledgers.SetLedger(ledger)
	return ledger.Clone(), nil
}

// Lock moves the full stake of the validator from the balance of its
// node ledger into pending. It returns false, and changes nothing, if
// the validator is unknown or the balance does not cover the stake.
func (t *transfer) Lock(validatorAddress *externalapi.Address) (bool, error) {
	validator, found, err := t.validators.Validator(validatorAddress)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	ledger, err := t.ledgers.Ledger(validator.NodeAddress)
	if err != nil {
		return false, err
	}
	if ledger.Balance < validator.Stake {
		return false, nil
	}
	ledger.Balance -= validator.Stake
	ledger.Pending, err = math.AddUint64(ledger.Pending, validator.Stake)
	if err != nil {
		return false, errors.Wrapf(err, "locking the stake of %s", validatorAddress)
	}
	t.ledgers.SetLedger(ledger)
	return true, nil
}

// Unlock is the inverse of Lock
func (t *transfer) Unlock(validatorAddress *externalapi.Address) (bool, error) {
	validator, found, err := t.validators.Validator(validatorAddress)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	ledger, err := t.ledgers.Ledger(validator.NodeAddress)
	if err != nil {
		return false, err
	}
	if ledger.Pending < validator.Stake {
		return false, nil
	}
	ledger.Pending -= validator.Stake
	ledger.Balance, err = math.AddUint64(ledger.Balance, validator.Stake)
	if err != nil {
		return false, errors.Wrapf(err, "unlocking the stake of %s", validatorAddress)
	}
	t.ledgers.SetLedger(ledger)
	return true, nil
}
