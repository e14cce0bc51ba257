package executor

import (
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
)

// executeRegisterValidator registers the sender as an inactive
// validator and locks its stake. The validator becomes active with its
// first vote.
func (e *executor) executeRegisterValidator(execution *transactionExecution) (externalapi.ExecutionResult, error) {
	transaction := execution.transaction
	ok, result, _, err := execution.transfer.From(transaction.From, execution.fee)
	if err != nil || !ok {
		return result, err
	}

	existing, found, err := execution.validators.Validator(transaction.From)
	if err != nil {
		return 0, err
	}
	if found && existing.Stake > 0 {
		return externalapi.ExecutionResultInvalidValidator, nil
	}
	if transaction.Value < e.params.MinStake {
		return externalapi.ExecutionResultInvalidValidator, nil
	}

	validator := &externalapi.Validator{
		NodeAddress:   transaction.From,
		RewardAddress: transaction.To,
		PublicKey:     transaction.PublicKey,
		Stake:         transaction.Value,
		Active:        false,
	}
	if found {
		validator.LastActiveHeight = existing.LastActiveHeight
	}
	execution.validators.SetValidator(validator)

	ok, err = execution.transfer.Lock(transaction.From)
	if err != nil {
		return 0, err
	}
	if !ok {
		return externalapi.ExecutionResultTooLowBalance, nil
	}
	execution.event(externalapi.EventTypeValidatorEnable, transaction.From)
	return externalapi.ExecutionResultSuccess, nil
}

// executeDeregisterValidator unlocks the stake of the sender and
// removes it from the active stake
func (e *executor) executeDeregisterValidator(execution *transactionExecution) (externalapi.ExecutionResult, error) {
	transaction := execution.transaction
	ok, result, _, err := execution.transfer.From(transaction.From, execution.fee)
	if err != nil || !ok {
		return result, err
	}

	validator, found, err := execution.validators.Validator(transaction.From)
	if err != nil {
		return 0, err
	}
	if !found || validator.Stake == 0 {
		return externalapi.ExecutionResultInvalidValidator, nil
	}
	ok, err = execution.transfer.Unlock(transaction.From)
	if err != nil {
		return 0, err
	}
	if !ok {
		return externalapi.ExecutionResultInvalidValidator, nil
	}

	if validator.Active {
		execution.releasedActiveStake = e.params.CountedStake(validator)
	}
	validator.Stake = 0
	validator.Active = false
	execution.validators.SetValidator(validator)
	execution.event(externalapi.EventTypeValidatorDisable, transaction.From)
	return externalapi.ExecutionResultSuccess, nil
}
