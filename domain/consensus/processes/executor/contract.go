package executor

import (
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/util/math"
)

// executeContract deploys a contract when the transaction has no
// recipient, and calls the recipient contract otherwise. Contract
// transactions cannot be scheduled.
func (e *executor) executeContract(execution *transactionExecution) (externalapi.ExecutionResult, error) {
	transaction := execution.transaction
	if !transaction.IsDue(execution.view.Timestamp) {
		return externalapi.ExecutionResultInvalidContract, nil
	}

	amount, err := math.AddUint64(transaction.Value, execution.fee)
	if err != nil {
		return 0, errors.Wrapf(err, "contract transaction %s", execution.hash)
	}
	ok, result, _, err := execution.transfer.From(transaction.From, amount)
	if err != nil || !ok {
		return result, err
	}

	if transaction.To == nil {
		return e.deployContract(execution)
	}
	return e.callContract(execution)
}

func (e *executor) deployContract(execution *transactionExecution) (externalapi.ExecutionResult, error) {
	transaction := execution.transaction
	address := consensushashing.NewContractAddress(execution.hash)
	_, err := e.repository.Contract(execution.stagingArea, address)
	if err == nil {
		return externalapi.ExecutionResultInvalidContract, nil
	}
	if !database.IsNotFoundError(err) {
		return 0, err
	}

	contract := &externalapi.Contract{
		Address:  address,
		Owner:    transaction.From,
		CodeHash: consensushashing.ContractCodeHash(transaction.Data),
		Height:   execution.view.ID,
	}
	contractExecution, err := e.runtime.Deploy(contract, transaction.Data, transaction)
	if err != nil {
		log.Debugf("Deployment of contract %s failed: %s", address, err)
		return externalapi.ExecutionResultInvalidContract, nil
	}
	if !contractExecution.Success {
		return externalapi.ExecutionResultInvalidContract, nil
	}

	_, err = execution.transfer.To(address, transaction.Value)
	if err != nil {
		return 0, err
	}
	execution.contract = contract
	execution.code = transaction.Data
	execution.snapshot = &externalapi.ContractSnapshot{
		Contract: address,
		Height:   execution.view.ID,
		State:    contractExecution.State,
	}
	execution.event(externalapi.EventTypeContractDeployed, address)
	return execution.applyEffects(address, contractExecution.Effects)
}

func (e *executor) callContract(execution *transactionExecution) (externalapi.ExecutionResult, error) {
	transaction := execution.transaction
	contract, err := e.repository.Contract(execution.stagingArea, transaction.To)
	if database.IsNotFoundError(err) {
		return externalapi.ExecutionResultInvalidContract, nil
	}
	if err != nil {
		return 0, err
	}
	code, err := e.repository.ContractCode(execution.stagingArea, contract.Address)
	if err != nil {
		return 0, err
	}
	var state []byte
	snapshot, err := e.repository.ContractSnapshot(execution.stagingArea, contract.Address)
	if err == nil {
		state = snapshot.State
	} else if !database.IsNotFoundError(err) {
		return 0, err
	}

	_, err = execution.transfer.To(contract.Address, transaction.Value)
	if err != nil {
		return 0, err
	}
	contractExecution, err := e.runtime.Call(contract, code, state, transaction)
	if err != nil {
		log.Debugf("Call of contract %s failed: %s", contract.Address, err)
		return externalapi.ExecutionResultInvalidContract, nil
	}
	if !contractExecution.Success {
		return externalapi.ExecutionResultInvalidContract, nil
	}

	execution.snapshot = &externalapi.ContractSnapshot{
		Contract: contract.Address,
		Height:   execution.view.ID,
		State:    contractExecution.State,
	}
	execution.event(externalapi.EventTypeContractCalled, contract.Address)
	return execution.applyEffects(contract.Address, contractExecution.Effects)
}

// applyEffects pays out and moves the tokens the invoked contract
// generated. Every effect must be paid for by the invoked contract.
func (execution *transactionExecution) applyEffects(contractAddress *externalapi.Address,
	effects []*externalapi.Effect) (externalapi.ExecutionResult, error) {

	for _, effect := range effects {
		if effect.To == nil || !effect.Contract.Equal(contractAddress) {
			return externalapi.ExecutionResultInvalidContract, nil
		}
		if effect.Value > 0 {
			ok, _, _, err := execution.transfer.From(effect.Contract, effect.Value)
			if err != nil {
				return 0, err
			}
			if !ok {
				return externalapi.ExecutionResultInvalidContract, nil
			}
			_, err = execution.transfer.To(effect.To, effect.Value)
			if err != nil {
				return 0, err
			}
		}
		if effect.TokenID != nil {
			result, err := execution.applyTokenEffect(effect)
			if err != nil || result != externalapi.ExecutionResultSuccess {
				return result, err
			}
		}
		execution.effects = append(execution.effects, effect.Clone())
	}
	return externalapi.ExecutionResultSuccess, nil
}

// applyTokenEffect mints the token of effect if it does not exist yet,
// and moves it from effect.From to effect.To otherwise
func (execution *transactionExecution) applyTokenEffect(effect *externalapi.Effect) (externalapi.ExecutionResult, error) {
	token, found, err := execution.token(effect.TokenID)
	if err != nil {
		return 0, err
	}

	if !found {
		if effect.ConsumeToken {
			return externalapi.ExecutionResultInvalidToken, nil
		}
		execution.tokens[*effect.TokenID] = &externalapi.Token{
			ID:              effect.TokenID,
			Contract:        effect.Contract,
			Owner:           effect.To,
			MintTransaction: execution.hash,
		}
		execution.tokenEvent(externalapi.EventTypeTokenMinted, effect.To, effect.TokenID)
		return externalapi.ExecutionResultSuccess, nil
	}

	if token.IsConsumed || !token.Contract.Equal(effect.Contract) || !token.Owner.Equal(effect.From) {
		return externalapi.ExecutionResultInvalidToken, nil
	}
	token.Owner = effect.To
	token.IsConsumed = effect.ConsumeToken
	execution.tokens[*effect.TokenID] = token
	execution.tokenEvent(externalapi.EventTypeTokenTransferred, effect.To, effect.TokenID)
	return externalapi.ExecutionResultSuccess, nil
}

func (execution *transactionExecution) token(tokenID *externalapi.DomainHash) (*externalapi.Token, bool, error) {
	if token, ok := execution.tokens[*tokenID]; ok {
		return token.Clone(), true, nil
	}
	token, err := execution.repository.Token(execution.stagingArea, tokenID)
	if database.IsNotFoundError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return token, true, nil
}
