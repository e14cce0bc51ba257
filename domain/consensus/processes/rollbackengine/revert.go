package rollbackengine

import (
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/util/math"
)

// debit takes amount back from address. Reverting in reverse order
// guarantees the amount is available, so a shortfall means the store
// is inconsistent.
func (r *rollback) debit(address *externalapi.Address, amount uint64) error {
	ok, _, ledger, err := r.transfer.From(address, amount)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("cannot take %d back from %s with balance %d", amount, address, ledger.Balance)
	}
	return nil
}

// refund credits the value and the spent fee of transaction back to
// its sender
func (r *rollback) refund(transaction *externalapi.Transaction, value uint64) error {
	amount, err := math.AddUint64(value, transaction.SpentFee)
	if err != nil {
		return err
	}
	_, err = r.transfer.To(transaction.From, amount)
	return err
}

func (r *rollback) revertReward(rewardHash *externalapi.DomainHash) error {
	reward, err := r.repository.Transaction(r.stagingArea, rewardHash)
	if err != nil {
		return err
	}
	r.repository.DeleteTransaction(r.stagingArea, rewardHash)
	if !reward.Type.IsReward() {
		return errors.Errorf("%s transaction %s in the reward list", reward.Type, rewardHash)
	}
	return r.debit(reward.To, reward.Value)
}

// revertSettlement moves a settled scheduled payment back into the
// pending balance of its recipient and schedules it again
func (r *rollback) revertSettlement(transactionHash *externalapi.DomainHash) error {
	transaction, err := r.repository.Transaction(r.stagingArea, transactionHash)
	if err != nil {
		return err
	}
	err = r.debit(transaction.To, transaction.Value)
	if err != nil {
		return err
	}
	_, err = r.transfer.Pending(transaction.To, transaction.Value)
	if err != nil {
		return err
	}
	r.repository.AddDueTransaction(r.stagingArea, transactionHash, transaction.Timestamp)
	return nil
}

// revertTransaction undoes a transaction of view. Failed transactions
// moved no value, so only their record is deleted.
func (r *rollback) revertTransaction(view *externalapi.View, transactionHash *externalapi.DomainHash) error {
	transaction, err := r.repository.Transaction(r.stagingArea, transactionHash)
	if err != nil {
		return err
	}
	r.repository.DeleteTransaction(r.stagingArea, transactionHash)
	if transaction.ExecutionResult != externalapi.ExecutionResultSuccess {
		return nil
	}

	switch transaction.Type {
	case externalapi.TransactionTypePayment:
		return r.revertPayment(view, transactionHash, transaction)
	case externalapi.TransactionTypeContract:
		return r.revertContract(transactionHash, transaction)
	case externalapi.TransactionTypeRegisterValidator:
		return r.revertRegisterValidator(view, transaction)
	case externalapi.TransactionTypeDeregisterValidator:
		return r.revertDeregisterValidator(view, transaction)
	default:
		return errors.Errorf("cannot revert %s transaction %s", transaction.Type, transactionHash)
	}
}

func (r *rollback) revertPayment(view *externalapi.View, transactionHash *externalapi.DomainHash,
	transaction *externalapi.Transaction) error {

	if transaction.IsDue(view.Timestamp) {
		err := r.debit(transaction.To, transaction.Value)
		if err != nil {
			return err
		}
	} else {
		_, err := r.transfer.SubtractPending(transaction.To, transaction.Value)
		if err != nil {
			return err
		}
		r.repository.RemoveDueTransaction(r.stagingArea, transactionHash)
	}
	return r.refund(transaction, transaction.Value)
}

// revertContract reverts the contract's effects, last effect first,
// before taking the transaction's value back from the contract.
// Contract records and snapshots are restored with the versioned
// indices.
func (r *rollback) revertContract(transactionHash *externalapi.DomainHash, transaction *externalapi.Transaction) error {
	firstTokenEffects := make(map[externalapi.DomainHash]int)
	for i, effect := range transaction.Effects {
		if effect.TokenID == nil {
			continue
		}
		if _, ok := firstTokenEffects[*effect.TokenID]; !ok {
			firstTokenEffects[*effect.TokenID] = i
		}
	}

	for i := len(transaction.Effects) - 1; i >= 0; i-- {
		effect := transaction.Effects[i]
		if effect.TokenID != nil {
			err := r.revertTokenEffect(transactionHash, effect, firstTokenEffects[*effect.TokenID] == i)
			if err != nil {
				return err
			}
		}
		if effect.Value == 0 {
			continue
		}
		err := r.debit(effect.To, effect.Value)
		if err != nil {
			return err
		}
		_, err = r.transfer.To(effect.Contract, effect.Value)
		if err != nil {
			return err
		}
	}

	contractAddress := transaction.To
	if contractAddress == nil {
		contractAddress = consensushashing.NewContractAddress(transactionHash)
	}
	err := r.debit(contractAddress, transaction.Value)
	if err != nil {
		return err
	}
	return r.refund(transaction, transaction.Value)
}

// revertTokenEffect deletes the token effect minted, or hands the token
// back to effect.From unconsumed. isFirst tells whether effect is the
// first effect of its transaction on the token.
func (r *rollback) revertTokenEffect(transactionHash *externalapi.DomainHash, effect *externalapi.Effect,
	isFirst bool) error {

	token, err := r.token(effect.TokenID)
	if err != nil {
		return err
	}
	if token == nil {
		return errors.Errorf("token %s moved by transaction %s does not exist", effect.TokenID, transactionHash)
	}
	if isFirst && token.MintTransaction.Equal(transactionHash) {
		r.tokens[*effect.TokenID] = nil
		return nil
	}
	if !token.Owner.Equal(effect.To) {
		return errors.Errorf("token %s is owned by %s instead of %s", effect.TokenID, token.Owner, effect.To)
	}
	token.Owner = effect.From
	token.IsConsumed = false
	r.tokens[*effect.TokenID] = token
	return nil
}

// token returns the reverted version of the token of tokenID, or nil
// if it does not exist
func (r *rollback) token(tokenID *externalapi.DomainHash) (*externalapi.Token, error) {
	if token, ok := r.tokens[*tokenID]; ok {
		return token.Clone(), nil
	}
	token, err := r.repository.Token(r.stagingArea, tokenID)
	if database.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return token, nil
}

// previousValidator returns the version of the validator of
// nodeAddress before the view at height
func (r *rollback) previousValidator(nodeAddress *externalapi.Address, height uint64) (
	*externalapi.Validator, bool, error) {

	if height == 0 {
		return nil, false, nil
	}
	validator, err := r.repository.ValidatorAt(r.stagingArea, nodeAddress, height-1)
	if database.IsNotFoundError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return validator, true, nil
}

func (r *rollback) revertRegisterValidator(view *externalapi.View, transaction *externalapi.Transaction) error {
	ok, err := r.transfer.Unlock(transaction.From)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("cannot unlock the stake of validator %s", transaction.From)
	}

	previous, found, err := r.previousValidator(transaction.From, view.ID)
	if err != nil {
		return err
	}
	if found {
		r.validators.SetValidator(previous)
	} else {
		r.validators.RemoveValidator(transaction.From)
	}
	r.event(externalapi.EventTypeValidatorDisable, view.ID, transaction.From)
	return r.refund(transaction, 0)
}

func (r *rollback) revertDeregisterValidator(view *externalapi.View, transaction *externalapi.Transaction) error {
	previous, found, err := r.previousValidator(transaction.From, view.ID)
	if err != nil {
		return err
	}
	if !found {
		return errors.Errorf("validator %s has no version before view %d", transaction.From, view.ID)
	}
	r.validators.SetValidator(previous)

	ok, err := r.transfer.Lock(transaction.From)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("cannot lock the stake of validator %s", transaction.From)
	}
	r.event(externalapi.EventTypeValidatorEnable, view.ID, transaction.From)
	return r.refund(transaction, 0)
}

func (r *rollback) event(eventType externalapi.EventType, height uint64, address *externalapi.Address) {
	r.events = append(r.events, &externalapi.Event{
		Type:    eventType,
		Height:  height,
		Address: address,
	})
}
