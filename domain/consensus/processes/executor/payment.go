package executor

import (
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/util/math"
)

// executePayment debits the value and the fee from the sender. A due
// payment credits the recipient right away, a scheduled one escrows the
// value in the pending balance of the recipient until it is settled.
func (execution *transactionExecution) executePayment() (externalapi.ExecutionResult, error) {
	transaction := execution.transaction
	amount, err := math.AddUint64(transaction.Value, execution.fee)
	if err != nil {
		return 0, errors.Wrapf(err, "payment %s", execution.hash)
	}
	ok, result, _, err := execution.transfer.From(transaction.From, amount)
	if err != nil || !ok {
		return result, err
	}

	if transaction.IsDue(execution.view.Timestamp) {
		_, err = execution.transfer.To(transaction.To, transaction.Value)
		if err != nil {
			return 0, err
		}
		return externalapi.ExecutionResultSuccess, nil
	}

	_, err = execution.transfer.Pending(transaction.To, transaction.Value)
	if err != nil {
		return 0, err
	}
	dueTimestamp := transaction.Timestamp
	execution.dueTimestamp = &dueTimestamp
	return externalapi.ExecutionResultSuccess, nil
}
