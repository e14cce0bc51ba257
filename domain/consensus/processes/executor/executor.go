package executor

import (
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/chainconfig"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/processes/statecache"
	"github.com/viewledger/viewd/domain/consensus/processes/transfer"
	"github.com/viewledger/viewd/domain/consensus/ruleerrors"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/util/math"
)

// executor applies transactions to the working sets of a view
type executor struct {
	params     *chainconfig.Params
	repository model.Repository
	runtime    model.ContractRuntime
}

// New instantiates a new Executor
func New(params *chainconfig.Params, repository model.Repository, runtime model.ContractRuntime) model.Executor {
	return &executor{
		params:     params,
		repository: repository,
		runtime:    runtime,
	}
}

// RequiredFee returns the minimal fee the given transaction has to pay
func (e *executor) RequiredFee(transaction *externalapi.Transaction) (uint64, error) {
	dataFee, err := math.MulUint64(e.params.FeePerByte, uint64(len(transaction.Data)))
	if err != nil {
		return 0, errors.Wrapf(err, "data fee of %d bytes", len(transaction.Data))
	}
	return math.AddUint64(e.params.BaseFee, dataFee)
}

// Execute runs the scheduled transactions, the transactions and the
// rewards of batch, in that order. A transaction that breaks a business
// rule is marked with the matching ExecutionResult and leaves no trace
// in the working sets.
func (e *executor) Execute(stagingArea *model.StagingArea, view *externalapi.View, chainState *externalapi.ChainState,
	batch *model.ExecutionBatch, ledgers model.LedgerWorkingSet,
	validators model.ValidatorWorkingSet) ([]*externalapi.Event, error) {

	events := make([]*externalapi.Event, 0)
	for _, transaction := range batch.Scheduled {
		err := e.settleScheduledPayment(stagingArea, view, transaction, ledgers, validators)
		if err != nil {
			return nil, err
		}
	}

	for _, transaction := range batch.Transactions {
		transactionEvents, err := e.executeTransaction(stagingArea, view, chainState, transaction, ledgers, validators)
		if err != nil {
			return nil, err
		}
		events = append(events, transactionEvents...)
	}

	for _, transaction := range batch.Rewards {
		err := e.executeReward(transaction, ledgers, validators)
		if err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (e *executor) executeTransaction(stagingArea *model.StagingArea, view *externalapi.View,
	chainState *externalapi.ChainState, transaction *externalapi.Transaction,
	ledgers model.LedgerWorkingSet, validators model.ValidatorWorkingSet) ([]*externalapi.Event, error) {

	execution := e.newTransactionExecution(stagingArea, view, transaction, ledgers, validators)
	result, err := e.execute(execution)
	if err != nil {
		return nil, err
	}
	if result != externalapi.ExecutionResultSuccess {
		log.Debugf("Transaction %s in view %d failed with %s", execution.hash, view.ID, result)
		transaction.ExecutionResult = result
		transaction.SpentFee = 0
		transaction.Effects = nil
		return nil, nil
	}

	err = execution.merge(ledgers, validators, chainState)
	if err != nil {
		return nil, err
	}
	transaction.ExecutionResult = externalapi.ExecutionResultSuccess
	transaction.SpentFee = execution.fee
	transaction.Effects = execution.effects
	return execution.events, nil
}

func (e *executor) execute(execution *transactionExecution) (externalapi.ExecutionResult, error) {
	transaction := execution.transaction
	fee, err := e.RequiredFee(transaction)
	if err != nil {
		return 0, err
	}
	if transaction.MaxFee < fee {
		return externalapi.ExecutionResultTooLowFee, nil
	}
	execution.fee = fee

	switch transaction.Type {
	case externalapi.TransactionTypePayment:
		return execution.executePayment()
	case externalapi.TransactionTypeContract:
		return e.executeContract(execution)
	case externalapi.TransactionTypeRegisterValidator:
		return e.executeRegisterValidator(execution)
	case externalapi.TransactionTypeDeregisterValidator:
		return e.executeDeregisterValidator(execution)
	default:
		return 0, errors.Wrapf(ruleerrors.ErrMalformedObject, "transaction %s of type %s cannot be "+
			"submitted", execution.hash, transaction.Type)
	}
}

// settleScheduledPayment releases a scheduled payment whose timestamp
// has been reached into the balance of its recipient
func (e *executor) settleScheduledPayment(stagingArea *model.StagingArea, view *externalapi.View,
	transaction *externalapi.Transaction, ledgers model.LedgerWorkingSet, validators model.ValidatorWorkingSet) error {

	transactionHash := consensushashing.TransactionHash(transaction)
	isScheduled, err := e.repository.IsDueTransaction(stagingArea, transactionHash)
	if err != nil {
		return err
	}
	if !isScheduled || transaction.Type != externalapi.TransactionTypePayment {
		return errors.Wrapf(ruleerrors.ErrUnknownScheduledTransaction, "transaction %s is not scheduled",
			transactionHash)
	}
	if !transaction.IsDue(view.Timestamp) {
		return errors.Wrapf(ruleerrors.ErrUnknownScheduledTransaction, "transaction %s is due at %d, "+
			"after view %d at %d", transactionHash, transaction.Timestamp, view.ID, view.Timestamp)
	}

	transfers := transfer.New(ledgers, validators)
	_, err = transfers.SubtractPending(transaction.To, transaction.Value)
	if err != nil {
		return err
	}
	_, err = transfers.To(transaction.To, transaction.Value)
	if err != nil {
		return err
	}
	e.repository.RemoveDueTransaction(stagingArea, transactionHash)
	return nil
}

func (e *executor) executeReward(transaction *externalapi.Transaction,
	ledgers model.LedgerWorkingSet, validators model.ValidatorWorkingSet) error {

	if !transaction.Type.IsReward() {
		return errors.Errorf("%s transaction in the reward list", transaction.Type)
	}
	_, err := transfer.New(ledgers, validators).To(transaction.To, transaction.Value)
	if err != nil {
		return err
	}
	transaction.ExecutionResult = externalapi.ExecutionResultSuccess
	transaction.SpentFee = 0
	return nil
}

// transactionExecution is the execution of a single transaction. Its
// working sets overlay the working sets of the view and are merged
// into them only if the transaction succeeds.
type transactionExecution struct {
	repository  model.Repository
	stagingArea *model.StagingArea
	view        *externalapi.View
	transaction *externalapi.Transaction
	hash        *externalapi.DomainHash

	ledgers    model.LedgerWorkingSet
	validators model.ValidatorWorkingSet
	transfer   model.Transfer

	fee                 uint64
	effects             []*externalapi.Effect
	events              []*externalapi.Event
	dueTimestamp        *int64
	releasedActiveStake uint64

	contract *externalapi.Contract
	code     []byte
	snapshot *externalapi.ContractSnapshot
	tokens   map[externalapi.DomainHash]*externalapi.Token
}

func (e *executor) newTransactionExecution(stagingArea *model.StagingArea, view *externalapi.View,
	transaction *externalapi.Transaction, ledgers model.LedgerWorkingSet,
	validators model.ValidatorWorkingSet) *transactionExecution {

	ledgerOverlay := statecache.NewLedgerWorkingSet(func(address *externalapi.Address) (*externalapi.Ledger, bool, error) {
		ledger, err := ledgers.Ledger(address)
		if err != nil {
			return nil, false, err
		}
		return ledger, true, nil
	})
	validatorOverlay := statecache.NewValidatorWorkingSet(validators.Validator, validators.Validators)

	return &transactionExecution{
		repository:  e.repository,
		stagingArea: stagingArea,
		view:        view,
		transaction: transaction,
		hash:        consensushashing.TransactionHash(transaction),
		ledgers:     ledgerOverlay,
		validators:  validatorOverlay,
		transfer:    transfer.New(ledgerOverlay, validatorOverlay),
		tokens:      make(map[externalapi.DomainHash]*externalapi.Token),
	}
}

func (execution *transactionExecution) event(eventType externalapi.EventType, address *externalapi.Address) {
	execution.events = append(execution.events, &externalapi.Event{
		Type:        eventType,
		Height:      execution.view.ID,
		Address:     address,
		Transaction: execution.hash,
	})
}

func (execution *transactionExecution) tokenEvent(eventType externalapi.EventType, address *externalapi.Address,
	tokenID *externalapi.DomainHash) {

	execution.event(eventType, address)
	execution.events[len(execution.events)-1].TokenID = tokenID
}

// merge writes the outcome of a successful execution into the working
// sets and the staging area of the view
func (execution *transactionExecution) merge(ledgers model.LedgerWorkingSet, validators model.ValidatorWorkingSet,
	chainState *externalapi.ChainState) error {

	for _, ledger := range execution.ledgers.DirtyLedgers() {
		ledgers.SetLedger(ledger)
	}
	for _, validator := range execution.validators.DirtyValidators() {
		validators.SetValidator(validator)
	}

	var err error
	chainState.CollectedFees, err = math.AddUint64(chainState.CollectedFees, execution.fee)
	if err != nil {
		return errors.Wrapf(err, "collecting the fee of transaction %s", execution.hash)
	}
	chainState.TotalActiveStake, err = math.SubUint64(chainState.TotalActiveStake, execution.releasedActiveStake)
	if err != nil {
		return errors.Wrapf(err, "releasing the stake of transaction %s", execution.hash)
	}

	return execution.stage()
}

// stage writes the contract, token and scheduling records of a
// successful execution into the staging area
func (execution *transactionExecution) stage() error {
	height := execution.view.ID
	if execution.dueTimestamp != nil {
		execution.repository.AddDueTransaction(execution.stagingArea, execution.hash, *execution.dueTimestamp)
	}
	if execution.contract != nil {
		err := execution.repository.StageContract(execution.stagingArea, height, execution.contract)
		if err != nil {
			return err
		}
		execution.repository.StageContractCode(execution.stagingArea, height, execution.contract.Address,
			execution.code)
	}
	if execution.snapshot != nil {
		err := execution.repository.StageContractSnapshot(execution.stagingArea, execution.snapshot)
		if err != nil {
			return err
		}
	}
	for _, token := range execution.tokens {
		err := execution.repository.StageToken(execution.stagingArea, height, token)
		if err != nil {
			return err
		}
	}
	return nil
}
