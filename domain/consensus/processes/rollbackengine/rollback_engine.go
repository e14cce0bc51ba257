package rollbackengine

import (
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/processes/statecache"
	"github.com/viewledger/viewd/domain/consensus/processes/transfer"
	"github.com/viewledger/viewd/domain/consensus/ruleerrors"
	"github.com/viewledger/viewd/infrastructure/logger"
)

// rollbackEngine reverse-applies committed views. The reverted ledgers
// are checked against the versions the store kept for the target
// height before the versions above it are dropped.
type rollbackEngine struct {
	repository model.Repository
}

// New instantiates a new RollbackEngine
func New(repository model.Repository) model.RollbackEngine {
	return &rollbackEngine{
		repository: repository,
	}
}

// rollback is a single RollbackTo run
type rollback struct {
	repository  model.Repository
	stagingArea *model.StagingArea
	ledgers     model.LedgerWorkingSet
	validators  model.ValidatorWorkingSet
	transfer    model.Transfer
	tokens      map[externalapi.DomainHash]*externalapi.Token
	events      []*externalapi.Event
}

// RollbackTo reverts every view above targetHeight, from the newest
// down, in one database transaction
func (re *rollbackEngine) RollbackTo(targetHeight uint64) ([]*externalapi.Event, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "RollbackTo")
	defer onEnd()

	stagingArea := model.NewStagingArea()
	current, err := re.repository.ChainState(stagingArea)
	if err != nil {
		return nil, err
	}
	if targetHeight < current.LastFinalizedHeight {
		return nil, errors.Wrapf(ruleerrors.ErrRollbackBelowFinality, "cannot roll back to %d below "+
			"the finalized view %d", targetHeight, current.LastFinalizedHeight)
	}
	if targetHeight >= current.ID {
		return nil, errors.Errorf("cannot roll back to %d from view %d", targetHeight, current.ID)
	}

	ledgers := statecache.NewLedgerWorkingSet(statecache.RepositoryLedgerLoader(re.repository))
	validators := statecache.NewValidatorWorkingSet(
		statecache.RepositoryValidatorLoader(re.repository), statecache.RepositoryAllValidatorsLoader(re.repository))
	r := &rollback{
		repository:  re.repository,
		stagingArea: stagingArea,
		ledgers:     ledgers,
		validators:  validators,
		transfer:    transfer.New(ledgers, validators),
		tokens:      make(map[externalapi.DomainHash]*externalapi.Token),
	}

	for height := current.ID; height > targetHeight; height-- {
		err := r.revertView(height)
		if err != nil {
			return nil, err
		}
	}

	err = r.checkLedgers(targetHeight)
	if err != nil {
		return nil, err
	}
	err = r.checkTokens(targetHeight)
	if err != nil {
		return nil, err
	}
	validatorEvents, err := r.changedValidators(targetHeight)
	if err != nil {
		return nil, err
	}

	targetState, err := re.repository.ChainStateAt(stagingArea, targetHeight)
	if err != nil {
		return nil, err
	}
	re.repository.DeleteVersionsAbove(stagingArea, targetHeight)
	re.repository.StageChainState(stagingArea, targetState)

	err = re.repository.Commit(stagingArea)
	if err != nil {
		return nil, err
	}
	re.repository.ResetCaches()

	log.Debugf("Rolled back %d views down to view %d", current.ID-targetHeight, targetHeight)
	return append(r.events, validatorEvents...), nil
}

// revertView undoes the view at height: rewards, then transactions,
// then settled scheduled transactions, each in reverse order. The
// view's records are deleted afterwards.
func (r *rollback) revertView(height uint64) error {
	view, err := r.repository.View(r.stagingArea, height)
	if err != nil {
		return err
	}

	for i := len(view.Rewards) - 1; i >= 0; i-- {
		err := r.revertReward(view.Rewards[i])
		if err != nil {
			return err
		}
	}
	for i := len(view.Transactions) - 1; i >= 0; i-- {
		err := r.revertTransaction(view, view.Transactions[i])
		if err != nil {
			return err
		}
	}
	for i := len(view.ScheduledTransactions) - 1; i >= 0; i-- {
		err := r.revertSettlement(view.ScheduledTransactions[i])
		if err != nil {
			return err
		}
	}

	for _, blockHash := range view.Blocks {
		r.repository.DeleteBlock(r.stagingArea, blockHash)
	}
	for _, voteHash := range view.Votes {
		r.repository.DeleteVote(r.stagingArea, voteHash)
	}
	err = r.repository.DeleteView(r.stagingArea, view)
	if err != nil {
		return err
	}
	r.repository.DeleteChainStateSnapshot(r.stagingArea, height)
	log.Tracef("Reverted view %d", height)
	return nil
}

// checkLedgers compares every ledger the rollback touched with the
// version the store holds for targetHeight
func (r *rollback) checkLedgers(targetHeight uint64) error {
	for _, ledger := range r.ledgers.DirtyLedgers() {
		expected, err := r.repository.LedgerAt(r.stagingArea, ledger.Address, targetHeight)
		if database.IsNotFoundError(err) {
			expected = externalapi.NewLedger(ledger.Address)
		} else if err != nil {
			return err
		}
		if ledger.Balance != expected.Balance || ledger.Pending != expected.Pending {
			return errors.Errorf("reverted ledger of %s has balance %d and pending %d, but the ledger "+
				"at view %d has balance %d and pending %d", ledger.Address, ledger.Balance, ledger.Pending,
				targetHeight, expected.Balance, expected.Pending)
		}
		r.events = append(r.events, &externalapi.Event{
			Type:    externalapi.EventTypeLedgerChanged,
			Height:  targetHeight,
			Address: ledger.Address,
			Ledger:  ledger.Clone(),
		})
	}
	return nil
}

// checkTokens compares every token the rollback touched with the
// version the store holds for targetHeight
func (r *rollback) checkTokens(targetHeight uint64) error {
	for tokenID, token := range r.tokens {
		tokenID := tokenID
		expected, err := r.repository.TokenAt(r.stagingArea, &tokenID, targetHeight)
		if database.IsNotFoundError(err) {
			expected = nil
		} else if err != nil {
			return err
		}
		if !token.Equal(expected) {
			return errors.Errorf("reverted token %s is %v, but the token at view %d is %v",
				&tokenID, token, targetHeight, expected)
		}
	}
	return nil
}

// changedValidators returns a ValidatorChanged event for every
// validator whose latest version differs from its version at
// targetHeight
func (r *rollback) changedValidators(targetHeight uint64) ([]*externalapi.Event, error) {
	latest, err := r.repository.AllValidators(model.NewStagingArea())
	if err != nil {
		return nil, err
	}
	var events []*externalapi.Event
	for _, validator := range latest {
		restored, err := r.repository.ValidatorAt(r.stagingArea, validator.NodeAddress, targetHeight)
		if database.IsNotFoundError(err) {
			restored = nil
		} else if err != nil {
			return nil, err
		}
		if restored.Equal(validator) {
			continue
		}
		events = append(events, &externalapi.Event{
			Type:      externalapi.EventTypeValidatorChanged,
			Height:    targetHeight,
			Address:   validator.NodeAddress,
			Validator: restored,
		})
	}
	return events, nil
}
