package consensusstatemachine

import (
	"github.com/viewledger/viewd/domain/consensus/database/serialization"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/multiset"
)

// commit stages the touched ledgers and validators together with
// chainState, and durably commits stagingArea. It returns the events
// describing the committed changes, the given domain events last.
func (csm *consensusStateMachine) commit(stagingArea *model.StagingArea, view *externalapi.View,
	chainState *externalapi.ChainState, domainEvents []*externalapi.Event) ([]*externalapi.Event, error) {

	ledgers := csm.cache.LedgerWorkingSet()
	validators := csm.cache.ValidatorWorkingSet()
	dirtyLedgers := ledgers.DirtyLedgers()
	dirtyValidators := validators.DirtyValidators()

	err := updateLedgerCommitment(chainState, ledgers, dirtyLedgers)
	if err != nil {
		return nil, err
	}
	for _, ledger := range dirtyLedgers {
		err := csm.repository.StageLedger(stagingArea, view.ID, ledger)
		if err != nil {
			return nil, err
		}
	}
	for _, validator := range dirtyValidators {
		err := csm.repository.StageValidator(stagingArea, view.ID, validator)
		if err != nil {
			return nil, err
		}
	}
	csm.repository.StageChainState(stagingArea, chainState)

	err = csm.repository.Commit(stagingArea)
	if err != nil {
		return nil, err
	}
	ledgers.MarkCommitted()
	validators.MarkCommitted()
	csm.cache.SetCurrent(view, chainState)

	events := make([]*externalapi.Event, 0, 1+len(dirtyLedgers)+len(dirtyValidators)+len(domainEvents))
	events = append(events, &externalapi.Event{
		Type:       externalapi.EventTypeChainStateChanged,
		Height:     view.ID,
		ChainState: chainState.Clone(),
	})
	for _, ledger := range dirtyLedgers {
		events = append(events, &externalapi.Event{
			Type:    externalapi.EventTypeLedgerChanged,
			Height:  view.ID,
			Address: ledger.Address,
			Ledger:  ledger,
		})
	}
	for _, validator := range dirtyValidators {
		events = append(events, &externalapi.Event{
			Type:      externalapi.EventTypeValidatorChanged,
			Height:    view.ID,
			Address:   validator.NodeAddress,
			Validator: validator,
		})
	}
	return append(events, domainEvents...), nil
}

// updateLedgerCommitment replaces the committed version of every dirty
// ledger in the ledger commitment of chainState
func updateLedgerCommitment(chainState *externalapi.ChainState, ledgers model.LedgerWorkingSet,
	dirtyLedgers []*externalapi.Ledger) error {

	ledgerCommitment, err := multiset.FromBytes(chainState.LedgerCommitment)
	if err != nil {
		return err
	}
	for _, ledger := range dirtyLedgers {
		if original, ok := ledgers.Original(ledger.Address); ok {
			originalBytes, err := serialization.SerializeLedger(original)
			if err != nil {
				return err
			}
			ledgerCommitment.Remove(originalBytes)
		}
		ledgerBytes, err := serialization.SerializeLedger(ledger)
		if err != nil {
			return err
		}
		ledgerCommitment.Add(ledgerBytes)
	}
	chainState.LedgerCommitment = ledgerCommitment.Serialize()
	return nil
}
