package consensusstatemachine

import (
	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/ruleerrors"
)

// Rollback reverts every view above targetHeight and reloads the state
// cache from the store. Objects pending in the state cache are dropped.
func (csm *consensusStateMachine) Rollback(targetHeight uint64) error {
	return csm.WriteLocked(func() error {
		return csm.rollbackInternal(targetHeight)
	})
}

func (csm *consensusStateMachine) rollbackInternal(targetHeight uint64) (err error) {
	current := csm.cache.CurrentState()
	if current == nil {
		return errors.Wrapf(ruleerrors.ErrMissingGenesis, "cannot roll back to %d", targetHeight)
	}
	if targetHeight > current.ID {
		return errors.Errorf("cannot roll back to %d above the current view %d", targetHeight, current.ID)
	}
	if targetHeight == current.ID {
		return nil
	}

	csm.setState(model.MachineStateCommitting)
	defer csm.finishCommit(&err)

	csm.cache.Clear()
	events, err := csm.rollbackEngine.RollbackTo(targetHeight)
	if err != nil {
		return err
	}
	csm.reloadCache()
	if !csm.cache.IsLoaded() {
		return errors.Errorf("the state cache could not be reloaded after rolling back to %d", targetHeight)
	}

	log.Infof("Rolled back from view %d to view %d", current.ID, targetHeight)
	csm.sink.Publish(events...)
	csm.sink.Publish(&externalapi.Event{
		Type:       externalapi.EventTypeChainStateChanged,
		Height:     targetHeight,
		ChainState: csm.cache.CurrentState().Clone(),
	})
	return nil
}

// ReplayBundle admits the objects of bundle with the admission checks
// of AddBatch and commits its view. Signatures and proof of work are
// expected to be verified by the caller.
func (csm *consensusStateMachine) ReplayBundle(bundle *externalapi.ViewBundle) error {
	return csm.WriteLocked(func() error {
		return csm.replayBundleInternal(bundle)
	})
}

func (csm *consensusStateMachine) replayBundleInternal(bundle *externalapi.ViewBundle) error {
	err := csm.addBatchInternal(bundle.Blocks, bundle.Votes, bundle.Transactions)
	if err != nil {
		return err
	}
	return csm.addViewInternal(bundle.View, false, false)
}
