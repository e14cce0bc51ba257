package consensusstatemachine

import (
	"github.com/viewledger/viewd/domain/consensus/model"
)

// finishCommit records the outcome of a commit attempt. A failed
// attempt discards everything the state cache holds and reloads it from
// the store, so that the cache never shows state the store did not
// commit.
func (csm *consensusStateMachine) finishCommit(err *error) {
	if *err == nil {
		csm.setState(model.MachineStateCommitted)
		return
	}
	csm.setState(model.MachineStateAborted)
	log.Warnf("Commit aborted, reloading the state cache: %s", *err)
	csm.reloadCache()
}

func (csm *consensusStateMachine) reloadCache() {
	csm.cache.Clear()
	csm.repository.ResetCaches()
	err := csm.cache.Reload(csm.repository)
	if err != nil {
		log.Errorf("Failed to reload the state cache, admission is suspended: %+v", err)
	}
}
