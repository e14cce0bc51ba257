package consensusstatemachine

import (
	"math/big"

	"github.com/viewledger/viewd/domain/consensus/model"
)

// isFinalizing returns whether the counted stake of the votes of a view
// reaches FinalityThresholdPercent of the total active stake
func (csm *consensusStateMachine) isFinalizing(voteStake uint64, totalActiveStake uint64) bool {
	if voteStake == 0 {
		return false
	}
	votedPercent := new(big.Int).Mul(new(big.Int).SetUint64(voteStake), big.NewInt(100))
	requiredPercent := new(big.Int).Mul(new(big.Int).SetUint64(totalActiveStake),
		new(big.Int).SetUint64(csm.params.FinalityThresholdPercent))
	return votedPercent.Cmp(requiredPercent) >= 0
}

// finalize marks the predecessor of the committed view as final and
// prunes the versions that can no longer be rolled back to
func (csm *consensusStateMachine) finalize(commit *viewCommit) error {
	finalizedHeight := commit.view.ID - 1
	if finalizedHeight <= commit.chainState.LastFinalizedHeight {
		return nil
	}
	commit.chainState.LastFinalizedHeight = finalizedHeight

	for _, index := range model.AllVersionedIndices {
		err := csm.repository.DeleteNonLatestFromIndexBeforeHeight(commit.stagingArea, index, finalizedHeight)
		if err != nil {
			return err
		}
	}
	log.Debugf("Finalized view %d", finalizedHeight)
	return nil
}
