package consensusstatemachine

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/processes/transfer"
	"github.com/viewledger/viewd/domain/consensus/ruleerrors"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
)

// AddGenesis commits the view at height 0. It credits the genesis
// allocations and registers the seed validators with no stake.
func (csm *consensusStateMachine) AddGenesis() error {
	return csm.WriteLocked(csm.addGenesisInternal)
}

func (csm *consensusStateMachine) addGenesisInternal() (err error) {
	if !csm.cache.IsLoaded() {
		return errors.WithStack(ruleerrors.ErrCacheNotLoaded)
	}
	stagingArea := model.NewStagingArea()
	hasChainState, err := csm.repository.HasChainState(stagingArea)
	if err != nil {
		return err
	}
	if hasChainState {
		return errors.Wrapf(ruleerrors.ErrGenesisExists, "cannot add genesis to a non empty store")
	}

	csm.setState(model.MachineStateCommitting)
	defer csm.finishCommit(&err)

	view := &externalapi.View{
		ID:        0,
		Timestamp: csm.params.GenesisTimestamp,
		LastHash:  externalapi.NewZeroHash(),
	}

	ledgers := csm.cache.LedgerWorkingSet()
	validators := csm.cache.ValidatorWorkingSet()
	transfers := transfer.New(ledgers, validators)
	for _, allocation := range csm.params.GenesisAllocations {
		_, err := transfers.To(allocation.Address, allocation.Amount)
		if err != nil {
			return err
		}
	}
	for _, publicKey := range csm.params.SeedValidatorKeys {
		nodeAddress := consensushashing.NewWalletAddress(publicKey)
		validators.SetValidator(&externalapi.Validator{
			NodeAddress:   nodeAddress,
			RewardAddress: nodeAddress,
			PublicKey:     publicKey,
			Stake:         0,
			Active:        false,
		})
	}

	chainState := &externalapi.ChainState{
		ID:                0,
		ViewHash:          consensushashing.ViewHash(view),
		Weight:            big.NewInt(0),
		CurrentDifficulty: csm.difficultyManager.StartingDifficulty(),
		TotalWork:         big.NewInt(0),
		BlockReward:       csm.rewardCalculator.BlockReward(0),
		Timestamp:         view.Timestamp,
	}

	err = csm.repository.StageView(stagingArea, view)
	if err != nil {
		return err
	}
	events, err := csm.commit(stagingArea, view, chainState, nil)
	if err != nil {
		return err
	}
	csm.sink.Publish(events...)
	log.Infof("Committed the genesis view %s", chainState.ViewHash)
	return nil
}
