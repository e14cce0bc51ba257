package consensusstatemachine

import (
	"sync"
	"sync/atomic"

	"github.com/kaspanet/go-secp256k1"
	"github.com/viewledger/viewd/domain/chainconfig"
	"github.com/viewledger/viewd/domain/consensus/database"
	"github.com/viewledger/viewd/domain/consensus/model"
	"github.com/viewledger/viewd/domain/consensus/model/externalapi"
	"github.com/viewledger/viewd/domain/consensus/utils/consensushashing"
	"github.com/viewledger/viewd/domain/consensus/utils/signing"
)

// consensusStateMachine is the single writer of the chain. Every
// mutating entry point takes the write lock, and the methods with an
// Internal suffix expect it to be held already.
type consensusStateMachine struct {
	lock  sync.RWMutex
	state uint32

	params *chainconfig.Params

	repository        model.Repository
	cache             model.StateCache
	verifier          model.Verifier
	executor          model.Executor
	difficultyManager model.DifficultyManager
	rewardCalculator  model.RewardCalculator
	rollbackEngine    model.RollbackEngine
	sink              model.EffectSink

	validatorKey       *secp256k1.SchnorrKeyPair
	validatorPublicKey []byte
	validatorAddress   *externalapi.Address
}

// New instantiates a new ConsensusStateMachine. validatorKey may be nil
// for a node that does not vote.
func New(params *chainconfig.Params,
	repository model.Repository,
	cache model.StateCache,
	verifier model.Verifier,
	executor model.Executor,
	difficultyManager model.DifficultyManager,
	rewardCalculator model.RewardCalculator,
	rollbackEngine model.RollbackEngine,
	sink model.EffectSink,
	validatorKey *secp256k1.SchnorrKeyPair) (model.ConsensusStateMachine, error) {

	csm := &consensusStateMachine{
		params:            params,
		repository:        repository,
		cache:             cache,
		verifier:          verifier,
		executor:          executor,
		difficultyManager: difficultyManager,
		rewardCalculator:  rewardCalculator,
		rollbackEngine:    rollbackEngine,
		sink:              sink,
		validatorKey:      validatorKey,
	}

	if validatorKey != nil {
		publicKey, err := signing.SerializedPublicKey(validatorKey)
		if err != nil {
			return nil, err
		}
		csm.validatorPublicKey = publicKey
		csm.validatorAddress = consensushashing.NewWalletAddress(publicKey)
	}

	err := cache.Reload(repository)
	if err != nil {
		return nil, err
	}
	return csm, nil
}

func (csm *consensusStateMachine) State() model.MachineState {
	return model.MachineState(atomic.LoadUint32(&csm.state))
}

func (csm *consensusStateMachine) setState(state model.MachineState) {
	atomic.StoreUint32(&csm.state, uint32(state))
}

// ReadLocked runs f while holding the read lock
func (csm *consensusStateMachine) ReadLocked(f func() error) error {
	csm.lock.RLock()
	defer csm.lock.RUnlock()

	return f()
}

// WriteLocked runs f while holding the write lock
func (csm *consensusStateMachine) WriteLocked(f func() error) error {
	csm.lock.Lock()
	defer csm.lock.Unlock()

	return f()
}

func (csm *consensusStateMachine) ChainState() *externalapi.ChainState {
	csm.lock.RLock()
	defer csm.lock.RUnlock()

	return csm.cache.CurrentState().Clone()
}

func (csm *consensusStateMachine) CurrentView() *externalapi.View {
	csm.lock.RLock()
	defer csm.lock.RUnlock()

	return csm.cache.CurrentView().Clone()
}

// Ledger returns the committed ledger of address. An address that was
// never credited has an empty ledger.
func (csm *consensusStateMachine) Ledger(address *externalapi.Address) (*externalapi.Ledger, error) {
	csm.lock.RLock()
	defer csm.lock.RUnlock()

	ledger, err := csm.repository.Ledger(model.NewStagingArea(), address)
	if database.IsNotFoundError(err) {
		return externalapi.NewLedger(address), nil
	}
	return ledger, err
}

func (csm *consensusStateMachine) Validator(nodeAddress *externalapi.Address) (*externalapi.Validator, bool, error) {
	csm.lock.RLock()
	defer csm.lock.RUnlock()

	validator, err := csm.repository.Validator(model.NewStagingArea(), nodeAddress)
	if database.IsNotFoundError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return validator, true, nil
}

func (csm *consensusStateMachine) Validators() ([]*externalapi.Validator, error) {
	csm.lock.RLock()
	defer csm.lock.RUnlock()

	return csm.repository.AllValidators(model.NewStagingArea())
}

// IsValidator returns whether nodeAddress belongs to a validator that
// may vote: a seed validator or a validator with a locked stake
func (csm *consensusStateMachine) IsValidator(nodeAddress *externalapi.Address) (bool, error) {
	validator, found, err := csm.Validator(nodeAddress)
	if err != nil || !found {
		return false, err
	}
	return csm.isVotingValidator(validator), nil
}

func (csm *consensusStateMachine) isVotingValidator(validator *externalapi.Validator) bool {
	return validator.Stake > 0 || csm.params.IsSeedValidator(validator.PublicKey)
}

func (csm *consensusStateMachine) PendingCounts() (blocks, votes, transactions int) {
	csm.lock.RLock()
	defer csm.lock.RUnlock()

	return csm.cache.PendingCounts()
}
